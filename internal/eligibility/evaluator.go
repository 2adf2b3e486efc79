// Package eligibility decides whether a student qualifies for a posting.
// Evaluation is pure: no I/O, no shared mutable state.
package eligibility

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/placement-api/internal/models"
)

// Criterion identifies one rule of the verdict.
type Criterion string

const (
	CriterionBranch       Criterion = "Branch/Program"
	CriterionCGPA         Criterion = "CGPA"
	CriterionAcademicYear Criterion = "Academic Year"
	CriterionBacklog      Criterion = "Backlog Standing"
	CriterionAvailability Criterion = "Placement Availability"
)

// Status is the outcome of one criterion.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
)

// Result is the outcome of one criterion.
type Result struct {
	Criterion    Criterion `json:"criterion"`
	Status       Status    `json:"status"`
	Requirement  string    `json:"requirement"`
	StudentValue string    `json:"studentValue"`
	Message      string    `json:"message"`
}

// Verdict is the derived, never persisted eligibility view.
type Verdict struct {
	PostingID   string             `json:"postingId"`
	StudentID   string             `json:"studentId"`
	Kind        models.PostingKind `json:"kind"`
	Eligible    bool               `json:"eligible"`
	HasWarnings bool               `json:"hasWarnings"`
	Results     []Result           `json:"results"`
}

// Failed returns the criteria that failed.
func (v Verdict) Failed() []Result {
	var out []Result
	for _, r := range v.Results {
		if r.Status == StatusFail {
			out = append(out, r)
		}
	}
	return out
}

var (
	numberPattern     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	backlogExclusions = []string{"no backlog", "no pending", "clear academic"}
)

// Evaluator applies the eligibility rules. The zero value matches branches
// by substring only; use NewEvaluator to add an alias table.
type Evaluator struct {
	aliases *AliasTable
}

// NewEvaluator builds an evaluator backed by aliases, which may be nil.
func NewEvaluator(aliases *AliasTable) *Evaluator {
	return &Evaluator{aliases: aliases}
}

// Evaluate produces the verdict of student against posting. Results are
// ordered branch, CGPA, academic year, backlog and, for jobs, availability.
func (e *Evaluator) Evaluate(student models.StudentProfile, posting models.Posting) Verdict {
	req := posting.Requirement
	results := []Result{
		e.checkBranch(student, req),
		checkCGPA(student, req),
		checkYear(student, posting.Kind, req),
		checkBacklog(student, req),
	}
	if posting.Kind != models.PostingKindInternship {
		results = append(results, checkAvailability(student))
	}

	verdict := Verdict{
		PostingID: posting.ID,
		StudentID: student.ID,
		Kind:      posting.Kind,
		Eligible:  true,
		Results:   results,
	}
	for _, r := range results {
		switch r.Status {
		case StatusFail:
			verdict.Eligible = false
		case StatusWarning:
			verdict.HasWarnings = true
		}
	}
	return verdict
}

func (e *Evaluator) checkBranch(student models.StudentProfile, req models.PostingRequirement) Result {
	res := Result{Criterion: CriterionBranch, StudentValue: student.Branch}
	if req.AllBranchesApplicable {
		res.Requirement = "All branches"
		res.Status = StatusPass
		res.Message = "Open to all branches"
		return res
	}

	levels := req.Branches.Levels()
	programs := nonBlank(req.Programs)
	if len(levels) == 0 {
		if len(programs) == 0 {
			res.Requirement = "No branch restriction"
			res.Status = StatusPass
			res.Message = "No branch restriction"
			return res
		}
		res.Requirement = strings.Join(programs, ", ")
		res.StudentValue = student.Program
		for _, program := range programs {
			if e.matches(student.Program, program) {
				res.Status = StatusPass
				res.Message = fmt.Sprintf("Program %s is accepted", student.Program)
				return res
			}
		}
		if strings.TrimSpace(student.Program) == "" {
			res.Status = StatusWarning
			res.Message = "Program not set on profile"
			return res
		}
		res.Status = StatusFail
		res.Message = fmt.Sprintf("Program %s is not accepted", student.Program)
		return res
	}

	res.Requirement = describeLevels(levels)
	if strings.TrimSpace(student.Branch) == "" {
		res.Status = StatusWarning
		res.Message = "Branch not set on profile"
		return res
	}
	for _, level := range levels {
		for _, branch := range level.Branches {
			if e.matches(student.Branch, branch) {
				res.Status = StatusPass
				res.Message = fmt.Sprintf("Branch matches %s (%s)", branch, level.Level)
				return res
			}
		}
	}
	res.Status = StatusFail
	res.Message = fmt.Sprintf("Branch %s is not in the accepted list", student.Branch)
	return res
}

// matches compares a student value with one accepted value: substring
// containment in either direction after normalisation, then the alias table.
func (e *Evaluator) matches(studentValue, accepted string) bool {
	s, a := normalize(studentValue), normalize(accepted)
	if s == "" || a == "" {
		return false
	}
	if strings.Contains(s, a) || strings.Contains(a, s) {
		return true
	}
	if compact(s) == compact(a) {
		return true
	}
	if e == nil || e.aliases == nil {
		return false
	}
	sid, ok := e.aliases.Canonical(s)
	if !ok {
		return false
	}
	aid, ok := e.aliases.Canonical(a)
	return ok && sid == aid
}

func describeLevels(levels []models.LevelBranches) string {
	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("%s: %s", level.Level, strings.Join(level.Branches, ", ")))
	}
	return strings.Join(parts, "; ")
}

func checkCGPA(student models.StudentProfile, req models.PostingRequirement) Result {
	res := Result{
		Criterion:    CriterionCGPA,
		Requirement:  strings.TrimSpace(req.CGPA),
		StudentValue: strconv.FormatFloat(student.CGPA, 'f', 2, 64),
	}
	if res.Requirement == "" {
		res.Requirement = "No CGPA requirement"
		res.Status = StatusPass
		res.Message = "No CGPA requirement"
		return res
	}
	token := numberPattern.FindString(res.Requirement)
	threshold, err := strconv.ParseFloat(token, 64)
	if token == "" || err != nil {
		res.Status = StatusWarning
		res.Message = "CGPA requirement format unclear"
		return res
	}
	if student.CGPA >= threshold {
		res.Status = StatusPass
		res.Message = fmt.Sprintf("CGPA %.2f meets minimum %g", student.CGPA, threshold)
		return res
	}
	res.Status = StatusFail
	res.Message = fmt.Sprintf("CGPA %.2f is below minimum %g", student.CGPA, threshold)
	return res
}

func checkYear(student models.StudentProfile, kind models.PostingKind, req models.PostingRequirement) Result {
	res := Result{Criterion: CriterionAcademicYear, StudentValue: student.Year}
	if student.PassingYear != nil {
		res.StudentValue = fmt.Sprintf("%s (passing %d)", student.Year, *student.PassingYear)
	}

	if kind == models.PostingKindInternship {
		accepted := nonBlank(req.EligibleYears)
		if len(accepted) == 0 {
			res.Requirement = "No year restriction"
			res.Status = StatusPass
			res.Message = "No year restriction"
			return res
		}
		res.Requirement = strings.Join(accepted, ", ")
		spellings := yearSpellings(student)
		if len(spellings) == 0 {
			res.Status = StatusWarning
			res.Message = "Year of study not set on profile"
			return res
		}
		for _, entry := range accepted {
			if acceptsYear(entry, spellings) {
				res.Status = StatusPass
				res.Message = fmt.Sprintf("Year matches %s", entry)
				return res
			}
		}
		res.Status = StatusFail
		res.Message = "Year of study is not in the accepted list"
		return res
	}

	res.Requirement = "Final year or alumni preferred"
	switch {
	case isAlumni(student):
		res.Status = StatusPass
		res.Message = "Alumni"
	case isFinalYear(student):
		res.Status = StatusPass
		res.Message = "Final-year student"
	default:
		res.Status = StatusWarning
		res.Message = "Jobs usually target final-year students"
	}
	return res
}

func checkBacklog(student models.StudentProfile, req models.PostingRequirement) Result {
	res := Result{
		Criterion:    CriterionBacklog,
		Requirement:  "No explicit backlog policy",
		StudentValue: strconv.Itoa(student.ActiveBacklogs),
	}
	other := normalize(req.OtherRequirement)
	strict := false
	for _, phrase := range backlogExclusions {
		if strings.Contains(other, phrase) {
			strict = true
			break
		}
	}

	switch {
	case strict && student.ActiveBacklogs == 0:
		res.Requirement = "No active backlogs"
		res.Status = StatusPass
		res.Message = "No active backlogs"
	case strict:
		res.Requirement = "No active backlogs"
		res.Status = StatusFail
		res.Message = fmt.Sprintf("%d active backlog(s)", student.ActiveBacklogs)
	case student.ActiveBacklogs > 0:
		res.Status = StatusWarning
		res.Message = fmt.Sprintf("%d active backlog(s) may affect selection", student.ActiveBacklogs)
	default:
		res.Status = StatusPass
		res.Message = "No active backlogs"
	}
	return res
}

func checkAvailability(student models.StudentProfile) Result {
	res := Result{
		Criterion:    CriterionAvailability,
		Requirement:  "Available for placement",
		StudentValue: strconv.FormatBool(student.AvailableForPlacement),
	}
	switch {
	case !student.ProfileComplete:
		res.Status = StatusWarning
		res.Message = "Profile incomplete; availability not confirmed"
	case student.AvailableForPlacement:
		res.Status = StatusPass
		res.Message = "Available for placement"
	default:
		res.Status = StatusFail
		res.Message = "Not marked available for placement"
	}
	return res
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
