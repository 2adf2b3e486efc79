package eligibility

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/models"
)

func cseJob() models.Posting {
	return models.Posting{
		ID:   "P1",
		Kind: models.PostingKindJob,
		Requirement: models.PostingRequirement{
			Branches: models.BranchRequirement{BTech: []string{"Computer Science & Engineering"}},
			CGPA:     "Minimum 7.0 CGPA",
		},
	}
}

func finalYearStudent(branch string, cgpa float64) models.StudentProfile {
	return models.StudentProfile{
		ID:                    "S1",
		Program:               "B.Tech",
		Branch:                branch,
		Year:                  "4",
		CGPA:                  cgpa,
		AvailableForPlacement: true,
		ProfileComplete:       true,
	}
}

func resultFor(t *testing.T, v Verdict, c Criterion) Result {
	t.Helper()
	for _, r := range v.Results {
		if r.Criterion == c {
			return r
		}
	}
	t.Fatalf("criterion %s missing from verdict", c)
	return Result{}
}

func defaultEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	table, err := DefaultAliasTable()
	require.NoError(t, err)
	return NewEvaluator(table)
}

func TestEvaluateAbbreviatedBranchNeedsAliasTable(t *testing.T) {
	student := finalYearStudent("CSE", 7.2)

	plain := NewEvaluator(nil).Evaluate(student, cseJob())
	assert.Equal(t, StatusFail, resultFor(t, plain, CriterionBranch).Status)
	assert.Equal(t, StatusPass, resultFor(t, plain, CriterionCGPA).Status)
	assert.False(t, plain.Eligible)

	withAliases := defaultEvaluator(t).Evaluate(student, cseJob())
	assert.Equal(t, StatusPass, resultFor(t, withAliases, CriterionBranch).Status)
	assert.True(t, withAliases.Eligible)
	assert.False(t, withAliases.HasWarnings)
}

func TestEvaluateFullBranchNamePasses(t *testing.T) {
	v := NewEvaluator(nil).Evaluate(finalYearStudent("Computer Science & Engineering", 7.2), cseJob())
	assert.Equal(t, StatusPass, resultFor(t, v, CriterionBranch).Status)
	assert.Equal(t, StatusPass, resultFor(t, v, CriterionCGPA).Status)
	assert.True(t, v.Eligible)
	assert.Empty(t, v.Failed())
}

func TestEvaluateLowCGPAIsIneligible(t *testing.T) {
	v := defaultEvaluator(t).Evaluate(finalYearStudent("Computer Science & Engineering", 6.5), cseJob())
	assert.Equal(t, StatusFail, resultFor(t, v, CriterionCGPA).Status)
	assert.False(t, v.Eligible)
	require.Len(t, v.Failed(), 1)
	assert.Equal(t, CriterionCGPA, v.Failed()[0].Criterion)
}

func TestEvaluateResultOrder(t *testing.T) {
	job := NewEvaluator(nil).Evaluate(finalYearStudent("CSE", 8), cseJob())
	var got []Criterion
	for _, r := range job.Results {
		got = append(got, r.Criterion)
	}
	assert.Equal(t, []Criterion{CriterionBranch, CriterionCGPA, CriterionAcademicYear, CriterionBacklog, CriterionAvailability}, got)

	posting := cseJob()
	posting.Kind = models.PostingKindInternship
	internship := NewEvaluator(nil).Evaluate(finalYearStudent("CSE", 8), posting)
	require.Len(t, internship.Results, 4)
	for _, r := range internship.Results {
		assert.NotEqual(t, CriterionAvailability, r.Criterion)
	}
}

func TestAllBranchesApplicableOverridesLists(t *testing.T) {
	e := defaultEvaluator(t)
	for _, branch := range []string{"", "Underwater Basket Weaving", "CSE"} {
		posting := cseJob()
		posting.Requirement.AllBranchesApplicable = true
		posting.Requirement.Branches.BTech = []string{"Civil"}
		v := e.Evaluate(finalYearStudent(branch, 9), posting)
		assert.Equal(t, StatusPass, resultFor(t, v, CriterionBranch).Status, branch)
	}
}

func TestBranchRule(t *testing.T) {
	cases := []struct {
		name     string
		branch   string
		req      models.BranchRequirement
		programs []string
		program  string
		want     Status
	}{
		{name: "no constraint", branch: "Civil", want: StatusPass},
		{name: "empty student branch", branch: " ", req: models.BranchRequirement{BTech: []string{"Civil"}}, want: StatusWarning},
		{name: "student contains listed", branch: "Mechanical Engineering", req: models.BranchRequirement{BTech: []string{"Mechanical"}}, want: StatusPass},
		{name: "listed contains student", branch: "Mech", req: models.BranchRequirement{BTech: []string{"Mechanical Engineering"}}, want: StatusPass},
		{name: "short name inside listed", branch: "CS", req: models.BranchRequirement{BTech: []string{"CSE (AI & ML)"}}, want: StatusPass},
		{name: "short name inside combined list entry", branch: "EC", req: models.BranchRequirement{BTech: []string{"ECE/EEE"}}, want: StatusPass},
		{name: "short name prefix", branch: "EE", req: models.BranchRequirement{BTech: []string{"EEE"}}, want: StatusPass},
		{name: "containment is plain substring", branch: "IT", req: models.BranchRequirement{BTech: []string{"Architecture"}}, want: StatusPass},
		{name: "case and punctuation", branch: "electronics & communication", req: models.BranchRequirement{MTech: []string{"Electronics and Communication Engg."}}, want: StatusPass},
		{name: "later level matches", branch: "Data Science", req: models.BranchRequirement{BTech: []string{"Civil"}, Minors: []string{"Data Science"}}, want: StatusPass},
		{name: "no level matches", branch: "Chemical", req: models.BranchRequirement{BTech: []string{"Civil"}, MTech: []string{"Structural"}}, want: StatusFail},
		{name: "program only match", programs: []string{"B.Tech"}, program: "BTech", want: StatusPass},
		{name: "program only mismatch", programs: []string{"MBA"}, program: "B.Tech", want: StatusFail},
		{name: "program missing", programs: []string{"MBA"}, want: StatusWarning},
	}
	e := NewEvaluator(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			student := models.StudentProfile{Branch: tc.branch, Program: tc.program}
			got := e.checkBranch(student, models.PostingRequirement{Branches: tc.req, Programs: tc.programs})
			assert.Equal(t, tc.want, got.Status, got.Message)
		})
	}
}

func TestCGPARule(t *testing.T) {
	cases := []struct {
		text string
		cgpa float64
		want Status
	}{
		{"Minimum 7.0 CGPA", 7.0, StatusPass},
		{"Minimum 7.0 CGPA", 6.99, StatusFail},
		{"7.5/10", 7.4, StatusFail},
		{"CGPA above 8", 8.1, StatusPass},
		{"8", 0, StatusFail},
		{"Good academic record", 9.5, StatusWarning},
		{"   ", 2, StatusPass},
	}
	for _, tc := range cases {
		got := checkCGPA(models.StudentProfile{CGPA: tc.cgpa}, models.PostingRequirement{CGPA: tc.text})
		assert.Equal(t, tc.want, got.Status, "%q with %.2f", tc.text, tc.cgpa)
	}
}

func TestInternshipYearRule(t *testing.T) {
	passing := 2026
	cases := []struct {
		name     string
		student  models.StudentProfile
		accepted []string
		want     Status
	}{
		{name: "no restriction", student: models.StudentProfile{Year: "1"}, want: StatusPass},
		{name: "ordinal", student: models.StudentProfile{Year: "3"}, accepted: []string{"3rd Year"}, want: StatusPass},
		{name: "word", student: models.StudentProfile{Year: "3"}, accepted: []string{"Third year"}, want: StatusPass},
		{name: "year n", student: models.StudentProfile{Year: "3"}, accepted: []string{"Year-3"}, want: StatusPass},
		{name: "mismatch", student: models.StudentProfile{Year: "2"}, accepted: []string{"3rd year", "4th year"}, want: StatusFail},
		{name: "passing year", student: models.StudentProfile{Year: "3", PassingYear: &passing}, accepted: []string{"2026 batch"}, want: StatusPass},
		{name: "alumni", student: models.StudentProfile{Year: "Alumni"}, accepted: []string{"Graduates", "Passed out"}, want: StatusPass},
		{name: "final year", student: models.StudentProfile{Year: "4", Program: "B.Tech"}, accepted: []string{"Final Year"}, want: StatusPass},
		{name: "year unknown", student: models.StudentProfile{}, accepted: []string{"3rd year"}, want: StatusWarning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := checkYear(tc.student, models.PostingKindInternship, models.PostingRequirement{EligibleYears: tc.accepted})
			assert.Equal(t, tc.want, got.Status, got.Message)
		})
	}
}

func TestJobYearRuleIsAdvisory(t *testing.T) {
	req := models.PostingRequirement{EligibleYears: []string{"1st year"}}
	assert.Equal(t, StatusPass, checkYear(models.StudentProfile{Year: "4", Program: "B.Tech"}, models.PostingKindJob, req).Status)
	assert.Equal(t, StatusPass, checkYear(models.StudentProfile{Year: "2", Program: "M.Tech"}, models.PostingKindJob, req).Status)
	assert.Equal(t, StatusPass, checkYear(models.StudentProfile{Year: "Alumni"}, models.PostingKindJob, req).Status)
	assert.Equal(t, StatusWarning, checkYear(models.StudentProfile{Year: "3", Program: "B.Tech"}, models.PostingKindJob, req).Status)
	assert.Equal(t, StatusWarning, checkYear(models.StudentProfile{Year: "4", Program: "Integrated M.Tech"}, models.PostingKindJob, req).Status)
}

func TestBacklogRule(t *testing.T) {
	cases := []struct {
		other    string
		backlogs int
		want     Status
	}{
		{"No backlogs allowed", 0, StatusPass},
		{"No backlogs allowed", 1, StatusFail},
		{"Candidates must have a CLEAR ACADEMIC record", 2, StatusFail},
		{"no pending arrears", 0, StatusPass},
		{"", 2, StatusWarning},
		{"Good communication skills", 0, StatusPass},
	}
	for _, tc := range cases {
		got := checkBacklog(models.StudentProfile{ActiveBacklogs: tc.backlogs}, models.PostingRequirement{OtherRequirement: tc.other})
		assert.Equal(t, tc.want, got.Status, "%q with %d", tc.other, tc.backlogs)
	}
}

func TestAvailabilityRule(t *testing.T) {
	assert.Equal(t, StatusPass, checkAvailability(models.StudentProfile{ProfileComplete: true, AvailableForPlacement: true}).Status)
	assert.Equal(t, StatusFail, checkAvailability(models.StudentProfile{ProfileComplete: true}).Status)
	assert.Equal(t, StatusWarning, checkAvailability(models.StudentProfile{AvailableForPlacement: true}).Status)
}

func TestWarningsDoNotBlock(t *testing.T) {
	student := finalYearStudent("CSE", 8)
	student.ActiveBacklogs = 3
	student.Year = "3"
	v := defaultEvaluator(t).Evaluate(student, cseJob())
	assert.True(t, v.Eligible)
	assert.True(t, v.HasWarnings)
}

func TestEvaluateConcurrentCallsAgree(t *testing.T) {
	e := defaultEvaluator(t)
	student := finalYearStudent("CSE", 7.2)
	want := e.Evaluate(student, cseJob())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, e.Evaluate(student, cseJob()))
		}()
	}
	wg.Wait()
}
