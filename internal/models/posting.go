package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostingKind distinguishes job openings from internships.
type PostingKind string

const (
	PostingKindJob        PostingKind = "job"
	PostingKindInternship PostingKind = "internship"
)

// BranchLevel names a program level that carries its own branch list.
type BranchLevel string

const (
	LevelBTech  BranchLevel = "btech"
	LevelMTech  BranchLevel = "mtech"
	LevelMSc    BranchLevel = "msc"
	LevelMBA    BranchLevel = "mba"
	LevelMPlan  BranchLevel = "mplan"
	LevelPhD    BranchLevel = "phd"
	LevelMinors BranchLevel = "minors"
)

// BranchRequirement lists accepted branches per program level.
type BranchRequirement struct {
	BTech  []string `json:"btech,omitempty"`
	MTech  []string `json:"mtech,omitempty"`
	MSc    []string `json:"msc,omitempty"`
	MBA    []string `json:"mba,omitempty"`
	MPlan  []string `json:"mplan,omitempty"`
	PhD    []string `json:"phd,omitempty"`
	Minors []string `json:"minors,omitempty"`
}

// LevelBranches pairs a level with its accepted branches.
type LevelBranches struct {
	Level    BranchLevel
	Branches []string
}

// Levels returns the non-empty branch lists in evaluation order.
func (b BranchRequirement) Levels() []LevelBranches {
	all := []LevelBranches{
		{LevelBTech, b.BTech},
		{LevelMTech, b.MTech},
		{LevelMSc, b.MSc},
		{LevelMBA, b.MBA},
		{LevelMPlan, b.MPlan},
		{LevelPhD, b.PhD},
		{LevelMinors, b.Minors},
	}
	out := make([]LevelBranches, 0, len(all))
	for _, lb := range all {
		if branches := nonBlank(lb.Branches); len(branches) > 0 {
			out = append(out, LevelBranches{Level: lb.Level, Branches: branches})
		}
	}
	return out
}

// PostingRequirement is shared by job and internship postings.
type PostingRequirement struct {
	Programs              []string          `json:"programs,omitempty"`
	Branches              BranchRequirement `json:"branches"`
	AllBranchesApplicable bool              `json:"allBranchesApplicable"`
	CGPA                  string            `json:"cgpa,omitempty"`
	EligibleYears         []string          `json:"eligibleYears,omitempty"`
	OtherRequirement      string            `json:"otherRequirement,omitempty"`
}

// Value implements driver.Valuer so the requirement is stored as JSONB.
func (r PostingRequirement) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB columns.
func (r *PostingRequirement) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = PostingRequirement{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported requirement type %T", src)
	}
}

// Posting is a job or internship opening.
type Posting struct {
	ID           string             `db:"id" json:"id"`
	Kind         PostingKind        `db:"kind" json:"kind"`
	Company      string             `db:"company" json:"company"`
	Position     string             `db:"position" json:"position"`
	Description  string             `db:"description" json:"description,omitempty"`
	Location     string             `db:"location" json:"location,omitempty"`
	Compensation string             `db:"compensation" json:"compensation,omitempty"`
	Requirement  PostingRequirement `db:"requirement" json:"requirement"`
	Deadline     *time.Time         `db:"deadline" json:"deadline,omitempty"`
	CreatedBy    string             `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updatedAt"`
}

// PostingFilter narrows posting listings.
type PostingFilter struct {
	Kind    PostingKind
	Company string
	Limit   int
	Offset  int
}

func nonBlank(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
