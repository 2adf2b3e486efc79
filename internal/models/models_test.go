package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationStatusValidAndTerminal(t *testing.T) {
	for _, status := range ApplicationStatuses {
		assert.True(t, status.Valid(), status)
	}
	assert.False(t, ApplicationStatus("applied").Valid())
	assert.False(t, ApplicationStatus("Hired").Valid())

	assert.False(t, ApplicationStatusApplied.Terminal())
	assert.False(t, ApplicationStatusReviewed.Terminal())
	assert.False(t, ApplicationStatusInterviewScheduled.Terminal())
	assert.True(t, ApplicationStatusSelected.Terminal())
	assert.True(t, ApplicationStatusRejected.Terminal())
	assert.True(t, ApplicationStatusWithdrawn.Terminal())
}

func TestBranchRequirementLevelsOrderAndBlanks(t *testing.T) {
	req := BranchRequirement{
		Minors: []string{"Data Science"},
		MTech:  []string{" ", ""},
		BTech:  []string{" Computer Science "},
	}
	levels := req.Levels()
	require.Len(t, levels, 2)
	assert.Equal(t, LevelBTech, levels[0].Level)
	assert.Equal(t, []string{"Computer Science"}, levels[0].Branches)
	assert.Equal(t, LevelMinors, levels[1].Level)
}

func TestPostingRequirementScanValue(t *testing.T) {
	in := PostingRequirement{CGPA: "7.0", Branches: BranchRequirement{BTech: []string{"ECE"}}}
	raw, err := in.Value()
	require.NoError(t, err)

	var out PostingRequirement
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.Equal(t, PostingRequirement{}, out)
	assert.Error(t, out.Scan(42))
}

func TestAttachmentsValueNil(t *testing.T) {
	raw, err := Attachments(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)
}

func TestClaimsActorFallsBackToEmail(t *testing.T) {
	claims := &JWTClaims{UserID: "u1", Role: RoleSPC, Email: "spc@college.edu"}
	assert.Equal(t, Actor{ID: "u1", Role: "SPC", Name: "spc@college.edu"}, claims.Actor())
	assert.True(t, RoleSPC.IsOperator())
	assert.False(t, RoleRecruiter.IsOperator())
}
