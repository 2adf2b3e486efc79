package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "placement-api", Expiry: 15 * time.Minute})

	token, expiresAt, err := svc.IssueToken("spc-1", models.RoleSPC, "spc@college.test", "Priya Coordinator")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "spc-1", claims.UserID)
	assert.Equal(t, models.RoleSPC, claims.Role)
	assert.Equal(t, "Priya Coordinator", claims.FullName)
}

func TestAuthServiceValidateRejects(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "placement-api"})
	token, _, err := svc.IssueToken("stu-1", models.RoleStudent, "", "")
	require.NoError(t, err)

	other := NewAuthService(AuthConfig{Secret: "other", Issuer: "placement-api"})
	_, err = other.ValidateToken(token)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))

	wrongIssuer := NewAuthService(AuthConfig{Secret: "secret", Issuer: "someone-else"})
	_, err = wrongIssuer.ValidateToken(token)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))

	later := NewAuthService(AuthConfig{Secret: "secret", Issuer: "placement-api"})
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ValidateToken(token)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))

	_, err = svc.ValidateToken("not-a-token")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))
}

func TestAuthServiceIssueRequiresSecretAndUser(t *testing.T) {
	_, _, err := NewAuthService(AuthConfig{}).IssueToken("stu-1", models.RoleStudent, "", "")
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(err))

	_, _, err = NewAuthService(AuthConfig{Secret: "secret"}).IssueToken(" ", models.RoleStudent, "", "")
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}
