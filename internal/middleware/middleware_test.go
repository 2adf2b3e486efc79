package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.paths = append(r.paths, path)
	r.statuses = append(r.statuses, status)
}

func newRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:id", JWT(stubValidator{claims: claims}), RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r http.Handler, path, auth string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestJWTRejectsMissingAndMalformedTokens(t *testing.T) {
	r := newRouter(&models.JWTClaims{UserID: "spc-1", Role: models.RoleSPC}, Operators...)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/students/stu-1", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/students/stu-1", "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/students/stu-1", "Bearer bad"))
	assert.Equal(t, http.StatusOK, serve(r, "/students/stu-1", "Bearer good"))
}

func TestRBACSelf(t *testing.T) {
	r := newRouter(&models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}, OperatorsOr(Self)...)

	assert.Equal(t, http.StatusOK, serve(r, "/students/stu-1", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, serve(r, "/students/stu-2", "Bearer good"))
}

func TestRBACRoles(t *testing.T) {
	recruiter := &models.JWTClaims{UserID: "rec-1", Role: models.RoleRecruiter}
	assert.Equal(t, http.StatusForbidden, serve(newRouter(recruiter, Operators...), "/students/stu-1", "Bearer good"))
	assert.Equal(t, http.StatusOK, serve(newRouter(recruiter, OperatorsOr(string(models.RoleRecruiter))...), "/students/stu-1", "Bearer good"))
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RBAC(Operators...), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/x", ""))
}

func TestOptionalJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seen bool
	r.GET("/x", OptionalJWT(stubValidator{claims: &models.JWTClaims{UserID: "u"}}), func(c *gin.Context) {
		_, seen = c.Get(ContextUserKey)
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, serve(r, "/x", "Bearer bad"))
	assert.False(t, seen)
	require.Equal(t, http.StatusOK, serve(r, "/x", "Bearer good"))
	assert.True(t, seen)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/postings/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, "/postings/p-1", "")
	serve(r, "/nowhere", "")

	assert.Equal(t, []string{"/postings/:id", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNotFound}, observer.statuses)
}
