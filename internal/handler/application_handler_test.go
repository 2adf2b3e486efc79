package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-api/internal/dto"
	"github.com/noah-isme/placement-api/internal/middleware"
	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

type applicationServiceMock struct {
	createResp     *dto.ApplicationCreatedResponse
	createErr      error
	transitionErr  error
	lastPosting    string
	lastMeta       dto.SubmissionMeta
	lastQuery      dto.ApplicationQuery
	lastTransition dto.TransitionStatusRequest
	withdrawCalled bool
}

func (m *applicationServiceMock) Create(ctx context.Context, actor *models.JWTClaims, postingID string, req dto.CreateApplicationRequest, meta dto.SubmissionMeta) (*dto.ApplicationCreatedResponse, error) {
	m.lastPosting = postingID
	m.lastMeta = meta
	return m.createResp, m.createErr
}

func (m *applicationServiceMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Application, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return &models.Application{ID: id}, nil
}

func (m *applicationServiceMock) ListByPosting(ctx context.Context, postingID string, query dto.ApplicationQuery) ([]models.Application, *models.Pagination, error) {
	m.lastQuery = query
	return []models.Application{{ID: "app-1"}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (m *applicationServiceMock) ListByStudent(ctx context.Context, studentID string, query dto.ApplicationQuery) ([]models.Application, *models.Pagination, error) {
	m.lastQuery = query
	return []models.Application{}, &models.Pagination{Page: 1, PageSize: 50}, nil
}

func (m *applicationServiceMock) Transition(ctx context.Context, actor *models.JWTClaims, id string, req dto.TransitionStatusRequest) (*models.Application, error) {
	m.lastTransition = req
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	return &models.Application{ID: id, CurrentStatus: req.Status, Version: 2}, nil
}

func (m *applicationServiceMock) Withdraw(ctx context.Context, actor *models.JWTClaims, id string, req dto.WithdrawApplicationRequest) (*models.Application, error) {
	m.withdrawCalled = true
	return &models.Application{ID: id, CurrentStatus: models.ApplicationStatusWithdrawn}, nil
}

type summarizerMock struct{}

func (summarizerMock) SummarizeApplications(ctx context.Context, studentID string) (*dto.ApplicationSummary, error) {
	return &dto.ApplicationSummary{StudentID: studentID, Total: 3}, nil
}

func newTestContext(method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestApplicationHandlerCreate(t *testing.T) {
	mockSvc := &applicationServiceMock{createResp: &dto.ApplicationCreatedResponse{Application: &models.Application{ID: "app-1"}}}
	handler := NewApplicationHandler(mockSvc, summarizerMock{})

	payload, _ := json.Marshal(dto.CreateApplicationRequest{EligibilityAcknowledged: true})
	c, w := newTestContext(http.MethodPost, "/postings/job-1/applications", payload, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Request.Header.Set("User-Agent", "portal-test")

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "job-1", mockSvc.lastPosting)
	assert.Equal(t, "portal-test", mockSvc.lastMeta.UserAgent)
}

func TestApplicationHandlerCreateErrors(t *testing.T) {
	handler := NewApplicationHandler(&applicationServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "already applied to this posting")}, summarizerMock{})

	c, w := newTestContext(http.MethodPost, "/postings/job-1/applications", []byte(`{"eligibilityAcknowledged":true}`), nil)
	handler.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodPost, "/postings/job-1/applications", []byte(`{"coverLetter":`), &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPost, "/postings/job-1/applications", []byte(`{"eligibilityAcknowledged":true}`), &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body["error"]["code"])
}

func TestApplicationHandlerListParsesStatuses(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	handler := NewApplicationHandler(mockSvc, summarizerMock{})

	c, w := newTestContext(http.MethodGet, "/postings/job-1/applications?status=Applied,Reviewed&status=Interview%20Scheduled&page=2&pageSize=10", nil, &models.JWTClaims{UserID: "spc-1", Role: models.RoleSPC})
	handler.ListByPosting(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.ApplicationStatus{models.ApplicationStatusApplied, models.ApplicationStatusReviewed, models.ApplicationStatusInterviewScheduled}, mockSvc.lastQuery.Status)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)
	assert.Equal(t, 10, mockSvc.lastQuery.PageSize)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestApplicationHandlerTransition(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	handler := NewApplicationHandler(mockSvc, summarizerMock{})

	c, w := newTestContext(http.MethodPatch, "/applications/app-1/status", []byte(`{"status":"Selected","expectedVersion":1}`), &models.JWTClaims{UserID: "rec-1", Role: models.RoleRecruiter})
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	handler.Transition(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ApplicationStatusSelected, mockSvc.lastTransition.Status)
	require.NotNil(t, mockSvc.lastTransition.ExpectedVersion)
	assert.Equal(t, 1, *mockSvc.lastTransition.ExpectedVersion)

	mockSvc.transitionErr = appErrors.Clone(appErrors.ErrConflict, "application was modified concurrently")
	c, w = newTestContext(http.MethodPatch, "/applications/app-1/status", []byte(`{"status":"Rejected"}`), &models.JWTClaims{UserID: "rec-1", Role: models.RoleRecruiter})
	handler.Transition(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestApplicationHandlerWithdrawWithoutBody(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	handler := NewApplicationHandler(mockSvc, summarizerMock{})

	c, w := newTestContext(http.MethodPost, "/applications/app-1/withdraw", nil, &models.JWTClaims{UserID: "spc-1", Role: models.RoleSPC})
	handler.Withdraw(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.withdrawCalled)
}

func TestApplicationHandlerGetAndSummary(t *testing.T) {
	handler := NewApplicationHandler(&applicationServiceMock{}, summarizerMock{})
	claims := &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}

	c, w := newTestContext(http.MethodGet, "/applications/missing", nil, claims)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newTestContext(http.MethodGet, "/students/stu-1/applications/summary", nil, claims)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"studentId":"stu-1"`)
}
