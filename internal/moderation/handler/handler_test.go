package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civicportal/internal/moderation/handler/mocks"
	"civicportal/internal/moderation/models"
	"civicportal/internal/platform/middleware"
	dErrors "civicportal/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/moderation-mocks.go -package=mocks Service

// staticValidator accepts exactly one token as an administrator.
type staticValidator struct {
	token string
}

func (v *staticValidator) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	if tokenString != v.token {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return &middleware.TokenClaims{Email: "mod@portal.example", Kind: "administrator"}, nil
}

type ModerationHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func TestModerationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ModerationHandlerSuite))
}

func (s *ModerationHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func (s *ModerationHandlerSuite) newRouter() (chi.Router, *mocks.MockService) {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	requireAdmin := middleware.RequireAdmin(&staticValidator{token: "good-token"}, logger)
	r := chi.NewRouter()
	New(mockService, logger, requireAdmin).Register(r)
	return r, mockService
}

func (s *ModerationHandlerSuite) do(r chi.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func pendingApp(id, email string) models.Application {
	return models.Application{
		ID:           id,
		Email:        email,
		BusinessName: "Corner Cafe",
		Category:     "cafés_coffee_shops",
		Status:       models.StatusPending,
		SubmittedAt:  time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (s *ModerationHandlerSuite) TestListRequiresAdminToken() {
	r, _ := s.newRouter()

	rec := s.do(r, http.MethodGet, "/api/admin/applications", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(r, http.MethodGet, "/api/admin/applications", "forged", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ModerationHandlerSuite) TestListPending() {
	r, mockService := s.newRouter()
	mockService.EXPECT().ListPending(gomock.Any()).
		Return([]models.Application{pendingApp("app-1", "a@cafe.example")}, nil)

	rec := s.do(r, http.MethodGet, "/api/admin/applications", "good-token", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("Cache-Control"))

	var resp listResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Applications, 1)
	s.Equal("app-1", resp.Applications[0].ID)
}

func (s *ModerationHandlerSuite) TestListAll() {
	r, mockService := s.newRouter()
	mockService.EXPECT().ListAll(gomock.Any()).Return(nil, nil)

	rec := s.do(r, http.MethodGet, "/api/admin/applications?status=all", "good-token", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp listResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.NotNil(resp.Applications, "empty listings render as [] not null")
}

func (s *ModerationHandlerSuite) TestApproveByID() {
	r, mockService := s.newRouter()
	decided := pendingApp("app-1", "a@cafe.example")
	decided.Status = models.StatusApproved
	mockService.EXPECT().Approve(gomock.Any(), "app-1").
		Return(&decided, []models.Application{}, nil)

	rec := s.do(r, http.MethodPost, "/api/admin/applications/approve", "good-token", decisionRequest{ID: "app-1"})
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp decisionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(models.StatusApproved, resp.Application.Status)
	s.Empty(resp.Pending)
}

func (s *ModerationHandlerSuite) TestRejectByEmail() {
	r, mockService := s.newRouter()
	decided := pendingApp("app-2", "b@shop.example")
	decided.Status = models.StatusRejected
	mockService.EXPECT().Reject(gomock.Any(), "b@shop.example").
		Return(&decided, []models.Application{pendingApp("app-3", "c@shop.example")}, nil)

	rec := s.do(r, http.MethodPost, "/api/admin/applications/reject", "good-token", decisionRequest{Email: "b@shop.example"})
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp decisionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(models.StatusRejected, resp.Application.Status)
	s.Len(resp.Pending, 1)
}

func (s *ModerationHandlerSuite) TestBusyDecisionMapsTo429() {
	r, mockService := s.newRouter()
	mockService.EXPECT().Approve(gomock.Any(), "app-1").
		Return(nil, nil, dErrors.New(dErrors.CodeBusy, "another moderation action is in progress"))

	rec := s.do(r, http.MethodPost, "/api/admin/applications/approve", "good-token", decisionRequest{ID: "app-1"})
	s.Equal(http.StatusTooManyRequests, rec.Code)
}

func (s *ModerationHandlerSuite) TestDecisionRequiresToken() {
	r, _ := s.newRouter()

	rec := s.do(r, http.MethodPost, "/api/admin/applications/approve", "", decisionRequest{ID: "app-1"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ModerationHandlerSuite) TestInvalidBody() {
	r, _ := s.newRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/applications/approve", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}
