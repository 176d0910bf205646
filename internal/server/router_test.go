package server

import (
  "bytes"
  "context"
  "encoding/json"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/handlers"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/middleware"
  "github.com/amplifylms/amplify-backend/internal/services"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type stubAuthService struct{}

func (s *stubAuthService) Register(ctx context.Context, email, password, name string) (*types.User, error) {
  return &types.User{ID: "user-1", Email: email}, nil
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
  return "token", &types.User{ID: "user-1", Email: email}, nil
}

func (s *stubAuthService) GetAccessTTL() time.Duration { return time.Hour }

type stubAssignmentService struct {
  created      bool
  gotCallerID  string
  gotInput     services.AssignmentInput
}

func (s *stubAssignmentService) Create(ctx context.Context, in services.AssignmentInput, callerID string) (*types.Assignment, error) {
  s.created = true
  s.gotCallerID = callerID
  s.gotInput = in
  return &types.Assignment{ID: "a-1", Title: in.Title, OwnerID: in.OwnerID}, nil
}

func (s *stubAssignmentService) Get(ctx context.Context, assignmentID string) (*types.Assignment, error) {
  return &types.Assignment{ID: assignmentID}, nil
}

func (s *stubAssignmentService) List(ctx context.Context, ownerID string) ([]*types.Assignment, error) {
  return nil, nil
}

func (s *stubAssignmentService) Delete(ctx context.Context, assignmentID, callerID string) (*services.AssignmentDeleteResult, error) {
  return &services.AssignmentDeleteResult{}, nil
}

type stubDraftService struct{}

func (s *stubDraftService) Create(ctx context.Context, in services.DraftInput, callerID string) (*types.AssignmentDraft, error) {
  return &types.AssignmentDraft{ID: "d-1"}, nil
}

func (s *stubDraftService) List(ctx context.Context, callerID string) ([]*types.AssignmentDraft, error) {
  return nil, nil
}

func (s *stubDraftService) Update(ctx context.Context, draftID string, patch services.DraftPatch, callerID string) (*types.AssignmentDraft, error) {
  return &types.AssignmentDraft{ID: draftID}, nil
}

func (s *stubDraftService) Delete(ctx context.Context, draftID, callerID string) error { return nil }

type stubResponseService struct {
  gotOwnerID string
}

func (s *stubResponseService) Create(ctx context.Context, in services.ResponseInput, attachment *services.AudioUpload) (*types.Response, error) {
  return &types.Response{ID: "r-1", AssignmentID: in.AssignmentID, JNumber: in.JNumber}, nil
}

func (s *stubResponseService) List(ctx context.Context, ownerID string) ([]*types.Response, error) {
  s.gotOwnerID = ownerID
  return []*types.Response{}, nil
}

func (s *stubResponseService) ListForAssignment(ctx context.Context, assignmentID, callerID string) ([]*types.Response, error) {
  return nil, nil
}

func (s *stubResponseService) GetAudio(ctx context.Context, responseID string) (*services.ResponseAudio, error) {
  return nil, nil
}

func (s *stubResponseService) UpsertAccuracyRating(ctx context.Context, responseID string, in services.AccuracyRatingInput, callerID string) (*types.AccuracyRating, error) {
  return nil, nil
}

func (s *stubResponseService) UpdateStudentRating(ctx context.Context, responseID string, rating int, comment *string, submitterJNumber string) (*types.Response, error) {
  return nil, nil
}

func testRouter(t *testing.T, resolver services.IdentityResolver) (*gin.Engine, *stubAssignmentService, *stubResponseService) {
  t.Helper()
  gin.SetMode(gin.TestMode)
  log, err := logger.New("production")
  if err != nil {
    t.Fatalf("logger: %v", err)
  }
  assignmentSvc := &stubAssignmentService{}
  responseSvc := &stubResponseService{}
  router := NewRouter(RouterConfig{
    AuthHandler:       handlers.NewAuthHandler(log, &stubAuthService{}),
    AuthMiddleware:    middleware.NewAuthMiddleware(log, resolver),
    AssignmentHandler: handlers.NewAssignmentHandler(log, assignmentSvc),
    DraftHandler:      handlers.NewDraftHandler(log, &stubDraftService{}),
    ResponseHandler:   handlers.NewResponseHandler(log, responseSvc),
  })
  return router, assignmentSvc, responseSvc
}

func demoResolver(t *testing.T) services.IdentityResolver {
  t.Helper()
  log, err := logger.New("production")
  if err != nil {
    t.Fatalf("logger: %v", err)
  }
  resolver, err := services.NewHeaderIdentityResolver(log, true)
  if err != nil {
    t.Fatalf("resolver: %v", err)
  }
  return resolver
}

func TestRouterDemoAssignmentCreateWithoutSession(t *testing.T) {
  router, assignmentSvc, _ := testRouter(t, demoResolver(t))

  body, _ := json.Marshal(map[string]any{"title": "Demo quiz", "owner_id": "demo-owner"})
  req := httptest.NewRequest(http.MethodPost, "/api/assignments", bytes.NewReader(body))
  req.Header.Set("Content-Type", "application/json")
  rec := httptest.NewRecorder()
  router.ServeHTTP(rec, req)

  if rec.Code != http.StatusCreated {
    t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
  }
  if !assignmentSvc.created {
    t.Fatalf("expected the create to reach the service")
  }
  if assignmentSvc.gotCallerID != "" {
    t.Fatalf("caller id: want empty got=%q", assignmentSvc.gotCallerID)
  }
  if assignmentSvc.gotInput.OwnerID == nil || *assignmentSvc.gotInput.OwnerID != "demo-owner" {
    t.Fatalf("body owner id not forwarded: got=%v", assignmentSvc.gotInput.OwnerID)
  }
}

func TestRouterAssignmentCreatePrefersResolvedIdentity(t *testing.T) {
  router, assignmentSvc, _ := testRouter(t, demoResolver(t))

  body, _ := json.Marshal(map[string]any{"title": "Quiz", "owner_id": "someone-else"})
  req := httptest.NewRequest(http.MethodPost, "/api/assignments", bytes.NewReader(body))
  req.Header.Set("Content-Type", "application/json")
  req.Header.Set("X-User-Id", "caller-7")
  rec := httptest.NewRecorder()
  router.ServeHTTP(rec, req)

  if rec.Code != http.StatusCreated {
    t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
  }
  if assignmentSvc.gotCallerID != "caller-7" {
    t.Fatalf("caller id: want=%q got=%q", "caller-7", assignmentSvc.gotCallerID)
  }
}

func TestRouterAssignmentCreateRejectsBadToken(t *testing.T) {
  log, err := logger.New("production")
  if err != nil {
    t.Fatalf("logger: %v", err)
  }
  resolver, err := services.NewJWTIdentityResolver(log, "router-test-secret")
  if err != nil {
    t.Fatalf("resolver: %v", err)
  }
  router, assignmentSvc, _ := testRouter(t, resolver)

  body, _ := json.Marshal(map[string]any{"title": "Quiz"})
  req := httptest.NewRequest(http.MethodPost, "/api/assignments", bytes.NewReader(body))
  req.Header.Set("Content-Type", "application/json")
  req.Header.Set("Authorization", "Bearer not-a-token")
  rec := httptest.NewRecorder()
  router.ServeHTTP(rec, req)

  if rec.Code != http.StatusUnauthorized {
    t.Fatalf("status: want=%d got=%d body=%s", http.StatusUnauthorized, rec.Code, rec.Body.String())
  }
  if assignmentSvc.created {
    t.Fatalf("create must not reach the service with a bad token")
  }
}

func TestRouterResponseListOwnerFilter(t *testing.T) {
  log, err := logger.New("production")
  if err != nil {
    t.Fatalf("logger: %v", err)
  }
  resolver, err := services.NewJWTIdentityResolver(log, "router-test-secret")
  if err != nil {
    t.Fatalf("resolver: %v", err)
  }
  router, _, responseSvc := testRouter(t, resolver)

  // No session at all; the query filter alone scopes the list.
  req := httptest.NewRequest(http.MethodGet, "/api/responses?owner_id=owner-3", nil)
  rec := httptest.NewRecorder()
  router.ServeHTTP(rec, req)

  if rec.Code != http.StatusOK {
    t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
  }
  if responseSvc.gotOwnerID != "owner-3" {
    t.Fatalf("owner filter: want=%q got=%q", "owner-3", responseSvc.gotOwnerID)
  }
}
