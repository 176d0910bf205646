package handlers

import (
  "bytes"
  "context"
  "encoding/json"
  "mime/multipart"
  "net/http"
  "net/http/httptest"
  "strings"
  "testing"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/services"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type stubResponseService struct {
  gotInput      services.ResponseInput
  gotAttachment *services.AudioUpload
}

func (s *stubResponseService) Create(ctx context.Context, in services.ResponseInput, attachment *services.AudioUpload) (*types.Response, error) {
  s.gotInput = in
  s.gotAttachment = attachment
  return &types.Response{ID: "resp-1", AssignmentID: in.AssignmentID, JNumber: in.JNumber}, nil
}

func (s *stubResponseService) List(ctx context.Context, ownerID string) ([]*types.Response, error) {
  return nil, nil
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

func newResponseTestRouter(t *testing.T) (*gin.Engine, *stubResponseService) {
  t.Helper()
  gin.SetMode(gin.TestMode)
  log, err := logger.New("production")
  if err != nil {
    t.Fatalf("failed to init logger: %v", err)
  }
  stub := &stubResponseService{}
  router := gin.New()
  router.POST("/api/responses", NewResponseHandler(log, stub).Create)
  return router, stub
}

func TestResponseCreateParsesMultipartSynonyms(t *testing.T) {
  router, stub := newResponseTestRouter(t)

  var body bytes.Buffer
  writer := multipart.NewWriter(&body)
  // Deliberately the "alternate" spellings plus a non-default file field.
  writer.WriteField("assignmentId", "a-1")
  writer.WriteField("student_name", "Alex Doe")
  writer.WriteField("j_number", "J001")
  writer.WriteField("answers", `{"1":"four"}`)
  part, err := writer.CreateFormFile("voice", "answer.webm")
  if err != nil {
    t.Fatalf("CreateFormFile: %v", err)
  }
  part.Write([]byte("opus-bytes"))
  writer.Close()

  req := httptest.NewRequest(http.MethodPost, "/api/responses", &body)
  req.Header.Set("Content-Type", writer.FormDataContentType())
  rec := httptest.NewRecorder()
  router.ServeHTTP(rec, req)

  if rec.Code != http.StatusCreated {
    t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
  }
  if stub.gotInput.AssignmentID != "a-1" || stub.gotInput.StudentName != "Alex Doe" || stub.gotInput.JNumber != "J001" {
    t.Fatalf("parsed input: %+v", stub.gotInput)
  }
  if string(stub.gotInput.Answers) != `{"1":"four"}` {
    t.Fatalf("answers: %s", stub.gotInput.Answers)
  }
  if stub.gotAttachment == nil {
    t.Fatalf("attachment not picked up from the voice field")
  }
  if string(stub.gotAttachment.Data) != "opus-bytes" || stub.gotAttachment.Filename != "answer.webm" {
    t.Fatalf("attachment: %+v", stub.gotAttachment)
  }
}

func TestResponseCreateParsesJSONSynonyms(t *testing.T) {
  router, stub := newResponseTestRouter(t)

  payload, _ := json.Marshal(map[string]interface{}{
    "assignment_id": "a-2",
    "studentName":   "Sam Lee",
    "j_number":      "J002",
    "answers":       map[string]string{"1": "yes"},
  })
  req := httptest.NewRequest(http.MethodPost, "/api/responses", strings.NewReader(string(payload)))
  req.Header.Set("Content-Type", "application/json")
  rec := httptest.NewRecorder()
  router.ServeHTTP(rec, req)

  if rec.Code != http.StatusCreated {
    t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
  }
  if stub.gotInput.AssignmentID != "a-2" || stub.gotInput.JNumber != "J002" {
    t.Fatalf("parsed input: %+v", stub.gotInput)
  }
  if stub.gotAttachment != nil {
    t.Fatalf("unexpected attachment on JSON submission")
  }
}
