package handlers

import (
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "strings"
  "gorm.io/datatypes"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/requestdata"
  "github.com/amplifylms/amplify-backend/internal/services"
)

type ResponseHandler struct {
  log         *logger.Logger
  responseSvc services.ResponseService
}

func NewResponseHandler(log *logger.Logger, responseSvc services.ResponseService) *ResponseHandler {
  return &ResponseHandler{
    log:         log.With("handler", "ResponseHandler"),
    responseSvc: responseSvc,
  }
}

// Recording clients disagree on field names, so each logical field accepts
// a few spellings.
var (
  assignmentIDFields = []string{"assignment_id", "assignmentId"}
  studentNameFields  = []string{"studentName", "student_name", "name"}
  jNumberFields      = []string{"jNumber", "j_number", "jnumber"}
  answersFields      = []string{"answers"}
  transcriptsFields  = []string{"transcripts"}
  audioFileFields    = []string{"audio_file", "audio", "voice", "file"}
)

// POST /api/responses
// Accepts JSON for text-only submissions and multipart/form-data when an
// audio recording rides along.
func (h *ResponseHandler) Create(c *gin.Context) {
  contentType := c.ContentType()

  var in services.ResponseInput
  var attachment *services.AudioUpload

  if strings.HasPrefix(contentType, "multipart/form-data") {
    form, err := c.MultipartForm()
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
      return
    }
    in = services.ResponseInput{
      AssignmentID: firstFormValue(form, assignmentIDFields),
      StudentName:  firstFormValue(form, studentNameFields),
      JNumber:      firstFormValue(form, jNumberFields),
    }
    if raw := firstFormValue(form, answersFields); raw != "" {
      in.Answers = datatypes.JSON(raw)
    }
    if raw := firstFormValue(form, transcriptsFields); raw != "" {
      in.Transcripts = datatypes.JSON(raw)
    }
    fileHeader := firstFormFile(form, audioFileFields)
    if fileHeader != nil {
      attachment, err = readAudioUpload(fileHeader)
      if err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read audio file"})
        return
      }
    }
  } else {
    var req struct {
      AssignmentID    string         `json:"assignment_id"`
      AssignmentIDAlt string         `json:"assignmentId"`
      StudentName     string         `json:"studentName"`
      StudentNameAlt  string         `json:"student_name"`
      JNumber         string         `json:"jNumber"`
      JNumberAlt      string         `json:"j_number"`
      Answers         datatypes.JSON `json:"answers"`
      Transcripts     datatypes.JSON `json:"transcripts"`
    }
    if err := c.ShouldBindJSON(&req); err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
      return
    }
    in = services.ResponseInput{
      AssignmentID: firstNonEmpty(req.AssignmentID, req.AssignmentIDAlt),
      StudentName:  firstNonEmpty(req.StudentName, req.StudentNameAlt),
      JNumber:      firstNonEmpty(req.JNumber, req.JNumberAlt),
      Answers:      req.Answers,
      Transcripts:  req.Transcripts,
    }
  }

  response, err := h.responseSvc.Create(c.Request.Context(), in, attachment)
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusCreated, response)
}

// GET /api/responses
// An authenticated caller is scoped to their own assignments; an anonymous
// demo caller may narrow the list with an owner_id query filter.
func (h *ResponseHandler) List(c *gin.Context) {
  ownerID := requestdata.CallerID(c.Request.Context())
  if ownerID == "" {
    ownerID = c.Query("owner_id")
  }
  responses, err := h.responseSvc.List(c.Request.Context(), ownerID)
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, responses)
}

// GET /api/assignments/:id/responses
func (h *ResponseHandler) ListForAssignment(c *gin.Context) {
  responses, err := h.responseSvc.ListForAssignment(c.Request.Context(), c.Param("id"), requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, responses)
}

// GET /api/responses/:id/audio
func (h *ResponseHandler) GetAudio(c *gin.Context) {
  audio, err := h.responseSvc.GetAudio(c.Request.Context(), c.Param("id"))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audio.Filename))
  c.Data(http.StatusOK, audio.MimeType, audio.Data)
}

// POST /api/responses/:id/accuracy-rating
// Instructor-side transcript accuracy review.
func (h *ResponseHandler) UpsertAccuracyRating(c *gin.Context) {
  var req struct {
    Rating      int     `json:"rating"`
    Notes       *string `json:"notes"`
    NeedsReview *bool   `json:"needs_review"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  rating, err := h.responseSvc.UpsertAccuracyRating(c.Request.Context(), c.Param("id"), services.AccuracyRatingInput{
    Rating:      req.Rating,
    Notes:       req.Notes,
    NeedsReview: req.NeedsReview,
  }, requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, rating)
}

// PUT /api/responses/:id/accuracy-rating
// Student self-rating of their transcript; authorized by jNumber match,
// not by a session. The submitter identifies via the X-Student-Id header,
// a jNumber query param, or a jNumber body field.
func (h *ResponseHandler) UpdateStudentRating(c *gin.Context) {
  var req struct {
    Rating     int     `json:"rating"`
    Comment    *string `json:"comment"`
    JNumber    string  `json:"jNumber"`
    JNumberAlt string  `json:"j_number"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  submitter := firstNonEmpty(c.GetHeader("X-Student-Id"), c.Query("jNumber"), req.JNumber, req.JNumberAlt)
  response, err := h.responseSvc.UpdateStudentRating(c.Request.Context(), c.Param("id"), req.Rating, req.Comment,
    submitter)
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, response)
}

func firstFormValue(form *multipart.Form, names []string) string {
  for _, name := range names {
    if values, ok := form.Value[name]; ok && len(values) > 0 && values[0] != "" {
      return values[0]
    }
  }
  return ""
}

func firstFormFile(form *multipart.Form, names []string) *multipart.FileHeader {
  for _, name := range names {
    if files, ok := form.File[name]; ok && len(files) > 0 {
      return files[0]
    }
  }
  return nil
}

func firstNonEmpty(values ...string) string {
  for _, v := range values {
    if v != "" {
      return v
    }
  }
  return ""
}

func readAudioUpload(header *multipart.FileHeader) (*services.AudioUpload, error) {
  file, err := header.Open()
  if err != nil {
    return nil, err
  }
  defer file.Close()
  data, err := io.ReadAll(file)
  if err != nil {
    return nil, err
  }
  return &services.AudioUpload{
    Data:        data,
    ContentType: header.Header.Get("Content-Type"),
    Filename:    header.Filename,
  }, nil
}
