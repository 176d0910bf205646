package handlers

import (
  "net/http"
  "gorm.io/datatypes"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/requestdata"
  "github.com/amplifylms/amplify-backend/internal/services"
)

type AssignmentHandler struct {
  log           *logger.Logger
  assignmentSvc services.AssignmentService
}

func NewAssignmentHandler(log *logger.Logger, assignmentSvc services.AssignmentService) *AssignmentHandler {
  return &AssignmentHandler{
    log:           log.With("handler", "AssignmentHandler"),
    assignmentSvc: assignmentSvc,
  }
}

// POST /api/assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
  var req struct {
    Title            string         `json:"title"`
    Description      *string        `json:"description"`
    DueDate          *string        `json:"dueDate"`
    IsQuiz           bool           `json:"isQuiz"`
    TimeLimitSeconds *int           `json:"assignmentTimeLimit"`
    Questions        datatypes.JSON `json:"questions"`
    OwnerID          *string        `json:"owner_id"`
    DraftID          *string        `json:"draft_id"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  assignment, err := h.assignmentSvc.Create(c.Request.Context(), services.AssignmentInput{
    Title:            req.Title,
    Description:      req.Description,
    DueDate:          req.DueDate,
    IsQuiz:           req.IsQuiz,
    TimeLimitSeconds: req.TimeLimitSeconds,
    Questions:        req.Questions,
    OwnerID:          req.OwnerID,
    DraftID:          req.DraftID,
  }, requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusCreated, assignment)
}

// GET /api/assignments/:id
// Public: students open assignments from a shared link.
func (h *AssignmentHandler) Get(c *gin.Context) {
  assignment, err := h.assignmentSvc.Get(c.Request.Context(), c.Param("id"))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, assignment)
}

// GET /api/assignments
func (h *AssignmentHandler) List(c *gin.Context) {
  assignments, err := h.assignmentSvc.List(c.Request.Context(), requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, assignments)
}

// DELETE /api/assignments/:id
func (h *AssignmentHandler) Delete(c *gin.Context) {
  result, err := h.assignmentSvc.Delete(c.Request.Context(), c.Param("id"), requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  body := gin.H{"deleted": true, "responses_deleted": result.ResponsesDeleted}
  if len(result.AudioCleanupFailedFor) > 0 {
    body["audio_cleanup_failed_for"] = result.AudioCleanupFailedFor
  }
  c.JSON(http.StatusOK, body)
}
