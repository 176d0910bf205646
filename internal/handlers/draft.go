package handlers

import (
  "net/http"
  "gorm.io/datatypes"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/requestdata"
  "github.com/amplifylms/amplify-backend/internal/services"
)

type DraftHandler struct {
  log      *logger.Logger
  draftSvc services.DraftService
}

func NewDraftHandler(log *logger.Logger, draftSvc services.DraftService) *DraftHandler {
  return &DraftHandler{
    log:      log.With("handler", "DraftHandler"),
    draftSvc: draftSvc,
  }
}

// POST /api/assignments/drafts
func (h *DraftHandler) Create(c *gin.Context) {
  var req struct {
    Title       *string        `json:"title"`
    Description *string        `json:"description"`
    Questions   datatypes.JSON `json:"questions"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  draft, err := h.draftSvc.Create(c.Request.Context(), services.DraftInput{
    Title:       req.Title,
    Description: req.Description,
    Questions:   req.Questions,
  }, requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusCreated, draft)
}

// GET /api/assignments/drafts
func (h *DraftHandler) List(c *gin.Context) {
  drafts, err := h.draftSvc.List(c.Request.Context(), requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, drafts)
}

// PATCH /api/assignments/drafts/:id
// Partial update from the autosave client; absent fields stay untouched.
func (h *DraftHandler) Update(c *gin.Context) {
  var req struct {
    Title       *string        `json:"title"`
    Description *string        `json:"description"`
    Questions   datatypes.JSON `json:"questions"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  draft, err := h.draftSvc.Update(c.Request.Context(), c.Param("id"), services.DraftPatch{
    Title:       req.Title,
    Description: req.Description,
    Questions:   req.Questions,
  }, requestdata.CallerID(c.Request.Context()))
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, draft)
}

// DELETE /api/assignments/drafts/:id
func (h *DraftHandler) Delete(c *gin.Context) {
  if err := h.draftSvc.Delete(c.Request.Context(), c.Param("id"), requestdata.CallerID(c.Request.Context())); err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"deleted": true})
}
