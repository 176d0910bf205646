package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/services"
)

type SpeechHandler struct {
  log       *logger.Logger
  speechSvc services.SpeechService
}

func NewSpeechHandler(log *logger.Logger, speechSvc services.SpeechService) *SpeechHandler {
  return &SpeechHandler{
    log:       log.With("handler", "SpeechHandler"),
    speechSvc: speechSvc,
  }
}

// POST /api/speech/transcribe
// Server-side transcription fallback for clients without a usable
// in-browser recognizer.
func (h *SpeechHandler) Transcribe(c *gin.Context) {
  if h.speechSvc == nil {
    c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription is not configured on the server"})
    return
  }

  form, err := c.MultipartForm()
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
    return
  }
  fileHeader := firstFormFile(form, audioFileFields)
  if fileHeader == nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
    return
  }
  upload, err := readAudioUpload(fileHeader)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read audio file"})
    return
  }

  transcript, err := h.speechSvc.Transcribe(c.Request.Context(), upload.Data, upload.ContentType)
  if err != nil {
    respondError(c, h.log, err)
    return
  }
  c.JSON(http.StatusOK, transcript)
}
