package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
)

// respondError translates a service error into an HTTP response. Client
// errors carry their message through; server errors get a fixed body so
// internals never leak.
func respondError(c *gin.Context, log *logger.Logger, err error) {
  var apiErr *apierr.Error
  if errors.As(err, &apiErr) {
    if apiErr.Status >= http.StatusInternalServerError {
      log.Error("Request failed", "status", apiErr.Status, "code", apiErr.Code, "error", apiErr.Err)
      c.JSON(apiErr.Status, gin.H{"error": "upstream failure", "code": apiErr.Code})
      return
    }
    c.JSON(apiErr.Status, gin.H{"error": apiErr.Err.Error(), "code": apiErr.Code})
    return
  }
  log.Error("Request failed", "error", err)
  c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
