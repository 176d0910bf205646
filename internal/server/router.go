package server

import (
  "strings"
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/amplifylms/amplify-backend/internal/handlers"
  "github.com/amplifylms/amplify-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler       *handlers.AuthHandler
  AuthMiddleware    *middleware.AuthMiddleware
  AssignmentHandler *handlers.AssignmentHandler
  DraftHandler      *handlers.DraftHandler
  ResponseHandler   *handlers.ResponseHandler
  SpeechHandler     *handlers.SpeechHandler
  FrontendOrigins   string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  origins := []string{
    "http://localhost:3000",
    "http://localhost:5173",
    "http://localhost:5174",
  }
  for _, origin := range strings.Split(cfg.FrontendOrigins, ",") {
    if origin = strings.TrimSpace(origin); origin != "" {
      origins = append(origins, origin)
    }
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-Id", "X-Demo-User-Id", "X-Student-Id"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/users/register", cfg.AuthHandler.Register)
    api.POST("/users/login", cfg.AuthHandler.Login)
    // Students reach these from a shared link without a session.
    api.GET("/assignments/:id", cfg.AssignmentHandler.Get)
    api.POST("/responses", cfg.ResponseHandler.Create)
    api.GET("/responses/:id/audio", cfg.ResponseHandler.GetAudio)
    // Student self-rating, authorized by jNumber rather than a session.
    api.PUT("/responses/:id/accuracy-rating", cfg.ResponseHandler.UpdateStudentRating)
    if cfg.SpeechHandler != nil {
      api.POST("/speech/transcribe", cfg.SpeechHandler.Transcribe)
      // Older clients still post here.
      api.POST("/speech/upload-audio", cfg.SpeechHandler.Transcribe)
    }
    // Demo deployments create assignments with a body-supplied owner_id and
    // list responses with an owner_id filter; the service rejects an
    // ownerless create outside demo mode.
    api.POST("/assignments", cfg.AuthMiddleware.OptionalOwner(), cfg.AssignmentHandler.Create)
    api.GET("/responses", cfg.AuthMiddleware.OptionalOwner(), cfg.ResponseHandler.List)
  }

// ===============
// || Protected ||
// ===============
  protected := router.Group("/api")
  protected.Use(cfg.AuthMiddleware.RequireOwner())
  // Assignments
  protected.GET("/assignments", cfg.AssignmentHandler.List)
  protected.DELETE("/assignments/:id", cfg.AssignmentHandler.Delete)
  protected.GET("/assignments/:id/responses", cfg.ResponseHandler.ListForAssignment)
  // Drafts
  protected.POST("/assignments/drafts", cfg.DraftHandler.Create)
  protected.GET("/assignments/drafts", cfg.DraftHandler.List)
  protected.PATCH("/assignments/drafts/:id", cfg.DraftHandler.Update)
  protected.DELETE("/assignments/drafts/:id", cfg.DraftHandler.Delete)
  // Responses
  protected.POST("/responses/:id/accuracy-rating", cfg.ResponseHandler.UpsertAccuracyRating)

  return router
}
