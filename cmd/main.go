package main

import (
  "fmt"
  "os"
  "time"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/utils"
  "github.com/amplifylms/amplify-backend/internal/db"
  "github.com/amplifylms/amplify-backend/internal/repos"
  "github.com/amplifylms/amplify-backend/internal/services"
  "github.com/amplifylms/amplify-backend/internal/handlers"
  "github.com/amplifylms/amplify-backend/internal/middleware"
  "github.com/amplifylms/amplify-backend/internal/server"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  authMode := utils.GetEnv("AUTH_MODE", "token", log)
  demoMode := utils.GetEnvAsBool("DEMO_MODE", false, log)
  maxAudioSizeMB := utils.GetEnvAsInt("MAX_AUDIO_SIZE_MB", services.DefaultMaxAudioSizeMB, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  assignmentRepo := repos.NewAssignmentRepo(thePG, log)
  draftRepo := repos.NewAssignmentDraftRepo(thePG, log)
  responseRepo := repos.NewResponseRepo(thePG, log)
  ratingRepo := repos.NewAccuracyRatingRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  audioStorage, err := services.NewGCSAudioStorage(log, services.AudioStorageConfigFromEnv(log))
  if err != nil {
    log.Warn("Could not init audio storage; audio attachments disabled", "error", err)
    audioStorage = nil
  }
  authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
  assignmentService := services.NewAssignmentService(thePG, log, assignmentRepo, draftRepo, responseRepo, audioStorage, demoMode)
  draftService := services.NewDraftService(thePG, log, draftRepo)
  responseService := services.NewResponseService(thePG, log, assignmentRepo, responseRepo, ratingRepo, audioStorage, int64(maxAudioSizeMB)*1024*1024)
  speechService, err := services.NewSpeechService(log)
  if err != nil {
    log.Warn("Could not init speech service; transcription disabled", "error", err)
    speechService = nil
  }

  // Identity
  var resolver services.IdentityResolver
  switch authMode {
  case "clerk":
    clerkBaseURL := utils.GetEnv("CLERK_API_BASE_URL", "https://api.clerk.com", log)
    clerkSecretKey := utils.GetEnv("CLERK_SECRET_KEY", "", log)
    resolver, err = services.NewClerkIdentityResolver(log, nil, clerkBaseURL, clerkSecretKey)
  case "header":
    resolver, err = services.NewHeaderIdentityResolver(log, demoMode)
  default:
    resolver, err = services.NewJWTIdentityResolver(log, jwtSecretKey)
  }
  if err != nil {
    log.Error("Could not init identity resolver", "auth_mode", authMode, "error", err)
    os.Exit(1)
  }
  authMiddleware := middleware.NewAuthMiddleware(log, resolver)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(log, authService)
  assignmentHandler := handlers.NewAssignmentHandler(log, assignmentService)
  draftHandler := handlers.NewDraftHandler(log, draftService)
  responseHandler := handlers.NewResponseHandler(log, responseService)
  var speechHandler *handlers.SpeechHandler
  if speechService != nil {
    speechHandler = handlers.NewSpeechHandler(log, speechService)
    defer speechService.Close()
  }

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:       authHandler,
    AuthMiddleware:    authMiddleware,
    AssignmentHandler: assignmentHandler,
    DraftHandler:      draftHandler,
    ResponseHandler:   responseHandler,
    SpeechHandler:     speechHandler,
    FrontendOrigins:   utils.GetEnv("FRONTEND_ORIGINS", "", log),
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
