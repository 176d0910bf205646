package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/types"
  "github.com/amplifylms/amplify-backend/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  databaseURL := utils.GetEnv("DATABASE_URL", "", log)
  if databaseURL == "" {
    postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
    postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
    postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
    postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
    postgresName := utils.GetEnv("POSTGRES_NAME", "amplify", log)
    databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)
  }

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.Assignment{},
    &types.AssignmentDraft{},
    &types.Response{},
    &types.AccuracyRating{},
  )
  if err != nil {
    s.log.Error("Auto migration failed", "error", err)
    return fmt.Errorf("Auto migration failed: %w", err)
  }
  s.log.Info("Auto migration complete")
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
