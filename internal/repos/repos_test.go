package repos

import (
  "context"
  "path/filepath"
  "testing"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormLogger "gorm.io/gorm/logger"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/types"
)

func testLogger(tb testing.TB) *logger.Logger {
  tb.Helper()
  log, err := logger.New("production")
  if err != nil {
    tb.Fatalf("failed to init logger: %v", err)
  }
  return log
}

func testDB(tb testing.TB) *gorm.DB {
  tb.Helper()
  db, err := gorm.Open(sqlite.Open(filepath.Join(tb.TempDir(), "test.db")), &gorm.Config{
    Logger: gormLogger.Default.LogMode(gormLogger.Silent),
  })
  if err != nil {
    tb.Fatalf("failed to open test db: %v", err)
  }
  if err := db.AutoMigrate(
    &types.User{},
    &types.Assignment{},
    &types.AssignmentDraft{},
    &types.Response{},
    &types.AccuracyRating{},
  ); err != nil {
    tb.Fatalf("failed to migrate test db: %v", err)
  }
  return db
}

func seedUser(tb testing.TB, ctx context.Context, db *gorm.DB, email string) *types.User {
  tb.Helper()
  u := &types.User{
    ID:           uuid.NewString(),
    Email:        email,
    PasswordHash: "x",
    Role:         "instructor",
  }
  if err := db.WithContext(ctx).Create(u).Error; err != nil {
    tb.Fatalf("seed user: %v", err)
  }
  return u
}

func seedAssignment(tb testing.TB, ctx context.Context, db *gorm.DB, ownerID string, title string) *types.Assignment {
  tb.Helper()
  a := &types.Assignment{
    ID:        uuid.NewString(),
    Title:     title,
    Questions: datatypes.JSON([]byte(`[]`)),
  }
  if ownerID != "" {
    a.OwnerID = &ownerID
  }
  if err := db.WithContext(ctx).Create(a).Error; err != nil {
    tb.Fatalf("seed assignment: %v", err)
  }
  return a
}

func seedDraft(tb testing.TB, ctx context.Context, db *gorm.DB, ownerID string) *types.AssignmentDraft {
  tb.Helper()
  d := &types.AssignmentDraft{
    ID:      uuid.NewString(),
    OwnerID: ownerID,
  }
  if err := db.WithContext(ctx).Create(d).Error; err != nil {
    tb.Fatalf("seed draft: %v", err)
  }
  return d
}

func seedResponse(tb testing.TB, ctx context.Context, db *gorm.DB, assignmentID, jNumber string) *types.Response {
  tb.Helper()
  r := &types.Response{
    ID:           uuid.NewString(),
    AssignmentID: assignmentID,
    StudentName:  "Student",
    JNumber:      jNumber,
    Answers:      datatypes.JSON([]byte(`{}`)),
    SubmittedAt:  time.Now(),
  }
  if err := db.WithContext(ctx).Create(r).Error; err != nil {
    tb.Fatalf("seed response: %v", err)
  }
  return r
}
