package services

import (
  "context"
  "fmt"
  "path/filepath"
  "sync"
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

func seedAssignmentRow(tb testing.TB, db *gorm.DB, ownerID, title string) *types.Assignment {
  tb.Helper()
  a := &types.Assignment{
    ID:        uuid.NewString(),
    Title:     title,
    Questions: datatypes.JSON([]byte(`[]`)),
  }
  if ownerID != "" {
    a.OwnerID = &ownerID
  }
  if err := db.Create(a).Error; err != nil {
    tb.Fatalf("seed assignment: %v", err)
  }
  return a
}

func seedDraftRow(tb testing.TB, db *gorm.DB, ownerID string) *types.AssignmentDraft {
  tb.Helper()
  title := "Draft"
  d := &types.AssignmentDraft{
    ID:      uuid.NewString(),
    Title:   &title,
    OwnerID: ownerID,
  }
  if err := db.Create(d).Error; err != nil {
    tb.Fatalf("seed draft: %v", err)
  }
  return d
}

func seedServiceResponse(tb testing.TB, db *gorm.DB, assignmentID, jNumber string) *types.Response {
  tb.Helper()
  r := &types.Response{
    ID:           uuid.NewString(),
    AssignmentID: assignmentID,
    StudentName:  "Student",
    JNumber:      jNumber,
    Answers:      datatypes.JSON([]byte(`{}`)),
    SubmittedAt:  time.Now(),
  }
  if err := db.Create(r).Error; err != nil {
    tb.Fatalf("seed response: %v", err)
  }
  return r
}

// fakeAudioStorage tracks live objects so tests can assert the
// upload/delete bookkeeping, not just return values.
type fakeAudioStorage struct {
  mu      sync.Mutex
  objects map[string][]byte

  uploadErr   error
  deleteErr   error
  downloadErr error

  uploads   int
  deletes   int
  downloads int
}

func newFakeAudioStorage() *fakeAudioStorage {
  return &fakeAudioStorage{objects: map[string][]byte{}}
}

func (f *fakeAudioStorage) Upload(ctx context.Context, data []byte, contentType, extension string) (*StoredAudio, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.uploads++
  if f.uploadErr != nil {
    return nil, f.uploadErr
  }
  storagePath := fmt.Sprintf("responses/%s%s", uuid.NewString(), extension)
  f.objects[storagePath] = append([]byte(nil), data...)
  return &StoredAudio{
    StoragePath: storagePath,
    PublicURL:   "https://storage.example.com/" + storagePath,
  }, nil
}

func (f *fakeAudioStorage) Download(ctx context.Context, storagePath string) ([]byte, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.downloads++
  if f.downloadErr != nil {
    return nil, f.downloadErr
  }
  data, ok := f.objects[storagePath]
  if !ok {
    return nil, ErrAudioNotFound
  }
  return data, nil
}

func (f *fakeAudioStorage) Delete(ctx context.Context, storagePath string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.deletes++
  if f.deleteErr != nil {
    return f.deleteErr
  }
  delete(f.objects, storagePath)
  return nil
}

func (f *fakeAudioStorage) liveCount() int {
  f.mu.Lock()
  defer f.mu.Unlock()
  return len(f.objects)
}
