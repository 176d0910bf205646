package services

import (
  "context"
  "errors"
  "fmt"
  "bytes"
  "io"
  "path"
  "strings"
  "sync"
  "time"
  "cloud.google.com/go/storage"
  "github.com/google/uuid"
  "google.golang.org/api/option"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/utils"
)

// ErrAudioNotFound reports a storage path with no live object behind it.
var ErrAudioNotFound = errors.New("audio object not found")

type StoredAudio struct {
  StoragePath string
  PublicURL   string
}

// AudioStorage moves audio blobs between the request boundary and the object
// store. Implementations never touch the relational store; callers coordinate
// the two via ordering and compensation.
type AudioStorage interface {
  Upload(ctx context.Context, data []byte, contentType, extension string) (*StoredAudio, error)
  Download(ctx context.Context, storagePath string) ([]byte, error)
  Delete(ctx context.Context, storagePath string) error
}

type AudioStorageConfig struct {
  BucketName   string
  Folder       string
  ProjectID    string
  CDNDomain    string
  PublicAccess bool
}

func AudioStorageConfigFromEnv(log *logger.Logger) AudioStorageConfig {
  return AudioStorageConfig{
    BucketName:   utils.GetEnv("GCS_AUDIO_BUCKET", "response-audio", log),
    Folder:       strings.Trim(utils.GetEnv("GCS_AUDIO_FOLDER", "responses", log), "/"),
    ProjectID:    utils.GetEnv("GCS_PROJECT_ID", "", log),
    CDNDomain:    utils.GetEnv("CDN_DOMAIN", "", log),
    PublicAccess: utils.GetEnvAsBool("GCS_AUDIO_BUCKET_PUBLIC", false, log),
  }
}

type gcsAudioStorage struct {
  log           *logger.Logger
  storageClient *storage.Client
  cfg           AudioStorageConfig

  bucketOnce sync.Once
  bucketErr  error
}

func NewGCSAudioStorage(log *logger.Logger, cfg AudioStorageConfig) (AudioStorage, error) {
  serviceLog := log.With("service", "AudioStorage")
  if cfg.BucketName == "" {
    return nil, fmt.Errorf("missing audio bucket name")
  }
  saPath := utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", log)
  if saPath == "" {
    serviceLog.Warn("GOOGLE_APPLICATION_CREDENTIALS_JSON not set, storage client will rely on ADC")
  }
  ctx := context.Background()
  var stClient *storage.Client
  var err error
  if saPath != "" {
    stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
  } else {
    stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
  }
  if err != nil {
    return nil, fmt.Errorf("Failed to create storage client: %w", err)
  }
  return &gcsAudioStorage{
    log:           serviceLog,
    storageClient: stClient,
    cfg:           cfg,
  }, nil
}

// ensureBucket checks (and in dev setups creates) the bucket at most once per
// process. Concurrent first calls are serialized by the Once; a re-check after
// restart is harmless.
func (s *gcsAudioStorage) ensureBucket(ctx context.Context) error {
  s.bucketOnce.Do(func() {
    checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()
    bucket := s.storageClient.Bucket(s.cfg.BucketName)
    _, err := bucket.Attrs(checkCtx)
    if err == nil {
      return
    }
    if !errors.Is(err, storage.ErrBucketNotExist) {
      s.bucketErr = fmt.Errorf("Failed to check bucket %q: %w", s.cfg.BucketName, err)
      return
    }
    if s.cfg.ProjectID == "" {
      s.bucketErr = fmt.Errorf("bucket %q does not exist and GCS_PROJECT_ID is not set", s.cfg.BucketName)
      return
    }
    s.log.Info("Creating audio bucket", "bucket", s.cfg.BucketName, "public", s.cfg.PublicAccess)
    attrs := &storage.BucketAttrs{}
    if s.cfg.PublicAccess {
      attrs.PredefinedACL = "publicRead"
    }
    if err := bucket.Create(checkCtx, s.cfg.ProjectID, attrs); err != nil {
      s.bucketErr = fmt.Errorf("Failed to create bucket %q: %w", s.cfg.BucketName, err)
    }
  })
  return s.bucketErr
}

func (s *gcsAudioStorage) Upload(ctx context.Context, data []byte, contentType, extension string) (*StoredAudio, error) {
  if err := s.ensureBucket(ctx); err != nil {
    return nil, err
  }

  objectName := s.buildObjectName(extension)

  ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
  defer cancel()

  // DoesNotExist makes the upload fail instead of silently replacing an
  // object if the generated name ever collides.
  obj := s.storageClient.Bucket(s.cfg.BucketName).Object(objectName).
    If(storage.Conditions{DoesNotExist: true})
  w := obj.NewWriter(ctx)
  w.ContentType = contentType
  w.CacheControl = "private, max-age=3600"
  if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
    _ = w.Close()
    return nil, fmt.Errorf("Failed to write audio to GCS: %w", err)
  }
  if err := w.Close(); err != nil {
    return nil, fmt.Errorf("Failed to finish GCS upload: %w", err)
  }

  return &StoredAudio{
    StoragePath: objectName,
    PublicURL:   s.buildPublicURL(objectName),
  }, nil
}

func (s *gcsAudioStorage) Download(ctx context.Context, storagePath string) ([]byte, error) {
  if err := s.ensureBucket(ctx); err != nil {
    return nil, err
  }

  ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
  defer cancel()

  rd, err := s.storageClient.Bucket(s.cfg.BucketName).Object(storagePath).NewReader(ctx)
  if err != nil {
    if errors.Is(err, storage.ErrObjectNotExist) {
      return nil, ErrAudioNotFound
    }
    return nil, fmt.Errorf("Failed to open GCS object %q: %w", storagePath, err)
  }
  defer rd.Close()

  data, err := io.ReadAll(rd)
  if err != nil {
    return nil, fmt.Errorf("Failed to read GCS object %q: %w", storagePath, err)
  }
  return data, nil
}

// Delete is best-effort: a path with no object behind it is not an error.
func (s *gcsAudioStorage) Delete(ctx context.Context, storagePath string) error {
  if storagePath == "" {
    return nil
  }
  if err := s.ensureBucket(ctx); err != nil {
    return err
  }

  ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
  defer cancel()

  err := s.storageClient.Bucket(s.cfg.BucketName).Object(storagePath).Delete(ctx)
  if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
    return fmt.Errorf("Failed to delete GCS object %q: %w", storagePath, err)
  }
  return nil
}

func (s *gcsAudioStorage) buildObjectName(extension string) string {
  filename := strings.ReplaceAll(uuid.NewString(), "-", "")
  if extension != "" {
    ext := strings.ToLower(extension)
    if !strings.HasPrefix(ext, ".") {
      ext = "." + ext
    }
    filename += ext
  }
  if s.cfg.Folder != "" {
    return path.Join(s.cfg.Folder, filename)
  }
  return filename
}

func (s *gcsAudioStorage) buildPublicURL(objectName string) string {
  if s.cfg.CDNDomain != "" {
    return fmt.Sprintf("https://%s/%s", s.cfg.CDNDomain, objectName)
  }
  return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.cfg.BucketName, objectName)
}
