package services

import (
  "context"
  "errors"
  "fmt"
  "mime"
  "net/http"
  "path"
  "regexp"
  "strings"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/repos"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type ResponseInput struct {
  AssignmentID string
  StudentName  string
  JNumber      string
  Answers      datatypes.JSON
  Transcripts  datatypes.JSON
}

// AudioUpload is the raw attachment as it arrived at the request boundary,
// before validation.
type AudioUpload struct {
  Data        []byte
  ContentType string
  Filename    string
}

type AccuracyRatingInput struct {
  Rating      int
  Notes       *string
  NeedsReview *bool
}

type ResponseAudio struct {
  Data     []byte
  MimeType string
  Filename string
}

type ResponseService interface {
  Create(ctx context.Context, in ResponseInput, attachment *AudioUpload) (*types.Response, error)
  List(ctx context.Context, ownerID string) ([]*types.Response, error)
  ListForAssignment(ctx context.Context, assignmentID, callerID string) ([]*types.Response, error)
  GetAudio(ctx context.Context, responseID string) (*ResponseAudio, error)
  UpsertAccuracyRating(ctx context.Context, responseID string, in AccuracyRatingInput, callerID string) (*types.AccuracyRating, error)
  UpdateStudentRating(ctx context.Context, responseID string, rating int, comment *string, submitterJNumber string) (*types.Response, error)
}

type responseService struct {
  db             *gorm.DB
  log            *logger.Logger
  assignmentRepo repos.AssignmentRepo
  responseRepo   repos.ResponseRepo
  ratingRepo     repos.AccuracyRatingRepo
  audioStorage   AudioStorage
  maxAudioBytes  int64
}

func NewResponseService(
  db *gorm.DB,
  log *logger.Logger,
  assignmentRepo repos.AssignmentRepo,
  responseRepo repos.ResponseRepo,
  ratingRepo repos.AccuracyRatingRepo,
  audioStorage AudioStorage,
  maxAudioBytes int64,
) ResponseService {
  serviceLog := log.With("service", "ResponseService")
  return &responseService{
    db:             db,
    log:            serviceLog,
    assignmentRepo: assignmentRepo,
    responseRepo:   responseRepo,
    ratingRepo:     ratingRepo,
    audioStorage:   audioStorage,
    maxAudioBytes:  maxAudioBytes,
  }
}

func (s *responseService) Create(ctx context.Context, in ResponseInput, attachment *AudioUpload) (*types.Response, error) {
  if in.AssignmentID == "" || in.StudentName == "" || in.JNumber == "" {
    return nil, apierr.New(http.StatusBadRequest, "missing_fields",
      fmt.Errorf("assignment_id, studentName and jNumber are required"))
  }

  assignment, err := s.assignmentRepo.GetByID(ctx, nil, in.AssignmentID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load assignment: %w", err)
  }
  if assignment == nil {
    return nil, apierr.New(http.StatusNotFound, "assignment_not_found", fmt.Errorf("Assignment not found"))
  }

  existing, err := s.responseRepo.GetByAssignmentAndJNumber(ctx, nil, in.AssignmentID, in.JNumber)
  if err != nil {
    return nil, fmt.Errorf("Failed to check existing submission: %w", err)
  }
  if existing != nil {
    s.log.Warn("Duplicate submission rejected", "assignment_id", in.AssignmentID, "j_number", in.JNumber)
    return nil, apierr.New(http.StatusConflict, "duplicate_submission",
      fmt.Errorf("You have already submitted this assignment"))
  }

  response := &types.Response{
    ID:           uuid.NewString(),
    AssignmentID: in.AssignmentID,
    StudentName:  in.StudentName,
    JNumber:      in.JNumber,
    Answers:      in.Answers,
    Transcripts:  in.Transcripts,
    SubmittedAt:  time.Now(),
  }

  // Upload happens before the insert so a failed insert can undo the
  // upload; the two stores are never joined in one transaction.
  var uploadedPath string
  if attachment != nil {
    meta, vErr := ValidateAudio(attachment.Data, attachment.ContentType, attachment.Filename, s.maxAudioBytes)
    if vErr != nil {
      return nil, vErr
    }
    if s.audioStorage == nil {
      return nil, apierr.New(http.StatusServiceUnavailable, "audio_storage_unconfigured",
        fmt.Errorf("Audio storage is not configured on the server"))
    }
    stored, upErr := s.audioStorage.Upload(ctx, attachment.Data, meta.ContentType, meta.Extension)
    if upErr != nil {
      s.log.Error("Audio upload failed", "assignment_id", in.AssignmentID, "error", upErr)
      return nil, apierr.New(http.StatusBadGateway, "audio_upload_failed",
        fmt.Errorf("Unable to store audio recording"))
    }
    uploadedPath = stored.StoragePath
    response.AudioStoragePath = &stored.StoragePath
    response.AudioFileURL = &stored.PublicURL
    response.AudioMimeType = &meta.ContentType
    response.AudioFileSize = &meta.Size
  }

  if _, err := s.responseRepo.Create(ctx, nil, response); err != nil {
    s.compensateUpload(uploadedPath)
    if isUniqueViolation(err) {
      return nil, apierr.New(http.StatusConflict, "duplicate_submission",
        fmt.Errorf("You have already submitted this assignment"))
    }
    if isForeignKeyViolation(err) {
      return nil, apierr.New(http.StatusNotFound, "assignment_not_found", fmt.Errorf("Assignment not found"))
    }
    return nil, fmt.Errorf("Failed to store response: %w", err)
  }

  s.log.Info("Submission stored", "assignment_id", in.AssignmentID, "response_id", response.ID)
  return response, nil
}

// compensateUpload removes a just-uploaded blob after a failed insert.
// Best-effort: a failure here leaves a logged orphan, never a dangling row.
func (s *responseService) compensateUpload(storagePath string) {
  if storagePath == "" || s.audioStorage == nil {
    return
  }
  cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
  defer cancel()
  if err := s.audioStorage.Delete(cleanupCtx, storagePath); err != nil {
    s.log.Warn("Failed to clean up orphaned audio", "storage_path", storagePath, "error", err)
  }
}

func (s *responseService) List(ctx context.Context, ownerID string) ([]*types.Response, error) {
  if ownerID == "" {
    results, err := s.responseRepo.ListAll(ctx, nil)
    if err != nil {
      return nil, fmt.Errorf("Failed to list responses: %w", err)
    }
    return results, nil
  }

  assignments, err := s.assignmentRepo.ListByOwnerID(ctx, nil, ownerID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list owner assignments: %w", err)
  }
  assignmentIDs := make([]string, 0, len(assignments))
  for _, assignment := range assignments {
    assignmentIDs = append(assignmentIDs, assignment.ID)
  }
  results, err := s.responseRepo.ListByAssignmentIDs(ctx, nil, assignmentIDs)
  if err != nil {
    return nil, fmt.Errorf("Failed to list responses: %w", err)
  }
  return results, nil
}

// ListForAssignment is owner-gated. A missing assignment and an ownership
// mismatch both read as not-found so the endpoint never confirms another
// owner's assignment exists.
func (s *responseService) ListForAssignment(ctx context.Context, assignmentID, callerID string) ([]*types.Response, error) {
  assignment, err := s.assignmentRepo.GetByID(ctx, nil, assignmentID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load assignment: %w", err)
  }
  if assignment == nil || assignment.OwnerID == nil || *assignment.OwnerID != callerID {
    return nil, apierr.New(http.StatusNotFound, "assignment_not_found", fmt.Errorf("Assignment not found"))
  }

  results, err := s.responseRepo.ListByAssignmentID(ctx, nil, assignmentID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list responses: %w", err)
  }
  return results, nil
}

func (s *responseService) GetAudio(ctx context.Context, responseID string) (*ResponseAudio, error) {
  response, err := s.responseRepo.GetByID(ctx, nil, responseID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load response: %w", err)
  }
  if response == nil {
    return nil, apierr.New(http.StatusNotFound, "response_not_found", fmt.Errorf("Response not found"))
  }
  if response.AudioStoragePath == nil || *response.AudioStoragePath == "" {
    return nil, apierr.New(http.StatusNotFound, "audio_not_found",
      fmt.Errorf("This response does not have an audio recording"))
  }
  if s.audioStorage == nil {
    return nil, apierr.New(http.StatusServiceUnavailable, "audio_storage_unconfigured",
      fmt.Errorf("Audio storage is not configured on the server"))
  }

  data, err := s.audioStorage.Download(ctx, *response.AudioStoragePath)
  if err != nil {
    if errors.Is(err, ErrAudioNotFound) {
      return nil, apierr.New(http.StatusNotFound, "audio_not_found", fmt.Errorf("Audio recording not found"))
    }
    s.log.Error("Audio download failed", "response_id", responseID, "error", err)
    return nil, apierr.New(http.StatusBadGateway, "audio_download_failed",
      fmt.Errorf("Unable to fetch audio recording"))
  }

  mimeType := "application/octet-stream"
  if response.AudioMimeType != nil && *response.AudioMimeType != "" {
    mimeType = *response.AudioMimeType
  }

  return &ResponseAudio{
    Data:     data,
    MimeType: mimeType,
    Filename: buildDownloadFilename(response),
  }, nil
}

func (s *responseService) UpsertAccuracyRating(ctx context.Context, responseID string, in AccuracyRatingInput, callerID string) (*types.AccuracyRating, error) {
  if in.Rating < 1 || in.Rating > 5 {
    return nil, apierr.New(http.StatusBadRequest, "rating_out_of_range", fmt.Errorf("Rating must be between 1 and 5"))
  }

  response, assignment, err := s.getResponseWithAssignment(ctx, responseID)
  if err != nil {
    return nil, err
  }
  if assignment.OwnerID == nil || *assignment.OwnerID != callerID {
    return nil, apierr.New(http.StatusForbidden, "rating_forbidden",
      fmt.Errorf("Only the assignment owner may rate this response"))
  }

  existing, err := s.ratingRepo.GetByResponseID(ctx, nil, response.ID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load accuracy rating: %w", err)
  }

  needsReview := false
  if in.NeedsReview != nil {
    needsReview = *in.NeedsReview
  }

  if existing == nil {
    rating := &types.AccuracyRating{
      ID:          uuid.NewString(),
      ResponseID:  response.ID,
      Rating:      in.Rating,
      Notes:       in.Notes,
      NeedsReview: needsReview,
    }
    if _, err := s.ratingRepo.Create(ctx, nil, rating); err != nil {
      return nil, fmt.Errorf("Failed to create accuracy rating: %w", err)
    }
    return rating, nil
  }

  fields := map[string]interface{}{
    "rating":     in.Rating,
    "updated_at": time.Now(),
  }
  if in.Notes != nil {
    fields["notes"] = *in.Notes
  }
  if in.NeedsReview != nil {
    fields["needs_review"] = *in.NeedsReview
  }
  if err := s.ratingRepo.UpdateFields(ctx, nil, existing.ID, fields); err != nil {
    return nil, fmt.Errorf("Failed to update accuracy rating: %w", err)
  }
  updated, err := s.ratingRepo.GetByResponseID(ctx, nil, response.ID)
  if err != nil {
    return nil, fmt.Errorf("Failed to reload accuracy rating: %w", err)
  }
  return updated, nil
}

// UpdateStudentRating lets the submitting student attach a self-rating. The
// jNumber match is the only authorization boundary here and must not be
// skipped.
func (s *responseService) UpdateStudentRating(ctx context.Context, responseID string, rating int, comment *string, submitterJNumber string) (*types.Response, error) {
  if rating < 1 || rating > 5 {
    return nil, apierr.New(http.StatusBadRequest, "rating_out_of_range", fmt.Errorf("Rating must be between 1 and 5"))
  }

  response, err := s.responseRepo.GetByID(ctx, nil, responseID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load response: %w", err)
  }
  if response == nil {
    return nil, apierr.New(http.StatusNotFound, "response_not_found", fmt.Errorf("Response not found"))
  }
  if submitterJNumber == "" || response.JNumber != submitterJNumber {
    return nil, apierr.New(http.StatusForbidden, "submitter_mismatch",
      fmt.Errorf("Submitter identifier does not match this response"))
  }

  fields := map[string]interface{}{
    "student_accuracy_rating": rating,
  }
  if comment != nil {
    fields["student_rating_comment"] = *comment
  }
  if err := s.responseRepo.UpdateFields(ctx, nil, response.ID, fields); err != nil {
    return nil, fmt.Errorf("Failed to update student rating: %w", err)
  }

  updated, err := s.responseRepo.GetByID(ctx, nil, response.ID)
  if err != nil {
    return nil, fmt.Errorf("Failed to reload response: %w", err)
  }
  return updated, nil
}

func (s *responseService) getResponseWithAssignment(ctx context.Context, responseID string) (*types.Response, *types.Assignment, error) {
  response, err := s.responseRepo.GetByID(ctx, nil, responseID)
  if err != nil {
    return nil, nil, fmt.Errorf("Failed to load response: %w", err)
  }
  if response == nil {
    return nil, nil, apierr.New(http.StatusNotFound, "response_not_found", fmt.Errorf("Response not found"))
  }
  assignment, err := s.assignmentRepo.GetByID(ctx, nil, response.AssignmentID)
  if err != nil {
    return nil, nil, fmt.Errorf("Failed to load parent assignment: %w", err)
  }
  if assignment == nil {
    return nil, nil, apierr.New(http.StatusNotFound, "assignment_not_found", fmt.Errorf("Assignment not found"))
  }
  return response, assignment, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func buildDownloadFilename(response *types.Response) string {
  base := strings.Trim(unsafeFilenameChars.ReplaceAllString(response.StudentName, "-"), "-")
  if base == "" {
    base = "response-audio"
  }

  extension := ""
  if response.AudioStoragePath != nil {
    extension = path.Ext(*response.AudioStoragePath)
  }
  if extension == "" && response.AudioMimeType != nil {
    if guessed, err := mime.ExtensionsByType(*response.AudioMimeType); err == nil && len(guessed) > 0 {
      extension = guessed[0]
    }
  }
  if extension == "" {
    extension = ".webm"
  }

  return fmt.Sprintf("%s-%s%s", base, response.ID, extension)
}
