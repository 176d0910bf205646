package services

import (
  "context"
  "fmt"
  "net/http"
  "sort"
  "strings"
  "sync"
  "time"
  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/repos"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type AssignmentInput struct {
  Title            string
  Description      *string
  DueDate          *string
  IsQuiz           bool
  TimeLimitSeconds *int
  Questions        datatypes.JSON
  // OwnerID is honored only when no caller identity was resolved and the
  // deployment runs in demo mode.
  OwnerID *string
  DraftID *string
}

type AssignmentDeleteResult struct {
  ResponsesDeleted      int
  AudioCleanupFailedFor []string
}

type AssignmentService interface {
  Create(ctx context.Context, in AssignmentInput, callerID string) (*types.Assignment, error)
  Get(ctx context.Context, assignmentID string) (*types.Assignment, error)
  List(ctx context.Context, ownerID string) ([]*types.Assignment, error)
  Delete(ctx context.Context, assignmentID, callerID string) (*AssignmentDeleteResult, error)
}

type assignmentService struct {
  db             *gorm.DB
  log            *logger.Logger
  assignmentRepo repos.AssignmentRepo
  draftRepo      repos.AssignmentDraftRepo
  responseRepo   repos.ResponseRepo
  audioStorage   AudioStorage
  demoMode       bool
}

func NewAssignmentService(
  db *gorm.DB,
  log *logger.Logger,
  assignmentRepo repos.AssignmentRepo,
  draftRepo repos.AssignmentDraftRepo,
  responseRepo repos.ResponseRepo,
  audioStorage AudioStorage,
  demoMode bool,
) AssignmentService {
  serviceLog := log.With("service", "AssignmentService")
  return &assignmentService{
    db:             db,
    log:            serviceLog,
    assignmentRepo: assignmentRepo,
    draftRepo:      draftRepo,
    responseRepo:   responseRepo,
    audioStorage:   audioStorage,
    demoMode:       demoMode,
  }
}

func (s *assignmentService) Create(ctx context.Context, in AssignmentInput, callerID string) (*types.Assignment, error) {
  if strings.TrimSpace(in.Title) == "" {
    return nil, apierr.New(http.StatusBadRequest, "title_required", fmt.Errorf("A title is required"))
  }

  // The stored owner is always the resolved caller when one exists; a
  // client-supplied owner_id only counts for anonymous demo-mode requests.
  ownerID := callerID
  if ownerID == "" {
    if s.demoMode && in.OwnerID != nil && *in.OwnerID != "" {
      ownerID = *in.OwnerID
    } else {
      return nil, apierr.New(http.StatusBadRequest, "owner_unresolvable", fmt.Errorf("No owner could be resolved for this assignment"))
    }
  }

  assignment := &types.Assignment{
    ID:               uuid.NewString(),
    Title:            strings.TrimSpace(in.Title),
    Description:      in.Description,
    DueDate:          in.DueDate,
    IsQuiz:           in.IsQuiz,
    TimeLimitSeconds: in.TimeLimitSeconds,
    Questions:        in.Questions,
    OwnerID:          &ownerID,
  }

  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if in.DraftID != nil && *in.DraftID != "" {
      draft, dErr := s.draftRepo.GetByID(ctx, tx, *in.DraftID)
      if dErr != nil {
        return fmt.Errorf("Failed to load draft: %w", dErr)
      }
      if draft == nil {
        return apierr.New(http.StatusNotFound, "draft_not_found", fmt.Errorf("Draft not found"))
      }
      if draft.OwnerID != ownerID {
        return apierr.New(http.StatusForbidden, "draft_forbidden", fmt.Errorf("Draft belongs to another owner"))
      }
      if delErr := s.draftRepo.DeleteByID(ctx, tx, draft.ID); delErr != nil {
        return fmt.Errorf("Failed to delete promoted draft: %w", delErr)
      }
    }
    if _, cErr := s.assignmentRepo.Create(ctx, tx, assignment); cErr != nil {
      return fmt.Errorf("Failed to create assignment: %w", cErr)
    }
    return nil
  })
  if err != nil {
    return nil, err
  }

  s.log.Info("Assignment created", "assignment_id", assignment.ID, "owner_id", ownerID)
  return assignment, nil
}

func (s *assignmentService) Get(ctx context.Context, assignmentID string) (*types.Assignment, error) {
  assignment, err := s.assignmentRepo.GetByID(ctx, nil, assignmentID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load assignment: %w", err)
  }
  if assignment == nil {
    return nil, apierr.New(http.StatusNotFound, "assignment_not_found", fmt.Errorf("Assignment not found"))
  }
  return assignment, nil
}

func (s *assignmentService) List(ctx context.Context, ownerID string) ([]*types.Assignment, error) {
  results, err := s.assignmentRepo.ListByOwnerID(ctx, nil, ownerID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list assignments: %w", err)
  }
  return results, nil
}

// Delete removes the assignment and every response under it in one
// transaction. Attachment cleanup happens first and is best-effort: an
// orphaned blob is logged and reported, an orphaned row is never acceptable.
func (s *assignmentService) Delete(ctx context.Context, assignmentID, callerID string) (*AssignmentDeleteResult, error) {
  assignment, err := s.assignmentRepo.GetByID(ctx, nil, assignmentID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load assignment: %w", err)
  }
  if assignment == nil {
    return nil, apierr.New(http.StatusNotFound, "assignment_not_found", fmt.Errorf("Assignment not found"))
  }
  if assignment.OwnerID == nil || *assignment.OwnerID != callerID {
    return nil, apierr.New(http.StatusForbidden, "assignment_forbidden", fmt.Errorf("You do not own this assignment"))
  }

  responses, err := s.responseRepo.ListByAssignmentID(ctx, nil, assignmentID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list responses for deletion: %w", err)
  }

  failedIDs := s.cleanupAttachments(ctx, responses)

  err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if dErr := s.responseRepo.DeleteByAssignmentID(ctx, tx, assignmentID); dErr != nil {
      return dErr
    }
    return s.assignmentRepo.DeleteByID(ctx, tx, assignmentID)
  })
  if err != nil {
    if isForeignKeyViolation(err) {
      return nil, apierr.New(http.StatusConflict, "assignment_delete_conflict",
        fmt.Errorf("Assignment still has dependent records, retry the deletion"))
    }
    return nil, fmt.Errorf("Failed to delete assignment: %w", err)
  }

  s.log.Info("Assignment deleted",
    "assignment_id", assignmentID,
    "responses_deleted", len(responses),
    "audio_cleanup_failures", len(failedIDs))

  return &AssignmentDeleteResult{
    ResponsesDeleted:      len(responses),
    AudioCleanupFailedFor: failedIDs,
  }, nil
}

// cleanupAttachments deletes the audio objects for the given responses with a
// small worker cap. Individual failures are collected, never fatal.
func (s *assignmentService) cleanupAttachments(ctx context.Context, responses []*types.Response) []string {
  var (
    mu        sync.Mutex
    failedIDs []string
  )

  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(4)
  for _, response := range responses {
    if response.AudioStoragePath == nil || *response.AudioStoragePath == "" {
      continue
    }
    if s.audioStorage == nil {
      s.log.Warn("Audio storage not configured, leaving attachment orphaned", "response_id", response.ID)
      mu.Lock()
      failedIDs = append(failedIDs, response.ID)
      mu.Unlock()
      continue
    }
    resp := response
    g.Go(func() error {
      deleteCtx, cancel := context.WithTimeout(gctx, 30*time.Second)
      defer cancel()
      if err := s.audioStorage.Delete(deleteCtx, *resp.AudioStoragePath); err != nil {
        s.log.Warn("Failed to delete response audio, blob orphaned",
          "response_id", resp.ID, "storage_path", *resp.AudioStoragePath, "error", err)
        mu.Lock()
        failedIDs = append(failedIDs, resp.ID)
        mu.Unlock()
      }
      return nil
    })
  }
  _ = g.Wait()

  sort.Strings(failedIDs)
  return failedIDs
}
