package services

import (
  "context"
  "fmt"
  "net/http"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/apierr"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/repos"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type DraftInput struct {
  Title       *string
  Description *string
  Questions   datatypes.JSON
}

// DraftPatch carries only the fields present in the request. Nil means
// "leave untouched", matching the autosave client's partial updates.
type DraftPatch struct {
  Title       *string
  Description *string
  Questions   datatypes.JSON
}

type DraftService interface {
  Create(ctx context.Context, in DraftInput, callerID string) (*types.AssignmentDraft, error)
  List(ctx context.Context, callerID string) ([]*types.AssignmentDraft, error)
  Update(ctx context.Context, draftID string, patch DraftPatch, callerID string) (*types.AssignmentDraft, error)
  Delete(ctx context.Context, draftID, callerID string) error
}

type draftService struct {
  db        *gorm.DB
  log       *logger.Logger
  draftRepo repos.AssignmentDraftRepo
}

func NewDraftService(db *gorm.DB, log *logger.Logger, draftRepo repos.AssignmentDraftRepo) DraftService {
  serviceLog := log.With("service", "DraftService")
  return &draftService{db: db, log: serviceLog, draftRepo: draftRepo}
}

func (s *draftService) Create(ctx context.Context, in DraftInput, callerID string) (*types.AssignmentDraft, error) {
  if callerID == "" {
    return nil, apierr.New(http.StatusUnauthorized, "unauthorized", fmt.Errorf("Authentication required"))
  }

  now := time.Now()
  draft := &types.AssignmentDraft{
    ID:          uuid.NewString(),
    Title:       in.Title,
    Description: in.Description,
    Questions:   in.Questions,
    OwnerID:     callerID,
    CreatedAt:   now,
    UpdatedAt:   now,
  }
  if _, err := s.draftRepo.Create(ctx, nil, draft); err != nil {
    return nil, fmt.Errorf("Failed to create draft: %w", err)
  }
  return draft, nil
}

func (s *draftService) List(ctx context.Context, callerID string) ([]*types.AssignmentDraft, error) {
  results, err := s.draftRepo.ListByOwnerID(ctx, nil, callerID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list drafts: %w", err)
  }
  return results, nil
}

func (s *draftService) Update(ctx context.Context, draftID string, patch DraftPatch, callerID string) (*types.AssignmentDraft, error) {
  draft, err := s.getOwned(ctx, draftID, callerID)
  if err != nil {
    return nil, err
  }

  // updated_at advances on every checkpoint, even a no-op one; the draft
  // list is ordered by it.
  fields := map[string]interface{}{
    "updated_at": time.Now(),
  }
  if patch.Title != nil {
    fields["title"] = *patch.Title
  }
  if patch.Description != nil {
    fields["description"] = *patch.Description
  }
  if patch.Questions != nil {
    fields["questions"] = patch.Questions
  }

  if err := s.draftRepo.UpdateFields(ctx, nil, draft.ID, fields); err != nil {
    return nil, fmt.Errorf("Failed to update draft: %w", err)
  }

  updated, err := s.draftRepo.GetByID(ctx, nil, draft.ID)
  if err != nil {
    return nil, fmt.Errorf("Failed to reload draft: %w", err)
  }
  return updated, nil
}

func (s *draftService) Delete(ctx context.Context, draftID, callerID string) error {
  draft, err := s.getOwned(ctx, draftID, callerID)
  if err != nil {
    return err
  }
  if err := s.draftRepo.DeleteByID(ctx, nil, draft.ID); err != nil {
    return fmt.Errorf("Failed to delete draft: %w", err)
  }
  return nil
}

func (s *draftService) getOwned(ctx context.Context, draftID, callerID string) (*types.AssignmentDraft, error) {
  draft, err := s.draftRepo.GetByID(ctx, nil, draftID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load draft: %w", err)
  }
  if draft == nil {
    return nil, apierr.New(http.StatusNotFound, "draft_not_found", fmt.Errorf("Draft not found"))
  }
  if draft.OwnerID != callerID {
    return nil, apierr.New(http.StatusForbidden, "draft_forbidden", fmt.Errorf("Draft belongs to another owner"))
  }
  return draft, nil
}
