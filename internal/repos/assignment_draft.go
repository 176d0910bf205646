package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type AssignmentDraftRepo interface {
  Create(ctx context.Context, tx *gorm.DB, draft *types.AssignmentDraft) (*types.AssignmentDraft, error)
  GetByID(ctx context.Context, tx *gorm.DB, draftID string) (*types.AssignmentDraft, error)
  ListByOwnerID(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.AssignmentDraft, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, draftID string, fields map[string]interface{}) error
  DeleteByID(ctx context.Context, tx *gorm.DB, draftID string) error
}

type assignmentDraftRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAssignmentDraftRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentDraftRepo {
  repoLog := baseLog.With("repo", "AssignmentDraftRepo")
  return &assignmentDraftRepo{db: db, log: repoLog}
}

func (r *assignmentDraftRepo) Create(ctx context.Context, tx *gorm.DB, draft *types.AssignmentDraft) (*types.AssignmentDraft, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Create(draft).Error; err != nil {
    return nil, err
  }
  return draft, nil
}

func (r *assignmentDraftRepo) GetByID(ctx context.Context, tx *gorm.DB, draftID string) (*types.AssignmentDraft, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var draft types.AssignmentDraft
  err := transaction.WithContext(ctx).Where("id = ?", draftID).First(&draft).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &draft, nil
}

// ListByOwnerID orders most-recently-edited first; the autosave UI depends on
// this ordering.
func (r *assignmentDraftRepo) ListByOwnerID(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.AssignmentDraft, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.AssignmentDraft
  if err := transaction.WithContext(ctx).
    Where("owner_id = ?", ownerID).
    Order("updated_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// UpdateFields applies only the given columns. Callers include updated_at in
// fields on every call so the timestamp advances even for no-op patches.
func (r *assignmentDraftRepo) UpdateFields(ctx context.Context, tx *gorm.DB, draftID string, fields map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(fields) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Model(&types.AssignmentDraft{}).
    Where("id = ?", draftID).
    Updates(fields).Error
}

func (r *assignmentDraftRepo) DeleteByID(ctx context.Context, tx *gorm.DB, draftID string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).Where("id = ?", draftID).Delete(&types.AssignmentDraft{}).Error
}
