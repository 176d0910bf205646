package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type AssignmentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error)
  GetByID(ctx context.Context, tx *gorm.DB, assignmentID string) (*types.Assignment, error)
  ListByOwnerID(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Assignment, error)
  DeleteByID(ctx context.Context, tx *gorm.DB, assignmentID string) error
}

type assignmentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
  repoLog := baseLog.With("repo", "AssignmentRepo")
  return &assignmentRepo{db: db, log: repoLog}
}

func (r *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Create(assignment).Error; err != nil {
    return nil, err
  }
  return assignment, nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, assignmentID string) (*types.Assignment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var assignment types.Assignment
  err := transaction.WithContext(ctx).Where("id = ?", assignmentID).First(&assignment).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &assignment, nil
}

func (r *assignmentRepo) ListByOwnerID(ctx context.Context, tx *gorm.DB, ownerID string) ([]*types.Assignment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Assignment
  if err := transaction.WithContext(ctx).
    Where("owner_id = ?", ownerID).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *assignmentRepo) DeleteByID(ctx context.Context, tx *gorm.DB, assignmentID string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).Where("id = ?", assignmentID).Delete(&types.Assignment{}).Error
}
