package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type ResponseRepo interface {
  Create(ctx context.Context, tx *gorm.DB, response *types.Response) (*types.Response, error)
  GetByID(ctx context.Context, tx *gorm.DB, responseID string) (*types.Response, error)
  GetByAssignmentAndJNumber(ctx context.Context, tx *gorm.DB, assignmentID, jNumber string) (*types.Response, error)
  ListByAssignmentID(ctx context.Context, tx *gorm.DB, assignmentID string) ([]*types.Response, error)
  ListByAssignmentIDs(ctx context.Context, tx *gorm.DB, assignmentIDs []string) ([]*types.Response, error)
  ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Response, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, responseID string, fields map[string]interface{}) error
  DeleteByAssignmentID(ctx context.Context, tx *gorm.DB, assignmentID string) error
}

type responseRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
  repoLog := baseLog.With("repo", "ResponseRepo")
  return &responseRepo{db: db, log: repoLog}
}

func (r *responseRepo) Create(ctx context.Context, tx *gorm.DB, response *types.Response) (*types.Response, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Create(response).Error; err != nil {
    return nil, err
  }
  return response, nil
}

func (r *responseRepo) GetByID(ctx context.Context, tx *gorm.DB, responseID string) (*types.Response, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var response types.Response
  err := transaction.WithContext(ctx).Where("id = ?", responseID).First(&response).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &response, nil
}

func (r *responseRepo) GetByAssignmentAndJNumber(ctx context.Context, tx *gorm.DB, assignmentID, jNumber string) (*types.Response, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var response types.Response
  err := transaction.WithContext(ctx).
    Where("assignment_id = ? AND j_number = ?", assignmentID, jNumber).
    First(&response).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &response, nil
}

func (r *responseRepo) ListByAssignmentID(ctx context.Context, tx *gorm.DB, assignmentID string) ([]*types.Response, error) {
  return r.ListByAssignmentIDs(ctx, tx, []string{assignmentID})
}

func (r *responseRepo) ListByAssignmentIDs(ctx context.Context, tx *gorm.DB, assignmentIDs []string) ([]*types.Response, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Response
  if len(assignmentIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("assignment_id IN ?", assignmentIDs).
    Order("submitted_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *responseRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Response, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Response
  if err := transaction.WithContext(ctx).
    Order("submitted_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *responseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, responseID string, fields map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(fields) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Model(&types.Response{}).
    Where("id = ?", responseID).
    Updates(fields).Error
}

func (r *responseRepo) DeleteByAssignmentID(ctx context.Context, tx *gorm.DB, assignmentID string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  return transaction.WithContext(ctx).
    Where("assignment_id = ?", assignmentID).
    Delete(&types.Response{}).Error
}
