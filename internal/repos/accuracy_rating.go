package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/amplifylms/amplify-backend/internal/logger"
  "github.com/amplifylms/amplify-backend/internal/types"
)

type AccuracyRatingRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rating *types.AccuracyRating) (*types.AccuracyRating, error)
  GetByResponseID(ctx context.Context, tx *gorm.DB, responseID string) (*types.AccuracyRating, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, ratingID string, fields map[string]interface{}) error
}

type accuracyRatingRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAccuracyRatingRepo(db *gorm.DB, baseLog *logger.Logger) AccuracyRatingRepo {
  repoLog := baseLog.With("repo", "AccuracyRatingRepo")
  return &accuracyRatingRepo{db: db, log: repoLog}
}

func (r *accuracyRatingRepo) Create(ctx context.Context, tx *gorm.DB, rating *types.AccuracyRating) (*types.AccuracyRating, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).Create(rating).Error; err != nil {
    return nil, err
  }
  return rating, nil
}

func (r *accuracyRatingRepo) GetByResponseID(ctx context.Context, tx *gorm.DB, responseID string) (*types.AccuracyRating, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var rating types.AccuracyRating
  err := transaction.WithContext(ctx).Where("response_id = ?", responseID).First(&rating).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &rating, nil
}

func (r *accuracyRatingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, ratingID string, fields map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(fields) == 0 {
    return nil
  }

  return transaction.WithContext(ctx).
    Model(&types.AccuracyRating{}).
    Where("id = ?", ratingID).
    Updates(fields).Error
}
