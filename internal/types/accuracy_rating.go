package types

import (
	"time"
)

// AccuracyRating is the instructor's review of a response transcript.
// At most one per response; upserts refresh UpdatedAt.
type AccuracyRating struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ResponseID string    `gorm:"not null;uniqueIndex;column:response_id" json:"response_id"`
	Response   *Response `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResponseID;references:ID" json:"response,omitempty"`

	Rating      int     `gorm:"not null;column:rating" json:"rating"`
	Notes       *string `gorm:"column:notes" json:"notes,omitempty"`
	NeedsReview bool    `gorm:"not null;default:false;column:needs_review" json:"needs_review"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AccuracyRating) TableName() string { return "accuracy_rating" }
