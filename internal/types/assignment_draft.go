package types

import (
	"time"

	"gorm.io/datatypes"
)

// AssignmentDraft holds in-progress authoring state, checkpointed by the
// client every few seconds. UpdatedAt advances on every mutation so the draft
// list can be ordered most-recently-edited first.
type AssignmentDraft struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Title       *string        `gorm:"column:title" json:"title,omitempty"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	Questions   datatypes.JSON `gorm:"column:questions;type:jsonb" json:"questions,omitempty"`

	OwnerID string `gorm:"not null;index;column:owner_id" json:"owner_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AssignmentDraft) TableName() string { return "assignment_draft" }
