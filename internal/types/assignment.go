package types

import (
	"time"

	"gorm.io/datatypes"
)

type Assignment struct {
	ID               string         `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"not null;column:title" json:"title"`
	Description      *string        `gorm:"column:description" json:"description,omitempty"`
	DueDate          *string        `gorm:"column:due_date" json:"dueDate,omitempty"`
	IsQuiz           bool           `gorm:"not null;default:false;column:is_quiz" json:"isQuiz"`
	TimeLimitSeconds *int           `gorm:"column:time_limit_seconds" json:"assignmentTimeLimit,omitempty"`
	Questions        datatypes.JSON `gorm:"column:questions;type:jsonb" json:"questions"`

	// Nullable so ownerless demo records can exist. Never taken from the
	// request body when a caller identity was resolved.
	OwnerID *string `gorm:"index;column:owner_id" json:"owner_id,omitempty"`
	Owner   *User   `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignment" }
