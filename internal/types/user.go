package types

import (
	"time"
)

// User is an instructor account. Identity-provider subjects are opaque
// strings, so primary keys across the schema are strings rather than native
// uuids.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string    `gorm:"not null;column:password_hash" json:"-"`
	Role         string    `gorm:"not null;default:'instructor';column:role" json:"role"`
	Name         *string   `gorm:"column:name" json:"name,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }
