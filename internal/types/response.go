package types

import (
	"time"

	"gorm.io/datatypes"
)

// Response is a single student submission. The composite unique index on
// (assignment_id, j_number) is the storage-level defense against concurrent
// duplicate submissions; the application-level check alone is not race-free.
type Response struct {
	ID           string      `gorm:"primaryKey" json:"id"`
	AssignmentID string      `gorm:"not null;index;uniqueIndex:idx_response_assignment_jnumber;column:assignment_id" json:"assignment_id"`
	Assignment   *Assignment `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssignmentID;references:ID" json:"assignment,omitempty"`

	StudentName string `gorm:"not null;column:student_name" json:"studentName"`
	JNumber     string `gorm:"not null;uniqueIndex:idx_response_assignment_jnumber;column:j_number" json:"jNumber"`

	Answers     datatypes.JSON `gorm:"column:answers;type:jsonb" json:"answers"`
	Transcripts datatypes.JSON `gorm:"column:transcripts;type:jsonb" json:"transcripts"`

	SubmittedAt time.Time `gorm:"not null;column:submitted_at" json:"submittedAt"`
	Grade       *float64  `gorm:"column:grade" json:"grade,omitempty"`

	// Audio attachment metadata. All-or-nothing: either every field is set
	// and the object exists in storage, or all are null.
	AudioStoragePath *string `gorm:"column:audio_storage_path" json:"audio_storage_path,omitempty"`
	AudioFileURL     *string `gorm:"column:audio_file_url" json:"audio_file_url,omitempty"`
	AudioMimeType    *string `gorm:"column:audio_mime_type" json:"audio_mime_type,omitempty"`
	AudioFileSize    *int64  `gorm:"column:audio_file_size" json:"audio_file_size,omitempty"`

	// Student self-assessment, settable only by the submitter.
	StudentAccuracyRating *int    `gorm:"column:student_accuracy_rating" json:"student_accuracy_rating,omitempty"`
	StudentRatingComment  *string `gorm:"column:student_rating_comment" json:"student_rating_comment,omitempty"`
}

func (Response) TableName() string { return "response" }
