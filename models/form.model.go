package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Form struct {
	gorm.Model
	FormID    string         `json:"form_id" gorm:"uniqueIndex;not null"`
	Title     string         `json:"title"`
	ContextID string         `json:"context_id" gorm:"index"` // cohortId the form was issued for
	Status    string         `json:"status" gorm:"default:'published'"`
	Schema    datatypes.JSON `json:"schema"` // page/field layout, walked by fetcher.FieldPageIndex
	IsDeleted bool           `gorm:"default:false"`
}

type FormSubmission struct {
	gorm.Model
	SubmissionID   string         `json:"submission_id" gorm:"uniqueIndex;not null"`
	FormID         string         `json:"form_id" gorm:"index;not null"`
	UserID         string         `json:"user_id" gorm:"index;not null"`
	Status         string         `json:"status" gorm:"default:'draft'"` // draft, submitted, approved, rejected
	SubmissionData datatypes.JSON `json:"submission_data"`               // fieldId -> submitted value
	LastSavedAt    *time.Time     `json:"last_saved_at"`
	SubmittedAt    *time.Time     `json:"submitted_at"`
	IsDeleted      bool           `gorm:"default:false"`
}
