package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	UserID         string    `json:"user_id" gorm:"uniqueIndex;not null"`
	Username       string    `json:"username" gorm:"default:''"`
	FirstName      string    `json:"first_name" gorm:"default:''"`
	LastName       string    `json:"last_name" gorm:"default:''"`
	Email          string    `json:"email" gorm:"default:''"`
	Mobile         string    `json:"mobile" gorm:"default:''"`
	Gender         string    `json:"gender" gorm:"default:''"`
	Dob            string    `json:"dob" gorm:"default:''"`
	Status         string    `json:"status" gorm:"default:'active'"`
	TenantID       string    `json:"tenant_id" gorm:"index"`
	OrganisationID string    `json:"organisation_id" gorm:"index"`
	LastLogin      time.Time `json:"last_login" gorm:"default:NULL"`
	IsDeleted      bool      `gorm:"default:false"`
}
