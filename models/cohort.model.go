package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Cohort struct {
	gorm.Model
	CohortID       string         `json:"cohort_id" gorm:"uniqueIndex;not null"`
	Name           string         `json:"name"`
	Type           string         `json:"type" gorm:"default:'COHORT'"`
	Status         string         `json:"status" gorm:"default:'active'"`
	ProgramID      string         `json:"program_id" gorm:"index"`
	TenantID       string         `json:"tenant_id" gorm:"index"`
	OrganisationID string         `json:"organisation_id" gorm:"index"`
	Params         datatypes.JSON `json:"params"`
	IsDeleted      bool           `gorm:"default:false"`
}

type CohortMember struct {
	gorm.Model
	CohortMemberID string `json:"cohort_member_id" gorm:"uniqueIndex;not null"`
	CohortID       string `json:"cohort_id" gorm:"index;not null"`
	UserID         string `json:"user_id" gorm:"index;not null"`
	Status         string `json:"status" gorm:"default:'active'"` // active, dropout, archived
	StatusReason   string `json:"status_reason" gorm:"default:''"`
	IsDeleted      bool   `gorm:"default:false"`
}
