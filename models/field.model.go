package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Field contexts. Profile-scoped fields live under ContextUsers; fields
// declared under any other context are application data and are excluded
// from the indexed profile.
const (
	ContextUsers   = "USERS"
	ContextCohorts = "COHORTS"
)

type Field struct {
	gorm.Model
	FieldID         string         `json:"field_id" gorm:"uniqueIndex;not null"`
	Code            string         `json:"code" gorm:"index"`
	Label           string         `json:"label"`
	Type            string         `json:"type" gorm:"default:'text'"` // text, numeric, drop_down, checkbox, radio
	Context         string         `json:"context" gorm:"index;default:'USERS'"`
	ContextType     string         `json:"context_type" gorm:"default:''"`
	State           string         `json:"state" gorm:"default:''"`
	Ordering        int            `json:"ordering" gorm:"default:0"`
	FieldAttributes datatypes.JSON `json:"field_attributes"` // option lists, render hints; stripped before indexing
	IsDeleted       bool           `gorm:"default:false"`
}

type FieldValue struct {
	gorm.Model
	FieldValueID string `json:"field_value_id" gorm:"uniqueIndex;not null"`
	FieldID      string `json:"field_id" gorm:"index;not null"`
	ItemID       string `json:"item_id" gorm:"index;not null"` // userId the value belongs to
	Value        string `json:"value"`
	IsDeleted    bool   `gorm:"default:false"`
}
