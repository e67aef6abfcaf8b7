package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents the tenant model stored in the database.
// This is the isolation boundary of the multi-tenant architecture: every
// other entity references a tenant and is never visible across tenants.
type Tenant struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Slug       string         `json:"slug" gorm:"type:varchar(100);uniqueIndex"`
	Name       string         `json:"name" gorm:"type:varchar(100);not null"`
	Active     bool           `json:"active" gorm:"default:true"`
	Plan       string         `json:"plan" gorm:"type:varchar(50);default:'free'"`
	AdSettings string         `json:"ad_settings,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
