package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database. A user belongs to
// exactly one tenant; email is unique within that tenant, not globally.
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_users_tenant_email"`
	Email        string         `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_users_tenant_email"`
	Name         string         `json:"name" gorm:"type:varchar(100)"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	Role         string         `json:"role" gorm:"type:varchar(50);not null"`
	Active       bool           `json:"active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
