package model

import (
	"time"

	"gorm.io/gorm"
)

// PreventivePlan represents a recurring maintenance schedule for a machine.
// The scheduler turns due plans into preventive work orders and advances
// NextDueDate by RecurrenceDays.
type PreventivePlan struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TenantID       uint           `json:"tenant_id" gorm:"index;not null"`
	MachineID      uint           `json:"machine_id" gorm:"index;not null"`
	Name           string         `json:"name" gorm:"type:varchar(255)"`
	Active         bool           `json:"active" gorm:"default:true"`
	NextDueDate    time.Time      `json:"next_due_date" gorm:"index"`
	RecurrenceDays int            `json:"recurrence_days" gorm:"not null"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
