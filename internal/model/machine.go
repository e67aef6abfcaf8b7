package model

import (
	"time"

	"gorm.io/gorm"
)

// Machine status values.
const (
	MachineStatusOperational = "operational"
	MachineStatusDown        = "down"
	MachineStatusMaintenance = "maintenance"
)

// Machine represents a maintainable asset. Code is unique within a tenant,
// not globally.
type Machine struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_machines_tenant_code"`
	Code      string         `json:"code" gorm:"type:varchar(100);not null;uniqueIndex:idx_machines_tenant_code"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Status    string         `json:"status" gorm:"type:varchar(50);default:'operational'"`
	Location  string         `json:"location" gorm:"type:varchar(255)"`
	Metadata  string         `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
