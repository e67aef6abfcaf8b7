package model

import "time"

// MachineDocument represents uploaded document metadata for a machine. The
// file body lives in object storage under StorageKey, which is always
// prefixed with the owning tenant.
type MachineDocument struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"index;not null"`
	MachineID   uint      `json:"machine_id" gorm:"index;not null"`
	Type        string    `json:"type" gorm:"type:varchar(50)"`
	Title       string    `json:"title" gorm:"type:varchar(255)"`
	StorageKey  string    `json:"storage_key" gorm:"type:varchar(512);not null"`
	ContentType string    `json:"content_type" gorm:"type:varchar(100)"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  uint      `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
