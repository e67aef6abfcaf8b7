package model

import "time"

// Work order status values. Transitions only move forward:
// open -> assigned -> in_progress -> completed.
const (
	WorkOrderStatusOpen       = "open"
	WorkOrderStatusAssigned   = "assigned"
	WorkOrderStatusInProgress = "in_progress"
	WorkOrderStatusCompleted  = "completed"
)

// Work order types.
const (
	WorkOrderTypeCorrective = "corrective"
	WorkOrderTypePreventive = "preventive"
)

// WorkOrder represents a unit of maintenance work on a machine.
type WorkOrder struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	TenantID         uint       `json:"tenant_id" gorm:"index;not null"`
	MachineID        uint       `json:"machine_id" gorm:"index;not null"`
	PlanID           *uint      `json:"plan_id,omitempty" gorm:"index"`
	Status           string     `json:"status" gorm:"type:varchar(50);default:'open';index"`
	Type             string     `json:"type" gorm:"type:varchar(50);default:'corrective'"`
	Title            string     `json:"title" gorm:"type:varchar(255)"`
	Description      string     `json:"description" gorm:"type:text"`
	AssignedTo       *uint      `json:"assigned_to,omitempty" gorm:"index"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CompletionNotes  string     `json:"completion_notes,omitempty" gorm:"type:text"`
	PartsUsed        string     `json:"parts_used,omitempty" gorm:"type:jsonb"`
	TimeSpentMinutes int        `json:"time_spent_minutes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
