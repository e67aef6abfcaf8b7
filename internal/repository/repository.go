package repository

import (
	"errors"

	"maintenance-service/pkg/database"
)

// Sentinel errors translated by handlers into the error taxonomy.
var (
	// ErrNotFound covers absent records, cross-tenant records and, for
	// assignee-only transitions, records the caller may not act on. The
	// three cases are deliberately indistinguishable.
	ErrNotFound = errors.New("repository: record not found")

	// ErrDuplicate reports a violated per-tenant uniqueness rule
	// (machine code, user email) or the global tenant slug.
	ErrDuplicate = errors.New("repository: duplicate value")

	// ErrAssigneeNotEligible reports an assignment to a user that does
	// not exist in the tenant, is inactive, or holds a non-assignable
	// role.
	ErrAssigneeNotEligible = errors.New("repository: assignee not eligible")
)

// ListParams carries validated pagination values.
type ListParams struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Repositories bundles all tenant-scoped repositories over one handle.
type Repositories struct {
	Tenants   *TenantRepository
	Users     *UserRepository
	Machines  *MachineRepository
	Documents *DocumentRepository
	WorkOrder *WorkOrderRepository
	Plans     *PlanRepository
	Metrics   *MetricsRepository
}

// New builds the repository set over a database handle.
func New(db *database.DB) *Repositories {
	return &Repositories{
		Tenants:   &TenantRepository{db: db},
		Users:     &UserRepository{db: db},
		Machines:  &MachineRepository{db: db},
		Documents: &DocumentRepository{db: db},
		WorkOrder: &WorkOrderRepository{db: db},
		Plans:     &PlanRepository{db: db},
		Metrics:   &MetricsRepository{db: db},
	}
}
