package repository

import (
	"context"
	"errors"

	"maintenance-service/internal/model"
	"maintenance-service/pkg/database"

	"gorm.io/gorm"
)

// MachineRepository manages machines within a tenant.
type MachineRepository struct {
	db *database.DB
}

// Create adds a machine. Code must be unique within the tenant; the same
// code may exist under other tenants.
func (r *MachineRepository) Create(ctx context.Context, tenantID uint, machine *model.Machine) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	var count int64
	if err := gdb.Model(&model.Machine{}).
		Where("tenant_id = ? AND code = ?", tenantID, machine.Code).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}

	machine.TenantID = tenantID
	return gdb.Create(machine).Error
}

// FindByID returns the machine with the given id in the tenant.
func (r *MachineRepository) FindByID(ctx context.Context, tenantID, id uint) (*model.Machine, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var machine model.Machine
	result := gdb.Where("tenant_id = ? AND id = ?", tenantID, id).First(&machine)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &machine, nil
}

// List returns a page of the tenant's machines, optionally filtered by
// status, together with the total count.
func (r *MachineRepository) List(ctx context.Context, tenantID uint, params ListParams, status string) ([]model.Machine, int64, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := gdb.Model(&model.Machine{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var machines []model.Machine
	result := query.
		Order("created_at desc").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&machines)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return machines, total, nil
}

// Update applies field updates to the machine. Changing the code re-checks
// per-tenant uniqueness.
func (r *MachineRepository) Update(ctx context.Context, tenantID uint, id uint, updates map[string]interface{}) (*model.Machine, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	if code, ok := updates["code"].(string); ok {
		var count int64
		if err := gdb.Model(&model.Machine{}).
			Where("tenant_id = ? AND code = ? AND id != ?", tenantID, code, id).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicate
		}
	}

	result := gdb.Model(&model.Machine{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, tenantID, id)
}

// Delete removes the machine. Returns ErrNotFound when no row in the tenant
// matched.
func (r *MachineRepository) Delete(ctx context.Context, tenantID, id uint) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	result := gdb.Where("tenant_id = ?", tenantID).Delete(&model.Machine{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
