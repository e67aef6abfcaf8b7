package repository

import (
	"context"
	"errors"
	"time"

	"maintenance-service/internal/model"
	"maintenance-service/pkg/database"

	"gorm.io/gorm"
)

// PlanRepository manages preventive plans within a tenant and turns due
// plans into preventive work orders.
type PlanRepository struct {
	db *database.DB
}

// Create adds a preventive plan. The machine must belong to the tenant.
func (r *PlanRepository) Create(ctx context.Context, tenantID uint, plan *model.PreventivePlan) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	var count int64
	if err := gdb.Model(&model.Machine{}).
		Where("tenant_id = ? AND id = ?", tenantID, plan.MachineID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	plan.TenantID = tenantID
	return gdb.Create(plan).Error
}

// FindByID returns the plan with the given id in the tenant.
func (r *PlanRepository) FindByID(ctx context.Context, tenantID, id uint) (*model.PreventivePlan, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var plan model.PreventivePlan
	result := gdb.Where("tenant_id = ? AND id = ?", tenantID, id).First(&plan)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &plan, nil
}

// List returns a page of the tenant's plans and the total count.
func (r *PlanRepository) List(ctx context.Context, tenantID uint, params ListParams, machineID uint, active *bool) ([]model.PreventivePlan, int64, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := gdb.Model(&model.PreventivePlan{}).Where("tenant_id = ?", tenantID)
	if machineID != 0 {
		query = query.Where("machine_id = ?", machineID)
	}
	if active != nil {
		query = query.Where("active = ?", *active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var plans []model.PreventivePlan
	result := query.
		Order("next_due_date asc").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&plans)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return plans, total, nil
}

// Update applies field updates to the plan.
func (r *PlanRepository) Update(ctx context.Context, tenantID, id uint, updates map[string]interface{}) (*model.PreventivePlan, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := gdb.Model(&model.PreventivePlan{}).
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

// Delete removes the plan.
func (r *PlanRepository) Delete(ctx context.Context, tenantID, id uint) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	result := gdb.Where("tenant_id = ?", tenantID).Delete(&model.PreventivePlan{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SpawnDueWorkOrders creates a preventive work order for every active plan
// whose next due date has passed and advances the plan's next due date by
// its recurrence interval, both inside one transaction per plan. A plan that
// already has an open preventive work order for the same due date is
// skipped, so repeated runs within a day stay idempotent. Returns the number
// of work orders created.
func (r *PlanRepository) SpawnDueWorkOrders(ctx context.Context, now time.Time) (int, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return 0, err
	}

	var due []model.PreventivePlan
	if err := gdb.Where("active = ? AND next_due_date <= ?", true, now).Find(&due).Error; err != nil {
		return 0, err
	}

	spawned := 0
	for _, plan := range due {
		plan := plan
		err := gdb.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.WorkOrder{}).
				Where("tenant_id = ? AND plan_id = ? AND type = ? AND status = ? AND due_date = ?",
					plan.TenantID, plan.ID, model.WorkOrderTypePreventive,
					model.WorkOrderStatusOpen, plan.NextDueDate).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}

			dueDate := plan.NextDueDate
			wo := model.WorkOrder{
				TenantID:    plan.TenantID,
				MachineID:   plan.MachineID,
				PlanID:      &plan.ID,
				Status:      model.WorkOrderStatusOpen,
				Type:        model.WorkOrderTypePreventive,
				Title:       plan.Name,
				Description: "Scheduled preventive maintenance",
				DueDate:     &dueDate,
			}
			if err := tx.Create(&wo).Error; err != nil {
				return err
			}

			next := plan.NextDueDate.AddDate(0, 0, plan.RecurrenceDays)
			if err := tx.Model(&model.PreventivePlan{}).
				Where("id = ?", plan.ID).
				Update("next_due_date", next).Error; err != nil {
				return err
			}

			spawned++
			return nil
		})
		if err != nil {
			return spawned, err
		}
	}

	return spawned, nil
}
