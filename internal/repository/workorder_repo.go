package repository

import (
	"context"
	"errors"
	"time"

	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"
	"maintenance-service/pkg/database"

	"gorm.io/gorm"
)

// WorkOrderRepository manages work orders within a tenant and enforces the
// lifecycle state machine: open -> assigned -> in_progress -> completed.
// Every transition is a single conditional update matching on tenant id,
// work-order id and the required current state, so two racing requests can
// never both win; the loser sees zero rows affected and reports ErrNotFound.
type WorkOrderRepository struct {
	db *database.DB
}

// Completion carries the validated finish payload.
type Completion struct {
	Notes            string
	PartsUsed        string
	TimeSpentMinutes int
}

// WorkOrderFilter narrows List results.
type WorkOrderFilter struct {
	Status     string
	MachineID  uint
	AssignedTo uint
}

// Create opens a new work order.
func (r *WorkOrderRepository) Create(ctx context.Context, tenantID uint, wo *model.WorkOrder) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	// The machine must belong to the tenant.
	var count int64
	if err := gdb.Model(&model.Machine{}).
		Where("tenant_id = ? AND id = ?", tenantID, wo.MachineID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	wo.TenantID = tenantID
	wo.Status = model.WorkOrderStatusOpen
	wo.AssignedTo = nil
	return gdb.Create(wo).Error
}

// FindByID returns the work order with the given id in the tenant.
func (r *WorkOrderRepository) FindByID(ctx context.Context, tenantID, id uint) (*model.WorkOrder, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var wo model.WorkOrder
	result := gdb.Where("tenant_id = ? AND id = ?", tenantID, id).First(&wo)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &wo, nil
}

// List returns a page of the tenant's work orders and the total count.
func (r *WorkOrderRepository) List(ctx context.Context, tenantID uint, params ListParams, filter WorkOrderFilter) ([]model.WorkOrder, int64, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := gdb.Model(&model.WorkOrder{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MachineID != 0 {
		query = query.Where("machine_id = ?", filter.MachineID)
	}
	if filter.AssignedTo != 0 {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.WorkOrder
	result := query.
		Order("created_at desc").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&orders)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return orders, total, nil
}

// Assign puts the work order into the assigned state. Reassignment of an
// already-assigned order is allowed; in_progress and completed orders are
// not assignable. The assignee must be an active user of the tenant holding
// an assignable role.
func (r *WorkOrderRepository) Assign(ctx context.Context, tenantID, id, assigneeID uint) (*model.WorkOrder, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var assignee model.User
	result := gdb.Where("tenant_id = ? AND id = ? AND active = ?", tenantID, assigneeID, true).First(&assignee)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrAssigneeNotEligible
	}
	if result.Error != nil {
		return nil, result.Error
	}
	if !permission.Assignable(permission.Role(assignee.Role)) {
		return nil, ErrAssigneeNotEligible
	}

	result = gdb.Model(&model.WorkOrder{}).
		Where("tenant_id = ? AND id = ? AND status IN ?",
			tenantID, id, []string{model.WorkOrderStatusOpen, model.WorkOrderStatusAssigned}).
		Updates(map[string]interface{}{
			"status":      model.WorkOrderStatusAssigned,
			"assigned_to": assigneeID,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, tenantID, id)
}

// Start moves an assigned work order to in_progress. Only the assigned user
// may start it; any other caller gets ErrNotFound, the same answer as for an
// absent order, so existence and assignment never leak.
func (r *WorkOrderRepository) Start(ctx context.Context, tenantID, id, callerID uint) (*model.WorkOrder, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := gdb.Model(&model.WorkOrder{}).
		Where("tenant_id = ? AND id = ? AND status = ? AND assigned_to = ?",
			tenantID, id, model.WorkOrderStatusAssigned, callerID).
		Updates(map[string]interface{}{
			"status":     model.WorkOrderStatusInProgress,
			"started_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, tenantID, id)
}

// Finish completes an in_progress work order and stamps the completion
// payload. Same ownership restriction and not-found policy as Start.
func (r *WorkOrderRepository) Finish(ctx context.Context, tenantID, id, callerID uint, completion Completion) (*model.WorkOrder, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := gdb.Model(&model.WorkOrder{}).
		Where("tenant_id = ? AND id = ? AND status = ? AND assigned_to = ?",
			tenantID, id, model.WorkOrderStatusInProgress, callerID).
		Updates(map[string]interface{}{
			"status":             model.WorkOrderStatusCompleted,
			"completed_at":       now,
			"completion_notes":   completion.Notes,
			"parts_used":         completion.PartsUsed,
			"time_spent_minutes": completion.TimeSpentMinutes,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, tenantID, id)
}

// Update applies generic field updates. Not restricted to the assignee;
// supervisory roles gate this at the route level.
func (r *WorkOrderRepository) Update(ctx context.Context, tenantID, id uint, updates map[string]interface{}) (*model.WorkOrder, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := gdb.Model(&model.WorkOrder{}).
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

// Delete removes the work order.
func (r *WorkOrderRepository) Delete(ctx context.Context, tenantID, id uint) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	result := gdb.Where("tenant_id = ?", tenantID).Delete(&model.WorkOrder{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
