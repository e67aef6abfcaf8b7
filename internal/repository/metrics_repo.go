package repository

import (
	"context"

	"maintenance-service/internal/model"
	"maintenance-service/pkg/database"

	"golang.org/x/sync/errgroup"
)

// MetricsRepository computes aggregated counts for a tenant.
type MetricsRepository struct {
	db *database.DB
}

// WorkOrderCounts breaks work orders down by lifecycle state.
type WorkOrderCounts struct {
	Open       int64 `json:"open"`
	Assigned   int64 `json:"assigned"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
}

// TenantMetrics is the aggregated overview for one tenant.
type TenantMetrics struct {
	Machines    int64           `json:"machines"`
	WorkOrders  WorkOrderCounts `json:"workOrders"`
	ActivePlans int64           `json:"activePlans"`
	Documents   int64           `json:"documents"`
}

// Counts computes the overview. The independent counts run concurrently.
func (r *MetricsRepository) Counts(ctx context.Context, tenantID uint) (*TenantMetrics, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var metrics TenantMetrics
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gdb.WithContext(gctx).Model(&model.Machine{}).
			Where("tenant_id = ?", tenantID).
			Count(&metrics.Machines).Error
	})
	g.Go(func() error {
		return gdb.WithContext(gctx).Model(&model.PreventivePlan{}).
			Where("tenant_id = ? AND active = ?", tenantID, true).
			Count(&metrics.ActivePlans).Error
	})
	g.Go(func() error {
		return gdb.WithContext(gctx).Model(&model.MachineDocument{}).
			Where("tenant_id = ?", tenantID).
			Count(&metrics.Documents).Error
	})

	for status, dest := range map[string]*int64{
		model.WorkOrderStatusOpen:       &metrics.WorkOrders.Open,
		model.WorkOrderStatusAssigned:   &metrics.WorkOrders.Assigned,
		model.WorkOrderStatusInProgress: &metrics.WorkOrders.InProgress,
		model.WorkOrderStatusCompleted:  &metrics.WorkOrders.Completed,
	} {
		status, dest := status, dest
		g.Go(func() error {
			return gdb.WithContext(gctx).Model(&model.WorkOrder{}).
				Where("tenant_id = ? AND status = ?", tenantID, status).
				Count(dest).Error
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &metrics, nil
}
