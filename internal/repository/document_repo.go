package repository

import (
	"context"

	"maintenance-service/internal/model"
	"maintenance-service/pkg/database"
)

// DocumentRepository manages machine document metadata within a tenant.
type DocumentRepository struct {
	db *database.DB
}

// Create persists confirmed upload metadata. The handler has already
// verified that the storage key carries the tenant prefix.
func (r *DocumentRepository) Create(ctx context.Context, tenantID uint, doc *model.MachineDocument) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	doc.TenantID = tenantID
	return gdb.Create(doc).Error
}

// ListByMachine returns a page of a machine's documents and the total count.
func (r *DocumentRepository) ListByMachine(ctx context.Context, tenantID, machineID uint, params ListParams) ([]model.MachineDocument, int64, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := gdb.Model(&model.MachineDocument{}).
		Where("tenant_id = ? AND machine_id = ?", tenantID, machineID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []model.MachineDocument
	result := query.
		Order("created_at desc").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&docs)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return docs, total, nil
}
