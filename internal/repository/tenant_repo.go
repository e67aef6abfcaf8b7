package repository

import (
	"context"

	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"
	"maintenance-service/pkg/database"

	"gorm.io/gorm"
)

// TenantRepository manages tenants. The signup flow is the only operation in
// the system that does not take a tenant id first: it creates the tenant.
type TenantRepository struct {
	db *database.DB
}

// Signup creates a tenant and its first user in one transaction. Either both
// records exist afterwards or neither does. The first user always gets the
// general_supervisor role.
func (r *TenantRepository) Signup(ctx context.Context, tenant *model.Tenant, user *model.User) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Tenant{}).Where("slug = ?", tenant.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}

		if err := tx.Create(tenant).Error; err != nil {
			return err
		}

		user.TenantID = tenant.ID
		user.Role = string(permission.RoleGeneralSupervisor)
		user.Active = true
		return tx.Create(user).Error
	})
}

// FindBySlug returns the active tenant with the given slug.
func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var tenant model.Tenant
	result := gdb.Where("slug = ? AND active = ?", slug, true).First(&tenant)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &tenant, nil
}
