package repository

import (
	"context"
	"errors"

	"maintenance-service/internal/model"
	"maintenance-service/pkg/database"

	"gorm.io/gorm"
)

// UserRepository manages users within a tenant.
type UserRepository struct {
	db *database.DB
}

// Create adds a user to the tenant. Email must be unique within the tenant.
func (r *UserRepository) Create(ctx context.Context, tenantID uint, user *model.User) error {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	var count int64
	if err := gdb.Model(&model.User{}).
		Where("tenant_id = ? AND email = ?", tenantID, user.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}

	user.TenantID = tenantID
	return gdb.Create(user).Error
}

// FindByEmail returns the active user with the given email in the tenant.
func (r *UserRepository) FindByEmail(ctx context.Context, tenantID uint, email string) (*model.User, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var user model.User
	result := gdb.Where("tenant_id = ? AND email = ? AND active = ?", tenantID, email, true).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// FindByID returns the user with the given id in the tenant. A user from
// another tenant is reported as not found.
func (r *UserRepository) FindByID(ctx context.Context, tenantID, id uint) (*model.User, error) {
	gdb, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	var user model.User
	result := gdb.Where("tenant_id = ? AND id = ?", tenantID, id).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}
