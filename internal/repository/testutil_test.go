package repository

import (
	"context"
	"testing"

	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"
	"maintenance-service/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestRepos builds the repository set over a private in-memory database.
// The raw handle is returned for tests that need to tweak rows directly.
func newTestRepos(t *testing.T) (*Repositories, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&model.Tenant{}, &model.User{}, &model.Machine{},
		&model.MachineDocument{}, &model.WorkOrder{}, &model.PreventivePlan{},
	))

	return New(database.NewFromGorm(gdb)), gdb
}

func createTenant(t *testing.T, repos *Repositories, slug string) (*model.Tenant, *model.User) {
	t.Helper()

	tenant := &model.Tenant{Slug: slug, Name: slug, Active: true, Plan: "free"}
	admin := &model.User{Email: "admin@" + slug + ".test", PasswordHash: "x"}
	require.NoError(t, repos.Tenants.Signup(context.Background(), tenant, admin))
	return tenant, admin
}

func createUser(t *testing.T, repos *Repositories, tenantID uint, email string, role permission.Role) *model.User {
	t.Helper()

	user := &model.User{Email: email, PasswordHash: "x", Role: string(role), Active: true}
	require.NoError(t, repos.Users.Create(context.Background(), tenantID, user))
	return user
}

func createMachine(t *testing.T, repos *Repositories, tenantID uint, code string) *model.Machine {
	t.Helper()

	machine := &model.Machine{Code: code, Name: code, Status: model.MachineStatusOperational}
	require.NoError(t, repos.Machines.Create(context.Background(), tenantID, machine))
	return machine
}

func createWorkOrder(t *testing.T, repos *Repositories, tenantID, machineID uint, title string) *model.WorkOrder {
	t.Helper()

	wo := &model.WorkOrder{MachineID: machineID, Title: title, Type: model.WorkOrderTypeCorrective}
	require.NoError(t, repos.WorkOrder.Create(context.Background(), tenantID, wo))
	return wo
}
