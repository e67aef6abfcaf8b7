package repository

import (
	"context"
	"testing"

	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupCreatesTenantAndFirstUser(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	tenant := &model.Tenant{Slug: "acme", Name: "Acme Corp"}
	user := &model.User{Email: "owner@acme.test", PasswordHash: "x", Role: "operator"}
	require.NoError(t, repos.Tenants.Signup(ctx, tenant, user))

	assert.NotZero(t, tenant.ID)
	assert.Equal(t, tenant.ID, user.TenantID)
	// The first user is always the general supervisor, whatever the
	// request claimed.
	assert.Equal(t, string(permission.RoleGeneralSupervisor), user.Role)
	assert.True(t, user.Active)

	found, err := repos.Tenants.FindBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", found.Name)
}

func TestSignupDuplicateSlugLeavesNoOrphanUser(t *testing.T) {
	repos, gdb := newTestRepos(t)
	ctx := context.Background()

	first := &model.Tenant{Slug: "acme", Name: "Acme"}
	require.NoError(t, repos.Tenants.Signup(ctx, first, &model.User{Email: "a@acme.test", PasswordHash: "x"}))

	second := &model.Tenant{Slug: "acme", Name: "Impostor"}
	err := repos.Tenants.Signup(ctx, second, &model.User{Email: "b@acme.test", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// The failed signup must not have created anything.
	var tenants, users int64
	require.NoError(t, gdb.Model(&model.Tenant{}).Count(&tenants).Error)
	require.NoError(t, gdb.Model(&model.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, tenants)
	assert.EqualValues(t, 1, users)
}

func TestFindBySlugSkipsInactiveTenant(t *testing.T) {
	repos, gdb := newTestRepos(t)
	ctx := context.Background()

	tenant, _ := createTenant(t, repos, "acme")
	require.NoError(t, gdb.Model(&model.Tenant{}).Where("id = ?", tenant.ID).Update("active", false).Error)

	_, err := repos.Tenants.FindBySlug(ctx, "acme")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserEmailUniquePerTenant(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	globex, _ := createTenant(t, repos, "globex")

	createUser(t, repos, acme.ID, "joe@example.com", permission.RoleMaintainer)

	dup := &model.User{Email: "joe@example.com", PasswordHash: "x", Role: "maintainer", Active: true}
	err := repos.Users.Create(ctx, acme.ID, dup)
	assert.ErrorIs(t, err, ErrDuplicate)

	// The same address is free under another tenant.
	other := &model.User{Email: "joe@example.com", PasswordHash: "x", Role: "maintainer", Active: true}
	require.NoError(t, repos.Users.Create(ctx, globex.ID, other))
}
