package repository

import (
	"context"
	"testing"

	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkOrderLifecycle(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	maintainer := createUser(t, repos, acme.ID, "joe@acme.test", permission.RoleMaintainer)

	wo := createWorkOrder(t, repos, acme.ID, machine.ID, "bearing noise")
	assert.Equal(t, model.WorkOrderStatusOpen, wo.Status)
	assert.Nil(t, wo.AssignedTo)

	assigned, err := repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, maintainer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, maintainer.ID, *assigned.AssignedTo)

	started, err := repos.WorkOrder.Start(ctx, acme.ID, wo.ID, maintainer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStatusInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)

	finished, err := repos.WorkOrder.Finish(ctx, acme.ID, wo.ID, maintainer.ID, Completion{
		Notes:            "replaced bearing",
		PartsUsed:        `[{"part":"bearing 6204","qty":2}]`,
		TimeSpentMinutes: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStatusCompleted, finished.Status)
	assert.NotNil(t, finished.CompletedAt)
	assert.Equal(t, "replaced bearing", finished.CompletionNotes)
	assert.Equal(t, 90, finished.TimeSpentMinutes)
}

func TestWorkOrderAssignRejectsIneligibleAssignee(t *testing.T) {
	repos, gdb := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	globex, _ := createTenant(t, repos, "globex")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	wo := createWorkOrder(t, repos, acme.ID, machine.ID, "leak")

	operator := createUser(t, repos, acme.ID, "op@acme.test", permission.RoleOperator)
	outsider := createUser(t, repos, globex.ID, "joe@globex.test", permission.RoleMaintainer)

	// Operators cannot execute work orders.
	_, err := repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, operator.ID)
	assert.ErrorIs(t, err, ErrAssigneeNotEligible)

	// A maintainer from another tenant does not exist here.
	_, err = repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrAssigneeNotEligible)

	// An inactive maintainer is not eligible either.
	inactive := createUser(t, repos, acme.ID, "gone@acme.test", permission.RoleMaintainer)
	require.NoError(t, gdb.Model(&model.User{}).Where("id = ?", inactive.ID).Update("active", false).Error)

	_, err = repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, inactive.ID)
	assert.ErrorIs(t, err, ErrAssigneeNotEligible)
}

func TestWorkOrderReassignAndTerminalStates(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	first := createUser(t, repos, acme.ID, "a@acme.test", permission.RoleMaintainer)
	second := createUser(t, repos, acme.ID, "b@acme.test", permission.RoleMaintainer)

	wo := createWorkOrder(t, repos, acme.ID, machine.ID, "reassign me")

	_, err := repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, first.ID)
	require.NoError(t, err)

	// Reassignment of an assigned order is allowed.
	reassigned, err := repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *reassigned.AssignedTo)

	// Once in progress the order is no longer assignable.
	_, err = repos.WorkOrder.Start(ctx, acme.ID, wo.ID, second.ID)
	require.NoError(t, err)
	_, err = repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repos.WorkOrder.Finish(ctx, acme.ID, wo.ID, second.ID, Completion{Notes: "done"})
	require.NoError(t, err)
	_, err = repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkOrderStartOnlyByAssignee(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	assignee := createUser(t, repos, acme.ID, "a@acme.test", permission.RoleMaintainer)
	other := createUser(t, repos, acme.ID, "b@acme.test", permission.RoleMaintainer)

	wo := createWorkOrder(t, repos, acme.ID, machine.ID, "calibration")
	_, err := repos.WorkOrder.Assign(ctx, acme.ID, wo.ID, assignee.ID)
	require.NoError(t, err)

	// A different maintainer gets not-found, not a permission error.
	_, err = repos.WorkOrder.Start(ctx, acme.ID, wo.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Starting an open order fails regardless of caller.
	open := createWorkOrder(t, repos, acme.ID, machine.ID, "still open")
	_, err = repos.WorkOrder.Start(ctx, acme.ID, open.ID, assignee.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Finish has the same ownership rule.
	_, err = repos.WorkOrder.Start(ctx, acme.ID, wo.ID, assignee.ID)
	require.NoError(t, err)
	_, err = repos.WorkOrder.Finish(ctx, acme.ID, wo.ID, other.ID, Completion{Notes: "not mine"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkOrderTenantIsolation(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	globex, _ := createTenant(t, repos, "globex")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	wo := createWorkOrder(t, repos, acme.ID, machine.ID, "secret")

	_, err := repos.WorkOrder.FindByID(ctx, globex.ID, wo.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = repos.WorkOrder.Delete(ctx, globex.ID, wo.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Creating against another tenant's machine is a not-found, so machine
	// ids never leak across tenants.
	foreign := &model.WorkOrder{MachineID: machine.ID, Title: "cross", Type: model.WorkOrderTypeCorrective}
	err = repos.WorkOrder.Create(ctx, globex.ID, foreign)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkOrderListFilters(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	other := createMachine(t, repos, acme.ID, "PRESS-02")
	maintainer := createUser(t, repos, acme.ID, "joe@acme.test", permission.RoleMaintainer)

	first := createWorkOrder(t, repos, acme.ID, machine.ID, "one")
	createWorkOrder(t, repos, acme.ID, machine.ID, "two")
	createWorkOrder(t, repos, acme.ID, other.ID, "three")

	_, err := repos.WorkOrder.Assign(ctx, acme.ID, first.ID, maintainer.ID)
	require.NoError(t, err)

	orders, total, err := repos.WorkOrder.List(ctx, acme.ID, ListParams{Page: 1, Limit: 20},
		WorkOrderFilter{MachineID: machine.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)

	orders, total, err = repos.WorkOrder.List(ctx, acme.ID, ListParams{Page: 1, Limit: 20},
		WorkOrderFilter{Status: model.WorkOrderStatusAssigned})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "one", orders[0].Title)

	orders, total, err = repos.WorkOrder.List(ctx, acme.ID, ListParams{Page: 1, Limit: 20},
		WorkOrderFilter{AssignedTo: maintainer.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
}
