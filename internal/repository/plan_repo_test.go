package repository

import (
	"context"
	"testing"
	"time"

	"maintenance-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPlan(t *testing.T, repos *Repositories, tenantID, machineID uint, due time.Time, recurrence int) *model.PreventivePlan {
	t.Helper()

	plan := &model.PreventivePlan{
		MachineID:      machineID,
		Name:           "quarterly inspection",
		Active:         true,
		NextDueDate:    due,
		RecurrenceDays: recurrence,
	}
	require.NoError(t, repos.Plans.Create(context.Background(), tenantID, plan))
	return plan
}

func TestPlanCreateRequiresOwnMachine(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	acme, _ := createTenant(t, repos, "acme")
	globex, _ := createTenant(t, repos, "globex")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")

	plan := &model.PreventivePlan{MachineID: machine.ID, Name: "x", NextDueDate: time.Now(), RecurrenceDays: 30}
	err := repos.Plans.Create(ctx, globex.ID, plan)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpawnDueWorkOrders(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	now := time.Now()

	acme, _ := createTenant(t, repos, "acme")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")

	due := createPlan(t, repos, acme.ID, machine.ID, now.AddDate(0, 0, -1), 30)
	notDue := createPlan(t, repos, acme.ID, machine.ID, now.AddDate(0, 0, 10), 30)

	spawned, err := repos.Plans.SpawnDueWorkOrders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, spawned)

	orders, total, err := repos.WorkOrder.List(ctx, acme.ID, ListParams{Page: 1, Limit: 20},
		WorkOrderFilter{Status: model.WorkOrderStatusOpen})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, model.WorkOrderTypePreventive, orders[0].Type)
	assert.Equal(t, due.Name, orders[0].Title)
	require.NotNil(t, orders[0].PlanID)
	assert.Equal(t, due.ID, *orders[0].PlanID)

	// The due plan advanced by its recurrence; the other did not move.
	advanced, err := repos.Plans.FindByID(ctx, acme.ID, due.ID)
	require.NoError(t, err)
	wantNext := due.NextDueDate.AddDate(0, 0, 30)
	assert.WithinDuration(t, wantNext, advanced.NextDueDate, time.Second)

	untouched, err := repos.Plans.FindByID(ctx, acme.ID, notDue.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, notDue.NextDueDate, untouched.NextDueDate, time.Second)
}

func TestSpawnDueWorkOrdersIsIdempotent(t *testing.T) {
	repos, gdb := newTestRepos(t)
	ctx := context.Background()
	now := time.Now()

	acme, _ := createTenant(t, repos, "acme")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	plan := createPlan(t, repos, acme.ID, machine.ID, now.AddDate(0, 0, -1), 30)

	spawned, err := repos.Plans.SpawnDueWorkOrders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, spawned)

	// A second run the same day creates nothing: the plan moved past now.
	spawned, err = repos.Plans.SpawnDueWorkOrders(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, spawned)

	// Even if the due date is forced back while the open order still
	// exists, the existing order suppresses a duplicate.
	require.NoError(t, gdb.Model(&model.PreventivePlan{}).
		Where("id = ?", plan.ID).
		Update("next_due_date", plan.NextDueDate).Error)

	spawned, err = repos.Plans.SpawnDueWorkOrders(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, spawned)

	var total int64
	require.NoError(t, gdb.Model(&model.WorkOrder{}).Where("plan_id = ?", plan.ID).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestSpawnSkipsInactivePlans(t *testing.T) {
	repos, gdb := newTestRepos(t)
	ctx := context.Background()
	now := time.Now()

	acme, _ := createTenant(t, repos, "acme")
	machine := createMachine(t, repos, acme.ID, "PRESS-01")
	plan := createPlan(t, repos, acme.ID, machine.ID, now.AddDate(0, 0, -1), 30)

	require.NoError(t, gdb.Model(&model.PreventivePlan{}).Where("id = ?", plan.ID).Update("active", false).Error)

	spawned, err := repos.Plans.SpawnDueWorkOrders(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, spawned)
}
