package service

import (
	"context"
	"testing"

	"idcops-service/service/config"
	"idcops-service/service/models"
	"idcops-service/service/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppStartLoadsAllSlots(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "dc1-assets", `[{"id":3,"status":"在库","borrower":"u1","borrowedAt":"t1"}]`))
	require.NoError(t, kv.Set(ctx, "dc1-orders", `not json`))

	cfg := config.Default()
	cfg.App.Namespace = "dc1"
	cfg.App.SeedDemo = true
	cfg.Scheduler.Enabled = false

	reg := prometheus.NewRegistry()
	app := NewApp(cfg, kv, nil, reg)
	reports, err := app.Start(ctx)
	require.NoError(t, err)
	defer app.Stop()

	assert.Len(t, reports, 7)
	assert.True(t, reports[storage.SlotAssets].Written)
	assert.True(t, reports[storage.SlotOrders].Reset)

	a, ok := app.Assets.Get(3)
	require.True(t, ok)
	assert.Equal(t, models.AssetAvailable, a.Status)
	assert.Equal(t, "u1", a.BorrowerID)

	assert.Len(t, app.Notifications.List(), 2)
	n, err := testutil.GatherAndCount(reg, "idc_store_migration_writes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppStartsScheduler(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.RecurrenceSpec = "@every 1h"

	app := NewApp(cfg, storage.NewMemoryKV(), nil, nil)
	_, err := app.Start(context.Background())
	require.NoError(t, err)
	defer app.Stop()

	assert.Equal(t, []string{"task-recurrence"}, app.Scheduler.Jobs())
}

func TestAppInvalidScheduleSpec(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.RecurrenceSpec = "whenever"

	app := NewApp(cfg, storage.NewMemoryKV(), nil, nil)
	_, err := app.Start(context.Background())
	assert.Error(t, err)
}
