//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"washplan/config"
	"washplan/internal/database"
	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/services"
	"washplan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startContainer(t *testing.T, req tc.ContainerRequest, port string) (string, int) {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	number, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)
	return host, number
}

func openDatabase(t *testing.T) database.DB {
	t.Helper()

	pgHost, pgPort := startContainer(t, tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "washplan",
			"POSTGRES_PASSWORD": "washplan",
			"POSTGRES_DB":       "washplan",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}, "5432/tcp")

	cacheHost, cachePort := startContainer(t, tc.ContainerRequest{
		Image:        "valkey/valkey:8-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}, "6379/tcp")

	db, err := database.New(config.Config{
		DatabaseHost:         pgHost,
		DatabasePort:         pgPort,
		DatabaseName:         "washplan",
		DatabaseUser:         "washplan",
		DatabasePassword:     "washplan",
		DatabaseCacheAddress: cacheHost,
		DatabaseCachePort:    cachePort,
		DatabaseCacheReset:   -1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.MigrateModels())
	require.NoError(t, db.CreateIndexes())
	return db
}

func TestPostgresScheduleStore(t *testing.T) {
	db := openDatabase(t)
	ctx := context.Background()

	repos := repositories.New(db, time.Minute)
	store := repos.Schedule

	rule := &models.WashRule{
		Name:             "alternating",
		SingleCarPattern: []models.WashType{models.WashTypeExterior, models.WashTypeExteriorInterior},
		MultiCar: models.MultiCarSettings{
			Enabled:         true,
			IntDistribution: models.IntDistributionAlternate,
		},
	}
	require.NoError(t, store.SaveRule(ctx, rule))

	ana := &models.Worker{Name: "Ana", Active: true}
	ben := &models.Worker{Name: "Ben", Active: true, Position: 1}
	idle := &models.Worker{Name: "Idle", Active: false, Position: 2}
	for _, worker := range []*models.Worker{ana, ben, idle} {
		require.NoError(t, store.SaveWorker(ctx, worker))
	}

	acme := &models.Customer{
		Name:   "Acme",
		RuleID: rule.ID,
		Active: true,
		Cars:   []models.Car{{Plate: "ABC123"}, {Plate: "XYZ789", Position: 1}},
		Slots: []models.VisitSlot{
			{VisitIndex: 1, Day: "Monday", Time: "9:00 AM"},
			{VisitIndex: 2, Day: "Thursday", Time: "2:00 PM"},
		},
	}
	cafe := &models.Customer{
		Name:   "Cafe",
		RuleID: rule.ID,
		Active: true,
		Cars:   []models.Car{{Plate: "CAFE01"}},
		Slots:  []models.VisitSlot{{VisitIndex: 1, Day: "Monday", Time: "9:00 AM"}},
	}
	require.NoError(t, store.SaveCustomer(ctx, acme))
	require.NoError(t, store.SaveCustomer(ctx, cafe))

	workers, err := store.ListActiveWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 2)

	svc := services.New(db, store, services.Options{})
	week := types.WeekKey{Year: 2025, Week: 42}

	first, err := svc.Assigner.Regenerate(ctx, week)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Created)
	assert.Zero(t, first.Unassigned)

	second, err := svc.Assigner.Regenerate(ctx, week)
	require.NoError(t, err)
	assert.False(t, second.Changed())
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	report, err := svc.Conflicts.GetConflicts(ctx, week)
	require.NoError(t, err)
	assert.True(t, report.Empty())

	key := types.TaskKey{Week: week, CustomerID: acme.ID, Day: "Monday", Time: "9:00 AM", CarPlate: "ABC123"}
	_, err = svc.Assigner.ReassignWorker(ctx, key, idle.ID, services.EditOptions{})
	assert.True(t, errors.Is(err, types.ErrValidation) || errors.Is(err, types.ErrNotFound))

	monday, err := store.ReadTasks(ctx, week)
	require.NoError(t, err)
	var acmeMonday, cafeMonday *models.ScheduledTask
	for _, task := range monday {
		switch {
		case task.CustomerID == acme.ID && task.Day == "Monday":
			acmeMonday = task
		case task.CustomerID == cafe.ID && task.Day == "Monday":
			cafeMonday = task
		}
	}
	require.NotNil(t, acmeMonday)
	require.NotNil(t, cafeMonday)
	clash := cafeMonday.Clone()
	clash.WorkerID = acmeMonday.WorkerID
	err = store.WriteTasks(ctx, week, repositories.TaskBatch{Upserts: []*models.ScheduledTask{clash}})
	assert.True(t, errors.Is(err, types.ErrConflict))

	updated, err := svc.Assigner.OverrideWashType(ctx, key, models.WashTypeExteriorInterior, services.EditOptions{Reason: "upsell"})
	require.NoError(t, err)
	assert.True(t, updated.Locked)

	third, err := svc.Assigner.Regenerate(ctx, week)
	require.NoError(t, err)
	assert.Equal(t, 1, third.SkippedLocked)

	tasks, err := store.ReadTasks(ctx, week)
	require.NoError(t, err)
	require.Len(t, tasks, 5)

	entries, err := svc.Audit.QueryByCustomer(ctx, acme.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	assert.Equal(t, models.AuditActionOverrideWashType, entries[len(entries)-1].Action)

	completed, err := svc.History.CompleteVisits(ctx, week.Add(1).Start())
	require.NoError(t, err)
	assert.Equal(t, 5, completed)

	again, err := svc.History.CompleteVisits(ctx, week.Add(1).Start())
	require.NoError(t, err)
	assert.Zero(t, again)

	history, err := store.GetHistory(ctx, acme.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}
