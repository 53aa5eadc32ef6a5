package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"washplan/internal/metrics"
	"washplan/internal/models"
	"washplan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu            sync.Mutex
	runs          []metrics.RegenerationRun
	edits         map[string]metrics.Outcome
	doubleBooking int
	completed     int
}

func (r *recordingSink) RecordRegeneration(run metrics.RegenerationRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
}

func (r *recordingSink) RecordEdit(action string, outcome metrics.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.edits == nil {
		r.edits = make(map[string]metrics.Outcome)
	}
	r.edits[action] = outcome
}

func (r *recordingSink) RecordConflicts(week string, doubleBookings, multiWorker int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doubleBooking = doubleBookings
}

func (r *recordingSink) RecordCompletedVisits(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed += count
}

func TestHistoryService_CompleteVisits(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext, extInt))
	f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"), slot(2, "Thursday", "9:00 AM"))
	f.customer(t, "bob", rule, []string{"B"}, slot(1, "Monday", "9:00 AM"), slot(2, "Thursday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	sink := &recordingSink{}
	history := NewHistoryService(f.store, sink)
	wednesday := f.week.Date(time.Wednesday).Add(15 * time.Hour)

	t.Run("completes assigned past visits only", func(t *testing.T) {
		added, err := history.CompleteVisits(f.ctx, wednesday)
		require.NoError(t, err)
		assert.Equal(t, 1, added)
		assert.Equal(t, 1, sink.completed)
	})

	t.Run("is idempotent", func(t *testing.T) {
		added, err := history.CompleteVisits(f.ctx, wednesday)
		require.NoError(t, err)
		assert.Equal(t, 0, added)
	})

	t.Run("picks up later visits from the previous week", func(t *testing.T) {
		added, err := history.CompleteVisits(f.ctx, f.week.Add(1).Date(time.Monday))
		require.NoError(t, err)
		assert.Equal(t, 1, added)
		assert.Equal(t, 2, sink.completed)
	})

	t.Run("requires a date", func(t *testing.T) {
		_, err := history.CompleteVisits(f.ctx, time.Time{})
		assert.True(t, errors.Is(err, types.ErrValidation))
	})
}

func TestHistoryService_CompleteVisitsCutsOffAtUTCMidnight(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(ext, extInt))
	f.customer(t, "alice", rule, []string{"A"}, slot(1, "Monday", "9:00 AM"), slot(2, "Thursday", "9:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	// Thursday 22:00 at UTC-5 is already Friday in UTC, so Thursday's visit is due.
	eastern := time.FixedZone("UTC-5", -5*60*60)
	thursdayNight := f.week.Date(time.Thursday).Add(22 * time.Hour)
	asOf := time.Date(thursdayNight.Year(), thursdayNight.Month(), thursdayNight.Day(), 22, 0, 0, 0, eastern)

	added, err := NewHistoryService(f.store, &recordingSink{}).CompleteVisits(f.ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestHistoryService_RecordsCarryTaskFields(t *testing.T) {
	f := newAssignerFixture(t, 1)
	rule := f.rule(t, weeklyRule(extInt))
	alice := f.customer(t, "alice", rule, []string{"A"}, slot(1, "Tuesday", "8:00 AM"))

	_, err := f.assigner.Regenerate(f.ctx, f.week)
	require.NoError(t, err)

	history := NewHistoryService(f.store, nil)
	added, err := history.CompleteVisits(f.ctx, f.week.Date(time.Saturday))
	require.NoError(t, err)
	require.Equal(t, 1, added)

	records, err := history.GetHistory(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].CarPlate)
	assert.Equal(t, models.WashTypeExteriorInterior, records[0].WashType)
	assert.True(t, records[0].WashDate.Equal(f.week.Date(time.Tuesday)))
	assert.Equal(t, f.workers[0].ID, *records[0].WorkerID)
}
