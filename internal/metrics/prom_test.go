package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromSink_RecordRegeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)

	sink.RecordRegeneration(RegenerationRun{
		Week:     "2025-W42",
		Outcome:  OutcomeSuccess,
		Duration: 120 * time.Millisecond,
		Created:  3,
		Updated:  1,
	})

	expected := `
# HELP washplan_regenerations_total Regeneration runs by outcome
# TYPE washplan_regenerations_total counter
washplan_regenerations_total{outcome="success"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(sink.regenerations, strings.NewReader(expected)))
	assert.Equal(t, float64(3), testutil.ToFloat64(sink.taskChanges.WithLabelValues("created")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.duration))
}

func TestPromSink_RecordEditsAndConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)

	sink.RecordEdit("REASSIGN_WORKER", OutcomeConflict)
	sink.RecordEdit("REASSIGN_WORKER", OutcomeConflict)
	sink.RecordConflicts("2025-W42", 2, 0)
	sink.RecordCompletedVisits(5)

	assert.Equal(
		t,
		float64(2),
		testutil.ToFloat64(sink.edits.WithLabelValues("REASSIGN_WORKER", "conflict")),
	)
	assert.Equal(
		t,
		float64(2),
		testutil.ToFloat64(sink.conflicts.WithLabelValues("2025-W42", "worker_double_booking")),
	)
	assert.Equal(t, float64(5), testutil.ToFloat64(sink.completed))
}

func TestNewPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	require.NoError(t, err)
	second, err := NewPromSink(reg)
	require.NoError(t, err)

	first.RecordCompletedVisits(1)
	second.RecordCompletedVisits(1)
	assert.Equal(t, float64(2), testutil.ToFloat64(first.completed))
}
