package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling events in Prometheus metrics.
type PromSink struct {
	regenerations *prometheus.CounterVec
	duration      prometheus.Histogram
	taskChanges   *prometheus.CounterVec
	edits         *prometheus.CounterVec
	conflicts     *prometheus.GaugeVec
	completed     prometheus.Counter
}

// NewPromSink registers scheduling metrics on reg, or the default registerer when
// reg is nil. Collectors that are already registered are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	regenerations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "washplan_regenerations_total",
		Help: "Regeneration runs by outcome",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "washplan_regeneration_duration_seconds",
		Help:    "Wall time of a regeneration run",
		Buckets: prometheus.DefBuckets,
	})
	taskChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "washplan_task_changes_total",
		Help: "Scheduled task rows written by regeneration",
	}, []string{"change"})
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "washplan_manual_edits_total",
		Help: "Manual schedule edits by action and outcome",
	}, []string{"action", "outcome"})
	conflicts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "washplan_schedule_conflicts",
		Help: "Conflicts found by the last diagnostic read of a week",
	}, []string{"week", "kind"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "washplan_completed_visits_total",
		Help: "Wash history records created from completed visits",
	})

	var err error
	if regenerations, err = register(reg, regenerations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if taskChanges, err = register(reg, taskChanges); err != nil {
		return nil, err
	}
	if edits, err = register(reg, edits); err != nil {
		return nil, err
	}
	if conflicts, err = register(reg, conflicts); err != nil {
		return nil, err
	}
	if completed, err = register(reg, completed); err != nil {
		return nil, err
	}

	return &PromSink{
		regenerations: regenerations,
		duration:      duration,
		taskChanges:   taskChanges,
		edits:         edits,
		conflicts:     conflicts,
		completed:     completed,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (s *PromSink) RecordRegeneration(run RegenerationRun) {
	s.regenerations.WithLabelValues(string(run.Outcome)).Inc()
	s.duration.Observe(run.Duration.Seconds())
	s.taskChanges.WithLabelValues("created").Add(float64(run.Created))
	s.taskChanges.WithLabelValues("updated").Add(float64(run.Updated))
	s.taskChanges.WithLabelValues("deleted").Add(float64(run.Deleted))
	s.taskChanges.WithLabelValues("unassigned").Add(float64(run.Unassigned))
}

func (s *PromSink) RecordEdit(action string, outcome Outcome) {
	s.edits.WithLabelValues(action, string(outcome)).Inc()
}

func (s *PromSink) RecordConflicts(week string, doubleBookings, multiWorker int) {
	s.conflicts.WithLabelValues(week, "worker_double_booking").Set(float64(doubleBookings))
	s.conflicts.WithLabelValues(week, "customer_multi_worker").Set(float64(multiWorker))
}

func (s *PromSink) RecordCompletedVisits(count int) {
	s.completed.Add(float64(count))
}
