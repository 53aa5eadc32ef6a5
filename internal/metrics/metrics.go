package metrics

import "time"

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeConflict Outcome = "conflict"
	OutcomeLocked   Outcome = "locked"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailure  Outcome = "failure"
)

// RegenerationRun summarizes one committed or failed regeneration.
type RegenerationRun struct {
	Week       string
	Outcome    Outcome
	Duration   time.Duration
	Created    int
	Updated    int
	Deleted    int
	Unassigned int
	Failures   int
}

// Sink records scheduling events for observability purposes.
type Sink interface {
	RecordRegeneration(run RegenerationRun)
	RecordEdit(action string, outcome Outcome)
	RecordConflicts(week string, doubleBookings, multiWorker int)
	RecordCompletedVisits(count int)
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRegeneration(RegenerationRun) {}
func (NopSink) RecordEdit(string, Outcome) {}
func (NopSink) RecordConflicts(string, int, int) {}
func (NopSink) RecordCompletedVisits(int) {}
