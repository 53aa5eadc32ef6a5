package types

import "github.com/google/uuid"

type CustomerFailure struct {
	CustomerID uuid.UUID `json:"customerId"`
	Error      string    `json:"error"`
}

// RegenerationResult is the per-run summary returned by a regeneration.
type RegenerationResult struct {
	Week           WeekKey           `json:"week"`
	Created        int               `json:"created"`
	Updated        int               `json:"updated"`
	Deleted        int               `json:"deleted"`
	Unchanged      int               `json:"unchanged"`
	Unassigned     int               `json:"unassigned"`
	SkippedLocked  int               `json:"skippedLocked"`
	SkippedOffWeek int               `json:"skippedOffWeek"`
	Attempts       int               `json:"attempts"`
	Failures       []CustomerFailure `json:"failures"`
	Fingerprint    string            `json:"fingerprint"`
}

func (r *RegenerationResult) Changed() bool {
	return r.Created+r.Updated+r.Deleted > 0
}

type WorkerDoubleBooking struct {
	Day         string      `json:"day"`
	Time        string      `json:"time"`
	WorkerID    uuid.UUID   `json:"workerId"`
	CustomerIDs []uuid.UUID `json:"customerIds"`
}

type CustomerMultiWorker struct {
	Day        string      `json:"day"`
	Time       string      `json:"time"`
	CustomerID uuid.UUID   `json:"customerId"`
	WorkerIDs  []uuid.UUID `json:"workerIds"`
}

type ConflictReport struct {
	Week                 WeekKey               `json:"week"`
	WorkerDoubleBookings []WorkerDoubleBooking `json:"workerDoubleBookings"`
	CustomerMultiWorker  []CustomerMultiWorker `json:"customerMultiWorker"`
}

func (r *ConflictReport) Empty() bool {
	return len(r.WorkerDoubleBookings) == 0 && len(r.CustomerMultiWorker) == 0
}
