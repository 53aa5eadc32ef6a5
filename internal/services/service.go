package services

import (
	"time"

	"washplan/internal/database"
	"washplan/internal/metrics"
	"washplan/internal/repositories"
	"washplan/internal/types"
)

type Service struct {
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Resolver    *WashTypeResolver
	Locks       *LockManager
	Audit       *AuditLog
	Assigner    *SlotAssigner
	Conflicts   *ConflictService
	History     *HistoryService
	Seed        *SeedService
}

type Options struct {
	CycleAnchor types.WeekKey
	Metrics     metrics.Sink
	Notifier    ScheduleNotifier
	Now         func() time.Time
}

func New(db database.DB, store repositories.ScheduleStore, opts Options) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	transactionService := NewTransactionService(db)
	resolver := NewWashTypeResolver()
	locks := NewLockManager(store)
	audit := NewAuditLog(store, opts.Now)
	assigner := NewSlotAssigner(store, resolver, locks, audit, SlotAssignerOptions{
		CycleAnchor: opts.CycleAnchor,
		Metrics:     opts.Metrics,
		Notifier:    opts.Notifier,
	})

	return Service{
		Transaction: transactionService,
		Scheduler:   NewSchedulerService(),
		Resolver:    resolver,
		Locks:       locks,
		Audit:       audit,
		Assigner:    assigner,
		Conflicts:   NewConflictService(store, opts.Metrics),
		History:     NewHistoryService(store, opts.Metrics),
		Seed:        NewSeedService(store, transactionService),
	}
}
