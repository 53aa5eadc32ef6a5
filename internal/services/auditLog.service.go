package services

import (
	"context"
	"time"

	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/types"
	"washplan/internal/utils"

	txContext "washplan/internal/context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// AuditLog builds and reads audit entries. Schedule writes carry their entries in
// the same batch so an entry exists iff its change committed.
type AuditLog struct {
	store repositories.ScheduleStore
	now   func() time.Time
	log   logger.Logger
}

func NewAuditLog(store repositories.ScheduleStore, now func() time.Time) *AuditLog {
	if now == nil {
		now = time.Now
	}
	return &AuditLog{
		store: store,
		now:   now,
		log:   logger.New("AuditLog"),
	}
}

func (a *AuditLog) Entry(
	ctx context.Context,
	actor string,
	action models.AuditAction,
	key types.TaskKey,
	before, after *models.ScheduledTask,
	reason string,
) models.AuditEntry {
	actor = utils.CleanText(actor)
	if actor == "" {
		actor = txContext.GetActor(ctx)
	}
	return models.NewAuditEntry(a.now(), actor, action, key, before, after, utils.CleanText(reason))
}

// Record attaches entries to batch. They commit or roll back with its task changes,
// so an entry is durable exactly when the change it describes is.
func (a *AuditLog) Record(batch *repositories.TaskBatch, entries ...models.AuditEntry) {
	batch.Audit = append(batch.Audit, entries...)
}

func (a *AuditLog) QueryByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
) ([]models.AuditEntry, error) {
	return a.Query(ctx, repositories.AuditQuery{CustomerID: customerID})
}

func (a *AuditLog) Query(
	ctx context.Context,
	query repositories.AuditQuery,
) ([]models.AuditEntry, error) {
	log := a.log.Function("Query")

	if query.CustomerID == uuid.Nil {
		return nil, types.Validation("audit query requires a customer")
	}
	entries, err := a.store.QueryAudit(ctx, query)
	if err != nil {
		return nil, log.Err("failed to query audit", err, "customerID", query.CustomerID)
	}
	return entries, nil
}
