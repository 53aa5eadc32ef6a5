package scheduleController

import (
	"context"
	"strconv"
	"strings"
	"time"

	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/services"
	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type ReassignWorkerRequest struct {
	Key      types.TaskKey `json:"key"`
	WorkerID uuid.UUID     `json:"workerId"`
	Reason   string        `json:"reason"`
	Soft     bool          `json:"soft"`
}

type OverrideWashTypeRequest struct {
	Key      types.TaskKey   `json:"key"`
	WashType models.WashType `json:"washType"`
	Reason   string          `json:"reason"`
	Soft     bool            `json:"soft"`
}

type DeleteTaskRequest struct {
	Key    types.TaskKey `json:"key"`
	Reason string        `json:"reason"`
	Soft   bool          `json:"soft"`
}

type AddTaskRequest struct {
	Key        types.TaskKey   `json:"key"`
	WashType   models.WashType `json:"washType"`
	WorkerID   *uuid.UUID      `json:"workerId,omitempty"`
	VisitIndex int             `json:"visitIndex,omitempty"`
	Reason     string          `json:"reason"`
	Soft       bool            `json:"soft"`
}

// AuditFilter carries the optional query-string filters of an audit lookup.
type AuditFilter struct {
	Week  string
	Since string
	Until string
	Limit string
}

type WeekTasksResponse struct {
	Week  types.WeekKey           `json:"week"`
	Tasks []*models.ScheduledTask `json:"tasks"`
}

type AuditResponse struct {
	CustomerID uuid.UUID           `json:"customerId"`
	Entries    []models.AuditEntry `json:"entries"`
}

type HistoryResponse struct {
	CustomerID uuid.UUID                   `json:"customerId"`
	Records    []*models.WashHistoryRecord `json:"records"`
}

type CompleteVisitsResponse struct {
	AsOf      time.Time `json:"asOf"`
	Completed int       `json:"completed"`
}

type ScheduleControllerInterface interface {
	Regenerate(ctx context.Context, week string) (*types.RegenerationResult, error)
	ListTasks(ctx context.Context, week string) (*WeekTasksResponse, error)
	GetConflicts(ctx context.Context, week string) (*types.ConflictReport, error)
	AddTask(ctx context.Context, request AddTaskRequest) (*models.ScheduledTask, error)
	ReassignWorker(ctx context.Context, request ReassignWorkerRequest) (*models.ScheduledTask, error)
	OverrideWashType(ctx context.Context, request OverrideWashTypeRequest) (*models.ScheduledTask, error)
	DeleteTask(ctx context.Context, request DeleteTaskRequest) error
	QueryAudit(ctx context.Context, customerID string, filter AuditFilter) (*AuditResponse, error)
	GetHistory(ctx context.Context, customerID string) (*HistoryResponse, error)
	CompleteVisits(ctx context.Context, asOf string) (*CompleteVisitsResponse, error)
}

type ScheduleController struct {
	assigner  *services.SlotAssigner
	conflicts *services.ConflictService
	audit     *services.AuditLog
	history   *services.HistoryService
	now       func() time.Time
	log       logger.Logger
}

func New(service services.Service) ScheduleControllerInterface {
	return &ScheduleController{
		assigner:  service.Assigner,
		conflicts: service.Conflicts,
		audit:     service.Audit,
		history:   service.History,
		now:       time.Now,
		log:       logger.New("scheduleController"),
	}
}

func parseWeek(value string) (types.WeekKey, error) {
	week, err := types.ParseWeekKey(strings.TrimSpace(value))
	if err != nil {
		return types.WeekKey{}, types.Validation("invalid week %q", value)
	}
	return week, nil
}

func (sc *ScheduleController) Regenerate(ctx context.Context, week string) (*types.RegenerationResult, error) {
	key, err := parseWeek(week)
	if err != nil {
		return nil, err
	}
	return sc.assigner.Regenerate(ctx, key)
}

func (sc *ScheduleController) ListTasks(ctx context.Context, week string) (*WeekTasksResponse, error) {
	key, err := parseWeek(week)
	if err != nil {
		return nil, err
	}

	tasks, err := sc.assigner.ListTasks(ctx, key)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*models.ScheduledTask{}
	}
	return &WeekTasksResponse{Week: key, Tasks: tasks}, nil
}

func (sc *ScheduleController) GetConflicts(ctx context.Context, week string) (*types.ConflictReport, error) {
	key, err := parseWeek(week)
	if err != nil {
		return nil, err
	}
	return sc.conflicts.GetConflicts(ctx, key)
}

func (sc *ScheduleController) AddTask(
	ctx context.Context,
	request AddTaskRequest,
) (*models.ScheduledTask, error) {
	return sc.assigner.AddTask(ctx, services.AddTaskInput{
		Key:        request.Key,
		WashType:   request.WashType,
		WorkerID:   request.WorkerID,
		VisitIndex: request.VisitIndex,
	}, services.EditOptions{Reason: request.Reason, Soft: request.Soft})
}

func (sc *ScheduleController) ReassignWorker(
	ctx context.Context,
	request ReassignWorkerRequest,
) (*models.ScheduledTask, error) {
	if request.WorkerID == uuid.Nil {
		return nil, types.Validation("workerId is required")
	}
	return sc.assigner.ReassignWorker(
		ctx,
		request.Key,
		request.WorkerID,
		services.EditOptions{Reason: request.Reason, Soft: request.Soft},
	)
}

func (sc *ScheduleController) OverrideWashType(
	ctx context.Context,
	request OverrideWashTypeRequest,
) (*models.ScheduledTask, error) {
	return sc.assigner.OverrideWashType(
		ctx,
		request.Key,
		request.WashType,
		services.EditOptions{Reason: request.Reason, Soft: request.Soft},
	)
}

func (sc *ScheduleController) DeleteTask(ctx context.Context, request DeleteTaskRequest) error {
	return sc.assigner.DeleteTask(
		ctx,
		request.Key,
		services.EditOptions{Reason: request.Reason, Soft: request.Soft},
	)
}

func (sc *ScheduleController) QueryAudit(
	ctx context.Context,
	customerID string,
	filter AuditFilter,
) (*AuditResponse, error) {
	log := sc.log.Function("QueryAudit")

	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, types.Validation("invalid customer id %q", customerID)
	}

	query := repositories.AuditQuery{CustomerID: id}
	if filter.Week != "" {
		week, err := parseWeek(filter.Week)
		if err != nil {
			return nil, err
		}
		query.Week = &week
	}
	if query.Since, err = parseTimestamp("since", filter.Since); err != nil {
		return nil, err
	}
	if query.Until, err = parseTimestamp("until", filter.Until); err != nil {
		return nil, err
	}
	if filter.Limit != "" {
		limit, err := strconv.Atoi(filter.Limit)
		if err != nil || limit < 0 {
			return nil, types.Validation("invalid limit %q", filter.Limit)
		}
		query.Limit = limit
	}

	entries, err := sc.audit.Query(ctx, query)
	if err != nil {
		return nil, log.Err("failed to query audit log", err, "customerID", id)
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return &AuditResponse{CustomerID: id, Entries: entries}, nil
}

func (sc *ScheduleController) GetHistory(
	ctx context.Context,
	customerID string,
) (*HistoryResponse, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, types.Validation("invalid customer id %q", customerID)
	}

	records, err := sc.history.GetHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.WashHistoryRecord{}
	}
	return &HistoryResponse{CustomerID: id, Records: records}, nil
}

// CompleteVisits records history for visits before asOf, defaulting to now.
func (sc *ScheduleController) CompleteVisits(
	ctx context.Context,
	asOf string,
) (*CompleteVisitsResponse, error) {
	log := sc.log.Function("CompleteVisits")

	at, err := parseTimestamp("asOf", asOf)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = sc.now().UTC()
	}

	completed, err := sc.history.CompleteVisits(ctx, at)
	if err != nil {
		return nil, err
	}
	log.Info("visits completed", "asOf", at, "completed", completed)
	return &CompleteVisitsResponse{AsOf: at, Completed: completed}, nil
}

// parseTimestamp accepts RFC 3339 timestamps or plain dates.
func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, types.Validation("invalid %s %q", field, value)
}
