package services

import (
	"context"

	"washplan/internal/events"
	"washplan/internal/types"

	txContext "washplan/internal/context"

	logger "github.com/Bparsons0904/goLogger"
)

// ScheduleNotifier is told about committed schedule changes.
type ScheduleNotifier interface {
	ScheduleUpdated(ctx context.Context, week types.WeekKey, action string, changed int)
}

type nopNotifier struct{}

func (nopNotifier) ScheduleUpdated(context.Context, types.WeekKey, string, int) {}

type Publisher interface {
	Publish(channel events.Channel, event events.Event) error
}

type eventNotifier struct {
	bus Publisher
	log logger.Logger
}

func NewEventNotifier(bus Publisher) ScheduleNotifier {
	if bus == nil {
		return nopNotifier{}
	}
	return &eventNotifier{
		bus: bus,
		log: logger.New("eventNotifier"),
	}
}

// ScheduleUpdated publishes on the schedule channel. Publish failures are logged only;
// the change is already committed.
func (n *eventNotifier) ScheduleUpdated(
	ctx context.Context,
	week types.WeekKey,
	action string,
	changed int,
) {
	log := n.log.Function("ScheduleUpdated")

	err := n.bus.Publish(events.SCHEDULE_CHANNEL, events.Event{
		Type: events.SCHEDULE_UPDATED,
		Data: map[string]any{
			"week":    week.String(),
			"action":  action,
			"changed": changed,
			"actor":   txContext.GetActor(ctx),
		},
	})
	if err != nil {
		log.Er("failed to publish schedule update", err, "week", week.String())
	}
}
