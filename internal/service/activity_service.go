package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// ActivityService turns ticket events into log lines and metrics.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to every ticket event type. A type without a
// handler is logged so a newly added event is not silently dropped.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	handlers := a.handlers()
	for _, eventType := range events.AllTicketEvents {
		handler, ok := handlers[eventType]
		if !ok {
			a.logger.Warn("no activity handler for event", zap.String("event_type", string(eventType)))
			continue
		}
		a.dispatcher.Subscribe(eventType, handler)
	}
}

func (a *ActivityService) handlers() map[events.EventType]events.EventHandler {
	return map[events.EventType]events.EventHandler{
		events.EventTicketCreated:         a.handleTicketCreated,
		events.EventTicketStatusChanged:   a.handleTicketStatusChanged,
		events.EventTicketPriorityChanged: a.handleTicketPriorityChanged,
		events.EventTicketAssigned:        a.handleTicketAssigned,
	}
}

func (a *ActivityService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketCreatedPayload)
	a.logger.Info("TicketCreated",
		zap.String("ticket_number", event.TicketNumber),
		zap.String("category", string(payload.Category)),
		zap.String("priority", string(payload.Priority)))
	if a.metrics != nil {
		a.metrics.TicketsCreated.WithLabelValues(string(payload.Category), string(payload.Priority)).Inc()
	}
	return nil
}

func (a *ActivityService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketStatusChangedPayload)
	a.logger.Info("TicketStatusChanged",
		zap.String("ticket_number", event.TicketNumber),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	if a.metrics != nil {
		a.metrics.StatusChanges.WithLabelValues(string(payload.NewStatus)).Inc()
	}
	return nil
}

func (a *ActivityService) handleTicketPriorityChanged(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketPriorityChangedPayload)
	a.logger.Info("TicketPriorityChanged",
		zap.String("ticket_number", event.TicketNumber),
		zap.String("old_priority", string(payload.OldPriority)),
		zap.String("new_priority", string(payload.NewPriority)))
	return nil
}

func (a *ActivityService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketAssignedPayload)
	a.logger.Info("TicketAssigned",
		zap.String("ticket_number", event.TicketNumber),
		zap.String("assigned_to", payload.NewAssignee))
	if a.metrics != nil {
		a.metrics.Assignments.Inc()
	}
	return nil
}
