package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

func TestActivityServiceRecordsTicketEvents(t *testing.T) {
	env := newTestEnv(t, june1)
	ctx := context.Background()

	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics("helpdesk_test")
	NewActivityService(env.dispatcher, zap.New(core), metrics).RegisterHandlers()

	created := env.mustCreate(t, validInput())
	env.clock.Advance(time.Minute)
	_, err := env.tickets.UpdateTicket(ctx, created.ID, TicketUpdateInput{
		Status:     strPtr("in_progress"),
		Priority:   strPtr("low"),
		AssignedTo: strPtr(env.specialistID(t, "Frank Pizza")),
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TicketsCreated.WithLabelValues("printer", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StatusChanges.WithLabelValues("in_progress")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Assignments))

	assert.Equal(t, 1, logs.FilterMessage("TicketCreated").Len())
	assert.Equal(t, 1, logs.FilterMessage("TicketStatusChanged").Len())
	assert.Equal(t, 1, logs.FilterMessage("TicketPriorityChanged").Len())
	assigned := logs.FilterMessage("TicketAssigned").All()
	require.Len(t, assigned, 1)
	assert.Equal(t, created.TicketNumber, assigned[0].ContextMap()["ticket_number"])
}

func TestActivityServiceWithoutDispatcher(t *testing.T) {
	svc := NewActivityService(nil, nil, nil)
	svc.RegisterHandlers()

	err := svc.handleTicketCreated(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{},
	})
	assert.NoError(t, err)
}

func TestActivityServiceCoversEveryTicketEvent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewActivityService(events.NewInMemoryDispatcher(), zap.New(core), nil)

	handlers := svc.handlers()
	for _, eventType := range events.AllTicketEvents {
		assert.Contains(t, handlers, eventType)
	}

	svc.RegisterHandlers()
	assert.Zero(t, logs.FilterMessage("no activity handler for event").Len())
}
