package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store       *repository.MemoryStore
	clock       *testClock
	dispatcher  events.Dispatcher
	tickets     *TicketService
	specialists *SpecialistService
	dashboard   *DashboardService
	published   *[]events.Event
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	clock := newTestClock(now)
	dispatcher := events.NewInMemoryDispatcher()

	published := []events.Event{}
	for _, eventType := range events.AllTicketEvents {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		})
	}

	specialists := NewSpecialistService(store.Specialists(), nil)
	_, err := specialists.Seed(context.Background(), domain.DefaultSpecialists)
	require.NoError(t, err)

	return &testEnv{
		store:      store,
		clock:      clock,
		dispatcher: dispatcher,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:     store.Tickets(),
			SpecialistRepo: store.Specialists(),
			Dispatcher:     dispatcher,
			Clock:          clock.Now,
			Location:       time.UTC,
		}),
		specialists: specialists,
		dashboard:   NewDashboardService(store.Tickets(), clock.Now, time.UTC),
		published:   &published,
	}
}

func (e *testEnv) specialistID(t *testing.T, name string) string {
	t.Helper()
	specialist, err := e.store.Specialists().GetByName(context.Background(), name)
	require.NoError(t, err)
	return specialist.ID
}

func (e *testEnv) mustCreate(t *testing.T, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := e.tickets.CreateTicket(context.Background(), input)
	require.NoError(t, err)
	return ticket
}

func validInput() TicketCreateInput {
	phone := "+1 555 0100"
	return TicketCreateInput{
		Title:          "Printer jammed",
		Description:    "Second floor printer shows paper jam",
		Category:       "printer",
		Priority:       "high",
		RequesterName:  "Dana Scully",
		RequesterEmail: "dana@example.com",
		RequesterPhone: &phone,
	}
}

func strPtr(v string) *string {
	return &v
}

// scriptedAllocator returns numbers from a fixed script, repeating the last.
type scriptedAllocator struct {
	numbers   []string
	calls     int
	afterCall func()
}

func (a *scriptedAllocator) Next(context.Context, time.Time) (string, error) {
	idx := a.calls
	if idx >= len(a.numbers) {
		idx = len(a.numbers) - 1
	}
	a.calls++
	if a.afterCall != nil {
		a.afterCall()
	}
	return a.numbers[idx], nil
}
