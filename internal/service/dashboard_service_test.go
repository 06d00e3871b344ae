package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestDashboardStatsWindows(t *testing.T) {
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	ctx := context.Background()

	createdAt := []time.Time{
		time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 5, 11, 59, 0, 0, time.UTC),
	}
	var tickets []*domain.Ticket
	for _, at := range createdAt {
		env.clock.Set(at)
		tickets = append(tickets, env.mustCreate(t, validInput()))
	}
	env.clock.Set(now)

	will := env.specialistID(t, "Will Brown")
	trey := env.specialistID(t, "Trey Lake")
	_, err := env.tickets.UpdateTicket(ctx, tickets[0].ID, TicketUpdateInput{Status: strPtr("resolved"), AssignedTo: strPtr(will)})
	require.NoError(t, err)
	_, err = env.tickets.UpdateTicket(ctx, tickets[1].ID, TicketUpdateInput{Status: strPtr("in_progress"), AssignedTo: strPtr(will)})
	require.NoError(t, err)
	_, err = env.tickets.UpdateTicket(ctx, tickets[2].ID, TicketUpdateInput{AssignedTo: strPtr(trey)})
	require.NoError(t, err)

	stats, err := env.dashboard.Stats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalToday)
	assert.EqualValues(t, 3, stats.TotalWeek)
	assert.EqualValues(t, 4, stats.TotalMonth)
	assert.Equal(t, map[string]int64{"received": 3, "in_progress": 1, "resolved": 1}, stats.TicketsByStatus)
	assert.Equal(t, map[string]int64{"Will Brown": 2, "Trey Lake": 1}, stats.TicketsBySpecialist)
	assert.EqualValues(t, 3, stats.TicketsInQueue)
}

func TestDashboardStatsEmptyStore(t *testing.T) {
	env := newTestEnv(t, june1)

	stats, err := env.dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalToday)
	assert.Zero(t, stats.TotalWeek)
	assert.Zero(t, stats.TotalMonth)
	assert.Empty(t, stats.TicketsByStatus)
	assert.Empty(t, stats.TicketsBySpecialist)
	assert.Zero(t, stats.TicketsInQueue)
}

func TestDashboardSkipsUnknownAssignee(t *testing.T) {
	env := newTestEnv(t, june1)
	ghost := "ghost-specialist"
	require.NoError(t, env.store.Tickets().Create(context.Background(), &domain.Ticket{
		ID:           "orphan",
		TicketNumber: "202406010001",
		Status:       domain.TicketStatusInProgress,
		AssignedTo:   &ghost,
		CreatedAt:    june1,
		UpdatedAt:    june1,
	}))

	stats, err := env.dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats.TicketsBySpecialist)
	assert.EqualValues(t, 1, stats.TicketsByStatus["in_progress"])
}

func TestDashboardWindowsNest(t *testing.T) {
	env := newTestEnv(t, june1)
	for day := 0; day < 40; day++ {
		env.clock.Set(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, day))
		env.mustCreate(t, validInput())
	}

	for day := 0; day < 40; day++ {
		now := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC).AddDate(0, 0, day)
		stats, err := env.dashboard.ComputeStats(context.Background(), now)
		require.NoError(t, err)
		assert.LessOrEqual(t, stats.TotalToday, stats.TotalWeek, now.String())
		if domain.StatsWindows(now).WeekStart.Before(domain.StatsWindows(now).MonthStart) {
			continue
		}
		assert.LessOrEqual(t, stats.TotalWeek, stats.TotalMonth, now.String())
	}
}
