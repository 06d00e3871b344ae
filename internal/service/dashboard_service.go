package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DashboardService computes dashboard aggregates on demand.
type DashboardService struct {
	tickets  repository.TicketRepository
	clock    func() time.Time
	location *time.Location
}

// NewDashboardService constructs the service. Windows are computed in loc.
func NewDashboardService(tickets repository.TicketRepository, clock func() time.Time, loc *time.Location) *DashboardService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{tickets: tickets, clock: clock, location: loc}
}

// Stats computes the aggregates for the current time.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	return s.ComputeStats(ctx, s.clock())
}

// ComputeStats computes windowed counts, status and specialist breakdowns and
// the queue length as of now.
func (s *DashboardService) ComputeStats(ctx context.Context, now time.Time) (*domain.DashboardStats, error) {
	window := domain.StatsWindows(now.In(s.location))

	countSince := func(from time.Time) (int64, error) {
		return s.tickets.Count(ctx, repository.TicketFilter{CreatedFrom: &from, CreatedTo: &now})
	}

	stats := &domain.DashboardStats{}
	var err error
	if stats.TotalToday, err = countSince(window.TodayStart); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if stats.TotalWeek, err = countSince(window.WeekStart); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if stats.TotalMonth, err = countSince(window.MonthStart); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if stats.TicketsByStatus, err = s.tickets.CountByStatus(ctx); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if stats.TicketsBySpecialist, err = s.tickets.CountBySpecialist(ctx); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	received := domain.TicketStatusReceived
	if stats.TicketsInQueue, err = s.tickets.Count(ctx, repository.TicketFilter{Status: &received}); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return stats, nil
}
