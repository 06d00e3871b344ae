package service

import (
	"context"
	"errors"
	"math/rand"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	defaultListLimit         = 100
	defaultMaxListLimit      = 1000
	defaultMaxNumberAttempts = 50

	retryBaseDelay = 2 * time.Millisecond
	retryMaxDelay  = 50 * time.Millisecond
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets      repository.TicketRepository
	specialists  repository.SpecialistRepository
	numbers      NumberAllocator
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	clock        func() time.Time
	location     *time.Location
	maxAttempts  int
	defaultLimit int
	maxLimit     int
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	SpecialistRepo repository.SpecialistRepository
	Numbers        NumberAllocator
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          func() time.Time
	Location       *time.Location
	MaxAttempts    int
	DefaultLimit   int
	MaxLimit       int
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	Category       string
	Priority       string
	RequesterName  string
	RequesterEmail string
	RequesterPhone *string
}

// TicketUpdateInput describes a partial update. Nil fields are not changed.
type TicketUpdateInput struct {
	Status     *string
	AssignedTo *string
	Priority   *string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Status     *string
	AssignedTo *string
	Limit      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:      deps.TicketRepo,
		specialists:  deps.SpecialistRepo,
		numbers:      deps.Numbers,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		clock:        deps.Clock,
		location:     deps.Location,
		maxAttempts:  deps.MaxAttempts,
		defaultLimit: deps.DefaultLimit,
		maxLimit:     deps.MaxLimit,
	}
	if s.numbers == nil {
		s.numbers = NewStoreAllocator(deps.TicketRepo)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxNumberAttempts
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = defaultListLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = defaultMaxListLimit
	}
	return s
}

// CreateTicket validates input, allocates a ticket number and stores the ticket.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	ticket, err := input.toTicket()
	if err != nil {
		return nil, err
	}
	ticket.ID = uuid.NewString()
	ticket.Status = domain.TicketStatusReceived

	for attempt := 1; ; attempt++ {
		now := s.now()
		number, err := s.numbers.Next(ctx, now.In(s.location))
		if err != nil {
			return nil, mapAllocatorError(err, TicketNumberPrefix(now.In(s.location)))
		}
		ticket.TicketNumber = number
		ticket.CreatedAt = now
		ticket.UpdatedAt = now

		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateNumber) {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		s.metrics.RecordNumberConflict()
		s.logger.Warn("ticket number already taken",
			zap.String("ticket_number", number),
			zap.Int("attempt", attempt))
		if attempt >= s.maxAttempts {
			return nil, apperrors.NewConflict("could not allocate a unique ticket number", map[string]any{
				"attempts": attempt,
			})
		}
		if err := sleepCtx(ctx, retryDelay(attempt)); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Payload: events.TicketCreatedPayload{
			Category: ticket.Category,
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// UpdateTicket applies the provided fields, refreshes updated_at and stamps
// resolved_at when the ticket becomes resolved. The stored record is returned.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	patch, err := input.toPatch()
	if err != nil {
		return nil, err
	}

	current, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.AssignedTo != nil {
		if err := s.ensureSpecialist(ctx, *patch.AssignedTo); err != nil {
			return nil, err
		}
	}

	now := s.now()
	// updated_at never moves backwards
	if now.Before(current.UpdatedAt) {
		now = current.UpdatedAt
	}
	patch.UpdatedAt = now
	if patch.Status != nil && *patch.Status == domain.TicketStatusResolved {
		patch.ResolvedAt = &now
	}

	if err := s.tickets.ApplyPatch(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	updated, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !patch.IsEmpty() {
		s.publishChanges(ctx, current, patch)
	}
	return updated, nil
}

// GetTicket fetches a ticket by internal id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.getByID(ctx, id)
}

// GetTicketByNumber fetches a ticket by its exact ticket number.
func (s *TicketService) GetTicketByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperrors.NewValidationError("ticket_number required", nil)
	}
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

// ListTickets returns the newest tickets matching filter.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{Limit: s.clampLimit(filter.Limit)}
	if filter.Status != nil && strings.TrimSpace(*filter.Status) != "" {
		status, err := domain.ParseTicketStatus(*filter.Status)
		if err != nil {
			return nil, err
		}
		repoFilter.Status = &status
	}
	if filter.AssignedTo != nil && strings.TrimSpace(*filter.AssignedTo) != "" {
		assignee := strings.TrimSpace(*filter.AssignedTo)
		repoFilter.AssignedTo = &assignee
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

func (s *TicketService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

func (s *TicketService) getByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

func (s *TicketService) ensureSpecialist(ctx context.Context, id string) error {
	if s.specialists == nil {
		return nil
	}
	if _, err := s.specialists.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("assigned_to does not reference a specialist", map[string]any{
				"field": "assigned_to", "value": id,
			})
		}
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *TicketService) publishChanges(ctx context.Context, before *domain.Ticket, patch domain.TicketPatch) {
	if patch.Status != nil && *patch.Status != before.Status {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventTicketStatusChanged,
			TicketID:     before.ID,
			TicketNumber: before.TicketNumber,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: before.Status,
				NewStatus: *patch.Status,
			},
		})
	}
	if patch.Priority != nil && *patch.Priority != before.Priority {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventTicketPriorityChanged,
			TicketID:     before.ID,
			TicketNumber: before.TicketNumber,
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: before.Priority,
				NewPriority: *patch.Priority,
			},
		})
	}
	if patch.AssignedTo != nil && (before.AssignedTo == nil || *before.AssignedTo != *patch.AssignedTo) {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventTicketAssigned,
			TicketID:     before.ID,
			TicketNumber: before.TicketNumber,
			Payload: events.TicketAssignedPayload{
				OldAssignee: before.AssignedTo,
				NewAssignee: *patch.AssignedTo,
			},
		})
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// now is the service clock in UTC at millisecond precision, the resolution
// both stores keep, so a returned ticket matches what a later read yields.
func (s *TicketService) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}

// retryDelay grows exponentially with the attempt and keeps a random half so
// concurrent creators colliding on the same number spread out.
func retryDelay(attempt int) time.Duration {
	d := retryBaseDelay << min(attempt-1, 5)
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half+1)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func mapAllocatorError(err error, prefix string) error {
	if errors.Is(err, ErrSequenceExhausted) {
		return apperrors.NewSequenceExhausted(prefix)
	}
	return apperrors.NewStoreUnavailable(err)
}

func (in TicketCreateInput) toTicket() (*domain.Ticket, error) {
	problems := map[string]any{}
	required := func(field, value string) string {
		value = strings.TrimSpace(value)
		if value == "" {
			problems[field] = "required"
		}
		return value
	}

	ticket := &domain.Ticket{
		Title:          required("title", in.Title),
		Description:    required("description", in.Description),
		RequesterName:  required("requester_name", in.RequesterName),
		RequesterEmail: required("requester_email", in.RequesterEmail),
	}

	if category, err := domain.ParseTicketCategory(in.Category); err != nil {
		problems["category"] = "must be one of hardware, software, network, email, printer, phone, other"
	} else {
		ticket.Category = category
	}
	if priority, err := domain.ParseTicketPriority(in.Priority); err != nil {
		problems["priority"] = "must be one of low, medium, high, urgent"
	} else {
		ticket.Priority = priority
	}
	if ticket.RequesterEmail != "" {
		if _, err := mail.ParseAddress(ticket.RequesterEmail); err != nil {
			problems["requester_email"] = "invalid email address"
		}
	}
	if in.RequesterPhone != nil {
		if phone := strings.TrimSpace(*in.RequesterPhone); phone != "" {
			ticket.RequesterPhone = &phone
		}
	}

	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", problems)
	}
	return ticket, nil
}

func (in TicketUpdateInput) toPatch() (domain.TicketPatch, error) {
	var patch domain.TicketPatch
	if in.Status != nil {
		status, err := domain.ParseTicketStatus(*in.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if in.Priority != nil {
		priority, err := domain.ParseTicketPriority(*in.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	if in.AssignedTo != nil {
		assignee := strings.TrimSpace(*in.AssignedTo)
		if assignee == "" {
			return patch, apperrors.NewValidationError("assigned_to must not be empty", map[string]any{"field": "assigned_to"})
		}
		patch.AssignedTo = &assignee
	}
	return patch, nil
}
