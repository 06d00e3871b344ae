package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateNumber is returned when a ticket number is already taken.
	ErrDuplicateNumber = errors.New("ticket number already exists")
	// ErrDuplicateName is returned when a specialist name is already taken.
	ErrDuplicateName = errors.New("specialist name already exists")
)

// TicketFilter captures list and count parameters. Nil fields match everything.
type TicketFilter struct {
	Status      *domain.TicketStatus
	AssignedTo  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	// LatestNumberWithPrefix returns the greatest ticket number starting with
	// prefix, or "" when there is none.
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	// List returns matching tickets, newest created first.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	// CountBySpecialist groups assigned tickets by the assignee's name.
	CountBySpecialist(ctx context.Context) (map[string]int64, error)
}

// SpecialistRepository handles persistence for specialists.
type SpecialistRepository interface {
	Create(ctx context.Context, specialist *domain.Specialist) error
	GetByID(ctx context.Context, id string) (*domain.Specialist, error)
	GetByName(ctx context.Context, name string) (*domain.Specialist, error)
	ListActive(ctx context.Context, limit int) ([]domain.Specialist, error)
}

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
