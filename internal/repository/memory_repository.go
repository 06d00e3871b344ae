package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MemoryStore keeps tickets and specialists in process memory. It backs the
// "memory" store driver and the service tests.
type MemoryStore struct {
	mu          sync.RWMutex
	tickets     map[string]domain.Ticket
	numbers     map[string]string
	specialists map[string]domain.Specialist
	order       []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:     make(map[string]domain.Ticket),
		numbers:     make(map[string]string),
		specialists: make(map[string]domain.Specialist),
	}
}

// Tickets returns the ticket repository view of the store.
func (s *MemoryStore) Tickets() TicketRepository {
	return &memoryTicketRepository{store: s}
}

// Specialists returns the specialist repository view of the store.
func (s *MemoryStore) Specialists() SpecialistRepository {
	return &memorySpecialistRepository{store: s}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

type memoryTicketRepository struct {
	store *MemoryStore
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.numbers[ticket.TicketNumber]; taken {
		return ErrDuplicateNumber
	}
	s.tickets[ticket.ID] = cloneTicket(*ticket)
	s.numbers[ticket.TicketNumber] = ticket.ID
	return nil
}

func (r *memoryTicketRepository) ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&ticket)
	s.tickets[id] = ticket
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *memoryTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	id, ok := s.numbers[number]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *memoryTicketRepository) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := ""
	for number := range s.numbers {
		if strings.HasPrefix(number, prefix) && number > latest {
			latest = number
		}
	}
	return latest, nil
}

func (r *memoryTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if matchesFilter(ticket, filter) {
			result = append(result, cloneTicket(ticket))
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].TicketNumber > result[j].TicketNumber
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memoryTicketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, ticket := range s.tickets {
		if matchesFilter(ticket, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTicketRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := map[string]int64{}
	for _, ticket := range s.tickets {
		result[string(ticket.Status)]++
	}
	return result, nil
}

func (r *memoryTicketRepository) CountBySpecialist(ctx context.Context) (map[string]int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := map[string]int64{}
	for _, ticket := range s.tickets {
		if ticket.AssignedTo == nil {
			continue
		}
		specialist, ok := s.specialists[*ticket.AssignedTo]
		if !ok {
			continue
		}
		result[specialist.Name]++
	}
	return result, nil
}

func matchesFilter(ticket domain.Ticket, filter TicketFilter) bool {
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	return true
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.RequesterPhone != nil {
		phone := *t.RequesterPhone
		t.RequesterPhone = &phone
	}
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		t.AssignedTo = &assignee
	}
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		t.ResolvedAt = &resolved
	}
	return t
}

type memorySpecialistRepository struct {
	store *MemoryStore
}

func (r *memorySpecialistRepository) Create(ctx context.Context, specialist *domain.Specialist) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.specialists {
		if existing.Name == specialist.Name {
			return ErrDuplicateName
		}
	}
	s.specialists[specialist.ID] = *specialist
	s.order = append(s.order, specialist.ID)
	return nil
}

func (r *memorySpecialistRepository) GetByID(ctx context.Context, id string) (*domain.Specialist, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	specialist, ok := s.specialists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &specialist, nil
}

func (r *memorySpecialistRepository) GetByName(ctx context.Context, name string) (*domain.Specialist, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, specialist := range s.specialists {
		if specialist.Name == name {
			found := specialist
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memorySpecialistRepository) ListActive(ctx context.Context, limit int) ([]domain.Specialist, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Specialist{}
	for _, id := range s.order {
		specialist := s.specialists[id]
		if !specialist.Active {
			continue
		}
		result = append(result, specialist)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
