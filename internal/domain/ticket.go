package domain

import (
	"time"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusReceived   TicketStatus = "received"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketCategory enumerates the kind of problem reported.
type TicketCategory string

const (
	TicketCategoryHardware TicketCategory = "hardware"
	TicketCategorySoftware TicketCategory = "software"
	TicketCategoryNetwork  TicketCategory = "network"
	TicketCategoryEmail    TicketCategory = "email"
	TicketCategoryPrinter  TicketCategory = "printer"
	TicketCategoryPhone    TicketCategory = "phone"
	TicketCategoryOther    TicketCategory = "other"
)

var (
	ticketStatuses   = []TicketStatus{TicketStatusReceived, TicketStatusInProgress, TicketStatusResolved}
	ticketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
	ticketCategories = []TicketCategory{
		TicketCategoryHardware, TicketCategorySoftware, TicketCategoryNetwork, TicketCategoryEmail,
		TicketCategoryPrinter, TicketCategoryPhone, TicketCategoryOther,
	}
)

// Ticket is the aggregate for help-desk requests.
type Ticket struct {
	ID             string
	TicketNumber   string
	Title          string
	Description    string
	Category       TicketCategory
	Priority       TicketPriority
	Status         TicketStatus
	RequesterName  string
	RequesterEmail string
	RequesterPhone *string
	AssignedTo     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
}

// TicketPatch is a partial ticket update. Nil fields are left untouched.
type TicketPatch struct {
	Status     *TicketStatus
	AssignedTo *string
	Priority   *TicketPriority
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}

// IsEmpty reports whether no caller supplied field is set.
func (p TicketPatch) IsEmpty() bool {
	return p.Status == nil && p.AssignedTo == nil && p.Priority == nil
}

// Apply merges the patch into t.
func (p TicketPatch) Apply(t *Ticket) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo != nil {
		assignee := *p.AssignedTo
		t.AssignedTo = &assignee
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ResolvedAt != nil {
		resolved := *p.ResolvedAt
		t.ResolvedAt = &resolved
	}
	t.UpdatedAt = p.UpdatedAt
}

func (s TicketStatus) Valid() bool {
	for _, candidate := range ticketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (p TicketPriority) Valid() bool {
	for _, candidate := range ticketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

func (c TicketCategory) Valid() bool {
	for _, candidate := range ticketCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseTicketStatus validates a status value. Matching is exact: values are
// lower case with no surrounding whitespace.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	if !status.Valid() {
		return "", apperrors.NewValidationError("invalid status", map[string]any{
			"field": "status", "value": raw, "allowed": ticketStatuses,
		})
	}
	return status, nil
}

// ParseTicketPriority validates a priority value.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	priority := TicketPriority(raw)
	if !priority.Valid() {
		return "", apperrors.NewValidationError("invalid priority", map[string]any{
			"field": "priority", "value": raw, "allowed": ticketPriorities,
		})
	}
	return priority, nil
}

// ParseTicketCategory validates a category value.
func ParseTicketCategory(raw string) (TicketCategory, error) {
	category := TicketCategory(raw)
	if !category.Valid() {
		return "", apperrors.NewValidationError("invalid category", map[string]any{
			"field": "category", "value": raw, "allowed": ticketCategories,
		})
	}
	return category, nil
}
