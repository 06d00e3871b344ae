package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	Priority       string  `json:"priority"`
	RequesterName  string  `json:"requester_name"`
	RequesterEmail string  `json:"requester_email"`
	RequesterPhone *string `json:"requester_phone"`
}

// UpdateTicketRequest payload. Absent fields are left unchanged.
type UpdateTicketRequest struct {
	Status     *string `json:"status"`
	AssignedTo *string `json:"assigned_to"`
	Priority   *string `json:"priority"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID             string                `json:"id"`
	TicketNumber   string                `json:"ticket_number"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Category       domain.TicketCategory `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	RequesterName  string                `json:"requester_name"`
	RequesterEmail string                `json:"requester_email"`
	RequesterPhone *string               `json:"requester_phone"`
	AssignedTo     *string               `json:"assigned_to"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	ResolvedAt     *time.Time            `json:"resolved_at"`
}

// NewTicketResponse converts a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             ticket.ID,
		TicketNumber:   ticket.TicketNumber,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Category:       ticket.Category,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		RequesterName:  ticket.RequesterName,
		RequesterEmail: ticket.RequesterEmail,
		RequesterPhone: ticket.RequesterPhone,
		AssignedTo:     ticket.AssignedTo,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		ResolvedAt:     ticket.ResolvedAt,
	}
}

// NewTicketResponses converts a slice, never returning nil.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// DashboardStatsResponse is the wire form of dashboard stats.
type DashboardStatsResponse struct {
	TotalTicketsToday   int64            `json:"total_tickets_today"`
	TotalTicketsWeek    int64            `json:"total_tickets_week"`
	TotalTicketsMonth   int64            `json:"total_tickets_month"`
	TicketsByStatus     map[string]int64 `json:"tickets_by_status"`
	TicketsBySpecialist map[string]int64 `json:"tickets_by_specialist"`
	TicketsInQueue      int64            `json:"tickets_in_queue"`
}

// NewDashboardStatsResponse converts stats, rendering empty maps as {}.
func NewDashboardStatsResponse(stats *domain.DashboardStats) DashboardStatsResponse {
	resp := DashboardStatsResponse{
		TotalTicketsToday:   stats.TotalToday,
		TotalTicketsWeek:    stats.TotalWeek,
		TotalTicketsMonth:   stats.TotalMonth,
		TicketsByStatus:     stats.TicketsByStatus,
		TicketsBySpecialist: stats.TicketsBySpecialist,
		TicketsInQueue:      stats.TicketsInQueue,
	}
	if resp.TicketsByStatus == nil {
		resp.TicketsByStatus = map[string]int64{}
	}
	if resp.TicketsBySpecialist == nil {
		resp.TicketsBySpecialist = map[string]int64{}
	}
	return resp
}
