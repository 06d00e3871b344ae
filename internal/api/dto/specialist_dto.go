package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// SpecialistResponse is the wire form of a specialist.
type SpecialistResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// NewSpecialistResponses converts a slice, never returning nil.
func NewSpecialistResponses(specialists []domain.Specialist) []SpecialistResponse {
	out := make([]SpecialistResponse, 0, len(specialists))
	for _, s := range specialists {
		out = append(out, SpecialistResponse{ID: s.ID, Name: s.Name, Role: s.Role, Active: s.Active})
	}
	return out
}
