package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// SpecialistsHandler exposes the specialist roster.
type SpecialistsHandler struct {
	service *service.SpecialistService
}

// NewSpecialistsHandler constructs handler.
func NewSpecialistsHandler(specialistService *service.SpecialistService) *SpecialistsHandler {
	return &SpecialistsHandler{service: specialistService}
}

// List GET /api/specialists.
func (h *SpecialistsHandler) List(c *fiber.Ctx) error {
	specialists, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSpecialistResponses(specialists))
}
