package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFound("ticket", map[string]any{"ticket_id": "x"}))

	domainErr := ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
	assert.Equal(t, "ticket not found", domainErr.Message)
	assert.Equal(t, "x", domainErr.Details["ticket_id"])
}

func TestToDomainErrorMapsFiberErrors(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{fiber.StatusNotFound, "NOT_FOUND"},
		{fiber.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{fiber.StatusBadGateway, "INTERNAL_ERROR"},
		{fiber.StatusTeapot, "REQUEST_FAILED"},
	}
	for _, tt := range tests {
		domainErr := ToDomainError(fiber.NewError(tt.status, "boom"))
		assert.Equal(t, tt.code, domainErr.Code, "status %d", tt.status)
		assert.Equal(t, tt.status, domainErr.HTTPStatus)
	}
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("socket closed")
	domainErr := ToDomainError(cause)

	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.ErrorIs(t, domainErr, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestStoreUnavailableUnwraps(t *testing.T) {
	cause := errors.New("server selection timeout")
	err := NewStoreUnavailable(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, "STORE_UNAVAILABLE"))
	assert.False(t, IsCode(err, "NOT_FOUND"))
	assert.Equal(t, http.StatusServiceUnavailable, ToDomainError(err).HTTPStatus)
}
