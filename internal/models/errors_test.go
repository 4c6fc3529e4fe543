package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"not found", NewNotFoundError("Hilo", 7), http.StatusNotFound},
		{"unauthorized", NewUnauthorizedError("nope"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("nope"), http.StatusForbidden},
		{"conflict", NewConflictError("busy", errors.New("stale")), http.StatusConflict},
		{"wrapped app error", fmt.Errorf("ctx: %w", NewNotFoundError("Foro", 1)), http.StatusNotFound},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", NewConflictError("busy", nil))
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
}

func TestRespondWithError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: secret detail")))
	})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusConflict, NewConflictError("Concurrent update, please retry", errors.New("stale version")))
	})

	read := func(path string) ErrorResponse {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var out ErrorResponse
		require.NoError(t, json.Unmarshal(body, &out))
		return out
	}

	internal := read("/internal")
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Empty(t, internal.Details)

	conflict := read("/conflict")
	assert.Equal(t, CodeConflict, conflict.Code)
	assert.Equal(t, "stale version", conflict.Details)
}
