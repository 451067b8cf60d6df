package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"research-agent-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Message string `json:"message" validate:"required,notblank"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     sampleRequest
		wantErr string
	}{
		{"valid", sampleRequest{Message: "hi"}, ""},
		{"missing", sampleRequest{}, "message is required"},
		{"blank", sampleRequest{Message: "   "}, "message must not be blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	app.Get("/validation", func(*fiber.Ctx) error { return ValidateRequest(sampleRequest{}) })
	app.Get("/fiber", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "session not found") })
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("db password leaked") })

	tests := []struct {
		path     string
		wantCode int
		wantMsg  string
	}{
		{"/validation", 400, "message is required"},
		{"/fiber", 404, "session not found"},
		{"/boom", 500, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}
