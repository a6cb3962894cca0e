package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/errors"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.Kind
	}{
		{"not found", errors.NotFoundErr("run", "1"), errors.KindNotFound},
		{"wrapped conflict", fmt.Errorf("create run: %w", errors.ConflictErr("busy")), errors.KindConflict},
		{"bad request", errors.BadRequestErr("missing %s", "name"), errors.KindBadRequest},
		{"unavailable", errors.UnavailableErr("job backend", stderrors.New("dial")), errors.KindExternalUnavailable},
		{"plain", stderrors.New("boom"), errors.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.KindOf(tt.err))
		})
	}
}

func TestUnavailableErrUnwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := errors.UnavailableErr("cluster", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cluster unavailable: connection refused", err.Error())
}

func TestHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errors.Handler(zap.NewNop())})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("lookup: %w", errors.NotFoundErr("pod", "worker-0"))
	})
	app.Get("/busy", func(c *fiber.Ctx) error {
		return errors.ConflictErr("There is already an active run")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return stderrors.New("secret detail")
	})

	tests := []struct {
		path    string
		code    int
		kind    errors.Kind
		message string
	}{
		{"/missing", http.StatusNotFound, errors.KindNotFound, "lookup: pod worker-0 not found"},
		{"/busy", http.StatusConflict, errors.KindConflict, "There is already an active run"},
		{"/boom", http.StatusInternalServerError, errors.KindInternal, "internal server error"},
		{"/nowhere", http.StatusNotFound, errors.KindNotFound, "Cannot GET /nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, string(tt.kind), body["kind"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}
