package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/auth"
	"mlbench-api-server/internal/api/common/errors"
)

const secret = "s3cr3t"

func sign(t *testing.T, key string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestGuard(t *testing.T) {
	assert.Nil(t, auth.Guard(""))

	app := fiber.New(fiber.Config{ErrorHandler: errors.Handler(zap.NewNop())})
	app.Post("/runs", auth.Guard(secret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	cases := map[string]struct {
		header string
		want   int
	}{
		"valid token":  {header: "Bearer " + sign(t, secret), want: http.StatusCreated},
		"wrong secret": {header: "Bearer " + sign(t, "other"), want: http.StatusUnauthorized},
		"no token":     {want: http.StatusUnauthorized},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/runs", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
