package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type response struct {
	Status  string `json:"status"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Handler renders every error returned by a route as a JSON body.
func Handler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			return c.Status(fe.Code).JSON(response{
				Status:  http.StatusText(fe.Code),
				Kind:    kindFromStatus(fe.Code),
				Message: fe.Message,
			})
		}

		kind := KindOf(err)
		code := StatusCode(kind)
		message := err.Error()
		if kind == KindInternal {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
			message = "internal server error"
		}
		return c.Status(code).JSON(response{
			Status:  http.StatusText(code),
			Kind:    kind,
			Message: message,
		})
	}
}

func kindFromStatus(code int) Kind {
	switch code {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnauthorized:
		return KindBadRequest
	case http.StatusServiceUnavailable:
		return KindExternalUnavailable
	default:
		return KindInternal
	}
}
