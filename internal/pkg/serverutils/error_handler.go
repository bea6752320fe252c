package serverutils

import (
	"context"
	"errors"

	"ai-interview-be/internal/entity"
	"ai-interview-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// envelope. Unknown errors are logged and reported as 500 without detail.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, message, data := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
		}

		body := ErrorResponse(status, message)
		if data != nil {
			body.Data = data
		}
		return ctx.Status(status).JSON(body)
	}
}

func classify(err error) (int, string, interface{}) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, "Validation failed", validationErr.Fields
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message, nil
	}

	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrQuestionNotFound),
		errors.Is(err, entity.ErrModuleNotFound):
		return fiber.StatusNotFound, err.Error(), nil
	case errors.Is(err, entity.ErrInvalidDomain),
		errors.Is(err, entity.ErrInvalidDifficulty),
		errors.Is(err, entity.ErrInvalidQuestionType),
		errors.Is(err, entity.ErrInvalidQuestion),
		errors.Is(err, entity.ErrEmptyAnswer):
		return fiber.StatusBadRequest, err.Error(), nil
	case errors.Is(err, entity.ErrSessionCompleted):
		return fiber.StatusConflict, err.Error(), nil
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "Request timed out", nil
	default:
		return fiber.StatusInternalServerError, "Internal server error", nil
	}
}
