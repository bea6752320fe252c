package server

import (
	"ai-interview-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
)

// healthHandler reports the retrieval breaker next to the liveness status.
// An open breaker still answers 200: follow-ups degrade to the fallback table.
func healthHandler(retrievalState func() gobreaker.State) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		state := retrievalState()

		status := "up"
		if state != gobreaker.StateClosed {
			status = "degraded"
		}

		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
			"status":            status,
			"retrieval_breaker": state.String(),
		}))
	}
}
