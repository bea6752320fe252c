package controller

import (
	"ai-interview-be/internal/dto"
	"ai-interview-be/internal/pkg/serverutils"
	"ai-interview-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler)
	CreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	NextQuestion(ctx *fiber.Ctx) error
	GenerateFollowUp(ctx *fiber.Ctx) error
}

type interviewController struct {
	interviewService service.IInterviewService
}

func NewInterviewController(interviewService service.IInterviewService) IInterviewController {
	return &interviewController{
		interviewService: interviewService,
	}
}

func (c *interviewController) RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler) {
	h := r.Group("/interview/v1")
	for _, m := range middlewares {
		h.Use(m)
	}
	h.Post("sessions", c.CreateSession)
	h.Get("sessions/:id", c.GetSession)
	h.Get("sessions/:id/next", c.NextQuestion)
	h.Post("sessions/:id/followup", c.GenerateFollowUp)
}

func (c *interviewController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.interviewService.CreateSession(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *interviewController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.interviewService.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *interviewController) NextQuestion(ctx *fiber.Ctx) error {
	res, err := c.interviewService.GetNextQuestion(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	message := "Success get next question"
	if res.SessionComplete {
		message = "Session complete"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *interviewController) GenerateFollowUp(ctx *fiber.Ctx) error {
	var req dto.GenerateFollowUpRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.SessionId = ctx.Params("id")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.interviewService.GenerateFollowUp(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	message := "Success generate follow-up"
	if res.NoMoreQuestions {
		message = "No more questions"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
