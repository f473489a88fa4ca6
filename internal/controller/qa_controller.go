package controller

import (
	"errors"

	"ikms-rag-be/internal/dto"
	"ikms-rag-be/internal/pkg/serverutils"
	"ikms-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQAController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
}

type qaController struct {
	service service.IQAService
}

func NewQAController(service service.IQAService) IQAController {
	return &qaController{service: service}
}

func (c *qaController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/qa")
	h.Post("", c.Ask)
	h.Get("/sessions/:id", c.GetHistory)
}

// Ask runs the pipeline. The response is the bare QA payload; any stage
// failure surfaces as a generic 500 with no partial fields.
func (c *qaController) Ask(ctx *fiber.Ctx) error {
	var req dto.QuestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuestion) {
			return fiber.NewError(fiber.StatusBadRequest, "question must not be blank")
		}
		return err
	}

	return ctx.JSON(res)
}

func (c *qaController) GetHistory(ctx *fiber.Ctx) error {
	res, err := c.service.GetHistory(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Session not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session history", res))
}
