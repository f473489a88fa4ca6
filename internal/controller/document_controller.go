package controller

import (
	"ikms-rag-be/internal/dto"
	"ikms-rag-be/internal/pkg/serverutils"
	"ikms-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	ListChunks(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Post("", c.Create)
	h.Get("/chunks", c.ListChunks)
}

// Create queues a document for asynchronous indexing
func (c *documentController) Create(ctx *fiber.Ctx) error {
	var req dto.IndexDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Enqueue(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	accepted := serverutils.SuccessResponse("Document queued for indexing", res)
	accepted.Code = fiber.StatusAccepted
	return ctx.Status(fiber.StatusAccepted).JSON(accepted)
}

func (c *documentController) ListChunks(ctx *fiber.Ctx) error {
	var req dto.ListChunksRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ListChunks(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list document chunks", res))
}
