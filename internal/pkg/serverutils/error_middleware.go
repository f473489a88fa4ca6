package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into JSON responses.
// Client errors keep their message; everything else becomes a generic 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		res := ErrorResponse(fiber.StatusBadRequest, verr.Error())
		res.Data = verr.Fields
		return ctx.Status(fiber.StatusBadRequest).JSON(res)
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) && ferr.Code < fiber.StatusInternalServerError {
		return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(InternalErrorBody{Detail: InternalErrorMessage})
}
