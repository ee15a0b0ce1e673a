package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"notevault/internal/storeerr"
)

// ErrorHandlerMiddleware maps storage sentinels to HTTP statuses so callers
// can distinguish failure classes without parsing messages.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, storeerr.ErrAlreadyInProgress):
			status = fiber.StatusConflict
		case errors.Is(err, storeerr.ErrMigrationSkipped):
			status = fiber.StatusConflict
		case errors.Is(err, storeerr.ErrBackendUnavailable):
			status = fiber.StatusServiceUnavailable
		case errors.Is(err, storeerr.ErrCapacityExceeded):
			status = fiber.StatusInsufficientStorage
		case errors.Is(err, storeerr.ErrCorruptRecord):
			status = fiber.StatusUnprocessableEntity
		case errors.Is(err, storeerr.ErrTransactionAborted):
			status = fiber.StatusInternalServerError
		}
		return ctx.Status(status).JSON(fiber.Map{"message": err.Error()})
	}
}
