package serverutils

import "github.com/gofiber/fiber/v2"

func SuccessResponse(message string, data interface{}) fiber.Map {
	return fiber.Map{
		"message": message,
		"data":    data,
	}
}

// WarningResponse signals the write only landed in memory. The UI shows
// the warning but keeps the optimistic result.
func WarningResponse(message string, warning string, data interface{}) fiber.Map {
	return fiber.Map{
		"message": message,
		"warning": warning,
		"data":    data,
	}
}
