package handlers_fiber

import (
	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(errorResponse{Error: msg})
}
