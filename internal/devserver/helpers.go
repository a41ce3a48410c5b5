package devserver

import (
	"strconv"

	"slurpsocial/internal/models"

	"github.com/gofiber/fiber/v2"
)

func respondData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(models.Envelope[any]{Success: true, Data: &data})
}

func respondPage(c *fiber.Ctx, data []models.Post, pagination *models.Pagination) error {
	var payload any = data
	return c.Status(fiber.StatusOK).JSON(models.Envelope[any]{Success: true, Data: &payload, Pagination: pagination})
}

func respondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(models.Envelope[models.Empty]{
		Success: false,
		Error:   &models.ErrorBody{Code: code, Message: message},
	})
}

// statusCode names the generic error code for an HTTP status.
func statusCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	default:
		return models.CodeInternal
	}
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c *fiber.Ctx, key string) (float64, bool) {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	return v, err == nil
}
