package handlers

import (
	"errors"

	"doc-recognizer/internal/service"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a pipeline error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInput, service.KindRequiredFieldMissing:
		return fiber.StatusBadRequest
	case service.KindUnsupportedFormat:
		return fiber.StatusUnsupportedMediaType
	case service.KindNoTextDetected:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// errorEnvelope renders err as {"error": category, "message": detail, ...extra}.
func errorEnvelope(err error) (int, fiber.Map) {
	var e *service.Error
	if !errors.As(err, &e) {
		return fiber.StatusInternalServerError, fiber.Map{
			"error":   "Internal Server Error",
			"message": err.Error(),
		}
	}

	body := fiber.Map{"error": e.Category}
	if e.Message != "" {
		body["message"] = e.Message
	}
	for k, v := range e.Extra {
		body[k] = v
	}
	return statusFor(e.Kind), body
}
