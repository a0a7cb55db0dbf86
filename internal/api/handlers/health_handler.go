package handlers

import (
	"doc-recognizer/internal/dto"
	"doc-recognizer/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func Health(c *fiber.Ctx) error {
	var names []string
	for _, d := range service.Domains() {
		names = append(names, d.Name)
	}
	return c.JSON(dto.HealthResponse{Status: "ok", Domains: names})
}
