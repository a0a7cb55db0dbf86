package middleware

import (
	"strings"

	"doc-recognizer/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LocalCaller is the fiber local holding the authenticated caller name.
const LocalCaller = "caller"

// AuthMiddleware requires a bearer token signed by jwtManager.
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(fiber.HeaderAuthorization)
		if token == "" {
			logger.Warn("Missing authorization token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Authorization token required",
			})
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid or expired token",
			})
		}

		c.Locals(LocalCaller, claims.Caller)
		return c.Next()
	}
}
