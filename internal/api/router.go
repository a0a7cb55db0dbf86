package api

import (
	"doc-recognizer/docs"
	"doc-recognizer/internal/api/handlers"
	"doc-recognizer/pkg/auth"
	"doc-recognizer/pkg/config"
	"doc-recognizer/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// NewApp builds a fiber app with the shared middleware chain.
func NewApp(cfg *config.Config, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))
	app.Use(logger.New())
	app.Use(middleware.RequestID())

	return app
}

// guarded puts rate limiting and, when jwtManager is set, caller
// authentication in front of handler.
func guarded(limiter *middleware.RateLimiter, jwtManager *auth.JWTManager, appLogger *zap.Logger, handler fiber.Handler) []fiber.Handler {
	chain := []fiber.Handler{middleware.RateLimit(limiter, appLogger)}
	if jwtManager != nil {
		chain = append(chain, middleware.AuthMiddleware(jwtManager, appLogger))
	}
	return append(chain, handler)
}

// SetupRouter serves all four recognition endpoints, health and swagger.
func SetupRouter(
	recHandler *handlers.RecognitionHandler,
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := NewApp(cfg, appLogger)

	// Swagger - импорт docs пакета регистрирует документацию через init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", handlers.Health)

	// All verbs reach the handlers so non-POST gets a 405 envelope.
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Every, cfg.RateLimit.Burst)
	app.All("/audio", guarded(limiter, jwtManager, appLogger, recHandler.Audio)...)
	app.All("/license", guarded(limiter, jwtManager, appLogger, recHandler.License)...)
	app.All("/passport", guarded(limiter, jwtManager, appLogger, recHandler.Passport)...)
	app.All("/patent", guarded(limiter, jwtManager, appLogger, recHandler.Patent)...)

	return app
}

// SetupFunction serves a single domain on every path, the way a deployed
// function URL is invoked.
func SetupFunction(
	recHandler *handlers.RecognitionHandler,
	domainName string,
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := NewApp(cfg, appLogger)

	handler := func(c *fiber.Ctx) error {
		return recHandler.Handle(c, domainName)
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Every, cfg.RateLimit.Burst)
	app.All("/*", guarded(limiter, jwtManager, appLogger, handler)...)

	return app
}
