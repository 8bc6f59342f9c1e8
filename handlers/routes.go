package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	_ "math-log-server/docs"
	"math-log-server/middleware"
)

// AppOptions configures NewApp.
type AppOptions struct {
	AppName     string
	AccessLog   bool
	XRay        bool
	SegmentName string
}

// NewApp builds the Fiber app with the shared middleware stack.
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      opts.AppName,
		ErrorHandler: ErrorHandler,
	})

	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS",
		AllowHeaders: "*",
	}))
	if opts.XRay {
		app.Use(middleware.XRayMiddleware(opts.SegmentName))
	}

	return app
}

// SetupRoutes registers every endpoint.
func SetupRoutes(app *fiber.App, mathHandler *MathHandler, logHandler *LogHandler, healthHandler *HealthHandler) {
	app.Get("/docs/*", swagger.HandlerDefault)

	app.Get("/", mathHandler.Root)
	app.Get("/health", healthHandler.Health)

	api := app.Group("/api")

	api.Post("/pow", mathHandler.Pow)
	api.Post("/fibonacci", mathHandler.Fibonacci)
	api.Post("/factorial", mathHandler.Factorial)

	api.Get("/logs", logHandler.ListLogs)
	api.Post("/logs/export", logHandler.ExportLogs)
	api.Get("/logs/export/*", logHandler.GetExport)
}
