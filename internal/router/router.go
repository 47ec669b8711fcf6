package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sidang-go-api/internal/config"
	"github.com/noah-isme/sidang-go-api/internal/handler"
	"github.com/noah-isme/sidang-go-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	EvaluationHandler *handler.EvaluationHandler
	DashboardHandler  *handler.DashboardHandler
	FormSchemaHandler *handler.FormSchemaHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Evaluator surface: panelists and students working their own
	// evaluations.
	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", jwtMiddleware)
		deps.EvaluationHandler.Register(evaluations)
	}

	// Admin surface: assignment, the unified dashboard, lifecycle
	// overrides, and form schema management.
	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireRole("admin", "staff"))

	if deps.AssignmentHandler != nil {
		assignments := admin.Group("/evaluations")
		// bulk assignment is expensive; cap how often one admin can fire it
		assignments.Use("/assign-all", middleware.RateLimit("assign-all", 5, time.Minute))
		deps.AssignmentHandler.Register(assignments)

		if deps.DashboardHandler != nil {
			deps.DashboardHandler.Register(assignments)
		}
		if deps.EvaluationHandler != nil {
			deps.EvaluationHandler.RegisterAdmin(assignments)
		}
	}

	if deps.FormSchemaHandler != nil {
		schemas := admin.Group("/form-schemas")
		deps.FormSchemaHandler.Register(schemas)
	}
}
