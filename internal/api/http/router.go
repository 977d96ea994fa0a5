package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/http/handlers"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Workflows      *handlers.WorkflowsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Route-level role gates mirror the coarse
// role sets; the fine rules (ownership, rank comparisons, field gates) are
// enforced in the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	users := api.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireRole())
	users.Post("", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Users.Create)
	users.Get("", cfg.Users.List)
	users.Get("/accessible", cfg.Users.ListAccessible)
	users.Get("/role/:role", cfg.Users.ListByRole)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Users.Delete)
	users.Post("/:id/role", auth.RequireRole(domain.RoleAdmin), cfg.Users.ChangeRole)

	workflows := api.Group("/workflows", cfg.AuthMiddleware.Handle, auth.RequireRole())
	workflows.Post("", cfg.Workflows.Create)
	workflows.Get("", cfg.Workflows.List)
	workflows.Get("/me/assigned", cfg.Workflows.ListMyAssigned)
	workflows.Get("/me/created", cfg.Workflows.ListMyCreated)
	workflows.Get("/assignee/:id", cfg.Workflows.ListByAssignee)
	workflows.Get("/role/:role", cfg.Workflows.ListByAssignedRole)
	workflows.Get("/:id", cfg.Workflows.Get)
	workflows.Put("/:id", cfg.Workflows.Update)
	workflows.Delete("/:id", cfg.Workflows.Delete)
	workflows.Patch("/:id/status", cfg.Workflows.UpdateStatus)
}
