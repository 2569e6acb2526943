package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/corpdesk/employee-portal/internal/api/http/handlers"
	"github.com/corpdesk/employee-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Employees      *handlers.EmployeesHandler
	AuthMiddleware *auth.AuthMiddleware
	AdminEmails    []string
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	employees := app.Group("/employees")
	employees.Get("/emp-ids/:empID", cfg.Employees.CheckEmpID)

	protected := employees.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Employees.Me)
	protected.Delete("/me", cfg.Employees.Delete)
	protected.Get("/", auth.RequireAdmin(cfg.AdminEmails), cfg.Employees.List)
	protected.Patch("/:uid", cfg.Employees.Update)
}
