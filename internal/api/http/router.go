package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medinsight/staff-admin/internal/api/http/handlers"
	"github.com/medinsight/staff-admin/internal/auth"
	"github.com/medinsight/staff-admin/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Staff          *handlers.StaffHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	staffs := app.Group("/staffs", cfg.AuthMiddleware.Handle)
	read := auth.RequirePermission(domain.PermissionStaffRead)
	write := auth.RequirePermission(domain.PermissionStaffWrite)

	staffs.Get("/health", cfg.Staff.Health)
	staffs.Get("/actifs", read, cfg.Staff.ListActive)
	staffs.Get("/", read, cfg.Staff.List)
	staffs.Post("/", write, cfg.Staff.Create)
	staffs.Get("/:id", read, cfg.Staff.Get)
	staffs.Put("/:id", write, cfg.Staff.Update)
	staffs.Delete("/:id", auth.RequirePermission(domain.PermissionStaffDelete), cfg.Staff.Delete)
}
