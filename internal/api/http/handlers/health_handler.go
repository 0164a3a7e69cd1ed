package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

const readinessTimeout = 2 * time.Second

// Dependency is something readiness depends on.
type Dependency interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// NamedDependency labels a Dependency in the readiness report.
type NamedDependency struct {
	Name string
	Dep  Dependency
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	service string
	version string
	deps    []NamedDependency
}

func NewHealthHandler(service, version string, deps ...NamedDependency) *HealthHandler {
	return &HealthHandler{service: service, version: version, deps: deps}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive", "service": h.service, "version": h.version})
}

// Ready pings every enabled dependency. A disabled one is reported but
// never fails the probe.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	report := make(map[string]any, len(h.deps))
	ready := true
	for _, d := range h.deps {
		if !d.Dep.Enabled() {
			report[d.Name] = "disabled"
			continue
		}
		if err := d.Dep.Ping(ctx); err != nil {
			report[d.Name] = "unavailable"
			ready = false
			continue
		}
		report[d.Name] = "ok"
	}

	if !ready {
		return apperrors.NewDomainError(apperrors.CodeUnavailable, "one or more dependencies unavailable",
			fiber.StatusServiceUnavailable, report)
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": report})
}
