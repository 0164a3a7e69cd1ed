package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

// RequirePermission ensures the principal holds permission (or is an admin).
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.HasRole(permission) {
			return apperrors.NewForbidden("Access Denied: Required role " + permission)
		}
		return c.Next()
	}
}
