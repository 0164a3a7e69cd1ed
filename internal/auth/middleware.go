package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/domain"
	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Identity headers set by the API gateway in front of the service.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUsername  = "X-User-Username"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRoles = "X-User-Roles"
)

// AuthMiddleware resolves the caller's principal for every request.
type AuthMiddleware struct {
	tokens       *TokenManager
	trustGateway bool
	logger       *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, trustGateway bool, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, trustGateway: trustGateway, logger: logger}
}

// Handle attaches a principal: gateway headers first, then a bearer token.
// Requests without credentials continue as anonymous; a malformed or
// invalid bearer token is rejected.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if m.trustGateway {
		if principal, ok := principalFromHeaders(c); ok {
			c.Locals(principalKey, principal)
			return c.Next()
		}
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		c.Locals(principalKey, domain.Anonymous())
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	principal, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		m.logger.Debug("bearer token rejected", zap.Error(err))
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func principalFromHeaders(c *fiber.Ctx) (*domain.Principal, bool) {
	userID := c.Get(HeaderUserID)
	if userID == "" {
		return nil, false
	}
	roles := []string{}
	if raw := c.Get(HeaderUserRoles); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
	}
	return &domain.Principal{
		UserID:   userID,
		Username: c.Get(HeaderUsername),
		Email:    c.Get(HeaderUserEmail),
		Roles:    roles,
	}, true
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
