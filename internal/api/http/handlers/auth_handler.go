package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medinsight/staff-admin/internal/api/dto"
	"github.com/medinsight/staff-admin/internal/service"
	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt,
		Roles:     res.Principal.Roles,
	})
}
