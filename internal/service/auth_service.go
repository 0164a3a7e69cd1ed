package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medinsight/staff-admin/internal/auth"
	"github.com/medinsight/staff-admin/internal/config"
	"github.com/medinsight/staff-admin/internal/domain"
	"github.com/medinsight/staff-admin/internal/repository"
	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

// AuthService coordinates login flows.
type AuthService struct {
	staff         repository.StaffRepository
	tokenMgr      *auth.TokenManager
	adminEmail    string
	adminPassword string
}

// LoginResult is a successful login.
type LoginResult struct {
	Principal *domain.Principal
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, staff repository.StaffRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		staff:         staff,
		tokenMgr:      tokens,
		adminEmail:    strings.TrimSpace(cfg.Auth.AdminEmail),
		adminPassword: cfg.Auth.AdminPassword,
	}
}

// Login authenticates either the bootstrap administrator or a staff member
// holding a locally provisioned password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	if s.isAdmin(email, password) {
		return s.issue(&domain.Principal{
			UserID:   "admin",
			Username: s.adminEmail,
			Email:    s.adminEmail,
			Roles:    []string{domain.RoleAdmin},
		})
	}

	staff, err := s.staff.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	} else if err != nil {
		return nil, apperrors.MapError(err)
	}
	if staff.PasswordHash == "" || auth.ComparePassword(staff.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !staff.Actif {
		return nil, apperrors.NewForbidden("staff inactive")
	}

	userID := strconv.FormatInt(staff.ID, 10)
	if staff.AccountID != nil {
		userID = *staff.AccountID
	}
	return s.issue(&domain.Principal{
		UserID:   userID,
		Username: staff.Email,
		Email:    staff.Email,
		Roles:    []string{staff.Type.RealmRole(), domain.PermissionStaffRead},
	})
}

func (s *AuthService) isAdmin(email, password string) bool {
	if s.adminEmail == "" || s.adminPassword == "" {
		return false
	}
	return strings.EqualFold(email, s.adminEmail) &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
}

func (s *AuthService) issue(p *domain.Principal) (*LoginResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(p)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Principal: p, Token: token, ExpiresAt: exp}, nil
}
