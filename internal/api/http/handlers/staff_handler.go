package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/medinsight/staff-admin/internal/api/dto"
	"github.com/medinsight/staff-admin/internal/auth"
	"github.com/medinsight/staff-admin/internal/domain"
	"github.com/medinsight/staff-admin/internal/service"
	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

// StaffHandler exposes the /staffs resource.
type StaffHandler struct {
	staffService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// List handles GET /staffs.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	items, err := h.staffService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffListResponse(items))
}

// ListActive handles GET /staffs/actifs.
func (h *StaffHandler) ListActive(c *fiber.Ctx) error {
	items, err := h.staffService.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffListResponse(items))
}

// Health handles GET /staffs/health.
func (h *StaffHandler) Health(c *fiber.Ctx) error {
	return c.SendString("Staff Service is running!")
}

// Get handles GET /staffs/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	id, err := staffID(c)
	if err != nil {
		return err
	}
	staff, err := h.staffService.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffResponse(staff))
}

// Create handles POST /staffs.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	input, password, err := parseStaffRequest(c)
	if err != nil {
		return err
	}
	staff, err := h.staffService.Create(c.UserContext(), principal(c), input, password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewStaffResponse(staff))
}

// Update handles PUT /staffs/:id.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	id, err := staffID(c)
	if err != nil {
		return err
	}
	input, _, err := parseStaffRequest(c)
	if err != nil {
		return err
	}
	staff, err := h.staffService.Update(c.UserContext(), principal(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffResponse(staff))
}

// Delete handles DELETE /staffs/:id.
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	id, err := staffID(c)
	if err != nil {
		return err
	}
	if err := h.staffService.Delete(c.UserContext(), principal(c), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// parseStaffRequest returns the validated record and the optional initial password.
func parseStaffRequest(c *fiber.Ctx) (*domain.Staff, string, error) {
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, "", apperrors.NewValidationError("invalid payload", nil)
	}
	if fields, ok := req.Ok(); !ok {
		details := make(map[string]any, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		return nil, "", apperrors.NewValidationError("validation failed", details)
	}
	staff, err := req.ToDomain()
	if err != nil {
		return nil, "", err
	}
	return staff, req.MotDePasse, nil
}

func staffID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid staff id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func principal(c *fiber.Ctx) *domain.Principal {
	p, _ := auth.PrincipalFromContext(c)
	return p
}
