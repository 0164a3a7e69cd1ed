package dto

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/medinsight/staff-admin/internal/domain"
)

// DateTimeLayout is how dateEmbauche and timestamps travel on the wire.
const DateTimeLayout = "2006-01-02T15:04:05"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// StaffRequest is the create/update payload.
type StaffRequest struct {
	Nom           string  `json:"nom" validate:"required"`
	Prenom        string  `json:"prenom" validate:"required"`
	Type          string  `json:"type" validate:"required,oneof=MEDECIN INFIRMIER AIDE_SOIGNANT TECHNICIEN SECRETAIRE"`
	Email         string  `json:"email" validate:"required,email"`
	Telephone     string  `json:"telephone" validate:"required"`
	Specialite    string  `json:"specialite"`
	NumeroLicence *string `json:"numeroLicence"`
	DateEmbauche  string  `json:"dateEmbauche"`
	Actif         *bool   `json:"actif"`

	// MotDePasse is the initial login password, honoured on create only.
	MotDePasse string `json:"motDePasse,omitempty" validate:"omitempty,min=8,max=72"`
}

// Ok trims the payload and validates it, returning messages keyed by field.
func (r *StaffRequest) Ok() (map[string]string, bool) {
	r.Nom = strings.TrimSpace(r.Nom)
	r.Prenom = strings.TrimSpace(r.Prenom)
	r.Type = strings.TrimSpace(r.Type)
	r.Email = strings.TrimSpace(r.Email)
	r.Telephone = strings.TrimSpace(r.Telephone)
	r.DateEmbauche = strings.TrimSpace(r.DateEmbauche)

	errorMessages := map[string]string{}
	if err := validate.Struct(r); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			errorMessages[fe.Field()] = fieldMessage(fe)
		}
	}
	if r.DateEmbauche != "" {
		if _, err := ParseDateEmbauche(r.DateEmbauche); err != nil {
			errorMessages["dateEmbauche"] = "invalid date"
		}
	}
	return errorMessages, len(errorMessages) == 0
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "email":
		return "must be a well-formed email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return fe.Tag()
}

// ToDomain converts a validated request. Missing actif defaults to true; a
// missing dateEmbauche is left zero for the service to fill in.
func (r *StaffRequest) ToDomain() (*domain.Staff, error) {
	staff := &domain.Staff{
		Nom:           r.Nom,
		Prenom:        r.Prenom,
		Email:         r.Email,
		Telephone:     r.Telephone,
		Type:          domain.StaffType(r.Type),
		Specialite:    r.Specialite,
		NumeroLicence: r.NumeroLicence,
		Actif:         true,
	}
	if r.Actif != nil {
		staff.Actif = *r.Actif
	}
	if r.DateEmbauche != "" {
		hired, err := ParseDateEmbauche(r.DateEmbauche)
		if err != nil {
			return nil, err
		}
		staff.DateEmbauche = hired
	}
	return staff, nil
}

// ParseDateEmbauche accepts a calendar date, a local date-time, or RFC 3339.
func ParseDateEmbauche(raw string) (time.Time, error) {
	for _, layout := range []string{DateTimeLayout, "2006-01-02", time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// StaffResponse is the wire representation of a staff member.
type StaffResponse struct {
	ID            int64   `json:"id"`
	AccountID     *string `json:"accountId,omitempty"`
	Nom           string  `json:"nom"`
	Prenom        string  `json:"prenom"`
	Type          string  `json:"type"`
	Email         string  `json:"email"`
	Telephone     string  `json:"telephone"`
	Specialite    string  `json:"specialite"`
	NumeroLicence *string `json:"numeroLicence"`
	DateEmbauche  string  `json:"dateEmbauche"`
	Actif         bool    `json:"actif"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// NewStaffResponse maps a domain record to its wire form.
func NewStaffResponse(s *domain.Staff) StaffResponse {
	return StaffResponse{
		ID:            s.ID,
		AccountID:     s.AccountID,
		Nom:           s.Nom,
		Prenom:        s.Prenom,
		Type:          string(s.Type),
		Email:         s.Email,
		Telephone:     s.Telephone,
		Specialite:    s.Specialite,
		NumeroLicence: s.NumeroLicence,
		DateEmbauche:  formatTime(s.DateEmbauche),
		Actif:         s.Actif,
		CreatedAt:     formatTime(s.CreatedAt),
		UpdatedAt:     formatTime(s.UpdatedAt),
	}
}

// NewStaffListResponse maps a slice, never returning nil.
func NewStaffListResponse(items []domain.Staff) []StaffResponse {
	out := make([]StaffResponse, 0, len(items))
	for i := range items {
		out = append(out, NewStaffResponse(&items[i]))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	Roles     []string  `json:"roles"`
}
