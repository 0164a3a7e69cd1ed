package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/domain"
	"github.com/medinsight/staff-admin/internal/events"
	"github.com/medinsight/staff-admin/internal/identity"
	"github.com/medinsight/staff-admin/internal/repository"
	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

// StaffService manages hospital staff records and their login accounts.
type StaffService struct {
	staff       repository.StaffRepository
	provisioner identity.Provisioner
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// StaffDependencies encapsulates collaborators required by StaffService.
type StaffDependencies struct {
	StaffRepo   repository.StaffRepository
	Provisioner identity.Provisioner
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		staff:       deps.StaffRepo,
		provisioner: deps.Provisioner,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns every staff member ordered by id.
func (s *StaffService) List(ctx context.Context) ([]domain.Staff, error) {
	items, err := s.staff.List(ctx, repository.StaffFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListActive returns staff whose actif flag is set.
func (s *StaffService) ListActive(ctx context.Context) ([]domain.Staff, error) {
	active := true
	items, err := s.staff.List(ctx, repository.StaffFilter{Active: &active})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// GetByID fetches one staff member.
func (s *StaffService) GetByID(ctx context.Context, id int64) (*domain.Staff, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return staff, nil
}

// Create saves a new staff member and provisions a login account for it.
// password is the administrator-chosen initial password; empty lets the
// provisioner generate one. When provisioning fails the saved row is removed again.
func (s *StaffService) Create(ctx context.Context, actor *domain.Principal, input *domain.Staff, password string) (*domain.Staff, error) {
	staff := *input
	s.normalize(&staff)

	if err := s.ensureEmailFree(ctx, staff.Email, 0); err != nil {
		return nil, err
	}

	staff.ID = 0
	staff.AccountID = nil
	staff.PasswordHash = ""
	if err := s.staff.Create(ctx, &staff); err != nil {
		return nil, s.mapRepoError(err, 0)
	}

	var account identity.Account
	if s.provisioner != nil {
		var err error
		account, err = s.provisioner.Provision(ctx, &staff, password)
		if err == nil {
			staff.AccountID = &account.ID
			staff.PasswordHash = account.PasswordHash
			err = s.staff.Update(ctx, &staff)
		}
		if err != nil {
			s.rollbackCreate(ctx, staff.ID, err)
			return nil, apperrors.NewInternalError(err)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventStaffCreated,
		StaffID: staff.ID,
		Actor:   principalActor(actor),
		Payload: events.StaffCreatedPayload{
			Email:           staff.Email,
			FullName:        staff.FullName(),
			Type:            string(staff.Type),
			AccountID:       account.ID,
			InitialPassword: account.InitialPassword,
		},
	})
	s.logger.Info("staff created", zap.Int64("staff_id", staff.ID), zap.String("type", string(staff.Type)))
	return &staff, nil
}

// Update replaces every editable field of an existing record.
func (s *StaffService) Update(ctx context.Context, actor *domain.Principal, id int64, input *domain.Staff) (*domain.Staff, error) {
	existing, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}

	next := *input
	s.normalize(&next)
	if !strings.EqualFold(next.Email, existing.Email) {
		if err := s.ensureEmailFree(ctx, next.Email, id); err != nil {
			return nil, err
		}
	}

	existing.Nom = next.Nom
	existing.Prenom = next.Prenom
	existing.Email = next.Email
	existing.Telephone = next.Telephone
	existing.Type = next.Type
	existing.Specialite = next.Specialite
	existing.NumeroLicence = next.NumeroLicence
	existing.Actif = next.Actif
	existing.DateEmbauche = next.DateEmbauche

	if err := s.staff.Update(ctx, existing); err != nil {
		return nil, s.mapRepoError(err, id)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventStaffUpdated,
		StaffID: existing.ID,
		Actor:   principalActor(actor),
		Payload: events.StaffUpdatedPayload{Email: existing.Email, Actif: existing.Actif},
	})
	return existing, nil
}

// Delete removes a staff member.
func (s *StaffService) Delete(ctx context.Context, actor *domain.Principal, id int64) error {
	existing, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return s.mapRepoError(err, id)
	}
	if err := s.staff.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventStaffDeleted,
		StaffID: id,
		Actor:   principalActor(actor),
		Payload: events.StaffDeletedPayload{Email: existing.Email},
	})
	return nil
}

func (s *StaffService) normalize(staff *domain.Staff) {
	staff.Nom = strings.TrimSpace(staff.Nom)
	staff.Prenom = strings.TrimSpace(staff.Prenom)
	staff.Email = strings.TrimSpace(staff.Email)
	staff.Telephone = strings.TrimSpace(staff.Telephone)
	staff.Specialite = strings.TrimSpace(staff.Specialite)
	if staff.NumeroLicence != nil {
		licence := strings.TrimSpace(*staff.NumeroLicence)
		if licence == "" {
			staff.NumeroLicence = nil
		} else {
			staff.NumeroLicence = &licence
		}
	}
	if staff.DateEmbauche.IsZero() {
		staff.DateEmbauche = s.now().UTC().Truncate(time.Second)
	}
}

// ensureEmailFree returns a conflict when another record (not selfID) owns email.
func (s *StaffService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.staff.GetByEmail(ctx, email)
	if err == nil && existing != nil && existing.ID != selfID {
		return apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *StaffService) mapRepoError(err error, id int64) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("staff", map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.NewConflict("staff email already exists", nil)
	case errors.Is(err, repository.ErrDuplicateLicence):
		return apperrors.NewConflict("staff licence number already exists", nil)
	}
	return apperrors.MapError(err)
}

func (s *StaffService) rollbackCreate(ctx context.Context, id int64, cause error) {
	s.logger.Error("account provisioning failed, removing staff", zap.Int64("staff_id", id), zap.Error(cause))
	if err := s.staff.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Error("rollback of staff create failed", zap.Int64("staff_id", id), zap.Error(err))
	}
}

func (s *StaffService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func principalActor(p *domain.Principal) events.Actor {
	if p == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: p.UserID, Username: p.Username}
}
