package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/auth"
	"github.com/medinsight/staff-admin/internal/config"
	"github.com/medinsight/staff-admin/internal/domain"
	"github.com/medinsight/staff-admin/internal/events"
	"github.com/medinsight/staff-admin/internal/identity"
	"github.com/medinsight/staff-admin/internal/repository"
	apperrors "github.com/medinsight/staff-admin/pkg/util/errorutil"
)

type fakeProvisioner struct {
	err   error
	calls int
}

func (f *fakeProvisioner) Provision(_ context.Context, staff *domain.Staff, password string) (identity.Account, error) {
	f.calls++
	if f.err != nil {
		return identity.Account{}, f.err
	}
	if password == "" {
		password = "initial-pass"
	}
	hash, _ := auth.HashPassword(password, 4)
	return identity.Account{ID: "acct-1", InitialPassword: password, PasswordHash: hash}, nil
}

type recorded struct {
	events []events.Event
}

func newStaffService(t *testing.T, prov identity.Provisioner) (*StaffService, *repository.MemoryStaffRepository, *recorded) {
	t.Helper()
	repo := repository.NewMemoryStaffRepository()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorded{}
	for _, et := range []events.EventType{events.EventStaffCreated, events.EventStaffUpdated, events.EventStaffDeleted} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			rec.events = append(rec.events, e)
			return nil
		})
	}
	svc := NewStaffService(StaffDependencies{
		StaffRepo:   repo,
		Provisioner: prov,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return svc, repo, rec
}

func sampleStaff() *domain.Staff {
	return &domain.Staff{
		Nom:       " Leroy ",
		Prenom:    "Anne",
		Email:     "anne@h.fr",
		Telephone: "0600000000",
		Type:      domain.StaffTypeInfirmier,
		Actif:     true,
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de.Code
}

func TestStaffService_CreateProvisionsAndPublishes(t *testing.T) {
	prov := &fakeProvisioner{}
	svc, repo, rec := newStaffService(t, prov)
	actor := &domain.Principal{UserID: "admin", Username: "root"}

	created, err := svc.Create(context.Background(), actor, sampleStaff(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Leroy", created.Nom)
	require.NotNil(t, created.AccountID)
	assert.Equal(t, "acct-1", *created.AccountID)
	assert.False(t, created.DateEmbauche.IsZero())

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)

	require.Len(t, rec.events, 1)
	assert.Equal(t, events.EventStaffCreated, rec.events[0].Type)
	assert.Equal(t, "admin", rec.events[0].Actor.UserID)
	payload := rec.events[0].Payload.(events.StaffCreatedPayload)
	assert.Equal(t, "initial-pass", payload.InitialPassword)
	assert.Equal(t, "Leroy Anne", payload.FullName)
}

func TestStaffService_CreateDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newStaffService(t, &fakeProvisioner{})
	_, err := svc.Create(context.Background(), nil, sampleStaff(), "")
	require.NoError(t, err)

	dup := sampleStaff()
	dup.Email = "ANNE@h.fr"
	_, err = svc.Create(context.Background(), nil, dup, "")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestStaffService_CreateDuplicateLicenceConflicts(t *testing.T) {
	svc, _, _ := newStaffService(t, nil)
	licence := "LIC-1"
	first := sampleStaff()
	first.NumeroLicence = &licence
	_, err := svc.Create(context.Background(), nil, first, "")
	require.NoError(t, err)

	second := sampleStaff()
	second.Email = "other@h.fr"
	second.NumeroLicence = &licence
	_, err = svc.Create(context.Background(), nil, second, "")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestStaffService_ProvisioningFailureRemovesRow(t *testing.T) {
	svc, repo, rec := newStaffService(t, &fakeProvisioner{err: errors.New("keycloak down")})

	_, err := svc.Create(context.Background(), nil, sampleStaff(), "")
	assert.Equal(t, "INTERNAL_ERROR", domainCode(t, err))

	items, err := repo.List(context.Background(), repository.StaffFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, rec.events)
}

func TestStaffService_GetUpdateDelete(t *testing.T) {
	svc, _, rec := newStaffService(t, nil)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, 42)
	assert.True(t, apperrors.IsNotFound(err))

	created, err := svc.Create(ctx, nil, sampleStaff(), "")
	require.NoError(t, err)
	hired := created.DateEmbauche

	change := sampleStaff()
	change.Nom = "Leroy-Martin"
	change.Actif = false
	change.DateEmbauche = time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, nil, created.ID, change)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Leroy-Martin", updated.Nom)
	assert.False(t, updated.Actif)
	assert.NotEqual(t, hired, updated.DateEmbauche)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.Update(ctx, nil, 999, change)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, nil, created.ID))
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, nil, created.ID)))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.Len(t, rec.events, 3)
	assert.Equal(t, events.EventStaffDeleted, rec.events[2].Type)
}

func TestStaffService_UpdateEmailTakenByAnother(t *testing.T) {
	svc, _, _ := newStaffService(t, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, nil, sampleStaff(), "")
	require.NoError(t, err)
	other := sampleStaff()
	other.Email = "paul@h.fr"
	_, err = svc.Create(ctx, nil, other, "")
	require.NoError(t, err)

	change := sampleStaff()
	change.Email = "paul@h.fr"
	_, err = svc.Update(ctx, nil, first.ID, change)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestAuthService_Login(t *testing.T) {
	svc, repo, _ := newStaffService(t, &fakeProvisioner{})
	ctx := context.Background()
	created, err := svc.Create(ctx, nil, sampleStaff(), "")
	require.NoError(t, err)

	cfg := config.Config{Auth: config.AuthConfig{AdminEmail: "admin@h.fr", AdminPassword: "root"}}
	tokens := auth.NewTokenManager("secret", 5)
	authSvc := NewAuthService(cfg, repo, tokens)

	res, err := authSvc.Login(ctx, "admin@h.fr", "root")
	require.NoError(t, err)
	assert.True(t, res.Principal.HasRole(domain.PermissionStaffDelete))

	res, err = authSvc.Login(ctx, "anne@h.fr", "initial-pass")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", res.Principal.UserID)
	assert.ElementsMatch(t, []string{"ROLE_INFIRMIER", domain.PermissionStaffRead}, res.Principal.Roles)
	parsed, err := tokens.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "anne@h.fr", parsed.Email)

	_, err = authSvc.Login(ctx, "anne@h.fr", "wrong")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
	_, err = authSvc.Login(ctx, "nobody@h.fr", "x")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
	_, err = authSvc.Login(ctx, "", "")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	inactive := sampleStaff()
	inactive.Actif = false
	_, err = svc.Update(ctx, nil, created.ID, inactive)
	require.NoError(t, err)
	_, err = authSvc.Login(ctx, "anne@h.fr", "initial-pass")
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestStaffService_CreateWithChosenPassword(t *testing.T) {
	svc, repo, rec := newStaffService(t, identity.NewLocalProvisioner(4))
	ctx := context.Background()
	_, err := svc.Create(ctx, nil, sampleStaff(), "Bienvenue-2024")
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	payload := rec.events[0].Payload.(events.StaffCreatedPayload)
	assert.Equal(t, "Bienvenue-2024", payload.InitialPassword)

	cfg := config.Config{Auth: config.AuthConfig{AdminEmail: "admin@h.fr", AdminPassword: "root"}}
	authSvc := NewAuthService(cfg, repo, auth.NewTokenManager("secret", 5))
	res, err := authSvc.Login(ctx, "anne@h.fr", "Bienvenue-2024")
	require.NoError(t, err)
	assert.Equal(t, "anne@h.fr", res.Principal.Email)
}
