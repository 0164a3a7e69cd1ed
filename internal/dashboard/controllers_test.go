package dashboard

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinsight/staff-admin/pkg/staffclient"
)

var sampleRecords = []staffclient.Staff{
	{ID: 1, Nom: "Dupont", Prenom: "Jean", Specialite: "Cardio"},
	{ID: 2, Nom: "Martin", Prenom: "Eve", Specialite: "Neuro"},
}

func TestFilterStaff(t *testing.T) {
	got := FilterStaff(sampleRecords, "car")
	require.Len(t, got, 1)
	assert.Equal(t, "Dupont", got[0].Nom)

	assert.Len(t, FilterStaff(sampleRecords, ""), 2)
	assert.Len(t, FilterStaff(sampleRecords, "EVE"), 1)
	assert.Len(t, FilterStaff(sampleRecords, "jean cardio"), 1)
	assert.Empty(t, FilterStaff(sampleRecords, "xyz"))
	assert.Len(t, sampleRecords, 2)
}

func TestListController_LoadAndFilter(t *testing.T) {
	h := newHarness()
	h.api.listFn = func(int) ([]staffclient.Staff, error) { return sampleRecords, nil }
	c := NewListController(h.deps())
	assert.Equal(t, ListIdle, c.View().State)

	require.NoError(t, c.Load(context.Background()))
	c.SetQuery("car")

	view := c.View()
	assert.Equal(t, ListLoaded, view.State)
	assert.Len(t, view.Records, 2)
	require.Len(t, view.Filtered, 1)
	assert.Equal(t, int64(1), view.Filtered[0].ID)
	assert.Equal(t, 1, h.api.listCalls)
}

func TestListController_LoadFailure(t *testing.T) {
	h := newHarness()
	h.api.listFn = func(int) ([]staffclient.Staff, error) {
		return nil, &staffclient.TransportError{Op: "list", Err: errors.New("refused")}
	}
	c := NewListController(h.deps())

	err := c.Load(context.Background())
	assert.Error(t, err)
	view := c.View()
	assert.Equal(t, ListLoadError, view.State)
	assert.Equal(t, "Failed to load staff list", view.PageError)
	assert.Empty(t, view.Records)
	assert.NotNil(t, view.Filtered)
}

func TestListController_DeleteSuccessReloads(t *testing.T) {
	h := newHarness()
	h.api.listFn = func(call int) ([]staffclient.Staff, error) {
		if call == 1 {
			return sampleRecords, nil
		}
		return sampleRecords[1:], nil
	}
	c := NewListController(h.deps())
	require.NoError(t, c.Load(context.Background()))

	c.RequestDelete(1)
	assert.True(t, c.View().PromptOpen)
	require.NoError(t, c.ConfirmDelete(context.Background()))

	view := c.View()
	assert.False(t, view.PromptOpen)
	assert.Equal(t, []int64{1}, h.api.deleted)
	assert.Equal(t, 2, h.api.listCalls)
	assert.Len(t, view.Records, 1)
	assert.Equal(t, []Notification{{Message: "Staff deleted successfully", Severity: SeveritySuccess}}, h.notifier.all())
}

func TestListController_DeleteFailureClosesPrompt(t *testing.T) {
	h := newHarness()
	h.api.listFn = func(int) ([]staffclient.Staff, error) { return sampleRecords, nil }
	h.api.deleteErr = &staffclient.NotFoundError{Op: "delete", ID: 1}
	c := NewListController(h.deps())
	require.NoError(t, c.Load(context.Background()))

	c.RequestDelete(1)
	err := c.ConfirmDelete(context.Background())
	assert.True(t, staffclient.IsNotFound(err))

	view := c.View()
	assert.False(t, view.PromptOpen)
	assert.Zero(t, view.PendingDelete)
	assert.Equal(t, 1, h.api.listCalls)
	assert.Equal(t, []Notification{{Message: "Failed to delete staff", Severity: SeverityError}}, h.notifier.all())
}

func TestListController_ConfirmWithoutPromptIsNoop(t *testing.T) {
	h := newHarness()
	c := NewListController(h.deps())

	require.NoError(t, c.ConfirmDelete(context.Background()))
	c.RequestDelete(3)
	c.CancelDelete()
	require.NoError(t, c.ConfirmDelete(context.Background()))
	assert.Empty(t, h.api.deleted)
	assert.Empty(t, h.notifier.all())
}

func TestListController_StaleResponseDiscarded(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	started := make(chan struct{})
	h.api.listFn = func(call int) ([]staffclient.Staff, error) {
		if call == 1 {
			close(started)
			<-release
			return sampleRecords, nil
		}
		return sampleRecords[1:], nil
	}
	c := NewListController(h.deps())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Load(context.Background())
	}()
	<-started
	require.NoError(t, c.Load(context.Background()))
	close(release)
	wg.Wait()

	view := c.View()
	require.Len(t, view.Records, 1)
	assert.Equal(t, "Martin", view.Records[0].Nom)
}

func TestListController_DisposeIgnoresLateResponse(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	started := make(chan struct{})
	h.api.listFn = func(int) ([]staffclient.Staff, error) {
		close(started)
		<-release
		return sampleRecords, nil
	}
	c := NewListController(h.deps())

	done := make(chan struct{})
	go func() {
		_ = c.Load(context.Background())
		close(done)
	}()
	<-started
	c.Dispose()
	close(release)
	<-done

	assert.Empty(t, c.View().Records)
	assert.Equal(t, ListLoading, c.View().State)
}

func TestAddController_ValidSubmit(t *testing.T) {
	h := newHarness()
	c := NewAddController(h.deps())

	require.NoError(t, c.Submit(context.Background(), validValues()))

	require.Len(t, h.api.created, 1)
	assert.Equal(t, staffclient.Staff{
		Nom: "Leroy", Prenom: "Ana", Type: "MEDECIN", Email: "ana@x.com", Telephone: "0102030405",
	}, h.api.created[0])
	assert.Equal(t, []Notification{{Message: "Staff added successfully", Severity: SeveritySuccess}}, h.notifier.all())

	assert.Empty(t, h.navigator.all())
	require.Len(t, h.scheduler.delays, 1)
	assert.Equal(t, h.deps().RedirectDelay, h.scheduler.delays[0])
	h.scheduler.run()
	assert.Equal(t, []string{"/staff"}, h.navigator.all())
	assert.Equal(t, FormReady, c.View().State)
}

func TestAddController_InvalidSubmitMakesNoCall(t *testing.T) {
	h := newHarness()
	c := NewAddController(h.deps())

	values := validValues()
	values.Set("prenom", "  ")
	err := c.Submit(context.Background(), values)
	assert.ErrorIs(t, err, ErrInvalidForm)

	assert.Empty(t, h.api.created)
	view := c.View()
	assert.Equal(t, "first name required", view.Form.Errors["prenom"])
	assert.Equal(t, " Leroy ", view.Form.Values.Get("nom"))
	assert.Empty(t, h.notifier.all())
}

func TestAddController_CreateFailureKeepsValues(t *testing.T) {
	h := newHarness()
	h.api.createErr = &staffclient.ServerError{Op: "create", StatusCode: 500}
	c := NewAddController(h.deps())

	err := c.Submit(context.Background(), validValues())
	assert.Error(t, err)

	view := c.View()
	assert.Equal(t, FormReady, view.State)
	assert.Equal(t, "Failed to add staff", view.PageError)
	assert.Equal(t, "ana@x.com", view.Form.Values.Get("email"))
	assert.Equal(t, []Notification{{Message: "Failed to add staff", Severity: SeverityError}}, h.notifier.all())
	assert.Empty(t, h.scheduler.delays)
}

// blockingAPI parks Create until release is closed.
type blockingAPI struct {
	*fakeAPI
	started chan struct{}
	release chan struct{}
}

func (b *blockingAPI) Create(ctx context.Context, s staffclient.Staff) (staffclient.Staff, error) {
	close(b.started)
	<-b.release
	return b.fakeAPI.Create(ctx, s)
}

func TestAddController_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	h := newHarness()
	api := &blockingAPI{fakeAPI: h.api, started: make(chan struct{}), release: make(chan struct{})}
	deps := h.deps()
	deps.API = api
	c := NewAddController(deps)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), validValues()) }()
	<-api.started

	assert.Equal(t, FormSubmitting, c.View().State)
	assert.ErrorIs(t, c.Submit(context.Background(), validValues()), ErrBusy)

	close(api.release)
	require.NoError(t, <-done)
	assert.Len(t, h.api.created, 1)
}

func TestAddController_DisposeDropsNavigation(t *testing.T) {
	h := newHarness()
	c := NewAddController(h.deps())
	require.NoError(t, c.Submit(context.Background(), validValues()))

	c.Dispose()
	h.scheduler.run()
	assert.Empty(t, h.navigator.all())
}

func TestEditController_NotFound(t *testing.T) {
	h := newHarness()
	c := NewEditController(h.deps(), 42)

	err := c.Load(context.Background())
	assert.True(t, staffclient.IsNotFound(err))

	view := c.View()
	assert.Equal(t, EditLoadError, view.State)
	assert.Equal(t, "Staff not found", view.PageError)
	assert.Empty(t, view.Form.Values)

	assert.ErrorIs(t, c.Submit(context.Background(), validValues()), ErrNotLoaded)
	assert.Empty(t, h.api.updated)
}

func TestEditController_OtherLoadFailure(t *testing.T) {
	h := newHarness()
	h.api.getFn = func(int64) (staffclient.Staff, error) {
		return staffclient.Staff{}, &staffclient.ServerError{Op: "get", StatusCode: 500}
	}
	c := NewEditController(h.deps(), 7)

	assert.Error(t, c.Load(context.Background()))
	assert.Equal(t, "Failed to load staff", c.View().PageError)
}

func TestEditController_LoadAndSave(t *testing.T) {
	h := newHarness()
	h.api.getFn = func(id int64) (staffclient.Staff, error) {
		return staffclient.Staff{
			ID: id, Nom: "Dupont", Prenom: "Jean", Type: "INFIRMIER", Email: "jean@x.com",
			Telephone: "0600000000", DateEmbauche: "2021-06-15T00:00:00", Actif: true,
		}, nil
	}
	c := NewEditController(h.deps(), 7)
	require.NoError(t, c.Load(context.Background()))

	view := c.View()
	assert.Equal(t, EditReady, view.State)
	assert.Equal(t, "2021-06-15", view.Form.Values.Get("dateEmbauche"))
	assert.Empty(t, view.Form.Errors)

	values := cloneValues(view.Form.Values)
	values.Set("specialite", "Pediatrie")
	require.NoError(t, c.Submit(context.Background(), values))

	require.Equal(t, []int64{7}, h.api.updatedIDs)
	sent := h.api.updated[0]
	assert.Equal(t, "Pediatrie", sent.Specialite)
	assert.Equal(t, "2021-06-15T00:00:00", sent.DateEmbauche)
	assert.True(t, sent.Actif)
	assert.Equal(t, []Notification{{Message: "Staff updated successfully", Severity: SeveritySuccess}}, h.notifier.all())

	h.scheduler.run()
	assert.Equal(t, []string{"/staff"}, h.navigator.all())
}

func TestEditController_UpdateFailureKeepsEnteredValues(t *testing.T) {
	h := newHarness()
	h.api.getFn = func(id int64) (staffclient.Staff, error) {
		return staffclient.Staff{ID: id, Nom: "Dupont", Prenom: "Jean", Type: "MEDECIN", Email: "jean@x.com", Telephone: "06"}, nil
	}
	h.api.updateErr = &staffclient.ValidationError{Op: "update", StatusCode: 409, Message: "staff email already exists"}
	c := NewEditController(h.deps(), 3)
	require.NoError(t, c.Load(context.Background()))

	values := FormValues(c.View().Record)
	values.Set("email", "taken@x.com")
	assert.Error(t, c.Submit(context.Background(), values))

	view := c.View()
	assert.Equal(t, EditReady, view.State)
	assert.Equal(t, "Failed to update staff", view.PageError)
	assert.Equal(t, "taken@x.com", view.Form.Values.Get("email"))
	assert.Empty(t, h.scheduler.delays)
}

func TestEditController_ReloadClearsErrors(t *testing.T) {
	h := newHarness()
	h.api.getFn = func(id int64) (staffclient.Staff, error) {
		return staffclient.Staff{ID: id, Nom: "Dupont", Prenom: "Jean", Type: "MEDECIN", Email: "jean@x.com", Telephone: "06"}, nil
	}
	c := NewEditController(h.deps(), 3)
	require.NoError(t, c.Load(context.Background()))

	assert.ErrorIs(t, c.Submit(context.Background(), url.Values{}), ErrInvalidForm)
	assert.NotEmpty(t, c.View().Form.Errors)

	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.View().Form.Errors)
	assert.Equal(t, "Dupont", c.View().Form.Values.Get("nom"))
}
