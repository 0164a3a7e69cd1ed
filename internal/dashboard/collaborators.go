// Package dashboard holds the staff administration screens as plain state
// machines: a list with search and delete, an add form and an edit form.
// Rendering is left to the caller.
package dashboard

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/pkg/staffclient"
)

// Routes the controllers navigate between.
const (
	RouteList = "/staff"
	RouteAdd  = "/staff/add"
)

// EditRoute is the edit screen for id.
func EditRoute(id int64) string {
	return "/staff/edit/" + strconv.FormatInt(id, 10)
}

var (
	// ErrBusy rejects a second mutation while one is in flight.
	ErrBusy = errors.New("dashboard: a request is already in flight")
	// ErrNotLoaded rejects an edit submit before the record has loaded.
	ErrNotLoaded = errors.New("dashboard: record not loaded")
	// ErrInvalidForm means validation failed and nothing was sent.
	ErrInvalidForm = errors.New("dashboard: form has invalid fields")
)

// StaffAPI is the remote store. *staffclient.Client satisfies it.
type StaffAPI interface {
	List(ctx context.Context) ([]staffclient.Staff, error)
	Get(ctx context.Context, id int64) (staffclient.Staff, error)
	Create(ctx context.Context, s staffclient.Staff) (staffclient.Staff, error)
	Update(ctx context.Context, id int64, s staffclient.Staff) (staffclient.Staff, error)
	Delete(ctx context.Context, id int64) error
}

var _ StaffAPI = (*staffclient.Client)(nil)

// Severity of a Notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is a transient message shown to the user.
type Notification struct {
	Message  string
	Severity Severity
}

// Notifier presents notifications.
type Notifier interface {
	Notify(n Notification)
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(path string)
}

// Scheduler runs fn once after d.
type Scheduler func(d time.Duration, fn func())

// AfterFunc is the default Scheduler.
func AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	API           StaffAPI
	Notifier      Notifier
	Navigator     Navigator
	Scheduler     Scheduler
	RedirectDelay time.Duration
	Logger        *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Scheduler == nil {
		d.Scheduler = AfterFunc
	}
	if d.RedirectDelay < 0 {
		d.RedirectDelay = 0
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = discard{}
	}
	if d.Navigator == nil {
		d.Navigator = discard{}
	}
	return d
}

type discard struct{}

func (discard) Notify(Notification) {}
func (discard) Navigate(string)     {}
