package dashboard

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// FormState tracks a form's submission.
type FormState int

const (
	FormReady FormState = iota
	FormSubmitting
)

func (s FormState) String() string {
	if s == FormSubmitting {
		return "submitting"
	}
	return "ready"
}

// AddView is a snapshot of the add screen.
type AddView struct {
	State     FormState
	Form      Form
	PageError string
}

// AddController validates and creates a new staff member.
type AddController struct {
	deps Deps

	mu        sync.Mutex
	state     FormState
	form      Form
	pageError string
	disposed  bool
}

// NewAddController builds a controller with an empty form.
func NewAddController(deps Deps) *AddController {
	c := &AddController{deps: deps.withDefaults()}
	c.form.Reset(url.Values{})
	return c
}

// Submit validates values and, when valid, creates the record. On success
// it notifies and schedules one navigation back to the list; on failure
// the entered values stay in the form.
func (c *AddController) Submit(ctx context.Context, values url.Values) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if c.state == FormSubmitting {
		c.mu.Unlock()
		return ErrBusy
	}
	f, errs := Validate(values)
	c.form.Values = cloneValues(values)
	c.form.Errors = errs
	if len(errs) > 0 {
		c.mu.Unlock()
		return ErrInvalidForm
	}
	c.state = FormSubmitting
	c.pageError = ""
	c.mu.Unlock()

	created, err := c.deps.API.Create(ctx, f.Record())

	c.mu.Lock()
	c.state = FormReady
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.pageError = msgAddFailed
		c.mu.Unlock()
		c.deps.Logger.Warn("staff create failed", zap.Error(err))
		c.deps.Notifier.Notify(Notification{Message: msgAddFailed, Severity: SeverityError})
		return err
	}
	c.mu.Unlock()

	c.deps.Logger.Debug("staff created", zap.Int64("staff_id", created.ID))
	c.deps.Notifier.Notify(Notification{Message: msgAdded, Severity: SeveritySuccess})
	c.deps.Scheduler(c.deps.RedirectDelay, func() { c.navigate(RouteList) })
	return nil
}

func (c *AddController) navigate(path string) {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if !disposed {
		c.deps.Navigator.Navigate(path)
	}
}

// Dispose detaches the controller; pending responses and navigation are dropped.
func (c *AddController) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
}

// View returns a snapshot of the screen state.
func (c *AddController) View() AddView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return AddView{State: c.state, Form: c.form.snapshot(), PageError: c.pageError}
}
