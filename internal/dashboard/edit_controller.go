package dashboard

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/pkg/staffclient"
)

// EditState is the edit screen state. EditReady and EditSaving are only
// reachable once the record has loaded.
type EditState int

const (
	EditLoading EditState = iota
	EditLoadError
	EditReady
	EditSaving
)

func (s EditState) String() string {
	switch s {
	case EditLoadError:
		return "load_error"
	case EditReady:
		return "ready"
	case EditSaving:
		return "saving"
	}
	return "loading"
}

// EditView is a snapshot of the edit screen. Form is empty unless loaded.
type EditView struct {
	ID        int64
	State     EditState
	Record    staffclient.Staff
	Form      Form
	PageError string
}

// EditController loads one record and saves changes to it.
type EditController struct {
	deps Deps
	id   int64

	mu         sync.Mutex
	state      EditState
	record     staffclient.Staff
	form       Form
	pageError  string
	generation uint64
	disposed   bool
}

// NewEditController builds a controller for record id. Call Load next.
func NewEditController(deps Deps, id int64) *EditController {
	return &EditController{deps: deps.withDefaults(), id: id}
}

// Load fetches the record and fills the form, clearing earlier errors.
func (c *EditController) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if c.state == EditSaving {
		c.mu.Unlock()
		return ErrBusy
	}
	c.generation++
	gen := c.generation
	c.state = EditLoading
	c.mu.Unlock()

	record, err := c.deps.API.Get(ctx, c.id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || gen != c.generation {
		return nil
	}
	if err != nil {
		c.deps.Logger.Warn("staff load failed", zap.Int64("staff_id", c.id), zap.Error(err))
		c.state = EditLoadError
		c.pageError = msgLoadOneFailed
		if staffclient.IsNotFound(err) {
			c.pageError = msgNotFound
		}
		c.form = Form{}
		return err
	}
	c.record = record
	c.form.Reset(FormValues(record))
	c.state = EditReady
	c.pageError = ""
	return nil
}

// Submit validates values and replaces the record, keeping its id.
func (c *EditController) Submit(ctx context.Context, values url.Values) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	switch c.state {
	case EditLoading, EditLoadError:
		c.mu.Unlock()
		return ErrNotLoaded
	case EditSaving:
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
	c.state = EditSaving
	c.pageError = ""
	c.mu.Unlock()

	updated, err := c.deps.API.Update(ctx, c.id, f.Record())

	c.mu.Lock()
	c.state = EditReady
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.pageError = msgUpdateFailed
		c.mu.Unlock()
		c.deps.Logger.Warn("staff update failed", zap.Int64("staff_id", c.id), zap.Error(err))
		c.deps.Notifier.Notify(Notification{Message: msgUpdateFailed, Severity: SeverityError})
		return err
	}
	c.record = updated
	c.mu.Unlock()

	c.deps.Notifier.Notify(Notification{Message: msgUpdated, Severity: SeveritySuccess})
	c.deps.Scheduler(c.deps.RedirectDelay, func() { c.navigate(RouteList) })
	return nil
}

func (c *EditController) navigate(path string) {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if !disposed {
		c.deps.Navigator.Navigate(path)
	}
}

// Dispose detaches the controller; pending responses and navigation are dropped.
func (c *EditController) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
}

// View returns a snapshot of the screen state.
func (c *EditController) View() EditView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return EditView{
		ID:        c.id,
		State:     c.state,
		Record:    c.record,
		Form:      c.form.snapshot(),
		PageError: c.pageError,
	}
}
