package dashboard

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/pkg/staffclient"
)

// ListState is the load state of the staff list.
type ListState int

const (
	ListIdle ListState = iota
	ListLoading
	ListLoaded
	ListLoadError
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListLoadError:
		return "load_error"
	}
	return "idle"
}

const (
	msgListFailed    = "Failed to load staff list"
	msgDeleted       = "Staff deleted successfully"
	msgDeleteFailed  = "Failed to delete staff"
	msgAdded         = "Staff added successfully"
	msgAddFailed     = "Failed to add staff"
	msgUpdated       = "Staff updated successfully"
	msgUpdateFailed  = "Failed to update staff"
	msgNotFound      = "Staff not found"
	msgLoadOneFailed = "Failed to load staff"
)

// ListView is a consistent snapshot of the list screen.
type ListView struct {
	State         ListState
	Records       []staffclient.Staff
	Query         string
	Filtered      []staffclient.Staff
	PageError     string
	PromptOpen    bool
	PendingDelete int64
	Deleting      bool
}

// ListController drives the staff list: load, search and delete with confirmation.
type ListController struct {
	deps Deps

	mu            sync.Mutex
	state         ListState
	records       []staffclient.Staff
	query         string
	pageError     string
	generation    uint64
	disposed      bool
	promptOpen    bool
	pendingDelete int64
	deleting      bool
}

// NewListController builds an idle controller.
func NewListController(deps Deps) *ListController {
	return &ListController{deps: deps.withDefaults()}
}

// Load fetches every record. A response that arrives after a newer Load
// started, or after Dispose, is dropped.
func (c *ListController) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	gen := c.generation
	c.state = ListLoading
	c.mu.Unlock()

	records, err := c.deps.API.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || gen != c.generation {
		c.deps.Logger.Debug("discarding stale staff list response", zap.Uint64("generation", gen))
		return nil
	}
	if err != nil {
		c.deps.Logger.Warn("staff list load failed", zap.Error(err))
		c.state = ListLoadError
		c.pageError = msgListFailed
		c.records = []staffclient.Staff{}
		return err
	}
	c.state = ListLoaded
	c.pageError = ""
	c.records = records
	return nil
}

// SetQuery changes the search text. It never re-fetches.
func (c *ListController) SetQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

// Filtered returns the loaded records matching the current query.
func (c *ListController) Filtered() []staffclient.Staff {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FilterStaff(c.records, c.query)
}

// FilterStaff keeps records whose "nom prenom specialite" contains q,
// ignoring case. An empty query keeps everything.
func FilterStaff(records []staffclient.Staff, q string) []staffclient.Staff {
	needle := strings.ToLower(q)
	out := make([]staffclient.Staff, 0, len(records))
	for _, r := range records {
		haystack := strings.ToLower(r.Nom + " " + r.Prenom + " " + r.Specialite)
		if strings.Contains(haystack, needle) {
			out = append(out, r)
		}
	}
	return out
}

// RequestDelete stages id and opens the confirmation prompt.
func (c *ListController) RequestDelete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleting {
		return
	}
	c.pendingDelete = id
	c.promptOpen = true
}

// CancelDelete closes the prompt without deleting.
func (c *ListController) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleting {
		return
	}
	c.pendingDelete = 0
	c.promptOpen = false
}

// ConfirmDelete deletes the staged record. The prompt closes whatever the
// outcome; success reloads the whole list. With nothing staged it does nothing.
func (c *ListController) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed || !c.promptOpen {
		c.mu.Unlock()
		return nil
	}
	if c.deleting {
		c.mu.Unlock()
		return ErrBusy
	}
	id := c.pendingDelete
	c.deleting = true
	c.mu.Unlock()

	err := c.deps.API.Delete(ctx, id)

	c.mu.Lock()
	c.deleting = false
	c.promptOpen = false
	c.pendingDelete = 0
	disposed := c.disposed
	c.mu.Unlock()

	if disposed {
		return nil
	}
	if err != nil {
		c.deps.Logger.Warn("staff delete failed", zap.Int64("staff_id", id), zap.Error(err))
		c.deps.Notifier.Notify(Notification{Message: msgDeleteFailed, Severity: SeverityError})
		return err
	}
	c.deps.Notifier.Notify(Notification{Message: msgDeleted, Severity: SeveritySuccess})
	return c.Load(ctx)
}

// Dispose detaches the controller; responses arriving later are ignored.
func (c *ListController) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
}

// View returns a snapshot of the screen state.
func (c *ListController) View() ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := append([]staffclient.Staff(nil), c.records...)
	return ListView{
		State:         c.state,
		Records:       records,
		Query:         c.query,
		Filtered:      FilterStaff(records, c.query),
		PageError:     c.pageError,
		PromptOpen:    c.promptOpen,
		PendingDelete: c.pendingDelete,
		Deleting:      c.deleting,
	}
}
