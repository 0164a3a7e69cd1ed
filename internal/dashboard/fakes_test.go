package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/medinsight/staff-admin/pkg/staffclient"
)

type fakeAPI struct {
	mu sync.Mutex

	listFn    func(call int) ([]staffclient.Staff, error)
	listCalls int

	getFn    func(id int64) (staffclient.Staff, error)
	getCalls int

	created   []staffclient.Staff
	createErr error

	updatedIDs []int64
	updated    []staffclient.Staff
	updateErr  error

	deleted   []int64
	deleteErr error
}

func (f *fakeAPI) List(_ context.Context) ([]staffclient.Staff, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	fn := f.listFn
	f.mu.Unlock()
	if fn == nil {
		return []staffclient.Staff{}, nil
	}
	return fn(call)
}

func (f *fakeAPI) Get(_ context.Context, id int64) (staffclient.Staff, error) {
	f.mu.Lock()
	f.getCalls++
	fn := f.getFn
	f.mu.Unlock()
	if fn == nil {
		return staffclient.Staff{}, &staffclient.NotFoundError{Op: "get", ID: id}
	}
	return fn(id)
}

func (f *fakeAPI) Create(_ context.Context, s staffclient.Staff) (staffclient.Staff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, s)
	if f.createErr != nil {
		return staffclient.Staff{}, f.createErr
	}
	s.ID = int64(len(f.created))
	return s, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, s staffclient.Staff) (staffclient.Staff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedIDs = append(f.updatedIDs, id)
	f.updated = append(f.updated, s)
	if f.updateErr != nil {
		return staffclient.Staff{}, f.updateErr
	}
	s.ID = id
	return s, nil
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingNavigator) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingNavigator) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// manualScheduler holds scheduled callbacks until run is called.
type manualScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (m *manualScheduler) schedule(d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.fns = append(m.fns, fn)
}

func (m *manualScheduler) run() {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type harness struct {
	api       *fakeAPI
	notifier  *recordingNotifier
	navigator *recordingNavigator
	scheduler *manualScheduler
}

func newHarness() *harness {
	return &harness{
		api:       &fakeAPI{},
		notifier:  &recordingNotifier{},
		navigator: &recordingNavigator{},
		scheduler: &manualScheduler{},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		API:           h.api,
		Notifier:      h.notifier,
		Navigator:     h.navigator,
		Scheduler:     h.scheduler.schedule,
		RedirectDelay: 1200 * time.Millisecond,
	}
}
