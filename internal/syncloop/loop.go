package syncloop

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/estate-service/internal/domain"
)

// Fetcher retrieves the server-side state a dashboard session reconciles
// against. Implementations are expected to be safe for repeated polling and
// to return unchanged snapshots without error.
type Fetcher interface {
	FetchApplications(ctx context.Context) ([]domain.Application, error)
	FetchNotifications(ctx context.Context) ([]domain.Notification, error)
}

// RemoteEdits reports application ids being edited by other sessions so the
// merge can leave those records alone as well.
type RemoteEdits interface {
	HeldIDs(ctx context.Context) ([]string, error)
}

// Loop periodically refreshes a dashboard session's local view. One Loop per
// connected session; the interesting concurrency is across sessions, which
// all poll and mutate the same application set.
//
// Reconciliation rules:
//   - a record the local session is actively editing is never overwritten by
//     an incoming merge;
//   - while any modal is open the loop is fully paused, issuing no fetch at
//     all, so a completed edit cannot be clobbered by a stale fetch that
//     started before it.
type Loop struct {
	fetcher     Fetcher
	remoteEdits RemoteEdits
	interval    time.Duration
	logger      *zap.Logger

	mu            sync.Mutex
	applications  map[string]domain.Application
	notifications []domain.Notification
	editing       map[string]struct{}
	paused        bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Options configures a Loop.
type Options struct {
	Fetcher     Fetcher
	RemoteEdits RemoteEdits
	Interval    time.Duration
	Logger      *zap.Logger
}

// NewLoop constructs a loop. Interval defaults to 30 seconds.
func NewLoop(opts Options) *Loop {
	interval := opts.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		fetcher:      opts.Fetcher,
		remoteEdits:  opts.RemoteEdits,
		interval:     interval,
		logger:       logger,
		applications: make(map[string]domain.Application),
		editing:      make(map[string]struct{}),
		stopCh:       make(chan struct{}),
	}
}

// Run polls on a fixed interval until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// prime the view before the first tick
	l.RefreshNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.RefreshNow(ctx)
		}
	}
}

// Stop terminates Run.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// RefreshNow performs one fetch-and-merge cycle immediately. It is a no-op
// while the loop is paused: no network call is issued at all. Callers use it
// after an invalid-state conflict to show the true current state.
func (l *Loop) RefreshNow(ctx context.Context) {
	l.mu.Lock()
	paused := l.paused
	l.mu.Unlock()
	if paused {
		return
	}

	apps, err := l.fetcher.FetchApplications(ctx)
	if err != nil {
		l.logger.Warn("application refresh failed", zap.Error(err))
		return
	}
	notifications, err := l.fetcher.FetchNotifications(ctx)
	if err != nil {
		l.logger.Warn("notification refresh failed", zap.Error(err))
		return
	}

	excluded := l.excludedIDs(ctx)
	l.merge(apps, notifications, excluded)
}

// BeginEdit marks an application as locally edited and pauses the loop. The
// record is excluded from incoming merges until EndEdit.
func (l *Loop) BeginEdit(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editing[id] = struct{}{}
	l.paused = true
}

// EndEdit closes the edit session for the record; when the last open edit
// closes the loop resumes.
func (l *Loop) EndEdit(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.editing, id)
	if len(l.editing) == 0 {
		l.paused = false
	}
}

// Pause suspends polling entirely, e.g. while a non-edit modal is open.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = true
}

// Resume re-enables polling unless an edit session is still open.
func (l *Loop) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.editing) == 0 {
		l.paused = false
	}
}

// Paused reports whether the loop is currently suspended.
func (l *Loop) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Applications returns a copy of the reconciled application view.
func (l *Loop) Applications() []domain.Application {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]domain.Application, 0, len(l.applications))
	for _, app := range l.applications {
		result = append(result, app)
	}
	return result
}

// Application returns the reconciled view of one record.
func (l *Loop) Application(id string) (domain.Application, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	app, ok := l.applications[id]
	return app, ok
}

// Notifications returns a copy of the latest notification snapshot.
func (l *Loop) Notifications() []domain.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Notification(nil), l.notifications...)
}

func (l *Loop) excludedIDs(ctx context.Context) map[string]struct{} {
	excluded := make(map[string]struct{})
	l.mu.Lock()
	for id := range l.editing {
		excluded[id] = struct{}{}
	}
	l.mu.Unlock()

	if l.remoteEdits != nil {
		held, err := l.remoteEdits.HeldIDs(ctx)
		if err != nil {
			l.logger.Warn("remote edit lookup failed", zap.Error(err))
		} else {
			for _, id := range held {
				excluded[id] = struct{}{}
			}
		}
	}
	return excluded
}

// merge replaces the local view with the incoming snapshot, keeping any
// record under an open edit session untouched. An unchanged snapshot merges
// to a no-op.
func (l *Loop) merge(apps []domain.Application, notifications []domain.Notification, excluded map[string]struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// pause may have been flipped while the fetch was in flight; a stale
	// fetch must not clobber records the session started editing meanwhile
	for id := range l.editing {
		excluded[id] = struct{}{}
	}

	next := make(map[string]domain.Application, len(apps))
	for _, app := range apps {
		if _, skip := excluded[app.ID]; skip {
			if current, ok := l.applications[app.ID]; ok {
				next[app.ID] = current
			}
			continue
		}
		next[app.ID] = app
	}
	// keep excluded records that disappeared from the snapshot
	for id := range excluded {
		if current, ok := l.applications[id]; ok {
			if _, present := next[id]; !present {
				next[id] = current
			}
		}
	}

	l.applications = next
	l.notifications = notifications
}
