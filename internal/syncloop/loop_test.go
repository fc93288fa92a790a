package syncloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/estate-service/internal/domain"
)

type stubFetcher struct {
	mu            sync.Mutex
	apps          []domain.Application
	notifications []domain.Notification
	fetchCount    int
}

func (f *stubFetcher) FetchApplications(ctx context.Context) ([]domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCount++
	return append([]domain.Application(nil), f.apps...), nil
}

func (f *stubFetcher) FetchNotifications(ctx context.Context) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notification(nil), f.notifications...), nil
}

func (f *stubFetcher) set(apps ...domain.Application) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = apps
}

func (f *stubFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCount
}

type stubRemoteEdits struct {
	mu  sync.Mutex
	ids []string
}

func (r *stubRemoteEdits) HeldIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...), nil
}

func pendingApp(id string, income float64) domain.Application {
	return domain.Application{
		ID:     id,
		UserID: "buyer-1",
		Status: domain.ApplicationStatusPending,
		Fields: domain.ApplicationFields{MonthlyIncome: income},
	}
}

func TestRefreshMergesSnapshot(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(pendingApp("a", 100), pendingApp("b", 200))
	loop := NewLoop(Options{Fetcher: fetcher})

	loop.RefreshNow(context.Background())

	assert.Len(t, loop.Applications(), 2)
	app, ok := loop.Application("a")
	require.True(t, ok)
	assert.Equal(t, 100.0, app.Fields.MonthlyIncome)
}

func TestUnchangedSnapshotIsNoOp(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(pendingApp("a", 100))
	loop := NewLoop(Options{Fetcher: fetcher})
	ctx := context.Background()

	loop.RefreshNow(ctx)
	before := loop.Applications()

	loop.RefreshNow(ctx)
	after := loop.Applications()

	assert.Equal(t, before, after)
}

func TestPauseSuppressesFetchEntirely(t *testing.T) {
	fetcher := &stubFetcher{}
	loop := NewLoop(Options{Fetcher: fetcher})
	ctx := context.Background()

	loop.Pause()
	assert.True(t, loop.Paused())

	loop.RefreshNow(ctx)
	assert.Equal(t, 0, fetcher.count())

	loop.Resume()
	assert.False(t, loop.Paused())
	loop.RefreshNow(ctx)
	assert.Equal(t, 1, fetcher.count())
}

func TestBeginEditPausesUntilLastEditEnds(t *testing.T) {
	fetcher := &stubFetcher{}
	loop := NewLoop(Options{Fetcher: fetcher})
	ctx := context.Background()

	loop.BeginEdit("a")
	loop.BeginEdit("b")
	assert.True(t, loop.Paused())

	loop.RefreshNow(ctx)
	assert.Equal(t, 0, fetcher.count())

	// Resume must not override an open edit session
	loop.Resume()
	assert.True(t, loop.Paused())

	loop.EndEdit("a")
	assert.True(t, loop.Paused())

	loop.EndEdit("b")
	assert.False(t, loop.Paused())
	loop.RefreshNow(ctx)
	assert.Equal(t, 1, fetcher.count())
}

func TestMergeSkipsLocallyEditedRecord(t *testing.T) {
	loop := NewLoop(Options{Fetcher: &stubFetcher{}})

	loop.merge([]domain.Application{pendingApp("a", 100)}, nil, map[string]struct{}{})

	loop.BeginEdit("a")
	loop.merge([]domain.Application{pendingApp("a", 999), pendingApp("b", 50)}, nil, loop.excludedIDs(context.Background()))

	edited, ok := loop.Application("a")
	require.True(t, ok)
	assert.Equal(t, 100.0, edited.Fields.MonthlyIncome)

	other, ok := loop.Application("b")
	require.True(t, ok)
	assert.Equal(t, 50.0, other.Fields.MonthlyIncome)
}

func TestMergeKeepsEditedRecordMissingFromSnapshot(t *testing.T) {
	loop := NewLoop(Options{Fetcher: &stubFetcher{}})

	loop.merge([]domain.Application{pendingApp("a", 100)}, nil, map[string]struct{}{})

	loop.BeginEdit("a")
	loop.merge([]domain.Application{pendingApp("b", 50)}, nil, loop.excludedIDs(context.Background()))

	_, ok := loop.Application("a")
	assert.True(t, ok)
}

func TestRefreshExcludesRemoteEdits(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(pendingApp("a", 100), pendingApp("b", 200))
	remote := &stubRemoteEdits{}
	loop := NewLoop(Options{Fetcher: fetcher, RemoteEdits: remote})
	ctx := context.Background()

	loop.RefreshNow(ctx)

	remote.mu.Lock()
	remote.ids = []string{"a"}
	remote.mu.Unlock()
	fetcher.set(pendingApp("a", 999), pendingApp("b", 300))

	loop.RefreshNow(ctx)

	held, ok := loop.Application("a")
	require.True(t, ok)
	assert.Equal(t, 100.0, held.Fields.MonthlyIncome)

	free, ok := loop.Application("b")
	require.True(t, ok)
	assert.Equal(t, 300.0, free.Fields.MonthlyIncome)
}

func TestRunStopsOnStop(t *testing.T) {
	fetcher := &stubFetcher{}
	loop := NewLoop(Options{Fetcher: fetcher, Interval: 5 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		loop.Run(context.Background())
		close(done)
	}()

	// wait for at least the priming fetch
	deadline := time.After(time.Second)
	for fetcher.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("loop never fetched")
		case <-time.After(time.Millisecond):
		}
	}

	loop.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	loop := NewLoop(Options{Fetcher: &stubFetcher{}, Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestNotificationSnapshotReplaced(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.notifications = []domain.Notification{{ID: "n1"}}
	loop := NewLoop(Options{Fetcher: fetcher})
	ctx := context.Background()

	loop.RefreshNow(ctx)
	require.Len(t, loop.Notifications(), 1)

	fetcher.mu.Lock()
	fetcher.notifications = []domain.Notification{{ID: "n1"}, {ID: "n2"}}
	fetcher.mu.Unlock()

	loop.RefreshNow(ctx)
	assert.Len(t, loop.Notifications(), 2)
}
