// Package store owns the live application state. Every mutation flows through
// Dispatch: reduce, persist locally, then hand the action and the post-action
// snapshot to the reconciler without blocking the caller.
package store

import (
	"context"
	"log"
	"sync"
	"time"

	"rutina/internal/database"
	"rutina/internal/export"
	"rutina/internal/identity"
	"rutina/internal/metrics"
	"rutina/internal/state"
	"rutina/internal/syncer"
)

type Controller struct {
	mu      sync.Mutex
	state   state.AppState
	db      *database.Database
	rec     *syncer.Reconciler
	metrics *metrics.Metrics
	now     func() time.Time
	userID  string

	// tracks in-flight sync goroutines so Stop and tests can drain them
	syncs sync.WaitGroup
}

// New loads the snapshot from the local database, falling back to the seed
// state when there is none (or it is unreadable).
func New(db *database.Database, rec *syncer.Reconciler, m *metrics.Metrics) (*Controller, error) {
	c := &Controller{db: db, rec: rec, metrics: m, now: time.Now}

	loaded, err := db.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		c.state = *loaded
		log.Printf("✅ State restored: %d routines, %d journal entries",
			len(c.state.Routines), len(c.state.Journal))
	} else {
		c.state = state.Default(c.now())
		c.persistLocked()
		log.Println("✅ Seed state created")
	}
	return c, nil
}

// Snapshot returns the current state value. States are never mutated after
// the reducer produces them, so the value is safe to keep.
func (c *Controller) Snapshot() state.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UserID returns the id the controller is currently syncing for, if any.
func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Dispatch applies an action. Local application and persistence are
// synchronous; remote sync is scheduled on its own goroutine and can neither
// block nor fail the caller. Each dispatch also runs the rollover check.
func (c *Controller) Dispatch(action state.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.applyLocked(action, now)
	c.rolloverLocked(now)
}

func (c *Controller) applyLocked(action state.Action, now time.Time) {
	c.state = state.Reduce(c.state, action, now)
	c.persistLocked()
	c.forwardLocked(action, now)
}

// persistLocked writes the snapshot. Losing a write is acceptable; the
// in-memory state stays authoritative for the session.
func (c *Controller) persistLocked() {
	err := c.db.SaveSnapshot(c.state)
	status := "ok"
	if err != nil {
		status = "error"
		log.Printf("⚠️ Snapshot write failed: %v", err)
	}
	c.metrics.SnapshotSaves.WithLabelValues(status).Inc()
}

// forwardLocked schedules the remote effect of an action. The snapshot value
// captured here already reflects the action, so the reconciler never races a
// later dispatch. In-flight calls are never cancelled; failures are logged
// and dropped (at-most-once, no retry).
func (c *Controller) forwardLocked(action state.Action, now time.Time) {
	if c.userID == "" {
		return
	}
	userID := c.userID
	snap := c.state
	c.syncs.Add(1)
	go func() {
		defer c.syncs.Done()
		if err := c.rec.Apply(context.Background(), userID, action, snap, now); err != nil {
			log.Printf("⚠️ Sync failed for %T: %v", action, err)
		}
	}()
}

// rolloverLocked archives the lastReset day's completion ratio and advances
// lastReset to today. The lastReset field itself is the only guard, so the
// transition runs at most once per date change.
func (c *Controller) rolloverLocked(now time.Time) {
	today := state.DateKey(now)
	last := c.state.LastReset
	if last == today {
		return
	}
	if last != "" {
		ratio := completionRatio(c.state, last)
		c.applyLocked(state.RecordHistory{Date: last, Ratio: ratio, Mode: c.state.Mode()}, now)
	}
	c.applyLocked(state.DailyReset{}, now)
	c.metrics.Rollovers.Inc()
	log.Printf("🌅 Rollover: %s → %s", last, today)
}

// CheckRollover runs the rollover check outside of a dispatch (cron hook).
func (c *Controller) CheckRollover() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked(c.now())
}

// completionRatio is done-over-scheduled for the routines whose days include
// the date's weekday. Scheduled routines never touched that day count against
// the ratio.
func completionRatio(s state.AppState, date string) float64 {
	t, err := time.Parse(state.DateLayout, date)
	if err != nil {
		return 0
	}
	weekday := int(t.Weekday())
	checks := s.DailyChecks[date]

	scheduled, done := 0, 0
	for _, r := range s.Routines {
		if !r.ScheduledOn(weekday) {
			continue
		}
		scheduled++
		if checks[r.ID].Done {
			done++
		}
	}
	if scheduled == 0 {
		return 0
	}
	return float64(done) / float64(scheduled)
}

// Watch consumes identity events until the channel closes or ctx ends. On
// sign-in it performs the one-time hydrate-or-push; on sign-out it stops
// forwarding but keeps all local data.
func (c *Controller) Watch(ctx context.Context, provider identity.Provider) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-provider.Events():
			if !ok {
				return
			}
			if ev.Session != nil {
				c.handleSignIn(ctx, ev.Session.UserID)
			} else {
				c.handleSignOut()
			}
		}
	}
}

// handleSignIn resolves the initial copy question: a remote store with any
// data wins wholesale, an empty one receives the local state.
func (c *Controller) handleSignIn(ctx context.Context, userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
	log.Printf("🔑 Signed in as %s, reconciling with cloud", userID)

	data, err := c.rec.LoadFullState(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Cloud load failed, staying on local state: %v", err)
		return
	}

	if data.HasData() {
		c.Dispatch(state.HydrateFromCloud{Data: data})
		log.Printf("☁️ Hydrated from cloud: %d routines", len(data.Routines))
		return
	}

	if err := c.rec.PushFullState(ctx, userID, c.Snapshot()); err != nil {
		log.Printf("⚠️ Initial push incomplete: %v", err)
	} else {
		log.Println("☁️ Local state pushed to empty cloud store")
	}
}

func (c *Controller) handleSignOut() {
	c.mu.Lock()
	c.userID = ""
	c.mu.Unlock()
	log.Println("🔒 Signed out, continuing offline")
}

// Export writes a backup file of the current state.
func (c *Controller) Export(path string) error {
	return export.WriteFile(path, c.Snapshot())
}

// Import validates a backup file and, only if valid, replaces the state.
func (c *Controller) Import(path string) error {
	imported, err := export.ReadFile(path)
	if err != nil {
		return err
	}
	c.Dispatch(state.LoadState{State: imported})
	return nil
}

// DrainSync blocks until every scheduled sync call has settled.
func (c *Controller) DrainSync() {
	c.syncs.Wait()
}
