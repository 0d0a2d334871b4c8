package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rutina/internal/database"
	"rutina/internal/metrics"
	"rutina/internal/remote"
	"rutina/internal/state"
	"rutina/internal/syncer"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

const today = "2024-03-15"

func newTestController(t *testing.T, gw remote.Gateway) (*Controller, *database.Database) {
	t.Helper()
	d, err := database.NewMemory()
	if err != nil {
		t.Fatalf("new memory database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	m := metrics.New()
	c, err := New(d, syncer.New(gw, m), m)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	c.now = func() time.Time { return testNow }
	return c, d
}

// seedSnapshot writes a snapshot so the next controller starts from it.
func seedSnapshot(t *testing.T, d *database.Database, s state.AppState) *Controller {
	t.Helper()
	if err := d.SaveSnapshot(s); err != nil {
		t.Fatal(err)
	}
	m := metrics.New()
	c, err := New(d, syncer.New(remote.NewMemory(), m), m)
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return testNow }
	return c
}

func TestFreshStartSeedsAndPersists(t *testing.T) {
	c, d := newTestController(t, remote.NewMemory())

	snap := c.Snapshot()
	if len(snap.Routines) == 0 {
		t.Fatal("fresh start should seed routines")
	}

	stored, err := d.LoadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || len(stored.Routines) != len(snap.Routines) {
		t.Fatal("seed state should be persisted immediately")
	}
}

func TestDispatchPersistsEveryChange(t *testing.T) {
	c, d := newTestController(t, remote.NewMemory())
	routineID := c.Snapshot().Routines[0].ID

	c.Dispatch(state.ToggleTask{RoutineID: routineID})

	stored, err := d.LoadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	check, ok := stored.Check(today, routineID)
	if !ok || !check.Done {
		t.Fatalf("dispatched change not persisted: %+v", stored.DailyChecks)
	}
}

func TestRolloverRecordsHistory(t *testing.T) {
	d, err := database.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })

	// 2024-01-01 was a Monday (weekday 1): four routines scheduled, three done.
	prior := "2024-01-01"
	s := state.AppState{
		Routines: []state.Routine{
			{ID: "r1", Days: []int{1}},
			{ID: "r2", Days: []int{1}},
			{ID: "r3", Days: []int{1}},
			{ID: "r4", Days: []int{1}},
			{ID: "r5", Days: []int{0}}, // Sunday only, out of scope
		},
		DailyChecks: map[string]map[string]state.DailyCheck{
			prior: {
				"r1": {Done: true},
				"r2": {Done: true},
				"r3": {Done: true},
				"r4": {Done: false},
			},
		},
		History:   map[string]state.DayResult{},
		LastReset: prior,
	}
	c := seedSnapshot(t, d, s)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }

	c.CheckRollover()

	snap := c.Snapshot()
	result, ok := snap.History[prior]
	if !ok {
		t.Fatal("history not recorded")
	}
	if result.Ratio != 0.75 {
		t.Fatalf("ratio=%v, want 0.75", result.Ratio)
	}
	if result.Mode != state.ModeNormal {
		t.Fatalf("mode=%v, want normal", result.Mode)
	}
	if snap.LastReset != "2024-01-02" {
		t.Fatalf("lastReset=%q, want 2024-01-02", snap.LastReset)
	}

	// Same date again: nothing to do.
	before := c.Snapshot()
	c.CheckRollover()
	after := c.Snapshot()
	if len(after.History) != len(before.History) || after.LastReset != before.LastReset {
		t.Fatal("rollover must run at most once per date transition")
	}
}

func TestRolloverTriggeredByDispatch(t *testing.T) {
	d, err := database.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })

	s := state.Default(time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC))
	c := seedSnapshot(t, d, s) // lastReset = 2024-03-14

	c.Dispatch(state.SetEnergy{Level: 3})

	snap := c.Snapshot()
	if snap.LastReset != today {
		t.Fatalf("dispatch on a new day should roll over, lastReset=%q", snap.LastReset)
	}
	if _, ok := snap.History["2024-03-14"]; !ok {
		t.Fatal("prior day should be archived")
	}
	if snap.Energy[today] != 3 {
		t.Fatal("the dispatched action itself must still apply")
	}
}

func TestHydrationPrecedence(t *testing.T) {
	gw := remote.NewMemory()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		gw.UpsertRoutine(ctx, "u1", state.Routine{ID: fmt.Sprintf("cloud%d", i), SortOrder: i})
	}

	d, err := database.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	local := state.AppState{
		Routines:    []state.Routine{{ID: "local1"}},
		DailyChecks: map[string]map[string]state.DailyCheck{},
		LastReset:   today,
	}
	if err := d.SaveSnapshot(local); err != nil {
		t.Fatal(err)
	}
	m := metrics.New()
	c, err := New(d, syncer.New(gw, m), m)
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return testNow }

	c.handleSignIn(ctx, "u1")

	snap := c.Snapshot()
	if len(snap.Routines) != 3 {
		t.Fatalf("remote wins entirely: got %d routines, want 3", len(snap.Routines))
	}
	if _, ok := snap.RoutineByID("local1"); ok {
		t.Fatal("local routine must not survive hydration (no merge)")
	}
	if c.UserID() != "u1" {
		t.Fatal("session should be active")
	}
}

func TestPushOnEmptyRemote(t *testing.T) {
	gw := remote.NewMemory()
	ctx := context.Background()

	d, err := database.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	local := state.AppState{
		Routines: []state.Routine{
			{ID: "l1"}, {ID: "l2"}, {ID: "l3"}, {ID: "l4"}, {ID: "l5"},
		},
		DailyChecks: map[string]map[string]state.DailyCheck{},
		LastReset:   today,
	}
	if err := d.SaveSnapshot(local); err != nil {
		t.Fatal(err)
	}
	m := metrics.New()
	c, err := New(d, syncer.New(gw, m), m)
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return testNow }

	c.handleSignIn(ctx, "u1")

	if got := len(c.Snapshot().Routines); got != 5 {
		t.Fatalf("local state must stay (no hydrate), got %d routines", got)
	}
	routines, _ := gw.FetchRoutines(ctx, "u1")
	if len(routines) != 5 {
		t.Fatalf("all 5 routines should be pushed, got %d", len(routines))
	}
}

func TestActionForwardingAfterSignIn(t *testing.T) {
	gw := remote.NewMemory()
	c, _ := newTestController(t, gw)
	ctx := context.Background()

	c.handleSignIn(ctx, "u1")
	c.Dispatch(state.AddRoutine{Routine: state.Routine{Name: "Leer"}})
	c.DrainSync()

	snap := c.Snapshot()
	added := snap.Routines[len(snap.Routines)-1]

	routines, _ := gw.FetchRoutines(ctx, "u1")
	found := false
	for _, r := range routines {
		if r.ID == added.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("post-action snapshot id %q should reach the remote store", added.ID)
	}
}

func TestNoForwardingWhenSignedOut(t *testing.T) {
	gw := remote.NewMemory()
	c, _ := newTestController(t, gw)

	c.Dispatch(state.AddRoutine{Routine: state.Routine{Name: "Leer"}})
	c.DrainSync()

	routines, _ := gw.FetchRoutines(context.Background(), "")
	if len(routines) != 0 {
		t.Fatal("nothing may be synced while signed out")
	}
}

func TestSignOutKeepsLocalState(t *testing.T) {
	gw := remote.NewMemory()
	c, _ := newTestController(t, gw)
	ctx := context.Background()

	c.handleSignIn(ctx, "u1")
	before := len(c.Snapshot().Routines)

	c.handleSignOut()

	if c.UserID() != "" {
		t.Fatal("session should be cleared")
	}
	if len(c.Snapshot().Routines) != before {
		t.Fatal("sign-out must not clear local data")
	}
}

// failingGateway rejects every write.
type failingGateway struct {
	remote.Gateway
}

func (failingGateway) UpsertCheck(context.Context, string, string, string, state.DailyCheck) error {
	return fmt.Errorf("remote unavailable")
}

func TestSyncFailureNeverBlocksDispatch(t *testing.T) {
	gw := failingGateway{Gateway: remote.NewMemory()}
	c, _ := newTestController(t, gw)
	c.handleSignIn(context.Background(), "u1")

	routineID := c.Snapshot().Routines[0].ID
	c.Dispatch(state.ToggleTask{RoutineID: routineID})
	c.DrainSync()

	check, ok := c.Snapshot().Check(today, routineID)
	if !ok || !check.Done {
		t.Fatal("local transition must survive a remote write failure")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	c, _ := newTestController(t, remote.NewMemory())
	path := filepath.Join(t.TempDir(), "backup.json")

	c.Dispatch(state.SetEnergy{Level: 4})
	if err := c.Export(path); err != nil {
		t.Fatalf("export: %v", err)
	}

	c.Dispatch(state.SetEnergy{Level: 1})
	if err := c.Import(path); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := c.Snapshot().Energy[today]; got != 4 {
		t.Fatalf("import should restore the exported state, energy=%d", got)
	}
}

func TestImportRejectsInvalidFileUntouched(t *testing.T) {
	c, _ := newTestController(t, remote.NewMemory())
	path := filepath.Join(t.TempDir(), "bad.json")

	c.Dispatch(state.SetEnergy{Level: 4})
	before := c.Snapshot()

	if err := os.WriteFile(path, []byte(`{"schema_version":1,"state":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Import(path); err == nil {
		t.Fatal("expected validation error")
	}
	if got := c.Snapshot().Energy[today]; got != before.Energy[today] {
		t.Fatal("state must stay untouched after a rejected import")
	}
}
