package database

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"rutina/internal/state"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleState() state.AppState {
	s := state.Default(time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))
	s.Energy["2024-03-15"] = 4
	s.DailyChecks["2024-03-15"] = map[string]state.DailyCheck{
		"seed-agua": {Done: true, Count: 8, Subtasks: map[string]bool{}},
	}
	s.History["2024-03-14"] = state.DayResult{Ratio: 0.75, Mode: state.ModeNormal}
	s.EmergencyMode = true
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := newTestDB(t)
	want := sampleState()
	// Volatile substate must not survive the round trip.
	want.FocusTimer = state.FocusTimer{RoutineID: "seed-meditar", Running: true}

	if err := d.SaveSnapshot(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := d.LoadSnapshot()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}

	want.FocusTimer = state.FocusTimer{}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", *got, want)
	}
}

func TestSaveOverwrites(t *testing.T) {
	d := newTestDB(t)
	first := sampleState()
	if err := d.SaveSnapshot(first); err != nil {
		t.Fatal(err)
	}

	second := first.Clone()
	second.Routines = nil
	second.EmergencyMode = false
	if err := d.SaveSnapshot(second); err != nil {
		t.Fatal(err)
	}

	got, err := d.LoadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Routines) != 0 || got.EmergencyMode {
		t.Fatalf("second save should win: %+v", got)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	d := newTestDB(t)
	got, err := d.LoadSnapshot()
	if err != nil {
		t.Fatalf("missing snapshot is not an error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestLoadCorruptPayload(t *testing.T) {
	d := newTestDB(t)
	if _, err := d.db.Exec(`
		INSERT INTO snapshots (name, schema_version, payload) VALUES ('app_state', ?, 'not json')
	`, SchemaVersion); err != nil {
		t.Fatal(err)
	}

	got, err := d.LoadSnapshot()
	if err != nil {
		t.Fatalf("corrupt payload must fall back to defaults, not fail: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestLoadWrongSchemaVersion(t *testing.T) {
	d := newTestDB(t)
	if _, err := d.db.Exec(`
		INSERT INTO snapshots (name, schema_version, payload) VALUES ('app_state', ?, '{}')
	`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	got, err := d.LoadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("foreign schema version must be ignored, got %+v", got)
	}
}

func TestFileBackedPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "rutina.db")

	d, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	want := sampleState()
	if err := d.SaveSnapshot(want); err != nil {
		t.Fatal(err)
	}
	d.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.LoadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got.Routines) != len(want.Routines) {
		t.Fatalf("state did not survive reopen: %+v", got)
	}
}
