package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"rutina/internal/state"
)

func TestBackupRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	want := state.Default(time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))
	want.Energy["2024-03-15"] = 3

	if err := WriteFile(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestBackupIsPrettyPrintedAndTagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := WriteFile(path, state.Default(time.Now())); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"schema_version", "exported_at", "state"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("backup missing %q", key)
		}
	}
	if len(data) == 0 || data[1] != '\n' {
		t.Fatal("backup should be indented")
	}
}

func TestRejectMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRejectWrongSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	body := `{"schema_version": 99, "state": {"routines": [], "dailyChecks": {}}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("expected schema version error")
	}
}

func TestRejectForeignBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.json")
	body := `{"schema_version": 1, "state": {"somethingElse": true}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("expected validation error for missing collections")
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
