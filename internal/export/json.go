// Package export reads and writes human-downloadable state backups: one
// pretty-printed JSON file carrying the whole state plus an explicit schema
// version so a foreign or stale file is rejected before it can replace
// anything.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"rutina/internal/state"
)

// SchemaVersion tags backup files. Bump on any incompatible state change.
const SchemaVersion = 1

type backup struct {
	SchemaVersion int            `json:"schema_version"`
	ExportedAt    string         `json:"exported_at"`
	State         state.AppState `json:"state"`
}

// WriteFile dumps the state to path as an importable backup.
func WriteFile(path string, s state.AppState) error {
	b := backup{
		SchemaVersion: SchemaVersion,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		State:         s,
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}
	return nil
}

// ReadFile parses and validates a backup. The file must carry the current
// schema version and the core collections; anything else is rejected without
// touching the caller's state.
func ReadFile(path string) (state.AppState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return state.AppState{}, fmt.Errorf("read backup file: %w", err)
	}

	var b backup
	if err := json.Unmarshal(data, &b); err != nil {
		return state.AppState{}, fmt.Errorf("parse backup: %w", err)
	}

	if b.SchemaVersion != SchemaVersion {
		return state.AppState{}, fmt.Errorf("unsupported backup schema version %d (want %d)", b.SchemaVersion, SchemaVersion)
	}
	if b.State.Routines == nil || b.State.DailyChecks == nil {
		return state.AppState{}, fmt.Errorf("backup missing routines or dailyChecks")
	}

	return b.State, nil
}
