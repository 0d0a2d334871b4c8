package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"rutina/internal/state"
)

// SchemaVersion gates snapshot loads: a snapshot written by a different
// schema is ignored and the caller falls back to defaults.
const SchemaVersion = 1

// snapshotName is the fixed key the whole application state lives under.
const snapshotName = "app_state"

// SaveSnapshot overwrites the single state snapshot. The payload is the full
// non-volatile state; last write wins.
func (d *Database) SaveSnapshot(s state.AppState) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT OR REPLACE INTO snapshots (name, schema_version, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, snapshotName, SchemaVersion, string(payload))
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored state, or nil when there is none, when the
// schema version does not match, or when the payload cannot be decoded. All
// of those mean "start from defaults", never an error that blocks startup.
func (d *Database) LoadSnapshot() (*state.AppState, error) {
	var version int
	var payload string
	err := d.db.QueryRow(`
		SELECT schema_version, payload FROM snapshots WHERE name = ?
	`, snapshotName).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	if version != SchemaVersion {
		log.Printf("⚠️ Snapshot schema version %d != %d, starting fresh", version, SchemaVersion)
		return nil, nil
	}

	var s state.AppState
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		log.Printf("⚠️ Snapshot payload undecodable, starting fresh: %v", err)
		return nil, nil
	}
	return &s, nil
}
