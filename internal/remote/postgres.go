package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"rutina/internal/state"
)

// Compile-time contract assertion.
var _ Gateway = (*Postgres)(nil)

// Postgres is the hosted backend. Entity bodies live in JSONB payload columns
// keyed by user id plus the entity's natural key; every write is an
// insert-or-replace so last write wins.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to the remote store and ensures the table set exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	g := &Postgres{db: db}
	if err := g.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return g, nil
}

func (g *Postgres) init(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS routines (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_checks (
			user_id TEXT NOT NULL,
			routine_id TEXT NOT NULL,
			date TEXT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (user_id, routine_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS energy_logs (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS completion_history (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			ratio DOUBLE PRECISION NOT NULL,
			mode TEXT NOT NULL,
			PRIMARY KEY (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id TEXT PRIMARY KEY,
			emergency_mode BOOLEAN NOT NULL DEFAULT FALSE,
			energetic_mode BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
	}

	for _, stmt := range ddl {
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

func (g *Postgres) Close() error {
	return g.db.Close()
}

// fetchPayloads reads every payload row for a user from one table.
func fetchPayloads[T any](ctx context.Context, db *sql.DB, table, userID string) ([]T, error) {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT payload FROM %s WHERE user_id = $1`, table), userID)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (g *Postgres) upsertPayload(ctx context.Context, table, userID, id string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", table, err)
	}
	_, err = g.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, id, payload) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, id) DO UPDATE SET payload = EXCLUDED.payload
	`, table), userID, id, payload)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func (g *Postgres) deleteByID(ctx context.Context, table, userID, id string) error {
	_, err := g.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND id = $2`, table), userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (g *Postgres) FetchRoutines(ctx context.Context, userID string) ([]state.Routine, error) {
	return fetchPayloads[state.Routine](ctx, g.db, "routines", userID)
}

func (g *Postgres) UpsertRoutine(ctx context.Context, userID string, r state.Routine) error {
	return g.upsertPayload(ctx, "routines", userID, r.ID, r)
}

func (g *Postgres) DeleteRoutine(ctx context.Context, userID, id string) error {
	return g.deleteByID(ctx, "routines", userID, id)
}

func (g *Postgres) FetchChecks(ctx context.Context, userID string) (map[string]map[string]state.DailyCheck, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT routine_id, date, payload FROM daily_checks WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("select daily_checks: %w", err)
	}
	defer rows.Close()

	out := map[string]map[string]state.DailyCheck{}
	for rows.Next() {
		var routineID, date string
		var payload []byte
		if err := rows.Scan(&routineID, &date, &payload); err != nil {
			return nil, err
		}
		var c state.DailyCheck
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, fmt.Errorf("decode daily_checks payload: %w", err)
		}
		if out[date] == nil {
			out[date] = map[string]state.DailyCheck{}
		}
		out[date][routineID] = c
	}
	return out, rows.Err()
}

func (g *Postgres) UpsertCheck(ctx context.Context, userID, date, routineID string, c state.DailyCheck) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal daily_checks payload: %w", err)
	}
	_, err = g.db.ExecContext(ctx, `
		INSERT INTO daily_checks (user_id, routine_id, date, payload) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, routine_id, date) DO UPDATE SET payload = EXCLUDED.payload
	`, userID, routineID, date, payload)
	if err != nil {
		return fmt.Errorf("upsert daily_checks: %w", err)
	}
	return nil
}

func (g *Postgres) FetchEnergy(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT date, level FROM energy_logs WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("select energy_logs: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var date string
		var level int
		if err := rows.Scan(&date, &level); err != nil {
			return nil, err
		}
		out[date] = level
	}
	return out, rows.Err()
}

func (g *Postgres) UpsertEnergy(ctx context.Context, userID, date string, level int) error {
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO energy_logs (user_id, date, level) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date) DO UPDATE SET level = EXCLUDED.level
	`, userID, date, level)
	if err != nil {
		return fmt.Errorf("upsert energy_logs: %w", err)
	}
	return nil
}

func (g *Postgres) FetchJournal(ctx context.Context, userID string) ([]state.JournalEntry, error) {
	return fetchPayloads[state.JournalEntry](ctx, g.db, "journal_entries", userID)
}

func (g *Postgres) UpsertJournalEntry(ctx context.Context, userID string, e state.JournalEntry) error {
	return g.upsertPayload(ctx, "journal_entries", userID, e.ID, e)
}

func (g *Postgres) DeleteJournalEntry(ctx context.Context, userID, id string) error {
	return g.deleteByID(ctx, "journal_entries", userID, id)
}

func (g *Postgres) FetchHistory(ctx context.Context, userID string) (map[string]state.DayResult, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT date, ratio, mode FROM completion_history WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("select completion_history: %w", err)
	}
	defer rows.Close()

	out := map[string]state.DayResult{}
	for rows.Next() {
		var date, mode string
		var ratio float64
		if err := rows.Scan(&date, &ratio, &mode); err != nil {
			return nil, err
		}
		out[date] = state.DayResult{Ratio: ratio, Mode: state.Mode(mode)}
	}
	return out, rows.Err()
}

func (g *Postgres) UpsertHistory(ctx context.Context, userID, date string, r state.DayResult) error {
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO completion_history (user_id, date, ratio, mode) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, date) DO UPDATE SET ratio = EXCLUDED.ratio, mode = EXCLUDED.mode
	`, userID, date, r.Ratio, string(r.Mode))
	if err != nil {
		return fmt.Errorf("upsert completion_history: %w", err)
	}
	return nil
}

func (g *Postgres) FetchSettings(ctx context.Context, userID string) (Settings, error) {
	var s Settings
	err := g.db.QueryRowContext(ctx, `
		SELECT emergency_mode, energetic_mode FROM user_settings WHERE user_id = $1
	`, userID).Scan(&s.EmergencyMode, &s.EnergeticMode)
	if err == sql.ErrNoRows {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("select user_settings: %w", err)
	}
	return s, nil
}

func (g *Postgres) UpsertSettings(ctx context.Context, userID string, s Settings) error {
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, emergency_mode, energetic_mode) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			emergency_mode = EXCLUDED.emergency_mode,
			energetic_mode = EXCLUDED.energetic_mode
	`, userID, s.EmergencyMode, s.EnergeticMode)
	if err != nil {
		return fmt.Errorf("upsert user_settings: %w", err)
	}
	return nil
}

func (g *Postgres) FetchAppointments(ctx context.Context, userID string) ([]state.Appointment, error) {
	return fetchPayloads[state.Appointment](ctx, g.db, "appointments", userID)
}

func (g *Postgres) UpsertAppointment(ctx context.Context, userID string, a state.Appointment) error {
	return g.upsertPayload(ctx, "appointments", userID, a.ID, a)
}

func (g *Postgres) DeleteAppointment(ctx context.Context, userID, id string) error {
	return g.deleteByID(ctx, "appointments", userID, id)
}

func (g *Postgres) FetchNotes(ctx context.Context, userID string) ([]state.SavedNote, error) {
	return fetchPayloads[state.SavedNote](ctx, g.db, "notes", userID)
}

func (g *Postgres) UpsertNote(ctx context.Context, userID string, n state.SavedNote) error {
	return g.upsertPayload(ctx, "notes", userID, n.ID, n)
}

func (g *Postgres) DeleteNote(ctx context.Context, userID, id string) error {
	return g.deleteByID(ctx, "notes", userID, id)
}
