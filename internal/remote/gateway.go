// Package remote defines the data gateway the sync layer talks to: a set of
// per-entity tables addressed by user id, each supporting fetch-all, upsert
// and delete. Every call may fail; callers own the logging and never retry.
package remote

import (
	"context"

	"rutina/internal/state"
)

// Settings is the one-row-per-user settings record holding the mode flags.
type Settings struct {
	EmergencyMode bool `json:"emergencyMode"`
	EnergeticMode bool `json:"energeticMode"`
}

type Gateway interface {
	FetchRoutines(ctx context.Context, userID string) ([]state.Routine, error)
	UpsertRoutine(ctx context.Context, userID string, r state.Routine) error
	DeleteRoutine(ctx context.Context, userID, id string) error

	FetchChecks(ctx context.Context, userID string) (map[string]map[string]state.DailyCheck, error)
	UpsertCheck(ctx context.Context, userID, date, routineID string, c state.DailyCheck) error

	FetchEnergy(ctx context.Context, userID string) (map[string]int, error)
	UpsertEnergy(ctx context.Context, userID, date string, level int) error

	FetchJournal(ctx context.Context, userID string) ([]state.JournalEntry, error)
	UpsertJournalEntry(ctx context.Context, userID string, e state.JournalEntry) error
	DeleteJournalEntry(ctx context.Context, userID, id string) error

	FetchHistory(ctx context.Context, userID string) (map[string]state.DayResult, error)
	UpsertHistory(ctx context.Context, userID, date string, r state.DayResult) error

	FetchSettings(ctx context.Context, userID string) (Settings, error)
	UpsertSettings(ctx context.Context, userID string, s Settings) error

	FetchAppointments(ctx context.Context, userID string) ([]state.Appointment, error)
	UpsertAppointment(ctx context.Context, userID string, a state.Appointment) error
	DeleteAppointment(ctx context.Context, userID, id string) error

	FetchNotes(ctx context.Context, userID string) ([]state.SavedNote, error)
	UpsertNote(ctx context.Context, userID string, n state.SavedNote) error
	DeleteNote(ctx context.Context, userID, id string) error

	Close() error
}
