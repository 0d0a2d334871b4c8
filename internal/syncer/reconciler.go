// Package syncer maps state actions onto remote gateway calls and performs
// the full bidirectional loads and pushes around session start. All remote
// failures stop here: they are logged and counted, never propagated into the
// dispatch path.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"rutina/internal/metrics"
	"rutina/internal/remote"
	"rutina/internal/state"
)

type Reconciler struct {
	gateway remote.Gateway
	metrics *metrics.Metrics
}

func New(gateway remote.Gateway, m *metrics.Metrics) *Reconciler {
	return &Reconciler{gateway: gateway, metrics: m}
}

// Apply translates one already-applied action into its remote effect, reading
// every value from the post-action snapshot so freshly assigned ids and the
// final field values are what lands remotely. Actions without a remote effect
// (daily reset, hydration, imports, unknown) are a no-op.
//
// Snapshot conventions for adds: AddRoutine/AddAppointment/AddSavedNote
// append, so the new entity is the last element; AddJournal prepends, so it
// is the first.
func (r *Reconciler) Apply(ctx context.Context, userID string, action state.Action, snap state.AppState, now time.Time) error {
	today := state.DateKey(now)

	switch a := action.(type) {
	case state.AddRoutine:
		if len(snap.Routines) == 0 {
			return nil
		}
		routine := snap.Routines[len(snap.Routines)-1]
		return r.count("routines", "upsert", r.gateway.UpsertRoutine(ctx, userID, routine))

	case state.UpdateRoutine:
		routine, ok := snap.RoutineByID(a.ID)
		if !ok {
			return nil
		}
		return r.count("routines", "upsert", r.gateway.UpsertRoutine(ctx, userID, routine))

	case state.DeleteRoutine:
		return r.count("routines", "delete", r.gateway.DeleteRoutine(ctx, userID, a.ID))

	case state.ToggleTask:
		return r.syncCheck(ctx, userID, today, a.RoutineID, snap)
	case state.ToggleSubtask:
		return r.syncCheck(ctx, userID, today, a.RoutineID, snap)
	case state.IncrementCounter:
		return r.syncCheck(ctx, userID, today, a.RoutineID, snap)
	case state.AddCheckNote:
		return r.syncCheck(ctx, userID, today, a.RoutineID, snap)

	case state.SetEnergy:
		level, ok := snap.Energy[today]
		if !ok {
			return nil
		}
		return r.count("energy_logs", "upsert", r.gateway.UpsertEnergy(ctx, userID, today, level))

	case state.ToggleEmergency, state.SetEmergencyMode, state.ToggleEnergetic, state.SetEnergeticMode:
		settings := remote.Settings{
			EmergencyMode: snap.EmergencyMode,
			EnergeticMode: snap.EnergeticMode,
		}
		return r.count("user_settings", "upsert", r.gateway.UpsertSettings(ctx, userID, settings))

	case state.AddJournal:
		if len(snap.Journal) == 0 {
			return nil
		}
		return r.count("journal_entries", "upsert", r.gateway.UpsertJournalEntry(ctx, userID, snap.Journal[0]))

	case state.DeleteJournal:
		return r.count("journal_entries", "delete", r.gateway.DeleteJournalEntry(ctx, userID, a.ID))

	case state.RecordHistory:
		result, ok := snap.History[a.Date]
		if !ok {
			return nil
		}
		return r.count("completion_history", "upsert", r.gateway.UpsertHistory(ctx, userID, a.Date, result))

	case state.AddAppointment:
		if len(snap.Appointments) == 0 {
			return nil
		}
		appt := snap.Appointments[len(snap.Appointments)-1]
		return r.count("appointments", "upsert", r.gateway.UpsertAppointment(ctx, userID, appt))

	case state.UpdateAppointment:
		for _, appt := range snap.Appointments {
			if appt.ID == a.ID {
				return r.count("appointments", "upsert", r.gateway.UpsertAppointment(ctx, userID, appt))
			}
		}
		return nil

	case state.DeleteAppointment:
		return r.count("appointments", "delete", r.gateway.DeleteAppointment(ctx, userID, a.ID))

	case state.AddSavedNote:
		if len(snap.Notes) == 0 {
			return nil
		}
		return r.count("notes", "upsert", r.gateway.UpsertNote(ctx, userID, snap.Notes[len(snap.Notes)-1]))

	case state.UpdateSavedNote:
		for _, n := range snap.Notes {
			if n.ID == a.ID {
				return r.count("notes", "upsert", r.gateway.UpsertNote(ctx, userID, n))
			}
		}
		return nil

	case state.DeleteSavedNote:
		return r.count("notes", "delete", r.gateway.DeleteNote(ctx, userID, a.ID))

	default:
		return nil
	}
}

func (r *Reconciler) syncCheck(ctx context.Context, userID, date, routineID string, snap state.AppState) error {
	c, ok := snap.Check(date, routineID)
	if !ok {
		return nil
	}
	return r.count("daily_checks", "upsert", r.gateway.UpsertCheck(ctx, userID, date, routineID, c))
}

func (r *Reconciler) count(table, op string, err error) error {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.SyncOps.WithLabelValues(table, op, status).Inc()
	return err
}

// LoadFullState fetches every collection for the user in parallel and
// assembles the remote copy. Any fetch failure fails the whole load; the
// caller then stays on local-only state.
func (r *Reconciler) LoadFullState(ctx context.Context, userID string) (state.RemoteData, error) {
	var (
		data state.RemoteData
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	fetch := func(table string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("fetch %s: %w", table, err))
				mu.Unlock()
			}
		}()
	}

	var settings remote.Settings
	fetch("routines", func() (err error) { data.Routines, err = r.gateway.FetchRoutines(ctx, userID); return })
	fetch("daily_checks", func() (err error) { data.DailyChecks, err = r.gateway.FetchChecks(ctx, userID); return })
	fetch("energy_logs", func() (err error) { data.Energy, err = r.gateway.FetchEnergy(ctx, userID); return })
	fetch("journal_entries", func() (err error) { data.Journal, err = r.gateway.FetchJournal(ctx, userID); return })
	fetch("completion_history", func() (err error) { data.History, err = r.gateway.FetchHistory(ctx, userID); return })
	fetch("user_settings", func() (err error) { settings, err = r.gateway.FetchSettings(ctx, userID); return })
	fetch("appointments", func() (err error) { data.Appointments, err = r.gateway.FetchAppointments(ctx, userID); return })
	fetch("notes", func() (err error) { data.Notes, err = r.gateway.FetchNotes(ctx, userID); return })
	wg.Wait()

	if len(errs) > 0 {
		return state.RemoteData{}, errors.Join(errs...)
	}

	data.EmergencyMode = settings.EmergencyMode
	data.EnergeticMode = settings.EnergeticMode

	// Row order off the wire is arbitrary; restore the orders the state model
	// promises.
	sort.SliceStable(data.Routines, func(i, j int) bool {
		return data.Routines[i].SortOrder < data.Routines[j].SortOrder
	})
	sort.SliceStable(data.Journal, func(i, j int) bool {
		return data.Journal[i].Date > data.Journal[j].Date
	})
	sort.SliceStable(data.Appointments, func(i, j int) bool {
		if data.Appointments[i].Date != data.Appointments[j].Date {
			return data.Appointments[i].Date < data.Appointments[j].Date
		}
		return data.Appointments[i].Time < data.Appointments[j].Time
	})
	sort.SliceStable(data.Notes, func(i, j int) bool {
		return data.Notes[i].CreatedAt < data.Notes[j].CreatedAt
	})

	return data, nil
}

// PushFullState uploads the entire local state, one concurrent upsert per
// entity, settle-all. Individual failures are collected and reported as one
// aggregate; the successful subset is never rolled back.
func (r *Reconciler) PushFullState(ctx context.Context, userID string, snap state.AppState) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	push := func(table string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn()
			r.count(table, "upsert", err)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("push %s: %w", table, err))
				mu.Unlock()
			}
		}()
	}

	for _, routine := range snap.Routines {
		routine := routine
		push("routines", func() error { return r.gateway.UpsertRoutine(ctx, userID, routine) })
	}
	for date, day := range snap.DailyChecks {
		for routineID, c := range day {
			date, routineID, c := date, routineID, c
			push("daily_checks", func() error { return r.gateway.UpsertCheck(ctx, userID, date, routineID, c) })
		}
	}
	for date, level := range snap.Energy {
		date, level := date, level
		push("energy_logs", func() error { return r.gateway.UpsertEnergy(ctx, userID, date, level) })
	}
	for _, entry := range snap.Journal {
		entry := entry
		push("journal_entries", func() error { return r.gateway.UpsertJournalEntry(ctx, userID, entry) })
	}
	for date, result := range snap.History {
		date, result := date, result
		push("completion_history", func() error { return r.gateway.UpsertHistory(ctx, userID, date, result) })
	}
	for _, appt := range snap.Appointments {
		appt := appt
		push("appointments", func() error { return r.gateway.UpsertAppointment(ctx, userID, appt) })
	}
	for _, note := range snap.Notes {
		note := note
		push("notes", func() error { return r.gateway.UpsertNote(ctx, userID, note) })
	}
	push("user_settings", func() error {
		return r.gateway.UpsertSettings(ctx, userID, remote.Settings{
			EmergencyMode: snap.EmergencyMode,
			EnergeticMode: snap.EnergeticMode,
		})
	})
	wg.Wait()

	if len(errs) > 0 {
		log.Printf("⚠️ Full push for %s finished with %d failed calls", userID, len(errs))
		return errors.Join(errs...)
	}
	return nil
}
