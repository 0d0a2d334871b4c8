package state

import (
	"time"

	"github.com/google/uuid"
)

// Reduce applies one action to the state and returns the resulting state.
// The input is never mutated; every transition works on a deep clone. Actions
// the switch does not recognize return the state unchanged. Reduce performs
// no I/O; the only non-input it reads is uuid generation for freshly added
// entities.
func Reduce(s AppState, action Action, now time.Time) AppState {
	today := DateKey(now)

	switch a := action.(type) {
	case SetEnergy:
		next := s.Clone()
		if next.Energy == nil {
			next.Energy = map[string]int{}
		}
		next.Energy[today] = clampInt(a.Level, 1, 5)
		return next

	case ToggleEmergency:
		return Reduce(s, SetEmergencyMode{Value: !s.EmergencyMode}, now)

	case SetEmergencyMode:
		next := s.Clone()
		next.EmergencyMode = a.Value
		if a.Value {
			next.EnergeticMode = false
		}
		return next

	case ToggleEnergetic:
		return Reduce(s, SetEnergeticMode{Value: !s.EnergeticMode}, now)

	case SetEnergeticMode:
		next := s.Clone()
		next.EnergeticMode = a.Value
		if a.Value {
			next.EmergencyMode = false
		}
		return next

	case ToggleTask:
		next := s.Clone()
		c := ensureCheck(&next, today, a.RoutineID)
		c.Done = !c.Done
		next.DailyChecks[today][a.RoutineID] = c
		return next

	case ToggleSubtask:
		next := s.Clone()
		c := ensureCheck(&next, today, a.RoutineID)
		c.Subtasks[a.SubtaskID] = !c.Subtasks[a.SubtaskID]
		next.DailyChecks[today][a.RoutineID] = c
		return next

	case IncrementCounter:
		next := s.Clone()
		target := DefaultCounterTarget
		if r, ok := next.RoutineByID(a.RoutineID); ok {
			target = r.CounterTarget()
		}
		c := ensureCheck(&next, today, a.RoutineID)
		c.Count = clampInt(c.Count+a.Delta, 0, target)
		c.Done = c.Count >= target
		next.DailyChecks[today][a.RoutineID] = c
		return next

	case AddCheckNote:
		next := s.Clone()
		c := ensureCheck(&next, today, a.RoutineID)
		c.Note = a.Note
		next.DailyChecks[today][a.RoutineID] = c
		return next

	case AddRoutine:
		next := s.Clone()
		r := a.Routine
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.SortOrder = len(next.Routines)
		next.Routines = append(next.Routines, r)
		return next

	case UpdateRoutine:
		next := s.Clone()
		for i, r := range next.Routines {
			if r.ID == a.ID {
				updated := a.Data
				updated.ID = a.ID
				next.Routines[i] = updated
				break
			}
		}
		return next

	case DeleteRoutine:
		next := s.Clone()
		next.Routines = deleteRoutineByID(next.Routines, a.ID)
		return next

	case ReorderRoutines:
		if a.FromIndex < 0 || a.FromIndex >= len(s.Routines) ||
			a.ToIndex < 0 || a.ToIndex >= len(s.Routines) {
			return s
		}
		next := s.Clone()
		moved := next.Routines[a.FromIndex]
		rest := append(next.Routines[:a.FromIndex:a.FromIndex], next.Routines[a.FromIndex+1:]...)
		out := make([]Routine, 0, len(next.Routines))
		out = append(out, rest[:a.ToIndex]...)
		out = append(out, moved)
		out = append(out, rest[a.ToIndex:]...)
		for i := range out {
			out[i].SortOrder = i
		}
		next.Routines = out
		return next

	case AddJournal:
		next := s.Clone()
		e := a.Entry
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Date == "" {
			e.Date = today
		}
		next.Journal = append([]JournalEntry{e}, next.Journal...)
		return next

	case DeleteJournal:
		next := s.Clone()
		out := next.Journal[:0]
		for _, e := range next.Journal {
			if e.ID != a.ID {
				out = append(out, e)
			}
		}
		next.Journal = out
		return next

	case AddAppointment:
		next := s.Clone()
		ap := a.Appointment
		if ap.ID == "" {
			ap.ID = uuid.NewString()
		}
		next.Appointments = append(next.Appointments, ap)
		return next

	case UpdateAppointment:
		next := s.Clone()
		for i, ap := range next.Appointments {
			if ap.ID == a.ID {
				updated := a.Data
				updated.ID = a.ID
				next.Appointments[i] = updated
				break
			}
		}
		return next

	case DeleteAppointment:
		next := s.Clone()
		out := next.Appointments[:0]
		for _, ap := range next.Appointments {
			if ap.ID != a.ID {
				out = append(out, ap)
			}
		}
		next.Appointments = out
		return next

	case AddSavedNote:
		next := s.Clone()
		n := a.Note
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt == "" {
			n.CreatedAt = now.UTC().Format(time.RFC3339)
		}
		next.Notes = append(next.Notes, n)
		return next

	case UpdateSavedNote:
		next := s.Clone()
		for i, n := range next.Notes {
			if n.ID == a.ID {
				updated := a.Data
				updated.ID = a.ID
				next.Notes[i] = updated
				break
			}
		}
		return next

	case DeleteSavedNote:
		next := s.Clone()
		out := next.Notes[:0]
		for _, n := range next.Notes {
			if n.ID != a.ID {
				out = append(out, n)
			}
		}
		next.Notes = out
		return next

	case RecordHistory:
		next := s.Clone()
		if next.History == nil {
			next.History = map[string]DayResult{}
		}
		next.History[a.Date] = DayResult{Ratio: a.Ratio, Mode: a.Mode}
		return next

	case DailyReset:
		if s.LastReset == today {
			return s
		}
		next := s.Clone()
		next.LastReset = today
		return next

	case LoadState:
		next := a.State.Clone()
		next.FocusTimer = FocusTimer{}
		normalize(&next)
		return next

	case HydrateFromCloud:
		next := s.Clone()
		next.Routines = cloneRoutines(a.Data.Routines)
		next.DailyChecks = cloneChecks(a.Data.DailyChecks)
		next.Energy = cloneIntMap(a.Data.Energy)
		next.Journal = append([]JournalEntry(nil), a.Data.Journal...)
		next.Notes = append([]SavedNote(nil), a.Data.Notes...)
		next.Appointments = append([]Appointment(nil), a.Data.Appointments...)
		next.History = cloneHistory(a.Data.History)
		next.EmergencyMode = a.Data.EmergencyMode
		next.EnergeticMode = a.Data.EnergeticMode
		if next.EmergencyMode {
			next.EnergeticMode = false
		}
		normalize(&next)
		return next

	default:
		return s
	}
}

// ensureCheck creates the nested maps and the check itself on first
// interaction for (date, routineID).
func ensureCheck(s *AppState, date, routineID string) DailyCheck {
	if s.DailyChecks == nil {
		s.DailyChecks = map[string]map[string]DailyCheck{}
	}
	day, ok := s.DailyChecks[date]
	if !ok {
		day = map[string]DailyCheck{}
		s.DailyChecks[date] = day
	}
	c, ok := day[routineID]
	if !ok {
		c = newDailyCheck()
	}
	if c.Subtasks == nil {
		c.Subtasks = map[string]bool{}
	}
	return c
}

// normalize makes sure every collection is non-nil after a full replacement,
// so later lazy writes never hit a nil map.
func normalize(s *AppState) {
	if s.DailyChecks == nil {
		s.DailyChecks = map[string]map[string]DailyCheck{}
	}
	if s.Energy == nil {
		s.Energy = map[string]int{}
	}
	if s.History == nil {
		s.History = map[string]DayResult{}
	}
}

func deleteRoutineByID(routines []Routine, id string) []Routine {
	out := routines[:0]
	for _, r := range routines {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
