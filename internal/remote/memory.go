package remote

import (
	"context"
	"sync"

	"rutina/internal/state"
)

var _ Gateway = (*Memory)(nil)

// Memory is an in-process gateway used when no remote DSN is configured and
// by tests. Same keying and last-write-wins behavior as the Postgres tables.
type Memory struct {
	mu    sync.Mutex
	users map[string]*memoryUser
}

type memoryUser struct {
	routines     map[string]state.Routine
	checks       map[string]map[string]state.DailyCheck // date -> routine id
	energy       map[string]int
	journal      map[string]state.JournalEntry
	history      map[string]state.DayResult
	settings     Settings
	appointments map[string]state.Appointment
	notes        map[string]state.SavedNote
}

func NewMemory() *Memory {
	return &Memory{users: map[string]*memoryUser{}}
}

func (m *Memory) user(userID string) *memoryUser {
	u, ok := m.users[userID]
	if !ok {
		u = &memoryUser{
			routines:     map[string]state.Routine{},
			checks:       map[string]map[string]state.DailyCheck{},
			energy:       map[string]int{},
			journal:      map[string]state.JournalEntry{},
			history:      map[string]state.DayResult{},
			appointments: map[string]state.Appointment{},
			notes:        map[string]state.SavedNote{},
		}
		m.users[userID] = u
	}
	return u
}

func (m *Memory) Close() error { return nil }

func (m *Memory) FetchRoutines(_ context.Context, userID string) ([]state.Routine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.Routine
	for _, r := range m.user(userID).routines {
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) UpsertRoutine(_ context.Context, userID string, r state.Routine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).routines[r.ID] = r
	return nil
}

func (m *Memory) DeleteRoutine(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.user(userID).routines, id)
	return nil
}

func (m *Memory) FetchChecks(_ context.Context, userID string) (map[string]map[string]state.DailyCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]map[string]state.DailyCheck{}
	for date, day := range m.user(userID).checks {
		clone := map[string]state.DailyCheck{}
		for id, c := range day {
			clone[id] = c
		}
		out[date] = clone
	}
	return out, nil
}

func (m *Memory) UpsertCheck(_ context.Context, userID, date, routineID string, c state.DailyCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.user(userID)
	if u.checks[date] == nil {
		u.checks[date] = map[string]state.DailyCheck{}
	}
	u.checks[date][routineID] = c
	return nil
}

func (m *Memory) FetchEnergy(_ context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for date, level := range m.user(userID).energy {
		out[date] = level
	}
	return out, nil
}

func (m *Memory) UpsertEnergy(_ context.Context, userID, date string, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).energy[date] = level
	return nil
}

func (m *Memory) FetchJournal(_ context.Context, userID string) ([]state.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.JournalEntry
	for _, e := range m.user(userID).journal {
		out = append(out, e)
	}
	return out, nil
}

func (m *Memory) UpsertJournalEntry(_ context.Context, userID string, e state.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).journal[e.ID] = e
	return nil
}

func (m *Memory) DeleteJournalEntry(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.user(userID).journal, id)
	return nil
}

func (m *Memory) FetchHistory(_ context.Context, userID string) (map[string]state.DayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]state.DayResult{}
	for date, r := range m.user(userID).history {
		out[date] = r
	}
	return out, nil
}

func (m *Memory) UpsertHistory(_ context.Context, userID, date string, r state.DayResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).history[date] = r
	return nil
}

func (m *Memory) FetchSettings(_ context.Context, userID string) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user(userID).settings, nil
}

func (m *Memory) UpsertSettings(_ context.Context, userID string, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).settings = s
	return nil
}

func (m *Memory) FetchAppointments(_ context.Context, userID string) ([]state.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.Appointment
	for _, a := range m.user(userID).appointments {
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) UpsertAppointment(_ context.Context, userID string, a state.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).appointments[a.ID] = a
	return nil
}

func (m *Memory) DeleteAppointment(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.user(userID).appointments, id)
	return nil
}

func (m *Memory) FetchNotes(_ context.Context, userID string) ([]state.SavedNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.SavedNote
	for _, n := range m.user(userID).notes {
		out = append(out, n)
	}
	return out, nil
}

func (m *Memory) UpsertNote(_ context.Context, userID string, n state.SavedNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user(userID).notes[n.ID] = n
	return nil
}

func (m *Memory) DeleteNote(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.user(userID).notes, id)
	return nil
}
