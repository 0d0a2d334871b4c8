package state

// Action is the closed set of state mutations. Every dispatch goes through
// exactly one of these; the reducer treats anything else as a no-op.
type Action interface{ isAction() }

// SetEnergy records today's energy level (clamped to 1-5). Mode changes are a
// UI decision and never implied by this action.
type SetEnergy struct{ Level int }

// ToggleEmergency flips emergency mode; enabling it clears energetic mode.
type ToggleEmergency struct{}

// SetEmergencyMode sets emergency mode explicitly; true clears energetic mode.
type SetEmergencyMode struct{ Value bool }

// ToggleEnergetic flips energetic mode; enabling it clears emergency mode.
type ToggleEnergetic struct{}

// SetEnergeticMode sets energetic mode explicitly; true clears emergency mode.
type SetEnergeticMode struct{ Value bool }

// ToggleTask flips today's done flag for a routine, creating the check lazily.
type ToggleTask struct{ RoutineID string }

// ToggleSubtask flips one subtask flag inside today's check.
type ToggleSubtask struct{ RoutineID, SubtaskID string }

// IncrementCounter adds Delta to today's count, clamped to [0, target], and
// derives the done flag from count >= target.
type IncrementCounter struct {
	RoutineID string
	Delta     int
}

// AddCheckNote overwrites the free-text note on today's check.
type AddCheckNote struct {
	RoutineID string
	Note      string
}

// AddRoutine appends a routine, assigning a fresh id when none is set.
type AddRoutine struct{ Routine Routine }

// UpdateRoutine replaces the routine with the given id. The id in the payload
// is ignored; ID wins.
type UpdateRoutine struct {
	ID   string
	Data Routine
}

type DeleteRoutine struct{ ID string }

// ReorderRoutines moves one routine from FromIndex to ToIndex, keeping the
// relative order of the rest. Out-of-bounds indices are a no-op.
type ReorderRoutines struct{ FromIndex, ToIndex int }

// AddJournal prepends an entry, assigning id and date when blank.
type AddJournal struct{ Entry JournalEntry }

type DeleteJournal struct{ ID string }

type AddAppointment struct{ Appointment Appointment }

type UpdateAppointment struct {
	ID   string
	Data Appointment
}

type DeleteAppointment struct{ ID string }

type AddSavedNote struct{ Note SavedNote }

type UpdateSavedNote struct {
	ID   string
	Data SavedNote
}

type DeleteSavedNote struct{ ID string }

// RecordHistory archives one day's completion ratio and mode.
type RecordHistory struct {
	Date  string
	Ratio float64
	Mode  Mode
}

// DailyReset advances lastReset to today. Idempotent when already today.
type DailyReset struct{}

// LoadState replaces the whole state (import, restore, local reset). Volatile
// substate resets to defaults.
type LoadState struct{ State AppState }

// HydrateFromCloud replaces the persisted collections with the remote copy,
// preserving local-only fields.
type HydrateFromCloud struct{ Data RemoteData }

func (SetEnergy) isAction()         {}
func (ToggleEmergency) isAction()   {}
func (SetEmergencyMode) isAction()  {}
func (ToggleEnergetic) isAction()   {}
func (SetEnergeticMode) isAction()  {}
func (ToggleTask) isAction()        {}
func (ToggleSubtask) isAction()     {}
func (IncrementCounter) isAction()  {}
func (AddCheckNote) isAction()      {}
func (AddRoutine) isAction()        {}
func (UpdateRoutine) isAction()     {}
func (DeleteRoutine) isAction()     {}
func (ReorderRoutines) isAction()   {}
func (AddJournal) isAction()        {}
func (DeleteJournal) isAction()     {}
func (AddAppointment) isAction()    {}
func (UpdateAppointment) isAction() {}
func (DeleteAppointment) isAction() {}
func (AddSavedNote) isAction()      {}
func (UpdateSavedNote) isAction()   {}
func (DeleteSavedNote) isAction()   {}
func (RecordHistory) isAction()     {}
func (DailyReset) isAction()        {}
func (LoadState) isAction()         {}
func (HydrateFromCloud) isAction()  {}
