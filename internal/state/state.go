package state

import "time"

// DateLayout is the key format for every per-day map in the state.
const DateLayout = "2006-01-02"

// DateKey formats t as a per-day map key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

type Category string

const (
	CategoryHealth Category = "salud"
	CategoryMind   Category = "mente"
	CategoryHome   Category = "hogar"
	CategoryWork   Category = "trabajo"
)

type Period string

const (
	PeriodMorning   Period = "mañana"
	PeriodAfternoon Period = "tarde"
	PeriodEvening   Period = "noche"
)

type RoutineType string

const (
	TypeCheck   RoutineType = "check"
	TypeCounter RoutineType = "counter"
	TypeFocus   RoutineType = "focus"
)

// Mode is the global display filter recorded alongside each day's ratio.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeEmergency Mode = "emergencia"
	ModeEnergetic Mode = "energetico"
)

// DefaultCounterTarget applies when a counter routine has no explicit target,
// or when a check is incremented for a routine that no longer exists.
const DefaultCounterTarget = 99

type Subtask struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Routine is a recurring habit definition. Essential and Energetic are
// independent flags; a routine may carry both, one or neither.
type Routine struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Icon          string      `json:"icon"`
	Color         string      `json:"color"`
	Category      Category    `json:"category"`
	Period        Period      `json:"period"`
	Days          []int       `json:"days"` // weekdays 0-6, Sunday=0
	Time          string      `json:"time"`
	Essential     bool        `json:"essential"`
	Energetic     bool        `json:"energetic"`
	Type          RoutineType `json:"type"`
	Target        int         `json:"target,omitempty"`
	FocusDuration int         `json:"focusDuration,omitempty"` // minutes
	Subtasks      []Subtask   `json:"subtasks,omitempty"`
	SortOrder     int         `json:"sortOrder"`
}

// ScheduledOn reports whether the routine runs on the given weekday (0=Sunday).
func (r Routine) ScheduledOn(weekday int) bool {
	for _, d := range r.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// CounterTarget returns the clamp ceiling for counter increments.
func (r Routine) CounterTarget() int {
	if r.Target > 0 {
		return r.Target
	}
	return DefaultCounterTarget
}

// DailyCheck is the day-scoped completion record for one routine. It is
// created lazily on first interaction, never pre-populated.
type DailyCheck struct {
	Done     bool            `json:"done"`
	Count    int             `json:"count"`
	Note     string          `json:"note"`
	Subtasks map[string]bool `json:"subtasks"`
}

func newDailyCheck() DailyCheck {
	return DailyCheck{Subtasks: map[string]bool{}}
}

type JournalEntry struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Photo     string `json:"photo,omitempty"` // URI or embedded data
	TimeOfDay string `json:"timeOfDay,omitempty"`
}

type Appointment struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type SavedNote struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Color     string `json:"color,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// DayResult is the archived outcome of one day, written by the rollover.
type DayResult struct {
	Ratio float64 `json:"ratio"`
	Mode  Mode    `json:"mode"`
}

// FocusTimer is volatile substate for an in-flight focus session. It is never
// persisted and resets to zero on any full state replacement.
type FocusTimer struct {
	RoutineID    string
	RemainingSec int
	Running      bool
}

// AppState is the single aggregate root. It is owned by the store controller
// and only ever replaced, never mutated in place.
type AppState struct {
	Routines      []Routine                        `json:"routines"`
	DailyChecks   map[string]map[string]DailyCheck `json:"dailyChecks"`
	Energy        map[string]int                   `json:"energy"`
	Journal       []JournalEntry                   `json:"journal"`
	Notes         []SavedNote                      `json:"notes"`
	Appointments  []Appointment                    `json:"appointments"`
	History       map[string]DayResult             `json:"history"`
	EmergencyMode bool                             `json:"emergencyMode"`
	EnergeticMode bool                             `json:"energeticMode"`
	LastReset     string                           `json:"lastReset"`
	FocusTimer    FocusTimer                       `json:"-"`
}

// RemoteData carries the cloud copy of the persisted collections. It covers
// exactly the fields a hydration replaces; local-only fields (lastReset,
// focus timer) are untouched by it.
type RemoteData struct {
	Routines      []Routine
	DailyChecks   map[string]map[string]DailyCheck
	Energy        map[string]int
	Journal       []JournalEntry
	Notes         []SavedNote
	Appointments  []Appointment
	History       map[string]DayResult
	EmergencyMode bool
	EnergeticMode bool
}

// HasData reports whether the remote store holds anything worth hydrating
// from: any routine, journal entry or daily check.
func (d RemoteData) HasData() bool {
	return len(d.Routines) > 0 || len(d.Journal) > 0 || len(d.DailyChecks) > 0
}

// Mode returns the display mode implied by the two flags.
func (s AppState) Mode() Mode {
	switch {
	case s.EmergencyMode:
		return ModeEmergency
	case s.EnergeticMode:
		return ModeEnergetic
	default:
		return ModeNormal
	}
}

// Check returns the daily check for (date, routineID), if recorded.
func (s AppState) Check(date, routineID string) (DailyCheck, bool) {
	day, ok := s.DailyChecks[date]
	if !ok {
		return DailyCheck{}, false
	}
	c, ok := day[routineID]
	return c, ok
}

// RoutineByID returns the routine with the given id, if present.
func (s AppState) RoutineByID(id string) (Routine, bool) {
	for _, r := range s.Routines {
		if r.ID == id {
			return r, true
		}
	}
	return Routine{}, false
}

// Clone returns a deep copy. The reducer mutates only clones, so every state
// value handed out of the controller stays immutable.
func (s AppState) Clone() AppState {
	out := s
	out.Routines = cloneRoutines(s.Routines)
	out.DailyChecks = cloneChecks(s.DailyChecks)
	out.Energy = cloneIntMap(s.Energy)
	out.Journal = append([]JournalEntry(nil), s.Journal...)
	out.Notes = append([]SavedNote(nil), s.Notes...)
	out.Appointments = append([]Appointment(nil), s.Appointments...)
	out.History = cloneHistory(s.History)
	return out
}

func cloneRoutines(in []Routine) []Routine {
	if in == nil {
		return nil
	}
	out := make([]Routine, len(in))
	for i, r := range in {
		r.Days = append([]int(nil), r.Days...)
		r.Subtasks = append([]Subtask(nil), r.Subtasks...)
		out[i] = r
	}
	return out
}

func cloneChecks(in map[string]map[string]DailyCheck) map[string]map[string]DailyCheck {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string]DailyCheck, len(in))
	for date, day := range in {
		clone := make(map[string]DailyCheck, len(day))
		for id, c := range day {
			sub := make(map[string]bool, len(c.Subtasks))
			for k, v := range c.Subtasks {
				sub[k] = v
			}
			c.Subtasks = sub
			clone[id] = c
		}
		out[date] = clone
	}
	return out
}

func cloneIntMap(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneHistory(in map[string]DayResult) map[string]DayResult {
	if in == nil {
		return nil
	}
	out := make(map[string]DayResult, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
