package state

import "time"

const (
	everyDay = "0123456"
	weekdays = "12345"
)

func days(pattern string) []int {
	out := make([]int, 0, len(pattern))
	for _, c := range pattern {
		out = append(out, int(c-'0'))
	}
	return out
}

// Default returns the seed state used on first start, before any snapshot or
// cloud copy exists.
func Default(now time.Time) AppState {
	seed := []Routine{
		{
			ID: "seed-agua", Name: "Beber agua", Icon: "💧", Color: "#4FC3F7",
			Category: CategoryHealth, Period: PeriodMorning, Days: days(everyDay),
			Time: "08:00", Essential: true, Type: TypeCounter, Target: 8, SortOrder: 0,
		},
		{
			ID: "seed-ejercicio", Name: "Ejercicio", Icon: "🏃", Color: "#81C784",
			Category: CategoryHealth, Period: PeriodMorning, Days: days(weekdays),
			Time: "07:00", Essential: true, Energetic: true, Type: TypeCheck, SortOrder: 1,
		},
		{
			ID: "seed-meditar", Name: "Meditar", Icon: "🧘", Color: "#BA68C8",
			Category: CategoryMind, Period: PeriodEvening, Days: days(everyDay),
			Time: "21:00", Type: TypeFocus, FocusDuration: 10, SortOrder: 2,
		},
		{
			ID: "seed-orden", Name: "Ordenar la casa", Icon: "🏠", Color: "#FFB74D",
			Category: CategoryHome, Period: PeriodAfternoon, Days: days(weekdays),
			Time: "18:00", Type: TypeCheck, SortOrder: 3,
		},
	}

	return AppState{
		Routines:    seed,
		DailyChecks: map[string]map[string]DailyCheck{},
		Energy:      map[string]int{},
		Journal: []JournalEntry{{
			ID:       "seed-bienvenida",
			Date:     DateKey(now),
			Category: "general",
			Title:    "¡Bienvenido!",
			Text:     "Registra aquí tus logros del día.",
		}},
		Notes:        []SavedNote{},
		Appointments: []Appointment{},
		History:      map[string]DayResult{},
		LastReset:    DateKey(now),
	}
}
