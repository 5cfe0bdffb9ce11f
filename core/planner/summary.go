package planner

import (
	"math"
	"sort"

	"github.com/volatiletech/null/v8"
)

type SubjectMinutes struct {
	SubjectID    null.String `json:"subject_id"`
	SubjectName  null.String `json:"subject_name"`
	SlotsCount   int         `json:"slots_count"`
	TotalMinutes int         `json:"total_minutes"`
}

type DaySummary struct {
	DayOfWeek    int              `json:"day_of_week"`
	SlotsCount   int              `json:"slots_count"`
	TotalMinutes int              `json:"total_minutes"`
	Subjects     []SubjectMinutes `json:"subjects"`
}

type WeeklySummary struct {
	Days         []DaySummary     `json:"days"` // always 7, Sunday first
	Subjects     []SubjectMinutes `json:"subjects"`
	TotalSlots   int              `json:"total_slots"`
	TotalMinutes int              `json:"total_minutes"`
	TotalHours   float64          `json:"total_hours"`
}

// subjectTally groups minutes by subject, keeping first-seen order.
type subjectTally struct {
	order []string
	byKey map[string]*SubjectMinutes
}

func newSubjectTally() *subjectTally {
	return &subjectTally{byKey: make(map[string]*SubjectMinutes)}
}

func (t *subjectTally) add(s Slot, mins int) {
	key := s.SubjectID.String // "" groups unassigned slots
	sm, ok := t.byKey[key]
	if !ok {
		sm = &SubjectMinutes{SubjectID: s.SubjectID, SubjectName: s.SubjectName}
		t.byKey[key] = sm
		t.order = append(t.order, key)
	}
	sm.SlotsCount++
	sm.TotalMinutes += mins
}

// list returns named subjects alphabetically, unassigned last.
func (t *subjectTally) list() []SubjectMinutes {
	out := make([]SubjectMinutes, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, *t.byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubjectID.Valid != out[j].SubjectID.Valid {
			return out[i].SubjectID.Valid
		}
		return out[i].SubjectName.String < out[j].SubjectName.String
	})
	return out
}

// BuildWeeklySummary folds active slots into one bucket per day of the week.
func BuildWeeklySummary(slots []Slot) WeeklySummary {
	days := make([]DaySummary, 7)
	tallies := make([]*subjectTally, 7)
	for day := range days {
		days[day].DayOfWeek = day
		tallies[day] = newSubjectTally()
	}
	week := newSubjectTally()

	var summary WeeklySummary
	for _, s := range slots {
		if !s.IsActive || s.DayOfWeek < 0 || s.DayOfWeek > 6 {
			continue
		}
		mins := s.Minutes()
		days[s.DayOfWeek].SlotsCount++
		days[s.DayOfWeek].TotalMinutes += mins
		tallies[s.DayOfWeek].add(s, mins)
		week.add(s, mins)

		summary.TotalSlots++
		summary.TotalMinutes += mins
	}

	for day := range days {
		days[day].Subjects = tallies[day].list()
	}
	summary.Days = days
	summary.Subjects = week.list()
	summary.TotalHours = math.Round(float64(summary.TotalMinutes)/60*100) / 100
	return summary
}
