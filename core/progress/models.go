package progress

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
)

// Entry is the ledger of hours studied by one user, on one subject, on one day.
type Entry struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	SubjectID   null.String `json:"subject_id" db:"subject_id"`
	SubjectName null.String `json:"subject_name" db:"subject_name"` // read-only
	Date        core.Date   `json:"date" db:"date"`
	Hours       float64     `json:"hours" db:"hours"`
	Sessions    int         `json:"sessions" db:"sessions"` // logs folded into the entry
	Notes       null.String `json:"notes" db:"notes"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// NewEntry is one logged study session. A zero Date means today.
type NewEntry struct {
	SubjectID string    `json:"subject_id" validate:"required,uuid"`
	Date      core.Date `json:"date"`
	Hours     *float64  `json:"hours" validate:"required,min=0,max=24"`
	Notes     *string   `json:"notes" validate:"omitempty,max=2000"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.SubjectID = core.CleanString(ne.SubjectID)
	ne.Notes = core.CleanStringPtr(ne.Notes)
	if ne.Notes != nil && *ne.Notes == "" {
		ne.Notes = nil
	}
	return validate.Struct(ne)
}

// UpdateEntry replaces fields of an existing Entry; nothing is folded.
type UpdateEntry struct {
	SubjectID *string    `json:"subject_id" validate:"omitempty,uuid"`
	Date      *core.Date `json:"date"`
	Hours     *float64   `json:"hours" validate:"omitempty,min=0"`
	Notes     *string    `json:"notes" validate:"omitempty,max=2000"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	ue.SubjectID = core.CleanStringPtr(ue.SubjectID)
	ue.Notes = core.CleanStringPtr(ue.Notes)
	return validate.Struct(ue)
}

func (ue UpdateEntry) movesKey() bool {
	return ue.SubjectID != nil || ue.Date != nil
}

func (ue UpdateEntry) apply(e *Entry) {
	if ue.SubjectID != nil {
		e.SubjectID = null.StringFrom(*ue.SubjectID)
		e.SubjectName = null.String{}
	}
	if ue.Date != nil {
		e.Date = *ue.Date
	}
	if ue.Hours != nil {
		e.Hours = *ue.Hours
	}
	if ue.Notes != nil {
		e.Notes = null.NewString(*ue.Notes, *ue.Notes != "")
	}
}

var OrderingFields = []string{"date", "hours", "sessions", "subject_name", "created_at"}

type QueryFilter struct {
	SubjectID string
	From      core.Date // inclusive; zero means unbounded
	To        core.Date // inclusive; zero means unbounded
	Ordering  []core.DBOrdering
}

// LogOutcome is the result of folding one slot into the ledger.
type LogOutcome struct {
	SlotID    string      `json:"slot_id"`
	SubjectID null.String `json:"subject_id"`
	Hours     float64     `json:"hours"`
	Logged    bool        `json:"logged"`
	Created   bool        `json:"created"`
	Skipped   string      `json:"skipped,omitempty"`
	Error     string      `json:"error,omitempty"`
	Entry     *Entry      `json:"entry,omitempty"`
}

type AutoLogResult struct {
	UserID      string       `json:"user_id"`
	Date        core.Date    `json:"date"`
	LoggedHours float64      `json:"logged_hours"`
	Outcomes    []LogOutcome `json:"outcomes"`
}

// SubjectStats aggregates the ledger of one subject. Rows whose subject was
// deleted are grouped under a null SubjectID.
type SubjectStats struct {
	SubjectID    null.String   `json:"subject_id" boil:"subject_id"`
	SubjectName  null.String   `json:"subject_name" boil:"subject_name"`
	Color        null.String   `json:"color" boil:"color"`
	TotalHours   float64       `json:"total_hours" boil:"total_hours"`
	Sessions     int           `json:"sessions" boil:"sessions"`
	Entries      int           `json:"entries" boil:"entries"`
	LastStudied  core.NullDate `json:"last_studied" boil:"last_studied"`
	AverageHours float64       `json:"average_hours_per_session" boil:"-"`
}

type Completion struct {
	TasksTotal     int `json:"tasks_total" boil:"tasks_total"`
	TasksCompleted int `json:"tasks_completed" boil:"tasks_completed"`
	GoalsTotal     int `json:"goals_total" boil:"goals_total"`
	GoalsCompleted int `json:"goals_completed" boil:"goals_completed"`
}

type Overview struct {
	Subjects           []SubjectStats `json:"subjects"`
	TotalHours         float64        `json:"total_hours"`
	TotalSessions      int            `json:"total_sessions"`
	TotalEntries       int            `json:"total_entries"`
	AverageHours       float64        `json:"average_hours_per_session"`
	Completion         Completion     `json:"completion"`
	TaskCompletionRate float64        `json:"task_completion_rate"`
	GoalCompletionRate float64        `json:"goal_completion_rate"`
}

type SubjectDetail struct {
	Stats   SubjectStats `json:"stats"`
	Entries []Entry      `json:"entries"`
}
