package planner

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
)

type Slot struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"user_id" db:"user_id"`
	SubjectID       null.String `json:"subject_id" db:"subject_id"`
	SubjectName     null.String `json:"subject_name" db:"subject_name"` // read-only
	DayOfWeek       int         `json:"day_of_week" db:"day_of_week"`
	StartTime       string      `json:"start_time" db:"start_time"`
	EndTime         string      `json:"end_time" db:"end_time"`
	DurationMinutes null.Int    `json:"duration_minutes" db:"duration_minutes"`
	Title           null.String `json:"title" db:"title"`
	Description     null.String `json:"description" db:"description"`
	IsActive        bool        `json:"is_active" db:"is_active"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

func (s Slot) Interval() (Interval, error) {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{UserID: s.UserID, DayOfWeek: s.DayOfWeek, Start: start, End: end}, nil
}

// Minutes is the stored duration, falling back to the start/end difference.
func (s Slot) Minutes() int {
	if s.DurationMinutes.Valid && s.DurationMinutes.Int > 0 {
		return s.DurationMinutes.Int
	}
	mins, err := DurationMinutes(s.StartTime, s.EndTime)
	if err != nil {
		return 0
	}
	return mins
}

func checkTimes(start, end string) error {
	if _, err := DurationMinutes(start, end); err != nil {
		if errors.Cause(err) == ErrNonPositiveDuration {
			return core.NewValidationError(err, core.FieldError{Field: "end_time", Error: err.Error()})
		}
		return core.NewValidationError(err)
	}
	return nil
}

type NewSlot struct {
	SubjectID       *string `json:"subject_id" validate:"omitempty,uuid"`
	DayOfWeek       *int    `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime       string  `json:"start_time" validate:"required,hhmm"`
	EndTime         string  `json:"end_time" validate:"required,hhmm"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=1"`
	Title           *string `json:"title" validate:"omitempty,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	IsActive        *bool   `json:"is_active"`
}

func (ns *NewSlot) Validate(validate *validator.Validate) error {
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	ns.Title = core.CleanStringPtr(ns.Title)
	ns.Description = core.CleanStringPtr(ns.Description)
	if ns.SubjectID != nil && core.CleanString(*ns.SubjectID) == "" {
		ns.SubjectID = nil
	}

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return checkTimes(ns.StartTime, ns.EndTime)
}

// UpdateSlot defines what information may be provided to modify an existing Slot.
// An empty SubjectID unassigns the slot.
type UpdateSlot struct {
	SubjectID       *string `json:"subject_id" validate:"omitempty,uuid"`
	DayOfWeek       *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	StartTime       *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime         *string `json:"end_time" validate:"omitempty,hhmm"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=1"`
	Title           *string `json:"title" validate:"omitempty,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	IsActive        *bool   `json:"is_active"`
}

func (us *UpdateSlot) Validate(validate *validator.Validate) error {
	us.StartTime = core.CleanStringPtr(us.StartTime)
	us.EndTime = core.CleanStringPtr(us.EndTime)
	us.Title = core.CleanStringPtr(us.Title)
	us.Description = core.CleanStringPtr(us.Description)
	us.SubjectID = core.CleanStringPtr(us.SubjectID)

	var subID *string
	if us.SubjectID != nil && *us.SubjectID == "" {
		subID, us.SubjectID = us.SubjectID, nil // skip uuid check for unassignment
	}
	err := validate.Struct(us)
	if subID != nil {
		us.SubjectID = subID
	}
	return err
}

func (us UpdateSlot) movesSlot() bool {
	return us.DayOfWeek != nil || us.StartTime != nil || us.EndTime != nil || us.IsActive != nil
}

// apply patches slot in place. Times are not re-checked here.
func (us UpdateSlot) apply(slot *Slot) {
	if us.SubjectID != nil {
		slot.SubjectID = null.NewString(*us.SubjectID, *us.SubjectID != "")
		slot.SubjectName = null.String{}
	}
	if us.DayOfWeek != nil {
		slot.DayOfWeek = *us.DayOfWeek
	}
	timesChanged := us.StartTime != nil || us.EndTime != nil
	if us.StartTime != nil {
		slot.StartTime = *us.StartTime
	}
	if us.EndTime != nil {
		slot.EndTime = *us.EndTime
	}
	if us.DurationMinutes != nil {
		slot.DurationMinutes = null.IntFrom(*us.DurationMinutes)
	} else if timesChanged {
		slot.DurationMinutes = null.Int{} // recomputed on save
	}
	if us.Title != nil {
		slot.Title = null.NewString(*us.Title, *us.Title != "")
	}
	if us.Description != nil {
		slot.Description = null.NewString(*us.Description, *us.Description != "")
	}
	if us.IsActive != nil {
		slot.IsActive = *us.IsActive
	}
}

// SlotMove relocates one slot in a bulk reschedule.
type SlotMove struct {
	ID        string `json:"id"`
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// check is run per item so that one bad move does not reject the others.
func (mv *SlotMove) check() error {
	mv.ID = core.CleanString(mv.ID)
	mv.StartTime = core.CleanString(mv.StartTime)
	mv.EndTime = core.CleanString(mv.EndTime)
	if mv.ID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "this field is required"})
	}
	if mv.DayOfWeek == nil || *mv.DayOfWeek < 0 || *mv.DayOfWeek > 6 {
		return core.NewValidationError(ErrInvalidDay, core.FieldError{Field: "day_of_week", Error: ErrInvalidDay.Error()})
	}
	return checkTimes(mv.StartTime, mv.EndTime)
}

const MaxBulkMoves = 100

type BulkReschedule struct {
	Moves []SlotMove `json:"moves"`
}

// Validate only checks the batch envelope.
func (br BulkReschedule) Validate() error {
	switch {
	case len(br.Moves) == 0:
		return core.NewValidationError(nil, core.FieldError{Field: "moves", Error: "at least one move is required"})
	case len(br.Moves) > MaxBulkMoves:
		return core.NewValidationError(nil, core.FieldError{Field: "moves", Error: fmt.Sprintf("at most %d moves are allowed", MaxBulkMoves)})
	}
	return nil
}

// MoveResult is the outcome of one SlotMove.
type MoveResult struct {
	ID            string `json:"id"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	ConflictingID string `json:"conflicting_id,omitempty"`
	Slot          *Slot  `json:"slot,omitempty"`
}

// OrderingFields are the fields slot queries may be ordered by.
var OrderingFields = []string{"day_of_week", "start_time", "end_time", "duration_minutes", "title", "created_at"}

type QueryFilter struct {
	DayOfWeek *int
	IsActive  *bool
	Ordering  []core.DBOrdering // defaults to day_of_week, start_time
}
