package task

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	SubjectID   null.String   `json:"subject_id" db:"subject_id"`
	SubjectName null.String   `json:"subject_name" db:"subject_name"` // read-only
	SlotID      null.String   `json:"slot_id" db:"slot_id"`
	Title       string        `json:"title" db:"title"`
	Description null.String   `json:"description" db:"description"`
	IsCompleted bool          `json:"is_completed" db:"is_completed"`
	Priority    string        `json:"priority" db:"priority"`
	DueDate     core.NullDate `json:"due_date" db:"due_date"`
	CreatedDate core.Date     `json:"created_date" db:"created_date"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

type NewTask struct {
	SubjectID   *string    `json:"subject_id" validate:"omitempty,uuid"`
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,priority"`
	DueDate     *core.Date `json:"due_date"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanStringPtr(nt.Description)
	nt.Priority = core.CleanString(nt.Priority, true /* lower */)
	if nt.SubjectID != nil && core.CleanString(*nt.SubjectID) == "" {
		nt.SubjectID = nil
	}
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}
	return validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
// An empty SubjectID clears the subject.
type UpdateTask struct {
	SubjectID   *string    `json:"subject_id" validate:"omitempty,uuid"`
	Title       *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Priority    *string    `json:"priority" validate:"omitempty,priority"`
	DueDate     *core.Date `json:"due_date"`
	IsCompleted *bool      `json:"is_completed"`
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	ut.Title = core.CleanStringPtr(ut.Title)
	ut.Description = core.CleanStringPtr(ut.Description)
	ut.SubjectID = core.CleanStringPtr(ut.SubjectID)
	if ut.Priority != nil {
		p := core.CleanString(*ut.Priority, true /* lower */)
		ut.Priority = &p
	}

	var subID *string
	if ut.SubjectID != nil && *ut.SubjectID == "" {
		subID, ut.SubjectID = ut.SubjectID, nil
	}
	err := validate.Struct(ut)
	if subID != nil {
		ut.SubjectID = subID
	}
	return err
}

func (ut UpdateTask) apply(t *Task) {
	if ut.SubjectID != nil {
		t.SubjectID = null.NewString(*ut.SubjectID, *ut.SubjectID != "")
		t.SubjectName = null.String{}
	}
	if ut.Title != nil {
		t.Title = *ut.Title
	}
	if ut.Description != nil {
		t.Description = null.NewString(*ut.Description, *ut.Description != "")
	}
	if ut.Priority != nil {
		t.Priority = *ut.Priority
	}
	if ut.DueDate != nil {
		t.DueDate = core.NullDateFrom(*ut.DueDate)
	}
	if ut.IsCompleted != nil {
		t.IsCompleted = *ut.IsCompleted
	}
}

var OrderingFields = []string{"title", "priority", "due_date", "created_date", "is_completed", "created_at"}

type QueryFilter struct {
	IsCompleted *bool
	SubjectID   string
	CreatedDate *core.Date
	Ordering    []core.DBOrdering // defaults to newest first
}

// DerivedTasks is the day's task list. AutoGenerated is set when the list was
// materialized from the weekly schedule by this call.
type DerivedTasks struct {
	Date          core.Date `json:"date"`
	Tasks         []Task    `json:"tasks"`
	AutoGenerated bool      `json:"auto_generated"`
}
