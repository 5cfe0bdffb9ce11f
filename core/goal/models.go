package goal

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
)

type Goal struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	SubjectID   null.String   `json:"subject_id" db:"subject_id"`
	SubjectName null.String   `json:"subject_name" db:"subject_name"` // read-only
	Title       string        `json:"title" db:"title"`
	Description null.String   `json:"description" db:"description"`
	TargetDate  core.NullDate `json:"target_date" db:"target_date"`
	IsCompleted bool          `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

type NewGoal struct {
	SubjectID   *string    `json:"subject_id" validate:"omitempty,uuid"`
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *core.Date `json:"target_date"`
}

func (ng *NewGoal) Validate(validate *validator.Validate) error {
	ng.Title = core.CleanString(ng.Title)
	ng.Description = core.CleanStringPtr(ng.Description)
	if ng.SubjectID != nil && core.CleanString(*ng.SubjectID) == "" {
		ng.SubjectID = nil
	}
	return validate.Struct(ng)
}

// UpdateGoal defines what information may be provided to modify an existing Goal.
type UpdateGoal struct {
	SubjectID   *string    `json:"subject_id" validate:"omitempty,uuid"`
	Title       *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *core.Date `json:"target_date"`
	IsCompleted *bool      `json:"is_completed"`
}

func (ug *UpdateGoal) Validate(validate *validator.Validate) error {
	ug.Title = core.CleanStringPtr(ug.Title)
	ug.Description = core.CleanStringPtr(ug.Description)
	ug.SubjectID = core.CleanStringPtr(ug.SubjectID)

	var subID *string
	if ug.SubjectID != nil && *ug.SubjectID == "" {
		subID, ug.SubjectID = ug.SubjectID, nil
	}
	err := validate.Struct(ug)
	if subID != nil {
		ug.SubjectID = subID
	}
	return err
}

func (ug UpdateGoal) apply(g *Goal) {
	if ug.SubjectID != nil {
		g.SubjectID = null.NewString(*ug.SubjectID, *ug.SubjectID != "")
		g.SubjectName = null.String{}
	}
	if ug.Title != nil {
		g.Title = *ug.Title
	}
	if ug.Description != nil {
		g.Description = null.NewString(*ug.Description, *ug.Description != "")
	}
	if ug.TargetDate != nil {
		g.TargetDate = core.NullDateFrom(*ug.TargetDate)
	}
	if ug.IsCompleted != nil {
		g.IsCompleted = *ug.IsCompleted
	}
}

type QueryFilter struct {
	IsCompleted *bool
	SubjectID   string
}
