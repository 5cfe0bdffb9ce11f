package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

const DefaultColor = "#3b82f6"

type Subject struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Color       string    `json:"color" db:"color"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type NewSubject struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Color       string `json:"color" validate:"omitempty,hexcolor_"`
	Description string `json:"description" validate:"max=2000"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Color = core.CleanString(ns.Color, true /* lower */)
	ns.Description = core.CleanString(ns.Description)
	if ns.Color == "" {
		ns.Color = DefaultColor
	}
	return validate.Struct(ns)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
type UpdateSubject struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Color       *string `json:"color" validate:"omitempty,hexcolor_"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	us.Name = core.CleanStringPtr(us.Name)
	us.Description = core.CleanStringPtr(us.Description)
	if us.Color != nil {
		c := core.CleanString(*us.Color, true /* lower */)
		us.Color = &c
	}
	return validate.Struct(us)
}

func (us UpdateSubject) apply(sub *Subject) {
	if us.Name != nil {
		sub.Name = *us.Name
	}
	if us.Color != nil {
		sub.Color = *us.Color
	}
	if us.Description != nil {
		sub.Description = *us.Description
	}
}
