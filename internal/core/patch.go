package core

import (
	"fmt"
	"strings"
)

// Patch carries a partial update. Nil fields are left untouched by the
// merge; set fields overwrite the existing value after validation. The
// merge is shallow: Expense has no nested structures to merge.
type Patch struct {
	Title       *string
	Amount      *Money
	Category    *string
	Date        *Date
	Description *string
}

// IsEmpty reports whether the patch supplies no fields at all. Applying
// an empty patch is a no-op.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Category == nil && p.Date == nil && p.Description == nil
}

// Validate checks every supplied field against the same constraints as
// create, reporting all violations in one batched error.
func (p Patch) Validate() error {
	var errs []FieldError
	if p.Title != nil && len(strings.TrimSpace(*p.Title)) < MinTitleLen {
		errs = append(errs, FieldError{Field: "title", Message: fmt.Sprintf("title must be at least %d characters", MinTitleLen)})
	}
	if p.Amount != nil && p.Amount.Cents <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be greater than zero"})
	}
	if p.Category != nil {
		if cat := strings.TrimSpace(*p.Category); cat == "" {
			errs = append(errs, FieldError{Field: "category", Message: "category must not be empty"})
		} else if len(cat) < MinCategoryLen {
			errs = append(errs, FieldError{Field: "category", Message: fmt.Sprintf("category must be at least %d characters", MinCategoryLen)})
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		errs = append(errs, FieldError{Field: "date", Message: "date must be a valid ISO-8601 date"})
	}
	if p.Description != nil && len(strings.TrimSpace(*p.Description)) < MinDescriptionLen {
		errs = append(errs, FieldError{Field: "description", Message: fmt.Sprintf("description must be at least %d characters", MinDescriptionLen)})
	}
	return NewValidationError(errs)
}

// Apply merges the patch onto an existing record and returns the result.
// The id and every unsupplied field are preserved unchanged.
func (p Patch) Apply(e Expense) Expense {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	return e
}
