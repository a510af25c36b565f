package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// MinTitleLen is the minimum expense title length.
	MinTitleLen = 3
	// MinCategoryLen is the minimum category name length.
	MinCategoryLen = 3
	// MinDescriptionLen applies only when a description is supplied.
	MinDescriptionLen = 5

	// DefaultDescription is the sentinel stored when no description is given.
	DefaultDescription = "no description"

	// DateLayout is the wire and storage format for calendar dates.
	DateLayout = "2006-01-02"
)

type (
	// Date is a calendar date without a time-of-day component.
	Date struct {
		time.Time
	}

	// Category is a named grouping for expenses. Names are unique,
	// case-sensitive as stored.
	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// Expense is a single spend record. Category holds the category name;
	// stores that keep a category table map it to a row internally.
	Expense struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		Amount      Money  `json:"amount"`
		Category    string `json:"category"`
		Date        Date   `json:"date"`
		Description string `json:"description"`
	}

	// Fields carries every mutable expense field, as supplied on create
	// or full replace. The id is assigned by the store.
	Fields struct {
		Title       string
		Amount      Money
		Category    string
		Date        Date
		Description string
	}
)

// NewDate builds a Date from year, month and day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in ISO-8601 form (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidateCategoryName checks the constraints shared by explicit category
// creation and implicit registration on expense writes.
func ValidateCategoryName(name string) []FieldError {
	var errs []FieldError
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(trimmed) < MinCategoryLen {
		errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("name must be at least %d characters", MinCategoryLen)})
	}
	return errs
}

// Validate checks every field constraint and reports all violations in
// one batched error. Field order is fixed: title, amount, category,
// date, description.
func (f Fields) Validate() error {
	var errs []FieldError
	if len(strings.TrimSpace(f.Title)) < MinTitleLen {
		errs = append(errs, FieldError{Field: "title", Message: fmt.Sprintf("title is required and must be at least %d characters", MinTitleLen)})
	}
	if f.Amount.Cents <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be greater than zero"})
	}
	if cat := strings.TrimSpace(f.Category); cat == "" {
		errs = append(errs, FieldError{Field: "category", Message: "category is required"})
	} else if len(cat) < MinCategoryLen {
		errs = append(errs, FieldError{Field: "category", Message: fmt.Sprintf("category must be at least %d characters", MinCategoryLen)})
	}
	if f.Date.IsZero() {
		errs = append(errs, FieldError{Field: "date", Message: "date is required and must be a valid ISO-8601 date"})
	}
	if f.Description != "" && f.Description != DefaultDescription && len(f.Description) < MinDescriptionLen {
		errs = append(errs, FieldError{Field: "description", Message: fmt.Sprintf("description, when supplied, must be at least %d characters", MinDescriptionLen)})
	}
	return NewValidationError(errs)
}

// Normalize trims whitespace and applies the description sentinel.
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	f.Description = strings.TrimSpace(f.Description)
	if f.Description == "" {
		f.Description = DefaultDescription
	}
	return f
}

// Record builds an Expense from validated fields and a store-assigned id.
func (f Fields) Record(id int64) Expense {
	return Expense{
		ID:          id,
		Title:       f.Title,
		Amount:      f.Amount,
		Category:    f.Category,
		Date:        f.Date,
		Description: f.Description,
	}
}

// FieldsOf extracts the mutable fields of an existing record.
func FieldsOf(e Expense) Fields {
	return Fields{
		Title:       e.Title,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		Description: e.Description,
	}
}
