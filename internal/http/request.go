package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"expensed/internal/core"
)

// Validation output lists fields in one fixed order regardless of which
// phase (decode or constraint check) rejected them.
var fieldOrder = []string{"title", "amount", "category", "date", "description"}

// expensePayload is the wire shape shared by create, replace and patch.
// Pointers distinguish absent fields from zero values; amount stays raw
// so a malformed value becomes a field error instead of killing the
// whole decode.
type expensePayload struct {
	Title       *string          `json:"title"`
	Amount      *json.RawMessage `json:"amount"`
	Category    *string          `json:"category"`
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
}

func decodePayload(r *http.Request) (*expensePayload, error) {
	var p expensePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	return &p, nil
}

func mergeFieldErrors(parseErrs map[string]core.FieldError, validation error) error {
	byField := map[string]core.FieldError{}
	if ve, ok := core.AsValidationError(validation); ok {
		for _, fe := range ve.Fields {
			byField[fe.Field] = fe
		}
	}

	var out []core.FieldError
	for _, field := range fieldOrder {
		if fe, ok := parseErrs[field]; ok {
			out = append(out, fe)
		} else if fe, ok := byField[field]; ok {
			out = append(out, fe)
		}
	}
	return core.NewValidationError(out)
}

// fields interprets the payload as a full record (create / replace).
// Absent fields fall through to the zero value and fail validation.
func (p *expensePayload) fields() (core.Fields, error) {
	parseErrs := map[string]core.FieldError{}
	var f core.Fields

	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Amount != nil {
		var m core.Money
		if err := json.Unmarshal(*p.Amount, &m); err != nil {
			parseErrs["amount"] = core.FieldError{Field: "amount", Message: "amount must be a decimal number"}
		} else {
			f.Amount = m
		}
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Date != nil {
		d, err := core.ParseDate(*p.Date)
		if err != nil {
			parseErrs["date"] = core.FieldError{Field: "date", Message: "date must be a valid ISO-8601 date (YYYY-MM-DD)"}
		} else {
			f.Date = d
		}
	}
	if p.Description != nil {
		f.Description = *p.Description
	}

	f = f.Normalize()
	return f, mergeFieldErrors(parseErrs, f.Validate())
}

// patch interprets the payload as a merge patch: only supplied fields
// are carried, and only supplied fields are validated.
func (p *expensePayload) patch() (core.Patch, error) {
	parseErrs := map[string]core.FieldError{}
	var patch core.Patch

	patch.Title = p.Title
	if p.Amount != nil {
		var m core.Money
		if err := json.Unmarshal(*p.Amount, &m); err != nil {
			parseErrs["amount"] = core.FieldError{Field: "amount", Message: "amount must be a decimal number"}
		} else {
			patch.Amount = &m
		}
	}
	patch.Category = p.Category
	if p.Date != nil {
		d, err := core.ParseDate(*p.Date)
		if err != nil {
			parseErrs["date"] = core.FieldError{Field: "date", Message: "date must be a valid ISO-8601 date (YYYY-MM-DD)"}
		} else {
			patch.Date = &d
		}
	}
	patch.Description = p.Description

	return patch, mergeFieldErrors(parseErrs, patch.Validate())
}

// parseSearchQuery reads the filter predicates. Absent parameters stay
// nil; malformed ones are reported batched.
func parseSearchQuery(r *http.Request) (core.Query, error) {
	var (
		q    core.Query
		errs []core.FieldError
	)
	params := r.URL.Query()

	if v := strings.TrimSpace(params.Get("category")); v != "" {
		q.Category = &v
	}
	if v := strings.TrimSpace(params.Get("minAmount")); v != "" {
		m, err := core.ParseMoney(v)
		if err != nil {
			errs = append(errs, core.FieldError{Field: "minAmount", Message: "minAmount must be a decimal number"})
		} else {
			q.MinAmount = &m
		}
	}
	if v := strings.TrimSpace(params.Get("maxAmount")); v != "" {
		m, err := core.ParseMoney(v)
		if err != nil {
			errs = append(errs, core.FieldError{Field: "maxAmount", Message: "maxAmount must be a decimal number"})
		} else {
			q.MaxAmount = &m
		}
	}
	if v := strings.TrimSpace(params.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			errs = append(errs, core.FieldError{Field: "date", Message: "date must be a valid ISO-8601 date (YYYY-MM-DD)"})
		} else {
			q.Date = &d
		}
	}

	return q, core.NewValidationError(errs)
}

// parseRange reads the required startDate/endDate pair.
func parseRange(r *http.Request) (core.Date, core.Date, error) {
	var (
		start, end core.Date
		errs       []core.FieldError
	)
	params := r.URL.Query()

	if v := strings.TrimSpace(params.Get("startDate")); v == "" {
		errs = append(errs, core.FieldError{Field: "startDate", Message: "startDate is required"})
	} else if d, err := core.ParseDate(v); err != nil {
		errs = append(errs, core.FieldError{Field: "startDate", Message: "startDate must be a valid ISO-8601 date (YYYY-MM-DD)"})
	} else {
		start = d
	}
	if v := strings.TrimSpace(params.Get("endDate")); v == "" {
		errs = append(errs, core.FieldError{Field: "endDate", Message: "endDate is required"})
	} else if d, err := core.ParseDate(v); err != nil {
		errs = append(errs, core.FieldError{Field: "endDate", Message: "endDate must be a valid ISO-8601 date (YYYY-MM-DD)"})
	} else {
		end = d
	}

	return start, end, core.NewValidationError(errs)
}
