package core

// Query holds the optional search predicates. A nil predicate never
// constrains the result; all set predicates are ANDed.
type Query struct {
	Category  *string
	MinAmount *Money
	MaxAmount *Money
	Date      *Date
}

// IsEmpty reports whether no predicate is set.
func (q Query) IsEmpty() bool {
	return q.Category == nil && q.MinAmount == nil && q.MaxAmount == nil && q.Date == nil
}

// Matches evaluates the query against a single record. Amount bounds are
// inclusive; the category predicate compares names; the date predicate
// requires exact calendar-day equality.
func (q Query) Matches(e Expense) bool {
	if q.Category != nil && e.Category != *q.Category {
		return false
	}
	if q.MinAmount != nil && e.Amount.Cents < q.MinAmount.Cents {
		return false
	}
	if q.MaxAmount != nil && e.Amount.Cents > q.MaxAmount.Cents {
		return false
	}
	if q.Date != nil && !e.Date.Equal(*q.Date) {
		return false
	}
	return true
}

// Filter returns the records matching every set predicate, in the same
// relative order as the input. The input is never mutated.
func Filter(records []Expense, q Query) []Expense {
	out := make([]Expense, 0, len(records))
	for _, e := range records {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
