package core

import (
	"fmt"
	"sort"
)

// CategorySummary is one row of the per-category aggregation.
type CategorySummary struct {
	Category string `json:"category"`
	Total    Money  `json:"totalAmount"`
	Count    int    `json:"count"`
}

// RangeSummary is the result of a date-range aggregation.
type RangeSummary struct {
	Total        Money `json:"totalAmount"`
	AverageDaily Money `json:"averageDaily"`
	DaysCount    int   `json:"daysCount"`
}

// SummaryByCategory groups records by category name, summing amounts and
// counting records per group. Rows are sorted by descending total; ties
// keep first-encountered category order.
func SummaryByCategory(records []Expense) []CategorySummary {
	index := make(map[string]int)
	var rows []CategorySummary
	for _, e := range records {
		i, ok := index[e.Category]
		if !ok {
			i = len(rows)
			index[e.Category] = i
			rows = append(rows, CategorySummary{Category: e.Category})
		}
		rows[i].Total.Cents += e.Amount.Cents
		rows[i].Count++
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.Cents > rows[j].Total.Cents
	})
	return rows
}

// AverageDaily sums the amounts of records dated within [start, end]
// inclusive and divides by the inclusive day count. The average is
// rounded half-up to cent precision. Fails with ErrInvalidRange when
// either date is zero or start is after end.
func AverageDaily(records []Expense, start, end Date) (RangeSummary, error) {
	if start.IsZero() || end.IsZero() {
		return RangeSummary{}, fmt.Errorf("%w: both startDate and endDate are required", ErrInvalidRange)
	}
	if start.After(end.Time) {
		return RangeSummary{}, fmt.Errorf("%w: startDate %s is after endDate %s", ErrInvalidRange, start, end)
	}

	days := int(end.Sub(start.Time).Hours()/24) + 1

	var total int64
	for _, e := range records {
		if e.Date.Before(start.Time) || e.Date.After(end.Time) {
			continue
		}
		total += e.Amount.Cents
	}

	return RangeSummary{
		Total:        Money{Cents: total},
		AverageDaily: Money{Cents: divideHalfUp(total, int64(days))},
		DaysCount:    days,
	}, nil
}

// divideHalfUp divides cents by a positive divisor with half-up rounding.
func divideHalfUp(cents, by int64) int64 {
	if by <= 0 {
		return 0
	}
	neg := cents < 0
	if neg {
		cents = -cents
	}
	q := (cents + by/2) / by
	if neg {
		return -q
	}
	return q
}
