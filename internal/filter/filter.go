package filter

import (
	"errors"
	"slices"
	"time"

	"esales-dashboard/internal/models"
)

var ErrInvalidDateRange = errors.New("start date is after end date")

// Selection is a set-membership constraint. The zero value places no
// constraint; Only() with no values matches nothing.
type Selection struct {
	values     map[string]struct{}
	restricted bool
}

func All() Selection {
	return Selection{}
}

func Only(values ...string) Selection {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return Selection{values: set, restricted: true}
}

func (s Selection) Restricted() bool { return s.restricted }

func (s Selection) Matches(value string) bool {
	if !s.restricted {
		return true
	}
	_, ok := s.values[value]
	return ok
}

// Values returns the selected values sorted, or nil when unrestricted.
func (s Selection) Values() []string {
	if !s.restricted {
		return nil
	}
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Criteria are AND-combined. Start and End bound the purchase date
// inclusively and compare calendar dates only.
type Criteria struct {
	Start          *time.Time
	End            *time.Time
	Statuses       Selection
	ProductTypes   Selection
	PaymentMethods Selection
}

func (c Criteria) Validate() error {
	if c.Start != nil && c.End != nil && dateOnly(*c.Start).After(dateOnly(*c.End)) {
		return ErrInvalidDateRange
	}
	return nil
}

// Apply returns the matching records in input order. Derived fields are
// copied untouched; the input slice is never modified.
func Apply(records []models.EnrichedRecord, c Criteria) []models.EnrichedRecord {
	out := make([]models.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		if c.match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (c Criteria) match(rec models.EnrichedRecord) bool {
	if c.Start != nil || c.End != nil {
		if rec.PurchaseDate.IsZero() {
			return false
		}
		day := dateOnly(rec.PurchaseDate)
		if c.Start != nil && day.Before(dateOnly(*c.Start)) {
			return false
		}
		if c.End != nil && day.After(dateOnly(*c.End)) {
			return false
		}
	}
	return c.Statuses.Matches(rec.OrderStatus) &&
		c.ProductTypes.Matches(rec.ProductType) &&
		c.PaymentMethods.Matches(rec.PaymentMethod)
}

// dateOnly drops the clock while keeping the wall-clock calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Options lists the selectable values for each set constraint and the
// purchase date bounds of records.
func Options(records []models.EnrichedRecord) models.FilterOptions {
	statuses := map[string]struct{}{}
	products := map[string]struct{}{}
	payments := map[string]struct{}{}
	var minDate, maxDate time.Time

	for _, rec := range records {
		statuses[rec.OrderStatus] = struct{}{}
		products[rec.ProductType] = struct{}{}
		payments[rec.PaymentMethod] = struct{}{}
		if d := rec.PurchaseDate; !d.IsZero() {
			if minDate.IsZero() || d.Before(minDate) {
				minDate = d
			}
			if maxDate.IsZero() || d.After(maxDate) {
				maxDate = d
			}
		}
	}

	opts := models.FilterOptions{
		Statuses:       sortedKeys(statuses),
		ProductTypes:   sortedKeys(products),
		PaymentMethods: sortedKeys(payments),
	}
	if !minDate.IsZero() {
		lo, hi := dateOnly(minDate), dateOnly(maxDate)
		opts.MinDate, opts.MaxDate = &lo, &hi
	}
	return opts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
