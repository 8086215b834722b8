// Package aggregate computes the named analytical views over a record set.
//
// Every function is pure: it reads the records it is given and returns new
// values. Unless a function says otherwise, revenue and order-value figures
// only count records whose status is Completed, while order counts and rates
// use every record passed in. Means and ratios over empty groups are reported
// as models.NoData rather than zero.
package aggregate

import (
	"cmp"

	"esales-dashboard/internal/models"
)

// Scope selects which order statuses a grouped view includes.
type Scope int

const (
	CompletedOnly Scope = iota
	AllStatuses
)

func (s Scope) includes(rec models.EnrichedRecord) bool {
	return s == AllStatuses || rec.Completed()
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m mean) value() models.NullFloat {
	return models.Ratio(m.sum, float64(m.n))
}

func percent(num, den int) models.NullFloat {
	if den == 0 {
		return models.NoData()
	}
	return models.Float(float64(num) / float64(den) * 100)
}

// byValueDesc orders by value descending, breaking ties by key.
func byValueDesc[V cmp.Ordered](va, vb V, ka, kb string) int {
	if c := cmp.Compare(vb, va); c != 0 {
		return c
	}
	return cmp.Compare(ka, kb)
}
