package aggregate

import (
	"slices"
	"time"

	"esales-dashboard/internal/models"
)

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type seriesAcc map[string]*mean

// add folds a completed record into the bucket for key; records that are not
// completed or have no key are skipped.
func (s seriesAcc) add(rec models.EnrichedRecord, key string) {
	if !rec.Completed() || key == "" {
		return
	}
	m := s[key]
	if m == nil {
		m = &mean{}
		s[key] = m
	}
	m.add(rec.TotalPrice)
}

func (s seriesAcc) points(order []string) []models.TimePoint {
	points := make([]models.TimePoint, 0, len(s))
	for _, k := range order {
		m, ok := s[k]
		if !ok {
			continue
		}
		points = append(points, models.TimePoint{
			Period:        k,
			Revenue:       m.sum,
			Orders:        m.n,
			AvgOrderValue: m.value(),
		})
	}
	return points
}

func (s seriesAcc) sortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func formatPeriod(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// MonthlyRevenue rolls completed revenue up by calendar month (YYYY-MM),
// oldest first.
func MonthlyRevenue(records []models.EnrichedRecord) []models.TimePoint {
	acc := seriesAcc{}
	for _, rec := range records {
		acc.add(rec, formatPeriod(rec.PurchaseDate, "2006-01"))
	}
	return acc.points(acc.sortedKeys())
}

// DailyRevenue rolls completed revenue up by calendar date (YYYY-MM-DD),
// oldest first.
func DailyRevenue(records []models.EnrichedRecord) []models.TimePoint {
	acc := seriesAcc{}
	for _, rec := range records {
		acc.add(rec, formatPeriod(rec.PurchaseDate, "2006-01-02"))
	}
	return acc.points(acc.sortedKeys())
}

// SeasonalRevenue rolls completed revenue up by season in the order
// Winter, Spring, Summer, Fall. Seasons without orders are omitted.
func SeasonalRevenue(records []models.EnrichedRecord) []models.TimePoint {
	acc := seriesAcc{}
	for _, rec := range records {
		acc.add(rec, string(rec.Season))
	}
	order := make([]string, len(models.Seasons))
	for i, s := range models.Seasons {
		order[i] = string(s)
	}
	return acc.points(order)
}

// WeekdayRevenue rolls completed revenue up by day of week, Monday first.
// AvgOrderValue on each point is the mean order value for that weekday.
func WeekdayRevenue(records []models.EnrichedRecord) []models.TimePoint {
	acc := seriesAcc{}
	for _, rec := range records {
		acc.add(rec, rec.DayName)
	}
	return acc.points(weekdayOrder)
}
