// Package enrich attaches derived classification fields to loaded records.
//
// Classifications are computed against the complete dataset passed to Enrich.
// Callers must enrich the full table once and filter afterwards; enriching a
// filtered subset would shift customers between value segments.
package enrich

import (
	"time"

	"esales-dashboard/internal/models"
)

const (
	minAge = 0
	maxAge = 100
)

// Enrich returns a new slice of enriched records. The input is not modified.
func Enrich(records []models.Record) []models.EnrichedRecord {
	spend := LifetimeSpend(records)

	out := make([]models.EnrichedRecord, len(records))
	for i, rec := range records {
		e := models.EnrichedRecord{Record: rec}
		attachDateParts(&e, rec.PurchaseDate)
		e.AgeGroup = AgeGroupFor(rec.Age)
		if rec.CustomerID != "" {
			e.ValueSegment = ValueSegmentFor(spend[rec.CustomerID])
		}
		out[i] = e
	}
	return out
}

// LifetimeSpend sums total_price per customer over every record regardless
// of order status. Segmentation is status-agnostic, unlike revenue KPIs.
func LifetimeSpend(records []models.Record) map[string]float64 {
	spend := make(map[string]float64)
	for _, rec := range records {
		if rec.CustomerID == "" {
			continue
		}
		spend[rec.CustomerID] += rec.TotalPrice
	}
	return spend
}

func attachDateParts(e *models.EnrichedRecord, t time.Time) {
	if t.IsZero() {
		return
	}
	e.Year = t.Year()
	e.Month = int(t.Month())
	e.MonthName = t.Month().String()
	e.DayName = t.Weekday().String()
	e.Quarter = (e.Month-1)/3 + 1
	e.Season = SeasonFor(t.Month())
}

// AgeGroupFor bins ages into [0,25], (25,35], (35,45], (45,55], (55,100].
// Absent or out-of-range ages are unclassified.
func AgeGroupFor(age models.NullFloat) models.AgeGroup {
	if !age.Valid || age.Value < minAge || age.Value > maxAge {
		return models.AgeUnclassified
	}
	switch a := age.Value; {
	case a <= 25:
		return models.Age18To24
	case a <= 35:
		return models.Age25To34
	case a <= 45:
		return models.Age35To44
	case a <= 55:
		return models.Age45To54
	default:
		return models.Age55Plus
	}
}

func SeasonFor(m time.Month) models.Season {
	switch m {
	case time.December, time.January, time.February:
		return models.Winter
	case time.March, time.April, time.May:
		return models.Spring
	case time.June, time.July, time.August:
		return models.Summer
	case time.September, time.October, time.November:
		return models.Fall
	}
	return models.SeasonUnclassified
}

// ValueSegmentFor bins lifetime spend into [0,500), [500,2000),
// [2000,5000), [5000,+inf). Negative spend is unclassified.
func ValueSegmentFor(spend float64) models.ValueSegment {
	switch {
	case spend < 0:
		return models.SegmentUnclassified
	case spend < 500:
		return models.SegmentLow
	case spend < 2000:
		return models.SegmentRegular
	case spend < 5000:
		return models.SegmentMedium
	default:
		return models.SegmentHigh
	}
}
