package aggregate

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"esales-dashboard/internal/models"
)

// CalculatorKind names one of the business-model calculators.
type CalculatorKind string

const (
	CalcCLV                CalculatorKind = "clv"
	CalcProfitability      CalculatorKind = "profitability"
	CalcConversionRate     CalculatorKind = "conversion_rate"
	CalcSeasonalMultiplier CalculatorKind = "seasonal_multiplier"
)

// CalculatorKinds lists every kind Calculate accepts.
var CalculatorKinds = []CalculatorKind{CalcCLV, CalcProfitability, CalcConversionRate, CalcSeasonalMultiplier}

const (
	DefaultCostRatio = 0.60
	MinCostRatio     = 0.40
	MaxCostRatio     = 0.80

	clvHistogramBins = 30
	daysPerYear      = 365
)

var (
	ErrUnknownCalculator   = errors.New("unknown calculator")
	ErrCostRatioOutOfRange = fmt.Errorf("cost ratio must be between %.2f and %.2f", MinCostRatio, MaxCostRatio)
)

// ParseCalculatorKind maps user input onto a kind. Hyphens and case are
// tolerated so "Conversion-Rate" resolves to CalcConversionRate.
func ParseCalculatorKind(s string) (CalculatorKind, error) {
	k := CalculatorKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if slices.Contains(CalculatorKinds, k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCalculator, s)
}

// CalculatorRequest selects a calculator. CostRatio only applies to
// profitability; zero means DefaultCostRatio.
type CalculatorRequest struct {
	Kind      CalculatorKind
	CostRatio float64
}

// Calculate dispatches req over records.
func Calculate(records []models.EnrichedRecord, req CalculatorRequest) (models.CalculatorResult, error) {
	res := models.CalculatorResult{Kind: string(req.Kind)}

	switch req.Kind {
	case CalcCLV:
		clv := CLV(records)
		res.CLV = &clv
	case CalcProfitability:
		ratio := req.CostRatio
		if ratio == 0 {
			ratio = DefaultCostRatio
		}
		rows, err := Profitability(records, ratio)
		if err != nil {
			return models.CalculatorResult{}, err
		}
		res.CostRatio = ratio
		res.Profitability = rows
	case CalcConversionRate:
		res.Conversion = ConversionRates(records)
	case CalcSeasonalMultiplier:
		res.Multipliers = SeasonalMultipliers(records)
	default:
		return models.CalculatorResult{}, fmt.Errorf("%w: %q", ErrUnknownCalculator, req.Kind)
	}
	return res, nil
}

// CustomerMetrics rolls completed orders up per customer. Span is the number
// of whole days between first and last purchase; undated orders count toward
// spend but not toward the span.
func CustomerMetrics(records []models.EnrichedRecord) []models.CustomerMetrics {
	byID := make(map[string]*models.CustomerMetrics)

	for _, rec := range records {
		if !rec.Completed() || rec.CustomerID == "" {
			continue
		}
		c := byID[rec.CustomerID]
		if c == nil {
			c = &models.CustomerMetrics{CustomerID: rec.CustomerID}
			byID[rec.CustomerID] = c
		}
		c.TotalSpent += rec.TotalPrice
		c.OrderCount++
		if d := rec.PurchaseDate; !d.IsZero() {
			if c.FirstPurchase.IsZero() || d.Before(c.FirstPurchase) {
				c.FirstPurchase = d
			}
			if d.After(c.LastPurchase) {
				c.LastPurchase = d
			}
		}
	}

	out := make([]models.CustomerMetrics, 0, len(byID))
	for _, c := range byID {
		c.AvgOrderValue = c.TotalSpent / float64(c.OrderCount)
		if !c.FirstPurchase.IsZero() {
			c.LifespanDays = int(c.LastPurchase.Sub(c.FirstPurchase).Hours() / 24)
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b models.CustomerMetrics) int {
		return byValueDesc(a.TotalSpent, b.TotalSpent, a.CustomerID, b.CustomerID)
	})
	return out
}

// CLV estimates population lifetime value as A × F × L where A is the mean
// per-customer order value, F the mean order count and L the mean span in
// years, all over completed orders.
func CLV(records []models.EnrichedRecord) models.CLVResult {
	customers := CustomerMetrics(records)

	var aov, freq, span mean
	spend := make([]float64, len(customers))
	for i, c := range customers {
		aov.add(c.AvgOrderValue)
		freq.add(float64(c.OrderCount))
		span.add(float64(c.LifespanDays))
		spend[i] = c.TotalSpent
	}

	res := models.CLVResult{
		Customers:         len(customers),
		AvgOrderValue:     aov.value(),
		PurchaseFrequency: freq.value(),
		LifespanYears:     models.NoData(),
		CLV:               models.NoData(),
		PerCustomer:       customers,
		Distribution:      Histogram(spend, clvHistogramBins),
	}
	if span.n > 0 {
		years := span.sum / float64(span.n) / daysPerYear
		res.LifespanYears = models.Float(years)
		res.CLV = models.Float(res.AvgOrderValue.Value * res.PurchaseFrequency.Value * years)
	}
	return res
}

// Histogram splits values into bins equal-width buckets between their min
// and max. The last bucket is closed. When every value is equal a single
// bucket holds them all.
func Histogram(values []float64, bins int) []models.HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return []models.HistogramBin{}
	}
	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		i := min(int((v-lo)/width), bins-1)
		out[i].Count++
	}
	return out
}

// Profitability estimates cost as a fixed share of completed revenue per
// product type.
func Profitability(records []models.EnrichedRecord, costRatio float64) ([]models.ProfitRow, error) {
	if costRatio < MinCostRatio || costRatio > MaxCostRatio {
		return nil, fmt.Errorf("%w: got %.2f", ErrCostRatioOutOfRange, costRatio)
	}

	groups := make(map[string]*models.ProfitRow)
	for _, rec := range records {
		if !rec.Completed() || rec.ProductType == "" {
			continue
		}
		row := groups[rec.ProductType]
		if row == nil {
			row = &models.ProfitRow{ProductType: rec.ProductType}
			groups[rec.ProductType] = row
		}
		row.Revenue += rec.TotalPrice
		row.UnitsSold += rec.Quantity
	}

	rows := make([]models.ProfitRow, 0, len(groups))
	for _, row := range groups {
		row.EstimatedCost = row.Revenue * costRatio
		row.GrossProfit = row.Revenue - row.EstimatedCost
		row.MarginPct = models.Ratio(row.GrossProfit*100, row.Revenue)
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b models.ProfitRow) int {
		return cmp.Compare(a.ProductType, b.ProductType)
	})
	return rows, nil
}

// ConversionRates reports the completed share of orders per product type
// across every status.
func ConversionRates(records []models.EnrichedRecord) []models.ConversionRow {
	groups := make(map[string]*models.ConversionRow)
	for _, rec := range records {
		if rec.ProductType == "" {
			continue
		}
		row := groups[rec.ProductType]
		if row == nil {
			row = &models.ConversionRow{ProductType: rec.ProductType}
			groups[rec.ProductType] = row
		}
		row.TotalOrders++
		if rec.Completed() {
			row.CompletedOrders++
		}
	}

	rows := make([]models.ConversionRow, 0, len(groups))
	for _, row := range groups {
		row.ConversionRate = percent(row.CompletedOrders, row.TotalOrders)
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b models.ConversionRow) int {
		return cmp.Compare(a.ProductType, b.ProductType)
	})
	return rows
}

const (
	AboveAverage = "Above Average"
	BelowAverage = "Below Average"
	NoDataLabel  = "No Data"
)

// SeasonalMultipliers divides each season's mean completed order value by
// the overall mean. Every season is listed; one without orders reports no
// data.
func SeasonalMultipliers(records []models.EnrichedRecord) []models.MultiplierRow {
	var overall mean
	bySeason := make(map[models.Season]*mean)
	for _, rec := range records {
		if !rec.Completed() {
			continue
		}
		overall.add(rec.TotalPrice)
		if rec.Season == models.SeasonUnclassified {
			continue
		}
		m := bySeason[rec.Season]
		if m == nil {
			m = &mean{}
			bySeason[rec.Season] = m
		}
		m.add(rec.TotalPrice)
	}

	base := overall.value()
	rows := make([]models.MultiplierRow, 0, len(models.Seasons))
	for _, s := range models.Seasons {
		row := models.MultiplierRow{Season: s, Multiplier: models.NoData(), Performance: NoDataLabel}
		if m := bySeason[s]; m != nil && base.Valid {
			row.Multiplier = models.Ratio(m.value().Value, base.Value)
			row.Performance = MultiplierLabel(row.Multiplier)
		}
		rows = append(rows, row)
	}
	return rows
}

// MultiplierLabel classifies a multiplier against the 1.0 baseline.
func MultiplierLabel(m models.NullFloat) string {
	switch {
	case !m.Valid:
		return NoDataLabel
	case m.Value > 1.0:
		return AboveAverage
	default:
		return BelowAverage
	}
}
