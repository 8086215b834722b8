package aggregate

import "esales-dashboard/internal/models"

// KPIs computes the headline block. Revenue and average order value use
// completed records; order count, customer count and completion rate use all.
// Completion rate is a percentage and is no data for an empty set.
func KPIs(records []models.EnrichedRecord) models.KPIBlock {
	customers := make(map[string]struct{})
	var completed int
	var revenue float64

	for _, rec := range records {
		if rec.CustomerID != "" {
			customers[rec.CustomerID] = struct{}{}
		}
		if rec.Completed() {
			completed++
			revenue += rec.TotalPrice
		}
	}

	return models.KPIBlock{
		TotalRevenue:    revenue,
		TotalOrders:     len(records),
		UniqueCustomers: len(customers),
		AvgOrderValue:   models.Ratio(revenue, float64(completed)),
		CompletionRate:  percent(completed, len(records)),
	}
}
