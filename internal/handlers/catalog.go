package handlers

import (
	"esales-dashboard/internal/aggregate"
	"esales-dashboard/internal/models"
)

const (
	topCustomersLimit = 10
	topSKULimit       = 15
)

type namedView struct {
	Title   string
	Compute func([]models.EnrichedRecord) any
}

// summaryViews are the grouped tables served under /api/summary/{view}.
var summaryViews = map[string]namedView{
	"product_performance": {"Product Performance", func(r []models.EnrichedRecord) any { return aggregate.ProductPerformance(r) }},
	"product_revenue":     {"Revenue by Product Type", func(r []models.EnrichedRecord) any { return aggregate.RevenueByProductType(r) }},
	"sku":                 {"Top SKUs", func(r []models.EnrichedRecord) any { return aggregate.SKUPerformance(r, topSKULimit) }},
	"shipping":            {"Revenue by Shipping Type", func(r []models.EnrichedRecord) any { return aggregate.ShippingRevenue(r) }},
	"segment":             {"Revenue by Customer Segment", func(r []models.EnrichedRecord) any { return aggregate.SegmentRevenue(r) }},
	"top_customers":       {"Top Customers", func(r []models.EnrichedRecord) any { return aggregate.TopCustomers(r, topCustomersLimit) }},
	"loyalty":             {"Loyalty Program", func(r []models.EnrichedRecord) any { return aggregate.LoyaltyAnalysis(r) }},
	"addons":              {"Add-on Analysis", func(r []models.EnrichedRecord) any { return aggregate.AddOnAnalysis(r) }},
}

// dashboardPanels is the display order of summary tables on the shell.
var dashboardPanels = []string{
	"product_performance", "segment", "top_customers", "shipping", "loyalty", "addons",
}

var distributionViews = map[string]func([]models.EnrichedRecord) []models.CountRow{
	"order_status":   func(r []models.EnrichedRecord) []models.CountRow { return aggregate.Distribution(r, aggregate.ByOrderStatus) },
	"payment_method": func(r []models.EnrichedRecord) []models.CountRow { return aggregate.Distribution(r, aggregate.ByPaymentMethod) },
	"gender":         func(r []models.EnrichedRecord) []models.CountRow { return aggregate.Distribution(r, aggregate.ByGender) },
	"age_group":      func(r []models.EnrichedRecord) []models.CountRow { return aggregate.Distribution(r, aggregate.ByAgeGroup) },
	"value_segment":  func(r []models.EnrichedRecord) []models.CountRow { return aggregate.Distribution(r, aggregate.ByValueSegment) },
	"rating":         aggregate.RatingDistribution,
}

var timeSeriesViews = map[string]func([]models.EnrichedRecord) []models.TimePoint{
	"monthly":  aggregate.MonthlyRevenue,
	"daily":    aggregate.DailyRevenue,
	"seasonal": aggregate.SeasonalRevenue,
	"weekday":  aggregate.WeekdayRevenue,
}
