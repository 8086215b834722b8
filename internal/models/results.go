package models

import "time"

type KPIBlock struct {
	TotalRevenue    float64   `json:"total_revenue"`
	TotalOrders     int       `json:"total_orders"`
	UniqueCustomers int       `json:"unique_customers"`
	AvgOrderValue   NullFloat `json:"avg_order_value"`
	CompletionRate  NullFloat `json:"completion_rate"`
}

type SummaryRow struct {
	Key           string    `json:"key"`
	ProductType   string    `json:"product_type,omitempty"`
	Revenue       float64   `json:"total_revenue"`
	AvgOrderValue NullFloat `json:"avg_order_value"`
	Orders        int       `json:"order_count"`
	AvgRating     NullFloat `json:"avg_rating"`
	UnitsSold     int       `json:"units_sold"`
}

type CountRow struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type TimePoint struct {
	Period        string    `json:"period"`
	Revenue       float64   `json:"revenue"`
	Orders        int       `json:"orders"`
	AvgOrderValue NullFloat `json:"avg_order_value"`
}

type LoyaltyRow struct {
	LoyaltyMember bool      `json:"loyalty_member"`
	Orders        int       `json:"orders"`
	AvgTotalPrice NullFloat `json:"avg_total_price"`
	AvgAddOnTotal NullFloat `json:"avg_add_on_total"`
	AvgRating     NullFloat `json:"avg_rating"`
}

type AddOnRow struct {
	ProductType    string    `json:"product_type"`
	AvgAddOnValue  NullFloat `json:"avg_add_on_value"`
	AttachmentRate NullFloat `json:"attachment_rate"`
}

type Heatmap struct {
	ProductTypes []string    `json:"product_types"`
	Months       []string    `json:"months"`
	Revenue      [][]float64 `json:"revenue"`
}

type CustomerMetrics struct {
	CustomerID    string    `json:"customer_id"`
	TotalSpent    float64   `json:"total_spent"`
	AvgOrderValue float64   `json:"avg_order_value"`
	OrderCount    int       `json:"order_count"`
	FirstPurchase time.Time `json:"first_purchase"`
	LastPurchase  time.Time `json:"last_purchase"`
	LifespanDays  int       `json:"lifespan_days"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type CLVResult struct {
	Customers         int               `json:"customers"`
	AvgOrderValue     NullFloat         `json:"avg_order_value"`
	PurchaseFrequency NullFloat         `json:"avg_purchase_frequency"`
	LifespanYears     NullFloat         `json:"avg_lifespan_years"`
	CLV               NullFloat         `json:"clv"`
	PerCustomer       []CustomerMetrics `json:"per_customer"`
	Distribution      []HistogramBin    `json:"distribution"`
}

type ProfitRow struct {
	ProductType   string    `json:"product_type"`
	Revenue       float64   `json:"revenue"`
	UnitsSold     int       `json:"units_sold"`
	EstimatedCost float64   `json:"estimated_cost"`
	GrossProfit   float64   `json:"gross_profit"`
	MarginPct     NullFloat `json:"profit_margin"`
}

type ConversionRow struct {
	ProductType     string    `json:"product_type"`
	CompletedOrders int       `json:"completed_orders"`
	TotalOrders     int       `json:"total_orders"`
	ConversionRate  NullFloat `json:"conversion_rate"`
}

type MultiplierRow struct {
	Season      Season    `json:"season"`
	Multiplier  NullFloat `json:"multiplier"`
	Performance string    `json:"performance"`
}

// CalculatorResult holds the output of exactly one calculator; the other
// fields stay nil.
type CalculatorResult struct {
	Kind          string          `json:"kind"`
	CostRatio     float64         `json:"cost_ratio,omitempty"`
	CLV           *CLVResult      `json:"clv,omitempty"`
	Profitability []ProfitRow     `json:"profitability"`
	Conversion    []ConversionRow `json:"conversion"`
	Multipliers   []MultiplierRow `json:"multipliers"`
}

type FilterOptions struct {
	Statuses       []string   `json:"statuses"`
	ProductTypes   []string   `json:"product_types"`
	PaymentMethods []string   `json:"payment_methods"`
	MinDate        *time.Time `json:"min_date,omitempty"`
	MaxDate        *time.Time `json:"max_date,omitempty"`
}
