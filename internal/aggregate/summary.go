package aggregate

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"esales-dashboard/internal/models"
)

// Dimension is a categorical grouping key.
type Dimension string

const (
	ByProductType   Dimension = "product_type"
	BySKU           Dimension = "sku"
	ByShippingType  Dimension = "shipping_type"
	ByValueSegment  Dimension = "value_segment"
	ByLoyalty       Dimension = "loyalty_member"
	ByCustomer      Dimension = "customer_id"
	ByOrderStatus   Dimension = "order_status"
	ByPaymentMethod Dimension = "payment_method"
	ByGender        Dimension = "gender"
	ByAgeGroup      Dimension = "age_group"
	BySeason        Dimension = "season"
)

// Key returns the grouping value of rec. Empty and unclassified values
// report false and are left out of every grouped view.
func (d Dimension) Key(rec models.EnrichedRecord) (string, bool) {
	var v string
	switch d {
	case ByProductType:
		v = rec.ProductType
	case BySKU:
		v = rec.SKU
	case ByShippingType:
		v = rec.ShippingType
	case ByValueSegment:
		v = string(rec.ValueSegment)
	case ByLoyalty:
		v = loyaltyLabel(rec.LoyaltyMember)
	case ByCustomer:
		v = rec.CustomerID
	case ByOrderStatus:
		v = rec.OrderStatus
	case ByPaymentMethod:
		v = rec.PaymentMethod
	case ByGender:
		v = rec.Gender
	case ByAgeGroup:
		v = string(rec.AgeGroup)
	case BySeason:
		v = string(rec.Season)
	}
	return v, v != ""
}

func loyaltyLabel(member bool) string {
	if member {
		return "Yes"
	}
	return "No"
}

type summaryAcc struct {
	row    models.SummaryRow
	price  mean
	rating mean
}

// Summarize groups records in scope by dim. Per group it reports revenue
// (sum of total price), mean order value, order count, mean rating over rated
// records and units sold. Rows are sorted by revenue descending.
// SKU groups are keyed by SKU and product type together.
func Summarize(records []models.EnrichedRecord, dim Dimension, scope Scope) []models.SummaryRow {
	groups := make(map[string]*summaryAcc)

	for _, rec := range records {
		if !scope.includes(rec) {
			continue
		}
		key, ok := dim.Key(rec)
		if !ok {
			continue
		}
		gk := key
		if dim == BySKU {
			gk = key + "\x00" + rec.ProductType
		}

		acc := groups[gk]
		if acc == nil {
			acc = &summaryAcc{row: models.SummaryRow{Key: key}}
			if dim == BySKU {
				acc.row.ProductType = rec.ProductType
			}
			groups[gk] = acc
		}
		acc.price.add(rec.TotalPrice)
		acc.row.UnitsSold += rec.Quantity
		if rec.Rating.Valid {
			acc.rating.add(rec.Rating.Value)
		}
	}

	rows := make([]models.SummaryRow, 0, len(groups))
	for _, acc := range groups {
		row := acc.row
		row.Revenue = acc.price.sum
		row.Orders = acc.price.n
		row.AvgOrderValue = acc.price.value()
		row.AvgRating = acc.rating.value()
		rows = append(rows, row)
	}
	slices.SortFunc(rows, func(a, b models.SummaryRow) int {
		if c := byValueDesc(a.Revenue, b.Revenue, a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductType, b.ProductType)
	})
	return rows
}

// ProductPerformance summarizes every order by product type, any status.
func ProductPerformance(records []models.EnrichedRecord) []models.SummaryRow {
	return Summarize(records, ByProductType, AllStatuses)
}

func RevenueByProductType(records []models.EnrichedRecord) []models.SummaryRow {
	return Summarize(records, ByProductType, CompletedOnly)
}

func SKUPerformance(records []models.EnrichedRecord, limit int) []models.SummaryRow {
	return head(Summarize(records, BySKU, CompletedOnly), limit)
}

func ShippingRevenue(records []models.EnrichedRecord) []models.SummaryRow {
	return Summarize(records, ByShippingType, CompletedOnly)
}

func SegmentRevenue(records []models.EnrichedRecord) []models.SummaryRow {
	return Summarize(records, ByValueSegment, CompletedOnly)
}

func TopCustomers(records []models.EnrichedRecord, limit int) []models.SummaryRow {
	return head(Summarize(records, ByCustomer, CompletedOnly), limit)
}

func head[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// Distribution counts records of any status per value of dim, most
// frequent first.
func Distribution(records []models.EnrichedRecord, dim Dimension) []models.CountRow {
	counts := make(map[string]int)
	for _, rec := range records {
		if key, ok := dim.Key(rec); ok {
			counts[key]++
		}
	}

	rows := make([]models.CountRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, models.CountRow{Key: k, Count: n})
	}
	slices.SortFunc(rows, func(a, b models.CountRow) int {
		return byValueDesc(a.Count, b.Count, a.Key, b.Key)
	})
	return rows
}

// RatingDistribution counts rated records per rating value, ascending by
// rating. Records without a rating are dropped.
func RatingDistribution(records []models.EnrichedRecord) []models.CountRow {
	counts := make(map[float64]int)
	for _, rec := range records {
		if rec.Rating.Valid {
			counts[rec.Rating.Value]++
		}
	}

	ratings := make([]float64, 0, len(counts))
	for r := range counts {
		ratings = append(ratings, r)
	}
	slices.Sort(ratings)

	rows := make([]models.CountRow, len(ratings))
	for i, r := range ratings {
		rows[i] = models.CountRow{Key: strconv.FormatFloat(r, 'f', -1, 64), Count: counts[r]}
	}
	return rows
}

// LoyaltyAnalysis compares members with non-members over all statuses:
// mean total price, mean add-on total and mean rating. Non-members first.
func LoyaltyAnalysis(records []models.EnrichedRecord) []models.LoyaltyRow {
	type acc struct {
		price, addOn, rating mean
	}
	var groups [2]*acc

	for _, rec := range records {
		i := 0
		if rec.LoyaltyMember {
			i = 1
		}
		if groups[i] == nil {
			groups[i] = &acc{}
		}
		g := groups[i]
		g.price.add(rec.TotalPrice)
		g.addOn.add(rec.AddOnTotal)
		if rec.Rating.Valid {
			g.rating.add(rec.Rating.Value)
		}
	}

	var rows []models.LoyaltyRow
	for i, g := range groups {
		if g == nil {
			continue
		}
		rows = append(rows, models.LoyaltyRow{
			LoyaltyMember: i == 1,
			Orders:        g.price.n,
			AvgTotalPrice: g.price.value(),
			AvgAddOnTotal: g.addOn.value(),
			AvgRating:     g.rating.value(),
		})
	}
	return rows
}

// AddOnAnalysis reports, per product type over all statuses, the mean add-on
// total and the attachment rate: the percentage of orders with any add-on.
func AddOnAnalysis(records []models.EnrichedRecord) []models.AddOnRow {
	type acc struct {
		addOn    mean
		attached int
	}
	groups := make(map[string]*acc)

	for _, rec := range records {
		if rec.ProductType == "" {
			continue
		}
		g := groups[rec.ProductType]
		if g == nil {
			g = &acc{}
			groups[rec.ProductType] = g
		}
		g.addOn.add(rec.AddOnTotal)
		if rec.AddOnTotal > 0 {
			g.attached++
		}
	}

	rows := make([]models.AddOnRow, 0, len(groups))
	for pt, g := range groups {
		rows = append(rows, models.AddOnRow{
			ProductType:    pt,
			AvgAddOnValue:  g.addOn.value(),
			AttachmentRate: percent(g.attached, g.addOn.n),
		})
	}
	slices.SortFunc(rows, func(a, b models.AddOnRow) int {
		return cmp.Compare(a.ProductType, b.ProductType)
	})
	return rows
}

// RevenueHeatmap pivots completed revenue by product type (rows,
// alphabetical) and month name (columns, calendar order). Missing cells are 0.
func RevenueHeatmap(records []models.EnrichedRecord) models.Heatmap {
	cells := make(map[string]*[12]float64)
	var present [12]bool

	for _, rec := range records {
		if !rec.Completed() || rec.ProductType == "" || rec.Month == 0 {
			continue
		}
		row := cells[rec.ProductType]
		if row == nil {
			row = new([12]float64)
			cells[rec.ProductType] = row
		}
		row[rec.Month-1] += rec.TotalPrice
		present[rec.Month-1] = true
	}

	hm := models.Heatmap{
		ProductTypes: make([]string, 0, len(cells)),
		Months:       []string{},
		Revenue:      [][]float64{},
	}
	var months []int
	for m, ok := range present {
		if ok {
			months = append(months, m)
			hm.Months = append(hm.Months, time.Month(m+1).String())
		}
	}
	for pt := range cells {
		hm.ProductTypes = append(hm.ProductTypes, pt)
	}
	slices.Sort(hm.ProductTypes)

	for _, pt := range hm.ProductTypes {
		row := make([]float64, len(months))
		for j, m := range months {
			row[j] = cells[pt][m]
		}
		hm.Revenue = append(hm.Revenue, row)
	}
	return hm
}
