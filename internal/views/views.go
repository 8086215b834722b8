// Package views renders dashboard fragments as templ components. Fragments
// carry stable element IDs so Datastar can patch them in place.
package views

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"esales-dashboard/internal/models"
)

// Element IDs patched by the SSE endpoints.
const (
	KPIContentID        = "kpi-content"
	CalculatorContentID = "calculator-content"
	FlashID             = "flash"
)

const dateLayout = "2006-01-02"

// SummaryPanel names one table on the dashboard shell.
type SummaryPanel struct {
	View  string
	Title string
}

func SummaryContentID(view string) string {
	return "summary-" + view
}

// Render renders c to a string for use with PatchElements.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// sseGet is the Datastar action that streams a fragment from path.
func sseGet(path string) string {
	return "@get('" + path + "')"
}

func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac, _ := strings.Cut(whole, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func moneyOrNA(n models.NullFloat) string {
	if !n.Valid {
		return "n/a"
	}
	return money(n.Value)
}

func pctOrNA(n models.NullFloat) string {
	if !n.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(n.Value, 'f', 1, 64) + "%"
}

func numOrNA(n models.NullFloat, prec int) string {
	if !n.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(n.Value, 'f', prec, 64)
}

// table is a result flattened into display cells.
type table struct {
	headers []string
	rows    [][]string
}

// colspan spans the "no data" cell across every column.
func (t table) colspan() string {
	return strconv.Itoa(max(len(t.headers), 1))
}

// tabulate flattens a grouped view result. Unsupported data yields an
// empty table.
func tabulate(data any) table {
	switch v := data.(type) {
	case []models.SummaryRow:
		t := table{headers: []string{"Group", "Revenue", "Avg Order", "Orders", "Avg Rating", "Units"}}
		for _, r := range v {
			key := r.Key
			if r.ProductType != "" {
				key += " (" + r.ProductType + ")"
			}
			t.rows = append(t.rows, []string{key, money(r.Revenue), moneyOrNA(r.AvgOrderValue),
				strconv.Itoa(r.Orders), numOrNA(r.AvgRating, 2), strconv.Itoa(r.UnitsSold)})
		}
		return t
	case []models.CountRow:
		t := table{headers: []string{"Value", "Count"}}
		for _, r := range v {
			t.rows = append(t.rows, []string{r.Key, strconv.Itoa(r.Count)})
		}
		return t
	case []models.TimePoint:
		t := table{headers: []string{"Period", "Revenue", "Orders", "Avg Order"}}
		for _, r := range v {
			t.rows = append(t.rows, []string{r.Period, money(r.Revenue), strconv.Itoa(r.Orders), moneyOrNA(r.AvgOrderValue)})
		}
		return t
	case []models.LoyaltyRow:
		t := table{headers: []string{"Loyalty Member", "Orders", "Avg Total", "Avg Add-on", "Avg Rating"}}
		for _, r := range v {
			member := "No"
			if r.LoyaltyMember {
				member = "Yes"
			}
			t.rows = append(t.rows, []string{member, strconv.Itoa(r.Orders), moneyOrNA(r.AvgTotalPrice),
				moneyOrNA(r.AvgAddOnTotal), numOrNA(r.AvgRating, 2)})
		}
		return t
	case []models.AddOnRow:
		t := table{headers: []string{"Product Type", "Avg Add-on", "Attachment Rate"}}
		for _, r := range v {
			t.rows = append(t.rows, []string{r.ProductType, moneyOrNA(r.AvgAddOnValue), pctOrNA(r.AttachmentRate)})
		}
		return t
	case []models.ProfitRow:
		t := table{headers: []string{"Product Type", "Revenue", "Est. Cost", "Gross Profit", "Margin"}}
		for _, r := range v {
			t.rows = append(t.rows, []string{r.ProductType, money(r.Revenue), money(r.EstimatedCost),
				money(r.GrossProfit), pctOrNA(r.MarginPct)})
		}
		return t
	case []models.ConversionRow:
		t := table{headers: []string{"Product Type", "Completed", "Total", "Conversion"}}
		for _, r := range v {
			t.rows = append(t.rows, []string{r.ProductType, strconv.Itoa(r.CompletedOrders),
				strconv.Itoa(r.TotalOrders), pctOrNA(r.ConversionRate)})
		}
		return t
	case []models.MultiplierRow:
		t := table{headers: []string{"Season", "Multiplier", "Performance"}}
		for _, r := range v {
			t.rows = append(t.rows, []string{string(r.Season), numOrNA(r.Multiplier, 2), r.Performance})
		}
		return t
	}
	return table{}
}
