// Package export writes filtered record sets as CSV for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"esales-dashboard/internal/loader"
	"esales-dashboard/internal/models"
)

// Derived columns appended after the canonical schema.
const (
	ColYear         = "year"
	ColMonth        = "month"
	ColMonthName    = "month_name"
	ColDayName      = "day_name"
	ColQuarter      = "quarter"
	ColAgeGroup     = "age_group"
	ColSeason       = "season"
	ColValueSegment = "value_segment"
)

var derivedColumns = []string{
	ColYear, ColMonth, ColMonthName, ColDayName, ColQuarter,
	ColAgeGroup, ColSeason, ColValueSegment,
}

const ContentType = "text/csv; charset=utf-8"

// Header returns the full export header.
func Header() []string {
	return append(loader.ColumnNames(), derivedColumns...)
}

// FileName returns the download name for an export taken at t.
func FileName(t time.Time) string {
	return "electronic_sales_filtered_" + t.Format("20060102_150405") + ".csv"
}

// WriteCSV writes records in input order. The canonical columns read back
// through loader.ReadCSV to the same records.
func WriteCSV(w io.Writer, records []models.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, 0, len(loader.Columns)+len(derivedColumns))
	for i, rec := range records {
		row = appendRow(row[:0], rec)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func appendRow(row []string, rec models.EnrichedRecord) []string {
	for _, c := range loader.Columns {
		row = append(row, canonicalValue(rec.Record, c.Name))
	}
	return append(row,
		intOrBlank(rec.Year),
		intOrBlank(rec.Month),
		rec.MonthName,
		rec.DayName,
		intOrBlank(rec.Quarter),
		string(rec.AgeGroup),
		string(rec.Season),
		string(rec.ValueSegment),
	)
}

func canonicalValue(rec models.Record, col string) string {
	switch col {
	case loader.ColCustomerID:
		return rec.CustomerID
	case loader.ColAge:
		return rec.Age.String()
	case loader.ColGender:
		return rec.Gender
	case loader.ColLoyaltyMember:
		if rec.LoyaltyMember {
			return "Yes"
		}
		return "No"
	case loader.ColProductType:
		return rec.ProductType
	case loader.ColSKU:
		return rec.SKU
	case loader.ColRating:
		return rec.Rating.String()
	case loader.ColOrderStatus:
		return rec.OrderStatus
	case loader.ColPaymentMethod:
		return rec.PaymentMethod
	case loader.ColTotalPrice:
		return formatFloat(rec.TotalPrice)
	case loader.ColUnitPrice:
		return rec.UnitPrice.String()
	case loader.ColQuantity:
		return strconv.Itoa(rec.Quantity)
	case loader.ColPurchaseDate:
		return loader.FormatTimestamp(rec.PurchaseDate)
	case loader.ColShippingType:
		return rec.ShippingType
	case loader.ColAddOnsPurchased:
		return rec.AddOnsPurchased
	case loader.ColAddOnTotal:
		return formatFloat(rec.AddOnTotal)
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func intOrBlank(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
