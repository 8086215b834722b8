package loader

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"esales-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// Parse types a header plus raw rows into records. Rows are parsed in
// parallel batches; output order matches input order. Any malformed cell
// fails the whole table.
func Parse(ctx context.Context, source string, header []string, rows [][]string) ([]models.Record, error) {
	cols, err := bindHeader(header)
	if err != nil {
		return nil, asLoadError(source, err)
	}

	records := make([]models.Record, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if len(rows[i]) < len(header) {
					return &DataLoadError{Row: i + 1, Err: ErrRaggedRow}
				}
				rec, err := parseRow(cols, rows[i])
				if err != nil {
					err.Row = i + 1
					return err
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, asLoadError(source, err)
	}
	return records, nil
}

func parseRow(cols columnIndex, row []string) (models.Record, *DataLoadError) {
	fail := func(col string, err error) (models.Record, *DataLoadError) {
		return models.Record{}, &DataLoadError{Column: col, Err: err}
	}

	rec := models.Record{
		CustomerID:      cols.value(row, ColCustomerID),
		SKU:             cols.value(row, ColSKU),
		ProductType:     cols.value(row, ColProductType),
		AddOnsPurchased: cols.value(row, ColAddOnsPurchased),
		PaymentMethod:   cols.value(row, ColPaymentMethod),
		OrderStatus:     cols.value(row, ColOrderStatus),
		ShippingType:    cols.value(row, ColShippingType),
		Gender:          cols.value(row, ColGender),
	}

	var err error
	if rec.Quantity, err = parseInt(cols.value(row, ColQuantity)); err != nil {
		return fail(ColQuantity, err)
	}
	if rec.TotalPrice, err = parseFloat(cols.value(row, ColTotalPrice)); err != nil {
		return fail(ColTotalPrice, err)
	}
	if rec.UnitPrice, err = parseOptionalFloat(cols.value(row, ColUnitPrice)); err != nil {
		return fail(ColUnitPrice, err)
	}
	if rec.Rating, err = parseOptionalFloat(cols.value(row, ColRating)); err != nil {
		return fail(ColRating, err)
	}
	if rec.Age, err = parseOptionalFloat(cols.value(row, ColAge)); err != nil {
		return fail(ColAge, err)
	}
	addOn, err := parseOptionalFloat(cols.value(row, ColAddOnTotal))
	if err != nil {
		return fail(ColAddOnTotal, err)
	}
	rec.AddOnTotal = addOn.Or(0)
	if rec.LoyaltyMember, err = parseBool(cols.value(row, ColLoyaltyMember)); err != nil {
		return fail(ColLoyaltyMember, err)
	}
	if v := cols.value(row, ColPurchaseDate); v != "" {
		if rec.PurchaseDate, err = ParseTimestamp(v); err != nil {
			return fail(ColPurchaseDate, err)
		}
	}

	return rec, nil
}

// ParseTimestamp accepts the date and datetime layouts seen in sales exports.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}

// FormatTimestamp is the inverse of ParseTimestamp: midnight UTC values are
// written as plain dates, other UTC values without zone, the rest as RFC3339.
// Fractional seconds are kept.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Location() != time.UTC {
		return t.Format(time.RFC3339Nano)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05.999999999")
}

func parseInt(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid integer: %q", value)
	}
	return int(f), nil
}

func parseFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number: %q", value)
	}
	return f, nil
}

func parseOptionalFloat(value string) (models.NullFloat, error) {
	switch strings.ToLower(value) {
	case "", "nan", "na", "n/a", "null":
		return models.NoData(), nil
	}
	f, err := parseFloat(value)
	if err != nil {
		return models.NoData(), err
	}
	return models.Float(f), nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "t", "1":
		return true, nil
	case "no", "n", "false", "f", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %q", value)
}
