package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esales-dashboard/internal/models"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func records() []models.EnrichedRecord {
	mk := func(id, status, product, payment string, date time.Time) models.EnrichedRecord {
		return models.EnrichedRecord{
			Record: models.Record{
				CustomerID:    id,
				OrderStatus:   status,
				ProductType:   product,
				PaymentMethod: payment,
				PurchaseDate:  date,
			},
			ValueSegment: models.SegmentMedium,
		}
	}
	return []models.EnrichedRecord{
		mk("1", "Completed", "Laptop", "Cash", at(2024, 1, 1, 9)),
		mk("2", "Cancelled", "Laptop", "PayPal", at(2024, 1, 31, 23)),
		mk("3", "Completed", "Tablet", "Cash", at(2024, 2, 1, 0)),
		mk("4", "Completed", "Tablet", "Credit Card", time.Time{}),
	}
}

func ids(recs []models.EnrichedRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.CustomerID
	}
	return out
}

func TestSelection(t *testing.T) {
	all := All()
	assert.False(t, all.Restricted())
	assert.True(t, all.Matches("anything"))
	assert.Nil(t, all.Values())

	none := Only()
	assert.True(t, none.Restricted())
	assert.False(t, none.Matches("Cash"))
	assert.Empty(t, none.Values())

	some := Only("PayPal", "Cash")
	assert.True(t, some.Matches("Cash"))
	assert.False(t, some.Matches("cash"), "matching is case sensitive")
	assert.Equal(t, []string{"Cash", "PayPal"}, some.Values())

	var zero Selection
	assert.True(t, zero.Matches("x"), "zero value places no constraint")
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no constraints", Criteria{}, []string{"1", "2", "3", "4"}},
		{"status", Criteria{Statuses: Only("Completed")}, []string{"1", "3", "4"}},
		{"empty selection", Criteria{Statuses: Only()}, []string{}},
		{"product and payment", Criteria{ProductTypes: Only("Tablet"), PaymentMethods: Only("Cash")}, []string{"3"}},
		{"start inclusive", Criteria{Start: ptr(at(2024, 1, 31, 0))}, []string{"2", "3"}},
		{"end inclusive ignores clock", Criteria{End: ptr(at(2024, 1, 31, 0))}, []string{"1", "2"}},
		{"single day", Criteria{Start: ptr(at(2024, 2, 1, 12)), End: ptr(at(2024, 2, 1, 12))}, []string{"3"}},
		{"combined", Criteria{Start: ptr(at(2024, 1, 1, 0)), Statuses: Only("Completed")}, []string{"1", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(records(), tt.criteria)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyKeepsDerivedFieldsAndInput(t *testing.T) {
	in := records()
	out := Apply(in, Criteria{Statuses: Only("Cancelled")})

	require.Len(t, out, 1)
	assert.Equal(t, models.SegmentMedium, out[0].ValueSegment)

	out[0].CustomerID = "changed"
	assert.Equal(t, "2", in[1].CustomerID, "input must not share storage with output")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Criteria{}.Validate())
	assert.NoError(t, Criteria{Start: ptr(at(2024, 1, 1, 23)), End: ptr(at(2024, 1, 1, 1))}.Validate(),
		"same calendar day is a valid range")
	assert.ErrorIs(t, Criteria{Start: ptr(at(2024, 1, 2, 0)), End: ptr(at(2024, 1, 1, 0))}.Validate(), ErrInvalidDateRange)
}

func TestOptions(t *testing.T) {
	opts := Options(records())

	assert.Equal(t, []string{"Cancelled", "Completed"}, opts.Statuses)
	assert.Equal(t, []string{"Laptop", "Tablet"}, opts.ProductTypes)
	assert.Equal(t, []string{"Cash", "Credit Card", "PayPal"}, opts.PaymentMethods)
	require.NotNil(t, opts.MinDate)
	require.NotNil(t, opts.MaxDate)
	assert.Equal(t, at(2024, 1, 1, 0), *opts.MinDate)
	assert.Equal(t, at(2024, 2, 1, 0), *opts.MaxDate)
}

func TestOptionsEmpty(t *testing.T) {
	opts := Options(nil)
	assert.Empty(t, opts.Statuses)
	assert.Nil(t, opts.MinDate)
	assert.Nil(t, opts.MaxDate)
}
