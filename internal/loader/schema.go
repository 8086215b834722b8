package loader

import "strings"

// Canonical column names after header normalization.
const (
	ColCustomerID      = "customer_id"
	ColAge             = "age"
	ColGender          = "gender"
	ColLoyaltyMember   = "loyalty_member"
	ColProductType     = "product_type"
	ColSKU             = "sku"
	ColRating          = "rating"
	ColOrderStatus     = "order_status"
	ColPaymentMethod   = "payment_method"
	ColTotalPrice      = "total_price"
	ColUnitPrice       = "unit_price"
	ColQuantity        = "quantity"
	ColPurchaseDate    = "purchase_date"
	ColShippingType    = "shipping_type"
	ColAddOnsPurchased = "add_ons_purchased"
	ColAddOnTotal      = "add_on_total"
)

type Column struct {
	Name     string
	Required bool
}

// Columns is the fixed input schema in export order.
var Columns = []Column{
	{Name: ColCustomerID, Required: true},
	{Name: ColAge, Required: true},
	{Name: ColGender, Required: true},
	{Name: ColLoyaltyMember, Required: true},
	{Name: ColProductType, Required: true},
	{Name: ColSKU, Required: true},
	{Name: ColRating, Required: true},
	{Name: ColOrderStatus, Required: true},
	{Name: ColPaymentMethod, Required: true},
	{Name: ColTotalPrice, Required: true},
	{Name: ColUnitPrice},
	{Name: ColQuantity, Required: true},
	{Name: ColPurchaseDate, Required: true},
	{Name: ColShippingType, Required: true},
	{Name: ColAddOnsPurchased},
	{Name: ColAddOnTotal, Required: true},
}

// ColumnNames returns the canonical names of Columns.
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// NormalizeHeader maps "Add-on Total" style headers to "add_on_total".
func NormalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

type columnIndex map[string]int

// bindHeader resolves every schema column to its position in header.
// Optional columns that are absent map to -1.
func bindHeader(header []string) (columnIndex, error) {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, &DataLoadError{Column: name, Err: ErrDuplicateColumn}
		}
		seen[name] = i
	}

	idx := make(columnIndex, len(Columns))
	for _, c := range Columns {
		pos, ok := seen[c.Name]
		if !ok {
			if c.Required {
				return nil, &DataLoadError{Column: c.Name, Err: ErrMissingColumn}
			}
			pos = -1
		}
		idx[c.Name] = pos
	}
	return idx, nil
}

func (c columnIndex) value(row []string, name string) string {
	pos := c[name]
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}
