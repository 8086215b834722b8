package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NullFloat is a float that may be absent. An invalid NullFloat means
// "no data" and is distinct from a valid zero.
type NullFloat struct {
	Value float64
	Valid bool
}

func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

func NoData() NullFloat {
	return NullFloat{}
}

// Ratio returns num/den, or no data when den is zero.
func Ratio(num, den float64) NullFloat {
	if den == 0 {
		return NoData()
	}
	return Float(num / den)
}

func (n NullFloat) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Value
}

// String formats the value for tabular text; no data becomes an empty cell.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
