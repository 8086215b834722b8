package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"esales-dashboard/internal/loader"
)

var testLogger = slog.New(slog.DiscardHandler)

const testCSV = `Customer ID,Age,Gender,Loyalty Member,Product Type,SKU,Rating,Order Status,Payment Method,Total Price,Unit Price,Quantity,Purchase Date,Shipping Type,Add-ons Purchased,Add-on Total
A,30,Male,Yes,Smartphone,SP1,4,Completed,Credit Card,100,100,1,2024-01-15,Standard,,0
A,30,Male,Yes,Laptop,LP1,5,Completed,PayPal,150,150,1,2024-02-10,Express,Accessory,20
B,45,Female,No,Laptop,LP2,,Cancelled,Cash,5000,2500,2,2024-06-01,Standard,,0
`

func runReport(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"-input", "-"}, args...), strings.NewReader(testCSV), &out, testLogger)
	return out.String(), err
}

func TestRunJSON(t *testing.T) {
	out, err := runReport(t, "-json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var r report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Source != "stdin" || r.Records != 3 || r.Filtered != 3 {
		t.Errorf("unexpected header: %+v", r)
	}
	if r.KPIs.TotalRevenue != 250 || r.KPIs.TotalOrders != 3 {
		t.Errorf("unexpected KPIs: %+v", r.KPIs)
	}
	if len(r.Customers) != 1 || r.Customers[0].Key != "A" {
		t.Errorf("top customers = %+v, want only A", r.Customers)
	}
	if r.Calculator != nil {
		t.Error("calculator should be omitted when not requested")
	}
}

func TestRunFilters(t *testing.T) {
	out, err := runReport(t, "-json", "-product-type", "Laptop", "-start", "2024-02-01")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var r report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Filtered != 2 {
		t.Errorf("filtered = %d, want 2", r.Filtered)
	}
	if r.KPIs.TotalRevenue != 150 {
		t.Errorf("revenue = %v, want 150", r.KPIs.TotalRevenue)
	}
}

func TestRunCalculator(t *testing.T) {
	out, err := runReport(t, "-json", "-calculator", "profitability", "-cost-ratio", "0.5")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var r report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Calculator == nil || len(r.Calculator.Profitability) != 2 {
		t.Fatalf("expected two profitability rows, got %+v", r.Calculator)
	}
	for _, row := range r.Calculator.Profitability {
		if row.GrossProfit != row.Revenue*0.5 {
			t.Errorf("%s: gross profit = %v, want half of %v", row.ProductType, row.GrossProfit, row.Revenue)
		}
	}
}

func TestRunText(t *testing.T) {
	out, err := runReport(t, "-calculator", "seasonal-multiplier")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, want := range []string{
		"Total revenue",
		"250.00",
		"Revenue by product type",
		"Top customers",
		"Calculator: seasonal_multiplier",
		"Winter",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if _, err := runReport(t, "-export", path, "-status", "Completed"); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	records, err := loader.ReadCSV(context.Background(), path, f)
	if err != nil {
		t.Fatalf("reparse export: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("exported %d records, want 2", len(records))
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad date", []string{"-start", "15/01/2024"}},
		{"inverted range", []string{"-start", "2024-03-01", "-end", "2024-01-01"}},
		{"unknown calculator", []string{"-calculator", "magic"}},
		{"cost ratio out of range", []string{"-calculator", "profitability", "-cost-ratio", "0.95"}},
		{"stray argument", []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runReport(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRunMissingFile(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-input", filepath.Join(t.TempDir(), "missing.csv")}, nil, &out, testLogger)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
