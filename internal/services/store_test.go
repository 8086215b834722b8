package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"esales-dashboard/internal/filter"
	"esales-dashboard/internal/loader"
	"esales-dashboard/internal/models"
	"esales-dashboard/internal/observability"
)

const sampleCSV = `Customer ID,Age,Gender,Loyalty Member,Product Type,SKU,Rating,Order Status,Payment Method,Total Price,Unit Price,Quantity,Purchase Date,Shipping Type,Add-ons Purchased,Add-on Total
A,30,Male,Yes,Smartphone,SP1,4,Completed,Credit Card,100,100,1,2024-01-15,Standard,,0
A,30,Male,Yes,Laptop,LP1,5,Completed,PayPal,150,150,1,2024-02-10,Express,Mouse,20
B,45,Female,No,Laptop,LP2,,Cancelled,Cash,5000,2500,2,2024-06-01,Standard,,0
`

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestStore() *Store {
	return NewStore(slog.New(slog.DiscardHandler), observability.NewMetrics())
}

type failingSource struct{ err error }

func (f failingSource) Name() string { return "failing" }

func (f failingSource) Read(context.Context) ([]models.Record, error) { return nil, f.err }

func TestStore_SnapshotBeforeLoad(t *testing.T) {
	s := newTestStore()

	if _, err := s.Snapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Snapshot() error = %v, want ErrNoSnapshot", err)
	}
	if _, err := s.Ensure(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Ensure() error = %v, want ErrNoSnapshot", err)
	}
	if _, err := s.Reload(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("Reload() error = %v, want ErrNoSource", err)
	}
}

func TestStore_LoadFromCSV(t *testing.T) {
	s := newTestStore()
	path := createTempCSV(t, sampleCSV)

	snap, err := s.Load(context.Background(), loader.CSVFile{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(snap.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(snap.Records))
	}
	if snap.Source != path {
		t.Errorf("Source = %q, want %q", snap.Source, path)
	}

	// B spent 5000 across all statuses; the cancelled order still counts.
	if got := snap.Records[2].ValueSegment; got != models.SegmentHigh {
		t.Errorf("B segment = %q, want %q", got, models.SegmentHigh)
	}
	if got := snap.Records[0].ValueSegment; got != models.SegmentLow {
		t.Errorf("A segment = %q, want %q", got, models.SegmentLow)
	}

	wantTypes := []string{"Laptop", "Smartphone"}
	if len(snap.Options.ProductTypes) != 2 || snap.Options.ProductTypes[0] != wantTypes[0] {
		t.Errorf("Options.ProductTypes = %v, want %v", snap.Options.ProductTypes, wantTypes)
	}

	current, err := s.Snapshot()
	if err != nil || current != snap {
		t.Error("Snapshot() should return the published snapshot")
	}
}

func TestStore_ReloadPublishesNewSnapshot(t *testing.T) {
	s := newTestStore()
	path := createTempCSV(t, sampleCSV)

	first, err := s.Load(context.Background(), loader.CSVFile{Path: path})
	if err != nil {
		t.Fatal(err)
	}

	second, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("Reload() should publish a snapshot with a new ID")
	}
	if stats := s.Stats(); stats.Loads != 2 || stats.SnapshotID != second.ID.String() {
		t.Errorf("unexpected stats after reload: %+v", stats)
	}
}

func TestStore_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	s := newTestStore()
	path := createTempCSV(t, sampleCSV)

	good, err := s.Load(context.Background(), loader.CSVFile{Path: path})
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("customer_id\nA\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = s.Reload(context.Background())

	var loadErr *loader.DataLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Reload() error = %v, want *loader.DataLoadError", err)
	}

	current, err := s.Snapshot()
	if err != nil || current != good {
		t.Error("failed reload should keep the previous snapshot")
	}

	stats := s.Stats()
	if stats.LoadFailures != 1 || stats.LastError == "" {
		t.Errorf("expected one recorded failure, got %+v", stats)
	}
}

func TestStore_InitialLoadFailure(t *testing.T) {
	s := newTestStore()
	boom := errors.New("boom")

	if _, err := s.Load(context.Background(), failingSource{err: boom}); !errors.Is(err, boom) {
		t.Errorf("Load() error = %v, want wrapped boom", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Error("failed initial load should not publish a snapshot")
	}
}

func TestStore_InvalidateThenEnsureReloads(t *testing.T) {
	s := newTestStore()
	path := createTempCSV(t, sampleCSV)

	first, err := s.Load(context.Background(), loader.CSVFile{Path: path})
	if err != nil {
		t.Fatal(err)
	}

	s.Invalidate()
	if _, err := s.Snapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Error("Invalidate() should drop the snapshot")
	}

	again, err := s.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if again.ID == first.ID || len(again.Records) != len(first.Records) {
		t.Error("Ensure() should rebuild the snapshot from the same source")
	}
}

func TestSnapshot_FilterKeepsSegments(t *testing.T) {
	s := newTestStore()
	snap := s.SetRecords("test", []models.Record{
		{CustomerID: "A", OrderStatus: "Completed", TotalPrice: 100, PurchaseDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{CustomerID: "A", OrderStatus: "Completed", TotalPrice: 600, PurchaseDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	})

	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got, err := snap.Filter(filter.Criteria{End: &end})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	// Lifetime spend is 700 on the full table, not 100 on the filtered view.
	if got[0].ValueSegment != models.SegmentRegular {
		t.Errorf("segment = %q, want %q", got[0].ValueSegment, models.SegmentRegular)
	}

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := snap.Filter(filter.Criteria{Start: &start, End: &end}); !errors.Is(err, filter.ErrInvalidDateRange) {
		t.Errorf("Filter() error = %v, want ErrInvalidDateRange", err)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore()
	path := createTempCSV(t, sampleCSV)
	if _, err := s.Load(context.Background(), loader.CSVFile{Path: path}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			snap, err := s.Snapshot()
			if err != nil {
				t.Error(err)
				return
			}
			if len(snap.Records) != 3 {
				t.Errorf("reader saw a partial snapshot with %d records", len(snap.Records))
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.Reload(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func BenchmarkStore_SetRecords(b *testing.B) {
	s := newTestStore()
	records := make([]models.Record, 1000)
	for i := range records {
		records[i] = models.Record{
			CustomerID:   "C" + string(rune('A'+i%26)),
			ProductType:  "Laptop",
			OrderStatus:  "Completed",
			TotalPrice:   float64(i) * 10.0,
			PurchaseDate: time.Date(2024, time.Month(i%12+1), 1, 0, 0, 0, 0, time.UTC),
		}
	}

	for b.Loop() {
		_ = s.SetRecords("bench", records)
	}
}
