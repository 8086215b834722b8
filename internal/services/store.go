package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"esales-dashboard/internal/enrich"
	"esales-dashboard/internal/filter"
	"esales-dashboard/internal/loader"
	"esales-dashboard/internal/models"
	"esales-dashboard/internal/observability"
)

var (
	ErrNoSnapshot = errors.New("no dataset loaded")
	ErrNoSource   = errors.New("no data source configured")
)

// Snapshot is one fully enriched copy of the base table. It is never
// modified after publication; callers must not mutate Records.
type Snapshot struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time
	Records  []models.EnrichedRecord
	Options  models.FilterOptions
}

func newSnapshot(source string, records []models.Record) *Snapshot {
	enriched := enrich.Enrich(records)
	return &Snapshot{
		ID:       uuid.New(),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Records:  enriched,
		Options:  filter.Options(enriched),
	}
}

// Filter validates c and returns the matching records in snapshot order.
func (s *Snapshot) Filter(c filter.Criteria) ([]models.EnrichedRecord, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return filter.Apply(s.Records, c), nil
}

type Stats struct {
	SnapshotID   string    `json:"snapshot_id,omitempty"`
	Source       string    `json:"source,omitempty"`
	RecordCount  int       `json:"record_count"`
	LoadedAt     time.Time `json:"loaded_at,omitzero"`
	Loads        int64     `json:"loads"`
	LoadFailures int64     `json:"load_failures"`
	LastError    string    `json:"last_error,omitempty"`
}

// Store holds the active snapshot. Reads are lock-free; loads are serialized
// and publish a snapshot only after it is fully built, so a failed load
// leaves the previous snapshot in place.
type Store struct {
	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	source loader.Source

	loads    atomic.Int64
	failures atomic.Int64
	lastErr  atomic.Pointer[string]

	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore returns an empty store. metrics may be nil.
func NewStore(logger *slog.Logger, metrics *observability.Metrics) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger, metrics: metrics}
}

// Load reads src, enriches the full table and publishes it. src becomes the
// source used by Reload and Ensure.
func (s *Store) Load(ctx context.Context, src loader.Source) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = src
	return s.loadLocked(ctx)
}

// Reload re-reads the last loaded source.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return nil, ErrNoSource
	}
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (*Snapshot, error) {
	name := s.source.Name()
	ctx, span := observability.StartSpan(ctx, "store.load", attribute.String("source", name))
	defer span.End()

	start := time.Now()
	s.logger.Info("loading dataset", "source", name)

	records, err := s.source.Read(ctx)
	if err != nil {
		s.failures.Add(1)
		msg := err.Error()
		s.lastErr.Store(&msg)
		observability.SetError(span, err)
		s.observe(0, time.Since(start), err)
		s.logger.Error("dataset load failed", "source", name, "error", err)
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	snap := newSnapshot(name, records)
	s.current.Store(snap)
	s.loads.Add(1)
	s.lastErr.Store(nil)

	duration := time.Since(start)
	s.observe(len(snap.Records), duration, nil)
	span.SetAttributes(attribute.Int("records", len(snap.Records)), attribute.String("snapshot_id", snap.ID.String()))
	s.logger.Info("dataset loaded",
		"source", name,
		"snapshot_id", snap.ID,
		"records", len(snap.Records),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(snap.Records))/duration.Seconds()))

	return snap, nil
}

func (s *Store) observe(records int, elapsed time.Duration, err error) {
	if s.metrics != nil {
		s.metrics.ObserveLoad(records, elapsed, err)
	}
}

// SetRecords publishes records as a snapshot without a source. Used by
// tests and by callers that build records themselves.
func (s *Store) SetRecords(source string, records []models.Record) *Snapshot {
	snap := newSnapshot(source, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(snap)
	s.loads.Add(1)
	s.observe(len(snap.Records), 0, nil)
	return snap
}

// Invalidate drops the active snapshot. The next Ensure reloads from the
// remembered source.
func (s *Store) Invalidate() {
	s.current.Store(nil)
	s.logger.Info("snapshot invalidated")
}

// Snapshot returns the active snapshot without loading.
func (s *Store) Snapshot() (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return nil, ErrNoSnapshot
}

// Ensure returns the active snapshot, loading it from the remembered source
// when there is none.
func (s *Store) Ensure(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have loaded while we waited.
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	if s.source == nil {
		return nil, ErrNoSnapshot
	}
	return s.loadLocked(ctx)
}

func (s *Store) Stats() Stats {
	st := Stats{
		Loads:        s.loads.Load(),
		LoadFailures: s.failures.Load(),
	}
	if msg := s.lastErr.Load(); msg != nil {
		st.LastError = *msg
	}

	if snap := s.current.Load(); snap != nil {
		st.SnapshotID = snap.ID.String()
		st.Source = snap.Source
		st.RecordCount = len(snap.Records)
		st.LoadedAt = snap.LoadedAt
	}
	return st
}
