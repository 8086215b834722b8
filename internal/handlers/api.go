package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"esales-dashboard/internal/aggregate"
	"esales-dashboard/internal/errors"
	"esales-dashboard/internal/export"
	"esales-dashboard/internal/models"
	"esales-dashboard/internal/observability"
	"esales-dashboard/internal/services"
)

const (
	cacheRevalidate = "private, no-cache"
	reloadTimeout   = 2 * time.Minute
)

type APIHandlers struct {
	store  *services.Store
	parser *requestParser
	logger *slog.Logger
}

func NewAPIHandlers(store *services.Store, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:  store,
		parser: newRequestParser(),
		logger: logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
}

// filtered resolves the snapshot and the request's filter criteria.
func (h *APIHandlers) filtered(r *http.Request) (*services.Snapshot, []models.EnrichedRecord, error) {
	snap, err := h.store.Ensure(r.Context())
	if err != nil {
		return nil, nil, err
	}
	criteria, err := h.parser.Criteria(r)
	if err != nil {
		return nil, nil, err
	}
	records, err := snap.Filter(criteria)
	if err != nil {
		return nil, nil, err
	}
	return snap, records, nil
}

// writeCached tags the response with the snapshot ID. Clients revalidate on
// every use, so a reload is visible on the next request.
func (h *APIHandlers) writeCached(w http.ResponseWriter, r *http.Request, snap *services.Snapshot, data any) {
	etag := `"` + snap.ID.String() + `"`
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", cacheRevalidate)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheRevalidate,
		"ETag":          etag,
	})
}

func etagMatches(header, etag string) bool {
	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Ensure(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, snap, snap.Options)
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	snap, records, err := h.filtered(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, snap, aggregate.KPIs(records))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	view, ok := summaryViews[r.PathValue("view")]
	if !ok {
		h.fail(w, r, errors.NotFound(fmt.Sprintf("unknown summary view %q", r.PathValue("view"))))
		return
	}
	snap, records, err := h.filtered(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, snap, view.Compute(records))
}

func (h *APIHandlers) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	compute, ok := distributionViews[r.PathValue("dimension")]
	if !ok {
		h.fail(w, r, errors.NotFound(fmt.Sprintf("unknown distribution %q", r.PathValue("dimension"))))
		return
	}
	snap, records, err := h.filtered(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, snap, compute(records))
}

func (h *APIHandlers) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	compute, ok := timeSeriesViews[r.PathValue("granularity")]
	if !ok {
		h.fail(w, r, errors.NotFound(fmt.Sprintf("unknown time series granularity %q", r.PathValue("granularity"))))
		return
	}
	snap, records, err := h.filtered(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, snap, compute(records))
}

func (h *APIHandlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	snap, records, err := h.filtered(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, snap, aggregate.RevenueHeatmap(records))
}

func (h *APIHandlers) HandleCalculator(w http.ResponseWriter, r *http.Request) {
	req, err := h.parser.Calculator(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap, records, err := h.filtered(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := aggregate.Calculate(records, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCached(w, r, snap, res)
}

// HandleExport streams the filtered records as CSV.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	_, records, err := h.filtered(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(time.Now())))
	if err := export.WriteCSV(w, records); err != nil {
		// Headers are gone; all we can do is log.
		observability.LoggerFrom(r.Context(), h.logger).Error("export failed", "error", err, "records", len(records))
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := h.store.Snapshot()

	status := "healthy"
	if err != nil {
		status = "degraded"
	}
	errors.WriteSuccess(w, map[string]any{
		"status":          status,
		"snapshot_loaded": err == nil,
		"timestamp":       time.Now().Format(time.RFC3339),
		"version":         "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.store.Stats())
}

// HandleReload re-reads the configured source. On failure the previous
// snapshot stays active.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	if _, err := h.store.Reload(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, h.store.Stats())
}
