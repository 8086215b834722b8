package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/sync/errgroup"

	"esales-dashboard/internal/aggregate"
	"esales-dashboard/internal/errors"
	"esales-dashboard/internal/models"
	"esales-dashboard/internal/observability"
	"esales-dashboard/internal/services"
	"esales-dashboard/internal/views"
)

type SSEHandlers struct {
	store  *services.Store
	parser *requestParser
	logger *slog.Logger
}

func NewSSEHandlers(store *services.Store, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		store:  store,
		parser: newRequestParser(),
		logger: logger,
	}
}

// patch is one rendered fragment plus the signals that accompany it.
type patch struct {
	html    string
	signals map[string]any
}

func render(ctx context.Context, c templ.Component, signals map[string]any) (patch, error) {
	html, err := views.Render(ctx, c)
	if err != nil {
		return patch{}, fmt.Errorf("render: %w", err)
	}
	return patch{html: html, signals: signals}, nil
}

func (h *SSEHandlers) send(sse *datastar.ServerSentEventGenerator, log *slog.Logger, patches ...patch) {
	signals := map[string]any{}
	for _, p := range patches {
		if err := sse.PatchElements(p.html); err != nil {
			log.Warn("patch elements", "error", err)
			return
		}
		for k, v := range p.signals {
			signals[k] = v
		}
	}
	if len(signals) == 0 {
		return
	}
	data, err := json.Marshal(signals)
	if err != nil {
		log.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(data); err != nil {
		log.Warn("patch signals", "error", err)
	}
}

// flash reports err in the dashboard's flash slot instead of an HTTP error;
// the SSE stream is already open.
func (h *SSEHandlers) flash(ctx context.Context, sse *datastar.ServerSentEventGenerator, log *slog.Logger, err error) {
	appErr := toAppError(err)
	log.Warn("sse request failed", "error", err)
	html, rerr := views.Render(ctx, views.Flash(appErr.Message))
	if rerr != nil {
		log.Error("render flash", "error", rerr)
		return
	}
	sse.PatchElements(html)
}

func (h *SSEHandlers) filtered(r *http.Request) ([]models.EnrichedRecord, error) {
	snap, err := h.store.Ensure(r.Context())
	if err != nil {
		return nil, err
	}
	criteria, err := h.parser.Criteria(r)
	if err != nil {
		return nil, err
	}
	return snap.Filter(criteria)
}

func kpiPatch(ctx context.Context, records []models.EnrichedRecord) (patch, error) {
	kpis := aggregate.KPIs(records)
	return render(ctx, views.KPICards(kpis), map[string]any{"kpis": kpis})
}

func summaryPatch(ctx context.Context, name string, records []models.EnrichedRecord) (patch, error) {
	view, ok := summaryViews[name]
	if !ok {
		return patch{}, errors.NotFound(fmt.Sprintf("unknown summary view %q", name))
	}
	data := view.Compute(records)
	return render(ctx, views.Table(views.SummaryContentID(name), data), map[string]any{name + "Data": data})
}

func calculatorPatch(ctx context.Context, req aggregate.CalculatorRequest, records []models.EnrichedRecord) (patch, error) {
	res, err := aggregate.Calculate(records, req)
	if err != nil {
		return patch{}, err
	}
	return render(ctx, views.CalculatorPanel(res), map[string]any{"calculator": calculatorSignal(res)})
}

// calculatorSignal drops the per-customer CLV rows. The panel shows only
// the headline figures and the histogram.
func calculatorSignal(res models.CalculatorResult) models.CalculatorResult {
	if res.CLV != nil {
		clv := *res.CLV
		clv.PerCustomer = nil
		res.CLV = &clv
	}
	return res
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	log := observability.LoggerFrom(r.Context(), h.logger)

	records, err := h.filtered(r)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	p, err := kpiPatch(r.Context(), records)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	h.send(sse, log, p)
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	log := observability.LoggerFrom(r.Context(), h.logger)

	records, err := h.filtered(r)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	p, err := summaryPatch(r.Context(), r.PathValue("view"), records)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	h.send(sse, log, p)
}

func (h *SSEHandlers) HandleCalculator(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	log := observability.LoggerFrom(r.Context(), h.logger)

	req, err := h.parser.Calculator(r)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	records, err := h.filtered(r)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	p, err := calculatorPatch(r.Context(), req, records)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	h.send(sse, log, p)
}

// HandleRefreshAll recomputes every dashboard fragment over one filtered
// view. Fragments are computed in parallel and patched in dashboard order.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	log := observability.LoggerFrom(r.Context(), h.logger)

	records, err := h.filtered(r)
	if err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}

	patches := make([]patch, len(dashboardPanels)+2)
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		p, err := kpiPatch(ctx, records)
		patches[0] = p
		return err
	})
	for i, name := range dashboardPanels {
		g.Go(func() error {
			p, err := summaryPatch(ctx, name, records)
			patches[i+1] = p
			return err
		})
	}
	g.Go(func() error {
		p, err := calculatorPatch(ctx, aggregate.CalculatorRequest{Kind: aggregate.CalcCLV}, records)
		patches[len(patches)-1] = p
		return err
	})

	if err := g.Wait(); err != nil {
		h.flash(r.Context(), sse, log, err)
		return
	}
	h.send(sse, log, patches...)
}

// HandleDashboard renders the page shell.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var opts models.FilterOptions
	if snap, err := h.store.Snapshot(); err == nil {
		opts = snap.Options
	}

	panels := make([]views.SummaryPanel, len(dashboardPanels))
	for i, name := range dashboardPanels {
		panels[i] = views.SummaryPanel{View: name, Title: summaryViews[name].Title}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Dashboard(opts, panels).Render(r.Context(), w); err != nil {
		observability.LoggerFrom(r.Context(), h.logger).Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
