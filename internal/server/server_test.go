package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"esales-dashboard/internal/config"
	"esales-dashboard/internal/models"
	"esales-dashboard/internal/observability"
	"esales-dashboard/internal/services"
)

var discard = slog.New(slog.DiscardHandler)

func newTestServer() *Server {
	store := services.NewStore(discard, nil)
	store.SetRecords("test", []models.Record{
		{CustomerID: "A", ProductType: "Laptop", OrderStatus: "Completed", TotalPrice: 100,
			PurchaseDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	})
	return NewServer(store, discard, observability.NewMetrics())
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/admin/stats", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/filters", http.StatusOK},
		{http.MethodGet, "/api/kpis", http.StatusOK},
		{http.MethodGet, "/api/summary/product_performance", http.StatusOK},
		{http.MethodGet, "/api/distribution/order_status", http.StatusOK},
		{http.MethodGet, "/api/timeseries/weekday", http.StatusOK},
		{http.MethodGet, "/api/heatmap", http.StatusOK},
		{http.MethodGet, "/api/calculators/conversion_rate", http.StatusOK},
		{http.MethodGet, "/api/export", http.StatusOK},
		{http.MethodGet, "/sse/kpis", http.StatusOK},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound},
		{http.MethodGet, "/admin/reload", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestServerWithoutMetrics(t *testing.T) {
	srv := NewServer(services.NewStore(discard, nil), discard, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when metrics are disabled", w.Code)
	}
}

func TestGracefulShutdownRunsHooksInOrder(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "127.0.0.1:0"}, discard, config.ServerConfig{ShutdownTimeout: time.Second})

	var order []string
	gs.RegisterShutdownHook("first", func(context.Context) error { order = append(order, "first"); return nil })
	gs.RegisterShutdownHook("second", func(context.Context) error { order = append(order, "second"); return errors.New("flush failed") })

	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGTERM
	err := gs.serve(make(chan error), sig)

	if err == nil || !strings.Contains(err.Error(), "shutdown hook second: flush failed") {
		t.Errorf("expected hook error to be returned, got %v", err)
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("hooks ran in order %v", order)
	}
}

func TestServeReturnsListenError(t *testing.T) {
	gs := NewGracefulServer(&http.Server{}, discard, config.ServerConfig{})

	errs := make(chan error, 1)
	errs <- http.ErrServerClosed
	if err := gs.serve(errs, make(chan os.Signal)); err != nil {
		t.Errorf("ErrServerClosed should not be reported, got %v", err)
	}

	errs <- errors.New("address in use")
	if err := gs.serve(errs, make(chan os.Signal)); err == nil {
		t.Error("listen failure should be reported")
	}
}
