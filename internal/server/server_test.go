package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/format"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d, err := services.NewDashboard(services.Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2018, 3, 1, 9, 0, 0, 0, time.UTC)
	d.SetData([]models.OrderLine{{
		OrderID: "o1", CustomerID: "c1", CustomerCity: "rio", CustomerState: "RJ",
		ApprovedAt: day, PurchasedAt: day, ProductCategory: "toys", OrderItemID: 1, Price: 9.5,
	}})

	money, err := format.NewMoney("AUD", "es-CO")
	if err != nil {
		t.Fatal(err)
	}
	page := func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "page") }
	return NewServer(d, money, 5, testLogger(), &TemplateHandlers{Dashboard: page})
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/admin/stats", http.StatusOK},
		{http.MethodGet, "/api/range", http.StatusOK},
		{http.MethodGet, "/api/views", http.StatusOK},
		{http.MethodGet, "/api/summary", http.StatusOK},
		{http.MethodGet, "/api/daily-orders", http.StatusOK},
		{http.MethodGet, "/api/product-sales?rank=top", http.StatusOK},
		{http.MethodGet, "/api/customers/city", http.StatusOK},
		{http.MethodGet, "/api/customers/state", http.StatusOK},
		{http.MethodGet, "/api/monthly-orders", http.StatusOK},
		{http.MethodGet, "/api/monthly-revenue", http.StatusOK},
		{http.MethodGet, "/api/loyal-customers", http.StatusOK},
		{http.MethodGet, "/api/rfm", http.StatusOK},
		{http.MethodGet, "/api/charts/segments", http.StatusOK},
		{http.MethodGet, "/api/export.xlsx", http.StatusOK},
		{http.MethodGet, "/sse/refresh", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPost, "/api/views", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestGracefulServer_Run(t *testing.T) {
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, testLogger(), testServerConfig())

	var hooked atomic.Bool
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		hooked.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if !hooked.Load() {
		t.Error("expected shutdown hook to run")
	}
}

func TestGracefulServer_HookError(t *testing.T) {
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, testLogger(), testServerConfig())

	hookErr := errors.New("flush failed")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return hookErr })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gs.Run(ctx); !errors.Is(err, hookErr) {
		t.Errorf("expected hook error, got %v", err)
	}
}

func TestGracefulServer_ListenError(t *testing.T) {
	httpServer := &http.Server{Addr: "not-an-address", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, testLogger(), testServerConfig())

	if err := gs.Run(context.Background()); err == nil {
		t.Error("expected a listen error")
	}
}
