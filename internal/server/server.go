package server

import (
	"log/slog"
	"net/http"

	"ecommerce-dashboard/internal/format"
	"ecommerce-dashboard/internal/handlers"
	"ecommerce-dashboard/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(dashboard *services.Dashboard, money *format.Money, topN int, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, money, topN, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, money, topN, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API, all taking ?start=YYYY-MM-DD&end=YYYY-MM-DD
	s.mux.HandleFunc("GET /api/range", s.apiHandlers.HandleRange)
	s.mux.Handle("GET /api/views", s.apiHandlers.HandleViews())
	s.mux.Handle("GET /api/summary", s.apiHandlers.HandleSummary())
	s.mux.Handle("GET /api/daily-orders", s.apiHandlers.HandleDailyOrders())
	s.mux.Handle("GET /api/product-sales", s.apiHandlers.HandleProductSales())
	s.mux.Handle("GET /api/customers/city", s.apiHandlers.HandleCustomersByCity())
	s.mux.Handle("GET /api/customers/state", s.apiHandlers.HandleCustomersByState())
	s.mux.Handle("GET /api/monthly-orders", s.apiHandlers.HandleMonthlyOrders())
	s.mux.Handle("GET /api/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue())
	s.mux.Handle("GET /api/loyal-customers", s.apiHandlers.HandleLoyalCustomers())
	s.mux.Handle("GET /api/rfm", s.apiHandlers.HandleRFM())
	s.mux.Handle("GET /api/charts/{view}", s.apiHandlers.HandleChart())
	s.mux.HandleFunc("GET /api/export.xlsx", s.apiHandlers.HandleExport)

	// Datastar SSE
	s.mux.HandleFunc("GET /sse/refresh", s.sseHandlers.HandleRefresh)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
