package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/export"
	"ecommerce-dashboard/internal/format"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/pipeline"
	"ecommerce-dashboard/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type APIHandlers struct {
	base
}

func NewAPIHandlers(dashboard *services.Dashboard, money *format.Money, topN int, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{base{dashboard: dashboard, money: money, topN: topN, logger: logger}}
}

// viewHandler serves one slice of the views for the ?start=&end= range.
func (h *APIHandlers) viewHandler(pick func(r *http.Request, v *pipeline.Views) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		v, err := h.views(r, q.Get("start"), q.Get("end"))
		if err != nil {
			errors.WriteError(w, r, h.logger, err)
			return
		}

		data, err := pick(r, v)
		if err != nil {
			errors.WriteError(w, r, h.logger, err)
			return
		}

		errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheMaxAge})
	}
}

func (h *APIHandlers) HandleRange(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.dashboard.Bounds()
	if err != nil {
		errors.WriteError(w, r, h.logger, unavailable(err))
		return
	}
	errors.WriteSuccess(w, bounds)
}

func (h *APIHandlers) HandleViews() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return v, nil
	})
}

func (h *APIHandlers) HandleDailyOrders() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return v.DailyOrders, nil
	})
}

// HandleProductSales serves the full ranking, or the top or bottom N with
// ?rank=top or ?rank=bottom.
func (h *APIHandlers) HandleProductSales() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		switch rank := r.URL.Query().Get("rank"); rank {
		case "":
			return v.ProductSales, nil
		case "top":
			return v.TopProducts(h.topN), nil
		case "bottom":
			return v.BottomProducts(h.topN), nil
		default:
			return nil, errors.BadRequest(fmt.Sprintf("unknown rank %q, expected top or bottom", rank))
		}
	})
}

func (h *APIHandlers) HandleCustomersByCity() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return v.CustomersByCity, nil
	})
}

func (h *APIHandlers) HandleCustomersByState() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return v.CustomersByState, nil
	})
}

func (h *APIHandlers) HandleMonthlyOrders() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return v.MonthlyOrders, nil
	})
}

func (h *APIHandlers) HandleMonthlyRevenue() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return v.MonthlyRevenue, nil
	})
}

func (h *APIHandlers) HandleLoyalCustomers() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return v.TopLoyalCustomers(h.topN), nil
	})
}

type rfmResponse struct {
	Records      []models.RFMRecord    `json:"records"`
	Segments     []models.SegmentCount `json:"segments"`
	TopRecency   []models.RFMRecord    `json:"top_recency"`
	TopFrequency []models.RFMRecord    `json:"top_frequency"`
	TopMonetary  []models.RFMRecord    `json:"top_monetary"`
}

func (h *APIHandlers) HandleRFM() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		return rfmResponse{
			Records:      v.RFM,
			Segments:     v.Segments,
			TopRecency:   pipeline.TopByRecency(v.RFM, h.topN),
			TopFrequency: pipeline.TopByFrequency(v.RFM, h.topN),
			TopMonetary:  pipeline.TopByMonetary(v.RFM, h.topN),
		}, nil
	})
}

type summaryResponse struct {
	Range   dataset.DateRange `json:"range"`
	Rows    int               `json:"rows"`
	Summary models.Summary    `json:"summary"`
	// Display holds the figures formatted for the configured locale.
	Display map[string]string `json:"display"`
}

func (h *APIHandlers) HandleSummary() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		s := v.Summary
		return summaryResponse{
			Range:   v.Range,
			Rows:    v.Rows,
			Summary: s,
			Display: map[string]string{
				"currency":          h.money.Currency(),
				"total_orders":      h.money.Integer(s.TotalOrders),
				"total_revenue":     h.money.Format(s.TotalRevenue),
				"average_recency":   h.money.Decimal(float64(s.AverageRecency), 1),
				"average_frequency": h.money.Decimal(float64(s.AverageFrequency), 1),
				"average_monetary":  h.money.Format(float64(s.AverageMonetary)),
			},
		}, nil
	})
}

type chartResponse struct {
	View   string             `json:"view"`
	URL    string             `json:"url"`
	Config charts.ChartConfig `json:"config"`
}

// HandleChart returns a QuickChart image link for one view.
func (h *APIHandlers) HandleChart() http.HandlerFunc {
	return h.viewHandler(func(r *http.Request, v *pipeline.Views) (any, error) {
		name := r.PathValue("view")
		cfg, err := charts.ForView(v, name, h.topN)
		if stderrors.Is(err, charts.ErrUnknownChart) {
			return nil, errors.NotFound(fmt.Sprintf("no chart named %q", name))
		}
		if err != nil {
			return nil, err
		}

		url, err := charts.URL(cfg)
		if err != nil {
			return nil, errors.InternalWrap(err, "failed to build chart link")
		}
		return chartResponse{View: name, URL: url, Config: cfg}, nil
	})
}

// HandleExport downloads every view for the range as an XLSX workbook.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v, err := h.views(r, q.Get("start"), q.Get("end"))
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, v); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "failed to build workbook"))
		return
	}

	filename := fmt.Sprintf("dashboard_%s_%s.xlsx", v.Range.Start.Format(dataset.DateLayout), v.Range.End.Format(dataset.DateLayout))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write workbook", "error", err)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if _, err := h.dashboard.Bounds(); err != nil {
		status = "degraded"
	}

	errors.WriteSuccess(w, map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
