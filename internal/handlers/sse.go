package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/format"
	"ecommerce-dashboard/internal/pipeline"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	base
}

func NewSSEHandlers(dashboard *services.Dashboard, money *format.Money, topN int, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{base{dashboard: dashboard, money: money, topN: topN, logger: logger}}
}

// rangeSignals are the signals the page sends with every refresh.
type rangeSignals struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// fragments renders every patched element for v.
func (h *SSEHandlers) fragments(ctx context.Context, v *pipeline.Views) (string, error) {
	components := []templ.Component{
		templates.RangeInfo(v.Range, v.Rows),
		templates.SummaryMetrics(v.Summary, h.money),
		templates.ProductPerformance(v.TopProducts(h.topN), v.BottomProducts(h.topN), h.money),
		templates.LoyalCustomers(v.TopLoyalCustomers(h.topN), h.money),
		templates.RFMMetrics(v.Summary, h.money),
		templates.RFMLeaders(templates.Leaders{
			Recency:   pipeline.TopByRecency(v.RFM, h.topN),
			Frequency: pipeline.TopByFrequency(v.RFM, h.topN),
			Monetary:  pipeline.TopByMonetary(v.RFM, h.topN),
		}, h.money),
		templates.RFMSegments(v.Segments, h.money),
	}

	var sb strings.Builder
	for _, c := range components {
		if err := c.Render(ctx, &sb); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (h *SSEHandlers) chartSignals(v *pipeline.Views) ([]byte, error) {
	all, err := charts.All(v, h.topN)
	if err != nil {
		return nil, err
	}
	keyed := make(map[string]charts.ChartConfig, len(all))
	for name, cfg := range all {
		keyed[charts.SignalKey(name)] = cfg
	}
	return json.Marshal(map[string]any{charts.SignalRoot: keyed})
}

// HandleRefresh recomputes the views for the range in the page signals and
// patches every fragment and chart. Bad input is rejected before the event
// stream opens so the client gets a plain error status.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var signals rangeSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "invalid signals"))
		return
	}

	v, err := h.views(r, signals.StartDate, signals.EndDate)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	html, err := h.fragments(r.Context(), v)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "failed to render dashboard"))
		return
	}
	chartData, err := h.chartSignals(v)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "failed to build charts"))
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch elements", "error", err)
		return
	}
	if err := sse.PatchSignals(chartData); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}
}
