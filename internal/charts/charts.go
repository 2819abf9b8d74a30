// Package charts turns dashboard views into Chart.js configurations. The same
// configuration feeds the browser charts and the QuickChart image links.
package charts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	quickchartgo "github.com/henomis/quickchart-go"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/pipeline"
)

var ErrUnknownChart = errors.New("unknown chart")

const (
	DailyOrders     = "daily-orders"
	DailyRevenue    = "daily-revenue"
	TopProducts     = "product-top"
	BottomProducts  = "product-bottom"
	CustomersCity   = "customers-city"
	CustomersState  = "customers-state"
	MonthlyOrders   = "monthly-orders"
	MonthlyRevenue  = "monthly-revenue"
	RFMRecency      = "rfm-recency"
	RFMFrequency    = "rfm-frequency"
	RFMMonetary     = "rfm-monetary"
	Segments        = "segments"
	colorPrimary    = "#90CAF9"
	colorSecondary  = "#D3D3D3"
	colorLine       = "#1E88E5"
	maxChartRegions = 10
)

// Names lists every chart in dashboard order.
var Names = []string{
	DailyOrders, DailyRevenue, TopProducts, BottomProducts, CustomersCity, CustomersState,
	MonthlyOrders, MonthlyRevenue, RFMRecency, RFMFrequency, RFMMonetary, Segments,
}

type ChartConfig struct {
	Type    string         `json:"type"`
	Data    ChartData      `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

type ChartData struct {
	Labels   []any     `json:"labels"`
	DataSets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string  `json:"label"`
	Data            []any   `json:"data"`
	Fill            bool    `json:"fill"`
	LineTension     float32 `json:"lineTension"`
	BackgroundColor any     `json:"backgroundColor,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
}

// ForView builds the named chart from v. topN caps the ranked charts.
func ForView(v *pipeline.Views, name string, topN int) (ChartConfig, error) {
	switch name {
	case DailyOrders:
		labels, data := make([]any, len(v.DailyOrders)), make([]any, len(v.DailyOrders))
		for i, d := range v.DailyOrders {
			labels[i], data[i] = d.Date.Format(dataset.DateLayout), d.OrderCount
		}
		return line("Orders", labels, data), nil

	case DailyRevenue:
		labels, data := make([]any, len(v.DailyOrders)), make([]any, len(v.DailyOrders))
		for i, d := range v.DailyOrders {
			labels[i], data[i] = d.Date.Format(dataset.DateLayout), d.Revenue
		}
		return line("Revenue", labels, data), nil

	case TopProducts, BottomProducts:
		rows := v.TopProducts(topN)
		if name == BottomProducts {
			rows = v.BottomProducts(topN)
		}
		labels, data := make([]any, len(rows)), make([]any, len(rows))
		for i, p := range rows {
			labels[i], data[i] = p.Category, p.Sales
		}
		return horizontalBar("Number of Sales", labels, data), nil

	case CustomersCity, CustomersState:
		rows := v.CustomersByCity
		if name == CustomersState {
			rows = v.CustomersByState
		}
		rows = pipeline.Head(rows, maxChartRegions)
		labels, data := make([]any, len(rows)), make([]any, len(rows))
		for i, c := range rows {
			labels[i], data[i] = c.Key, c.TotalCustomers
		}
		return horizontalBar("Customers", labels, data), nil

	case MonthlyOrders:
		labels, data := make([]any, len(v.MonthlyOrders)), make([]any, len(v.MonthlyOrders))
		for i, m := range v.MonthlyOrders {
			labels[i], data[i] = m.Month, m.TotalOrder
		}
		return line("Orders", labels, data), nil

	case MonthlyRevenue:
		labels, data := make([]any, len(v.MonthlyRevenue)), make([]any, len(v.MonthlyRevenue))
		for i, m := range v.MonthlyRevenue {
			labels[i], data[i] = m.Month, m.TotalRevenue
		}
		return line("Revenue", labels, data), nil

	case RFMRecency, RFMFrequency, RFMMonetary:
		return rfmChart(v, name, topN), nil

	case Segments:
		labels, data := make([]any, len(v.Segments)), make([]any, len(v.Segments))
		for i, s := range v.Segments {
			labels[i], data[i] = string(s.Segment), s.Customers
		}
		return bar("Customers", labels, data), nil
	}
	return ChartConfig{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

func rfmChart(v *pipeline.Views, name string, topN int) ChartConfig {
	var (
		label string
		value func(i int) any
	)
	rows := pipeline.TopByRecency(v.RFM, topN)
	switch name {
	case RFMRecency:
		label = "Recency (days)"
		value = func(i int) any { return rows[i].Recency }
	case RFMFrequency:
		rows = pipeline.TopByFrequency(v.RFM, topN)
		label = "Frequency"
		value = func(i int) any { return rows[i].Frequency }
	default:
		rows = pipeline.TopByMonetary(v.RFM, topN)
		label = "Monetary"
		value = func(i int) any { return rows[i].Monetary }
	}

	labels, data := make([]any, len(rows)), make([]any, len(rows))
	for i, r := range rows {
		labels[i], data[i] = r.CustomerID, value(i)
	}
	return bar(label, labels, data)
}

func line(label string, labels, data []any) ChartConfig {
	return ChartConfig{
		Type: "line",
		Data: ChartData{
			Labels: labels,
			DataSets: []Dataset{{
				Label:       label,
				Data:        data,
				LineTension: 0.3,
				BorderColor: colorLine,
			}},
		},
	}
}

// bar highlights the first bar, which is the leader in every ranked view.
func bar(label string, labels, data []any) ChartConfig {
	colors := make([]string, len(data))
	for i := range colors {
		colors[i] = colorSecondary
	}
	if len(colors) > 0 {
		colors[0] = colorPrimary
	}
	return ChartConfig{
		Type: "bar",
		Data: ChartData{
			Labels:   labels,
			DataSets: []Dataset{{Label: label, Data: data, BackgroundColor: colors}},
		},
	}
}

func horizontalBar(label string, labels, data []any) ChartConfig {
	cfg := bar(label, labels, data)
	cfg.Options = map[string]any{"indexAxis": "y"}
	return cfg
}

// URL renders cfg as a QuickChart image link.
func URL(cfg ChartConfig) (string, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal chart config: %w", err)
	}

	qc := quickchartgo.New()
	qc.Config = string(body)
	url, err := qc.GetUrl()
	if err != nil {
		return "", fmt.Errorf("build chart url: %w", err)
	}
	return url, nil
}

// All builds every chart for v keyed by name.
func All(v *pipeline.Views, topN int) (map[string]ChartConfig, error) {
	out := make(map[string]ChartConfig, len(Names))
	for _, name := range Names {
		cfg, err := ForView(v, name, topN)
		if err != nil {
			return nil, err
		}
		out[name] = cfg
	}
	return out, nil
}

// SignalKey is the datastar signal name a chart's config is pushed under.
// Signals starting with an underscore stay in the browser.
func SignalKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// SignalRoot is the signal object holding every chart config.
const SignalRoot = "_charts"
