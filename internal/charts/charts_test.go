package charts

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/pipeline"
)

func testViews(t *testing.T) *pipeline.Views {
	t.Helper()
	day := func(d int) time.Time { return time.Date(2018, 1, d, 10, 0, 0, 0, time.UTC) }
	ds := dataset.New([]models.OrderLine{
		{OrderID: "o1", CustomerID: "a", CustomerCity: "rio", CustomerState: "RJ", ApprovedAt: day(1), PurchasedAt: day(1), ProductCategory: "toys", OrderItemID: 1, Price: 10},
		{OrderID: "o2", CustomerID: "b", CustomerCity: "sao paulo", CustomerState: "SP", ApprovedAt: day(3), PurchasedAt: day(3), ProductCategory: "books", OrderItemID: 2, Price: 40},
	})
	r, err := dataset.NewDateRange(day(1), day(31))
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.Recompute(ds, r)
}

func TestForView(t *testing.T) {
	v := testViews(t)

	tests := []struct {
		name       string
		chartType  string
		wantLabels int
		firstLabel any
	}{
		{DailyOrders, "line", 3, "2018-01-01"},
		{TopProducts, "bar", 2, "books"},
		{CustomersState, "bar", 2, "RJ"},
		{MonthlyRevenue, "line", 1, "January"},
		{RFMMonetary, "bar", 2, "b"},
		{Segments, "bar", len(models.Segments), string(models.SegmentChampions)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ForView(v, tt.name, 5)
			if err != nil {
				t.Fatalf("ForView() error = %v", err)
			}
			if cfg.Type != tt.chartType {
				t.Errorf("expected type %s, got %s", tt.chartType, cfg.Type)
			}
			if len(cfg.Data.Labels) != tt.wantLabels {
				t.Fatalf("expected %d labels, got %d", tt.wantLabels, len(cfg.Data.Labels))
			}
			if cfg.Data.Labels[0] != tt.firstLabel {
				t.Errorf("expected first label %v, got %v", tt.firstLabel, cfg.Data.Labels[0])
			}
			if len(cfg.Data.DataSets) != 1 || len(cfg.Data.DataSets[0].Data) != tt.wantLabels {
				t.Errorf("dataset does not line up with labels: %+v", cfg.Data.DataSets)
			}
		})
	}
}

func TestForView_Unknown(t *testing.T) {
	_, err := ForView(testViews(t), "pie", 5)
	if !errors.Is(err, ErrUnknownChart) {
		t.Errorf("expected ErrUnknownChart, got %v", err)
	}
}

func TestAll(t *testing.T) {
	all, err := All(testViews(t), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(Names) {
		t.Errorf("expected %d charts, got %d", len(Names), len(all))
	}
}

func TestURL(t *testing.T) {
	cfg, err := ForView(testViews(t), MonthlyOrders, 5)
	if err != nil {
		t.Fatal(err)
	}

	url, err := URL(cfg)
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if !strings.Contains(url, "quickchart.io") {
		t.Errorf("expected a quickchart link, got %s", url)
	}
}
