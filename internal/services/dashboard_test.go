package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/pipeline"
)

const testCSV = `order_id,customer_unique_id,customer_city,customer_state,order_approved_at,order_purchase_timestamp,product_category_name_english,order_item_id,price
o1,c1,rio,RJ,2018-01-01 10:00:00,2018-01-01 09:00:00,toys,1,10.00
o2,c2,sao paulo,SP,2018-01-05 10:00:00,2018-01-05 09:00:00,books,1,20.00
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testLines() []models.OrderLine {
	day := func(d int) time.Time { return time.Date(2018, 1, d, 10, 0, 0, 0, time.UTC) }
	return []models.OrderLine{
		{OrderID: "o1", CustomerID: "c1", CustomerCity: "rio", CustomerState: "RJ", ApprovedAt: day(1), PurchasedAt: day(1), ProductCategory: "toys", OrderItemID: 1, Price: 10},
		{OrderID: "o2", CustomerID: "c2", CustomerCity: "rio", CustomerState: "RJ", ApprovedAt: day(5), PurchasedAt: day(5), ProductCategory: "toys", OrderItemID: 1, Price: 20},
	}
}

func newTestDashboard(t *testing.T, opts Options) *Dashboard {
	t.Helper()
	opts.Logger = testLogger()
	d, err := NewDashboard(opts)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDashboard_NotLoaded(t *testing.T) {
	d := newTestDashboard(t, Options{})

	if _, err := d.Bounds(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded from Bounds, got %v", err)
	}
	if _, err := d.Views(context.Background(), dataset.DateRange{}); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded from Views, got %v", err)
	}
	if s := d.Stats(); s.Records != 0 || s.Bounds != nil {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestDashboard_Views(t *testing.T) {
	d := newTestDashboard(t, Options{ViewCacheSize: 4})
	d.SetData(testLines())

	bounds, err := d.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	if bounds.Start.Day() != 1 || bounds.End.Day() != 5 {
		t.Errorf("unexpected bounds %v", bounds)
	}

	v, err := d.Views(context.Background(), bounds)
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows != 2 || v.Summary.TotalRevenue != 30 {
		t.Errorf("expected 2 rows and revenue 30, got %d and %v", v.Rows, v.Summary.TotalRevenue)
	}

	again, err := d.Views(context.Background(), bounds)
	if err != nil {
		t.Fatal(err)
	}
	if again != v {
		t.Error("expected the cached views for a repeated range")
	}

	s := d.Stats()
	if s.CacheHits != 1 || s.CacheMisses != 1 || s.Recomputes != 1 || s.CacheSize != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestDashboard_SetDataPurgesCache(t *testing.T) {
	d := newTestDashboard(t, Options{ViewCacheSize: 4})
	d.SetData(testLines())
	bounds, _ := d.Bounds()
	if _, err := d.Views(context.Background(), bounds); err != nil {
		t.Fatal(err)
	}

	d.SetData(testLines()[:1])
	v, err := d.Views(context.Background(), bounds)
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows != 1 {
		t.Errorf("expected views over the new data, got %d rows", v.Rows)
	}
}

func TestDashboard_LateAddAfterSetData(t *testing.T) {
	d := newTestDashboard(t, Options{ViewCacheSize: 4})
	d.SetData(testLines())
	_, generation, err := d.current()
	if err != nil {
		t.Fatal(err)
	}

	r, err := dataset.NewDateRange(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	old := dataset.New(testLines())
	stale := &pipeline.Views{Rows: 2}

	d.SetData(testLines()[:1])
	// A recompute that read the old dataset finishes after the swap.
	d.cache.Add(newViewKey(generation, old.Clamp(r)), stale)

	v, err := d.Views(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if v == stale || v.Rows != 1 {
		t.Errorf("expected views over the new data, got %d rows", v.Rows)
	}
}

func TestDashboard_ViewsKeyedOnExactRange(t *testing.T) {
	d := newTestDashboard(t, Options{ViewCacheSize: 4})
	d.SetData(testLines())

	whole, err := dataset.NewDateRange(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if v, err := d.Views(context.Background(), whole); err != nil || v.Rows != 2 {
		t.Fatalf("expected 2 rows, got %v (err %v)", v, err)
	}

	// Same calendar days, but ends before the 10:00 approval on the 5th.
	early := dataset.DateRange{Start: whole.Start, End: time.Date(2018, 1, 5, 9, 0, 0, 0, time.UTC)}
	v, err := d.Views(context.Background(), early)
	if err != nil {
		t.Fatal(err)
	}
	if v.Rows != 1 {
		t.Errorf("expected 1 row for the earlier end, got %d", v.Rows)
	}
	if s := d.Stats(); s.Recomputes != 2 || s.CacheHits != 0 {
		t.Errorf("expected two recomputes and no hits, got %+v", s)
	}
}

func TestDashboard_NoCache(t *testing.T) {
	d := newTestDashboard(t, Options{})
	d.SetData(testLines())
	bounds, _ := d.Bounds()

	for i := 0; i < 2; i++ {
		if _, err := d.Views(context.Background(), bounds); err != nil {
			t.Fatal(err)
		}
	}
	if s := d.Stats(); s.Recomputes != 2 || s.CacheHits != 0 {
		t.Errorf("expected every call to recompute, got %+v", s)
	}
}

func TestDashboard_LoadFromCSV(t *testing.T) {
	path := createTempCSV(t, testCSV)
	cacheDir := t.TempDir()

	d := newTestDashboard(t, Options{CacheDir: cacheDir})
	if err := d.LoadFromCSV(context.Background(), path); err != nil {
		t.Fatalf("LoadFromCSV() error = %v", err)
	}
	if s := d.Stats(); s.Records != 2 {
		t.Errorf("expected 2 records, got %d", s.Records)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(entries))
	}

	reloaded := newTestDashboard(t, Options{CacheDir: cacheDir})
	if err := reloaded.LoadFromCSV(context.Background(), path); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if s := reloaded.Stats(); s.Records != 2 {
		t.Errorf("expected 2 records from snapshot, got %d", s.Records)
	}
}

func TestDashboard_LoadFromCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"empty file", "", dataset.ErrEmptyFile},
		{"header only", "order_id,customer_unique_id,customer_city,customer_state,order_approved_at,order_purchase_timestamp,product_category_name_english,order_item_id,price\n", dataset.ErrNoRecords},
		{"missing column", "order_id,price\no1,1\n", dataset.ErrMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDashboard(t, Options{})
			err := d.LoadFromCSV(context.Background(), createTempCSV(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
