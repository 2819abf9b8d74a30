package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecommerce-dashboard/internal/models"
)

const header = "order_id,customer_unique_id,customer_city,customer_state,order_approved_at,order_purchase_timestamp,product_category_name_english,order_item_id,price"

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead_ValidData(t *testing.T) {
	csv := ",order_id,customer_unique_id,customer_city,customer_state,order_approved_at,order_purchase_timestamp,product_category_name_english,order_item_id,price\n" +
		"0,o2,c2,rio de janeiro,RJ,2018-01-02 10:00:00,2018-01-02 09:00:00,toys,1,20.5\n" +
		"1,o1,c1,sao paulo,SP,2018-01-01 10:00:00,2018-01-01 09:00:00,health_beauty,1,10.0\n" +
		"2,o3,c1,sao paulo,SP,,2018-01-03 09:00:00,toys,1.0,5\n"

	ds, err := Read(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}

	lines := ds.Lines()
	if lines[0].OrderID != "o1" || lines[1].OrderID != "o2" {
		t.Errorf("lines should be sorted by approval, got %s, %s", lines[0].OrderID, lines[1].OrderID)
	}
	if lines[2].OrderID != "o3" || !lines[2].ApprovedAt.IsZero() {
		t.Errorf("unapproved line should sort last, got %+v", lines[2])
	}
	if lines[1].Price != 20.5 {
		t.Errorf("price = %v, want 20.5", lines[1].Price)
	}

	bounds, ok := ds.Bounds()
	if !ok {
		t.Fatal("Bounds() should be ok")
	}
	if !bounds.Start.Equal(ts("2018-01-01 10:00:00")) || !bounds.End.Equal(ts("2018-01-02 10:00:00")) {
		t.Errorf("Bounds() = %v", bounds)
	}

	if want := ts("2018-01-03 09:00:00"); !ds.MaxPurchase().Equal(want) {
		t.Errorf("MaxPurchase() = %v, want %v", ds.MaxPurchase(), want)
	}
}

func TestRead_InvalidData(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr error
		column  string
	}{
		{name: "empty file", csv: "", wantErr: ErrEmptyFile},
		{name: "header only", csv: header + "\n", wantErr: ErrNoRecords},
		{name: "missing column", csv: "order_id,price\no1,1.0\n", wantErr: ErrMissingColumn},
		{
			name:   "invalid approval timestamp",
			csv:    header + "\no1,c1,x,SP,yesterday,2018-01-01 09:00:00,toys,1,10\n",
			column: ColApprovedAt,
		},
		{
			name:   "missing purchase timestamp",
			csv:    header + "\no1,c1,x,SP,2018-01-01 10:00:00,,toys,1,10\n",
			column: ColPurchasedAt,
		},
		{
			name:   "invalid price",
			csv:    header + "\no1,c1,x,SP,2018-01-01 10:00:00,2018-01-01 09:00:00,toys,1,ten\n",
			column: ColPrice,
		},
		{
			name:   "fractional item id",
			csv:    header + "\no1,c1,x,SP,2018-01-01 10:00:00,2018-01-01 09:00:00,toys,1.5,10\n",
			column: ColOrderItemID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(tt.csv))
			if err == nil {
				t.Fatal("Read() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
			}
			if tt.column != "" {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected *ParseError, got %T: %v", err, err)
				}
				if pe.Column != tt.column {
					t.Errorf("ParseError.Column = %q, want %q", pe.Column, tt.column)
				}
				if pe.Record != 1 {
					t.Errorf("ParseError.Record = %d, want 1", pe.Record)
				}
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestFilter(t *testing.T) {
	ds := New([]models.OrderLine{
		{OrderID: "a", ApprovedAt: ts("2018-01-01 08:00:00")},
		{OrderID: "b", ApprovedAt: ts("2018-01-02 23:59:59")},
		{OrderID: "c", ApprovedAt: ts("2018-01-03 00:00:00")},
		{OrderID: "d"},
	})

	tests := []struct {
		name  string
		start string
		end   string
		want  []string
	}{
		{"whole range", "2018-01-01", "2018-01-03", []string{"a", "b", "c"}},
		{"end day inclusive", "2018-01-02", "2018-01-02", []string{"b"}},
		{"start day inclusive", "2018-01-03", "2018-01-10", []string{"c"}},
		{"outside", "2019-01-01", "2019-02-01", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := time.Parse(DateLayout, tt.start)
			end, _ := time.Parse(DateLayout, tt.end)
			r, err := NewDateRange(start, end)
			if err != nil {
				t.Fatal(err)
			}

			got := ds.Filter(ds.Clamp(r))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter() returned %d lines, want %d", len(got), len(tt.want))
			}
			for i, l := range got {
				if l.OrderID != tt.want[i] {
					t.Errorf("line %d = %s, want %s", i, l.OrderID, tt.want[i])
				}
			}
		})
	}
}

func TestFilter_ReturnsCopy(t *testing.T) {
	ds := New([]models.OrderLine{{OrderID: "a", ApprovedAt: ts("2018-01-01 08:00:00")}})
	bounds, _ := ds.Bounds()

	got := ds.Filter(bounds)
	got[0].OrderID = "mutated"

	if ds.Lines()[0].OrderID != "a" {
		t.Error("mutating the working set should not change the dataset")
	}
}

func TestNewDateRange_Invalid(t *testing.T) {
	_, err := NewDateRange(ts("2018-02-01 00:00:00"), ts("2018-01-01 00:00:00"))
	if err == nil {
		t.Error("NewDateRange() should reject start after end")
	}
}

func TestClamp(t *testing.T) {
	ds := New([]models.OrderLine{
		{ApprovedAt: ts("2018-01-05 10:00:00")},
		{ApprovedAt: ts("2018-01-20 10:00:00")},
	})

	r := ds.Clamp(DateRange{Start: ts("2017-01-01 00:00:00"), End: ts("2019-01-01 00:00:00")})
	if !r.Start.Equal(ts("2018-01-05 10:00:00")) || !r.End.Equal(ts("2018-01-20 10:00:00")) {
		t.Errorf("Clamp() = %v", r)
	}

	empty := New(nil)
	if !empty.Clamp(r).Empty() {
		t.Error("Clamp() on a dataset without approved lines should be empty")
	}
}

func TestSnapshotCache(t *testing.T) {
	path := writeCSV(t, header+"\no1,c1,x,SP,2018-01-01 10:00:00,2018-01-01 09:00:00,toys,1,10\n")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	ds, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewSnapshotCache(t.TempDir())
	if _, err := cache.Load(path); err == nil {
		t.Error("Load() before Save() should fail")
	}

	if err := cache.Save(path, ds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	restored, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if restored.Len() != 1 || restored.Lines()[0].OrderID != "o1" {
		t.Errorf("restored dataset = %+v", restored.Lines())
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(path); !errors.Is(err, ErrStaleSnapshot) {
		t.Errorf("Load() after source change error = %v, want ErrStaleSnapshot", err)
	}
}
