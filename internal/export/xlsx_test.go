package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/pipeline"
)

func TestWriteXLSX(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2018, 2, d, 10, 0, 0, 0, time.UTC) }
	ds := dataset.New([]models.OrderLine{
		{OrderID: "o1", CustomerID: "a", CustomerCity: "rio", CustomerState: "RJ", ApprovedAt: day(1), PurchasedAt: day(1), ProductCategory: "toys", OrderItemID: 1, Price: 10},
		{OrderID: "o2", CustomerID: "a", CustomerCity: "rio", CustomerState: "RJ", ApprovedAt: day(2), PurchasedAt: day(2), ProductCategory: "toys", OrderItemID: 1, Price: 15},
	})
	r, err := dataset.NewDateRange(day(1), day(28))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, pipeline.Recompute(ds, r)); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}

	names := f.GetSheetList()
	if len(names) != 9 || names[0] != SheetSummary {
		t.Fatalf("unexpected sheets %v", names)
	}

	rows, err := f.GetRows(SheetDailyOrders)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 days, got %d rows", len(rows))
	}
	if rows[1][0] != "2018-02-01" || rows[1][1] != "1" {
		t.Errorf("unexpected first day %v", rows[1])
	}

	rows, err = f.GetRows(SheetLoyalCustomers)
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][0] != "a" || rows[1][2] != "25" {
		t.Errorf("unexpected loyal customer row %v", rows[1])
	}
}
