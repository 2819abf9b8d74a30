// Package export writes the dashboard views to a spreadsheet workbook.
package export

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/pipeline"
)

const defaultSheet = "Sheet1"

// Sheet names in workbook order.
const (
	SheetSummary        = "Summary"
	SheetDailyOrders    = "Daily Orders"
	SheetProductSales   = "Product Sales"
	SheetCustomerCity   = "Customers by City"
	SheetCustomerState  = "Customers by State"
	SheetMonthlyOrders  = "Monthly Orders"
	SheetMonthlyRevenue = "Monthly Revenue"
	SheetLoyalCustomers = "Loyal Customers"
	SheetRFM            = "RFM"
)

type sheet struct {
	name   string
	header []any
	rows   [][]any
}

// WriteXLSX encodes every view in v as one sheet each and writes the
// workbook to w.
func WriteXLSX(w io.Writer, v *pipeline.Views) error {
	f := excelize.NewFile()
	f.SetSheetName(defaultSheet, SheetSummary)

	for i, s := range sheets(v) {
		if i > 0 {
			f.NewSheet(s.name)
		}
		if err := writeRow(f, s.name, 1, s.header); err != nil {
			return err
		}
		for j, row := range s.rows {
			if err := writeRow(f, s.name, j+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func sheets(v *pipeline.Views) []sheet {
	summary := sheet{
		name:   SheetSummary,
		header: []any{"metric", "value"},
		rows: [][]any{
			{"start_date", v.Range.Start.Format(dataset.DateLayout)},
			{"end_date", v.Range.End.Format(dataset.DateLayout)},
			{"total_orders", v.Summary.TotalOrders},
			{"total_revenue", v.Summary.TotalRevenue},
			{"customers", v.Summary.Customers},
		},
	}
	for _, a := range []struct {
		name  string
		value float64
		valid bool
	}{
		{"average_recency", float64(v.Summary.AverageRecency), v.Summary.AverageRecency.Valid()},
		{"average_frequency", float64(v.Summary.AverageFrequency), v.Summary.AverageFrequency.Valid()},
		{"average_monetary", float64(v.Summary.AverageMonetary), v.Summary.AverageMonetary.Valid()},
	} {
		if a.valid {
			summary.rows = append(summary.rows, []any{a.name, a.value})
		} else {
			summary.rows = append(summary.rows, []any{a.name, ""})
		}
	}

	daily := sheet{name: SheetDailyOrders, header: []any{"order_date", "order_count", "revenue"}}
	for _, d := range v.DailyOrders {
		daily.rows = append(daily.rows, []any{d.Date.Format(dataset.DateLayout), d.OrderCount, d.Revenue})
	}

	products := sheet{name: SheetProductSales, header: []any{"product_category_name_english", "order_item_id"}}
	for _, p := range v.ProductSales {
		products.rows = append(products.rows, []any{p.Category, p.Sales})
	}

	city := sheet{name: SheetCustomerCity, header: []any{"customer_city", "total_customers"}}
	for _, c := range v.CustomersByCity {
		city.rows = append(city.rows, []any{c.Key, c.TotalCustomers})
	}

	state := sheet{name: SheetCustomerState, header: []any{"customer_state", "total_customers"}}
	for _, c := range v.CustomersByState {
		state.rows = append(state.rows, []any{c.Key, c.TotalCustomers})
	}

	monthlyOrders := sheet{name: SheetMonthlyOrders, header: []any{"month", "total_order"}}
	for _, m := range v.MonthlyOrders {
		monthlyOrders.rows = append(monthlyOrders.rows, []any{m.Month, m.TotalOrder})
	}

	monthlyRevenue := sheet{name: SheetMonthlyRevenue, header: []any{"month", "total_revenue"}}
	for _, m := range v.MonthlyRevenue {
		monthlyRevenue.rows = append(monthlyRevenue.rows, []any{m.Month, m.TotalRevenue})
	}

	loyal := sheet{name: SheetLoyalCustomers, header: []any{"customer_unique_id", "total_order", "total_spending"}}
	for _, c := range v.LoyalCustomers {
		loyal.rows = append(loyal.rows, []any{c.CustomerID, c.TotalOrder, c.TotalSpending})
	}

	rfm := sheet{name: SheetRFM, header: []any{
		"customer_id", "max_order_timestamp", "recency", "frequency", "monetary",
		"r_score", "f_score", "m_score", "segment",
	}}
	for _, r := range v.RFM {
		rfm.rows = append(rfm.rows, []any{
			r.CustomerID, r.LastPurchase.Format(dataset.DateLayout), r.Recency, r.Frequency, r.Monetary,
			r.RecencyScore, r.FrequencyScore, r.MonetaryScore, string(r.Segment),
		})
	}

	return []sheet{summary, daily, products, city, state, monthlyOrders, monthlyRevenue, loyal, rfm}
}
