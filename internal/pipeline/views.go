package pipeline

import (
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
)

// Views is every derived view for one working set. It is read-only once
// built; a new range gets a new Views.
type Views struct {
	Range            dataset.DateRange       `json:"range"`
	Rows             int                     `json:"rows"`
	Summary          models.Summary          `json:"summary"`
	DailyOrders      []models.DailyOrders    `json:"daily_orders"`
	ProductSales     []models.ProductSales   `json:"product_sales"`
	CustomersByCity  []models.CustomerCount  `json:"customers_by_city"`
	CustomersByState []models.CustomerCount  `json:"customers_by_state"`
	MonthlyOrders    []models.MonthlyOrders  `json:"monthly_orders"`
	MonthlyRevenue   []models.MonthlyRevenue `json:"monthly_revenue"`
	LoyalCustomers   []models.LoyalCustomer  `json:"loyal_customers"`
	RFM              []models.RFMRecord      `json:"rfm"`
	Segments         []models.SegmentCount   `json:"segments"`
}

// Recompute filters ds to r and derives every view from the result. r is
// clamped to the dataset bounds first.
func Recompute(ds *dataset.Dataset, r dataset.DateRange) *Views {
	r = ds.Clamp(r)
	lines := ds.Filter(r)

	daily := DailyOrders(lines)
	rfm := RFM(lines, ds.MaxPurchase())

	return &Views{
		Range:            r,
		Rows:             len(lines),
		Summary:          Summarize(daily, rfm),
		DailyOrders:      daily,
		ProductSales:     ProductSales(lines),
		CustomersByCity:  CustomersByCity(lines),
		CustomersByState: CustomersByState(lines),
		MonthlyOrders:    MonthlyOrders(lines),
		MonthlyRevenue:   MonthlyRevenue(lines),
		LoyalCustomers:   LoyalCustomers(lines),
		RFM:              rfm,
		Segments:         SegmentCounts(rfm),
	}
}

func (v *Views) TopProducts(n int) []models.ProductSales {
	return Head(v.ProductSales, n)
}

func (v *Views) BottomProducts(n int) []models.ProductSales {
	return Tail(v.ProductSales, n)
}

func (v *Views) TopLoyalCustomers(n int) []models.LoyalCustomer {
	return Head(v.LoyalCustomers, n)
}
