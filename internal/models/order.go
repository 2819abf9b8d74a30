package models

import (
	"encoding/json"
	"math"
	"time"
)

// OrderLine is one row of the transactions extract. Several lines share an
// OrderID when an order has more than one item.
type OrderLine struct {
	OrderID         string
	CustomerID      string
	CustomerCity    string
	CustomerState   string
	ApprovedAt      time.Time // zero when the order was never approved
	PurchasedAt     time.Time
	ProductCategory string
	OrderItemID     int
	Price           float64
}

type DailyOrders struct {
	Date       time.Time `json:"date"`
	OrderCount int       `json:"order_count"`
	Revenue    float64   `json:"revenue"`
}

type ProductSales struct {
	Category string `json:"category"`
	Sales    int    `json:"sales"`
}

type CustomerCount struct {
	Key            string `json:"key"`
	TotalCustomers int    `json:"total_customers"`
}

type MonthlyOrders struct {
	Month      string `json:"month"`
	TotalOrder int    `json:"total_order"`
}

type MonthlyRevenue struct {
	Month        string  `json:"month"`
	TotalRevenue float64 `json:"total_revenue"`
}

type LoyalCustomer struct {
	CustomerID    string  `json:"customer_id"`
	TotalOrder    int     `json:"total_order"`
	TotalSpending float64 `json:"total_spending"`
}

type RFMRecord struct {
	CustomerID     string    `json:"customer_id"`
	LastPurchase   time.Time `json:"last_purchase"`
	Recency        int       `json:"recency"`
	Frequency      int       `json:"frequency"`
	Monetary       float64   `json:"monetary"`
	RecencyScore   int       `json:"recency_score"`
	FrequencyScore int       `json:"frequency_score"`
	MonetaryScore  int       `json:"monetary_score"`
	Segment        Segment   `json:"segment"`
}

// Score is the summed R, F and M scores.
func (r RFMRecord) Score() int {
	return r.RecencyScore + r.FrequencyScore + r.MonetaryScore
}

type Segment string

const (
	SegmentChampions Segment = "Champions"
	SegmentLoyal     Segment = "Loyal"
	SegmentAtRisk    Segment = "At Risk"
	SegmentLost      Segment = "Lost"
)

// Segments lists segments from best to worst.
var Segments = []Segment{SegmentChampions, SegmentLoyal, SegmentAtRisk, SegmentLost}

type SegmentCount struct {
	Segment   Segment `json:"segment"`
	Customers int     `json:"customers"`
}

// Average is a mean that is NaN when there was nothing to average. It
// encodes as JSON null in that case.
type Average float64

func (a Average) Valid() bool {
	return !math.IsNaN(float64(a))
}

func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

type Summary struct {
	TotalOrders      int     `json:"total_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	AverageRecency   Average `json:"average_recency"`
	AverageFrequency Average `json:"average_frequency"`
	AverageMonetary  Average `json:"average_monetary"`
	Customers        int     `json:"customers"`
}
