// Package pipeline derives the dashboard views from a working set of order
// lines. Every function here is pure: it reads its input, allocates a fresh
// result, and never retains or mutates what it was given.
//
// Rankings are stable. Ties keep the order in which their keys first appear
// in the working set, which is approval order.
package pipeline

import (
	"slices"
	"time"

	"ecommerce-dashboard/internal/models"
)

// grouped accumulates values per key in first-appearance order.
type grouped[T any] struct {
	index map[string]int
	keys  []string
	items []T
}

func newGrouped[T any]() *grouped[T] {
	return &grouped[T]{index: make(map[string]int)}
}

// at returns the slot for key, creating it with init on first sight. The
// pointer is only valid until the next call.
func (g *grouped[T]) at(key string, init func() T) *T {
	if i, ok := g.index[key]; ok {
		return &g.items[i]
	}
	g.index[key] = len(g.items)
	g.keys = append(g.keys, key)
	g.items = append(g.items, init())
	return &g.items[len(g.items)-1]
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(day(b).Sub(day(a)).Hours() / 24)
}

// DailyOrders counts lines and sums price per approval day. Days between the
// first and last approval with no lines are emitted with zero values.
func DailyOrders(lines []models.OrderLine) []models.DailyOrders {
	type bucket struct {
		count   int
		revenue float64
	}

	buckets := make(map[time.Time]*bucket)
	var first, last time.Time
	for _, l := range lines {
		if l.ApprovedAt.IsZero() {
			continue
		}
		d := day(l.ApprovedAt)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
		b := buckets[d]
		if b == nil {
			b = &bucket{}
			buckets[d] = b
		}
		if l.OrderID != "" {
			b.count++
		}
		b.revenue += l.Price
	}

	if len(buckets) == 0 {
		return []models.DailyOrders{}
	}

	result := make([]models.DailyOrders, 0, daysBetween(first, last)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		row := models.DailyOrders{Date: d}
		if b := buckets[d]; b != nil {
			row.OrderCount = b.count
			row.Revenue = b.revenue
		}
		result = append(result, row)
	}
	return result
}

// ProductSales sums order_item_id per product category, highest first.
func ProductSales(lines []models.OrderLine) []models.ProductSales {
	groups := newGrouped[models.ProductSales]()
	for _, l := range lines {
		if l.ProductCategory == "" {
			continue
		}
		p := groups.at(l.ProductCategory, func() models.ProductSales {
			return models.ProductSales{Category: l.ProductCategory}
		})
		p.Sales += l.OrderItemID
	}

	result := nonNil(groups.items)
	slices.SortStableFunc(result, func(a, b models.ProductSales) int {
		return b.Sales - a.Sales
	})
	return result
}

func CustomersByCity(lines []models.OrderLine) []models.CustomerCount {
	return distinctCustomers(lines, func(l models.OrderLine) string { return l.CustomerCity })
}

func CustomersByState(lines []models.OrderLine) []models.CustomerCount {
	return distinctCustomers(lines, func(l models.OrderLine) string { return l.CustomerState })
}

func distinctCustomers(lines []models.OrderLine, key func(models.OrderLine) string) []models.CustomerCount {
	groups := newGrouped[map[string]struct{}]()
	for _, l := range lines {
		k := key(l)
		if k == "" || l.CustomerID == "" {
			continue
		}
		seen := groups.at(k, func() map[string]struct{} { return make(map[string]struct{}) })
		(*seen)[l.CustomerID] = struct{}{}
	}

	result := make([]models.CustomerCount, len(groups.keys))
	for i, k := range groups.keys {
		result[i] = models.CustomerCount{Key: k, TotalCustomers: len(groups.items[i])}
	}
	slices.SortStableFunc(result, func(a, b models.CustomerCount) int {
		return b.TotalCustomers - a.TotalCustomers
	})
	return result
}

// LoyalCustomers ranks every customer by total spending, highest first.
// Callers take the head of the ranking.
func LoyalCustomers(lines []models.OrderLine) []models.LoyalCustomer {
	groups := newGrouped[models.LoyalCustomer]()
	for _, l := range lines {
		if l.CustomerID == "" {
			continue
		}
		c := groups.at(l.CustomerID, func() models.LoyalCustomer {
			return models.LoyalCustomer{CustomerID: l.CustomerID}
		})
		if l.OrderID != "" {
			c.TotalOrder++
		}
		c.TotalSpending += l.Price
	}

	result := nonNil(groups.items)
	slices.SortStableFunc(result, func(a, b models.LoyalCustomer) int {
		return compareFloatDesc(a.TotalSpending, b.TotalSpending)
	})
	return result
}

func compareFloatDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// nonNil keeps empty views encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Head returns at most the first n elements of s.
func Head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Tail returns at most the last n elements of s. On short inputs Head and Tail
// overlap; that is intended.
func Tail[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
