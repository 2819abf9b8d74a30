package pipeline

import (
	"time"

	"ecommerce-dashboard/internal/models"
)

type monthTotals struct {
	present [13]bool
	count   [13]int
	revenue [13]float64
}

// byMonthName buckets lines by the calendar month of their approval, folding
// every year into the same named bucket. Months between the first and last
// approval month that saw no lines still get a zero bucket.
//
// Folding years is only faithful for single-year ranges; a two-year range
// adds January 2017 and January 2018 together.
func byMonthName(lines []models.OrderLine) *monthTotals {
	totals := &monthTotals{}
	var first, last time.Time
	for _, l := range lines {
		if l.ApprovedAt.IsZero() {
			continue
		}
		m := monthStart(l.ApprovedAt)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
		month := l.ApprovedAt.Month()
		if l.OrderID != "" {
			totals.count[month]++
		}
		totals.revenue[month] += l.Price
	}

	if first.IsZero() {
		return totals
	}
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		totals.present[m.Month()] = true
	}
	return totals
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthlyOrders counts lines per month name, January first.
func MonthlyOrders(lines []models.OrderLine) []models.MonthlyOrders {
	totals := byMonthName(lines)
	result := []models.MonthlyOrders{}
	for m := time.January; m <= time.December; m++ {
		if totals.present[m] {
			result = append(result, models.MonthlyOrders{Month: m.String(), TotalOrder: totals.count[m]})
		}
	}
	return result
}

// MonthlyRevenue sums price per month name, January first.
func MonthlyRevenue(lines []models.OrderLine) []models.MonthlyRevenue {
	totals := byMonthName(lines)
	result := []models.MonthlyRevenue{}
	for m := time.January; m <= time.December; m++ {
		if totals.present[m] {
			result = append(result, models.MonthlyRevenue{Month: m.String(), TotalRevenue: totals.revenue[m]})
		}
	}
	return result
}
