package pipeline

import (
	"math"
	"slices"
	"time"

	"ecommerce-dashboard/internal/models"
)

const monetaryTiles = 5

// RFM computes recency, frequency and monetary value per customer and scores
// them. Recency is the number of calendar days between the customer's last
// purchase and baseline, which callers pass as the latest purchase of the
// whole dataset rather than of the working set.
func RFM(lines []models.OrderLine, baseline time.Time) []models.RFMRecord {
	type acc struct {
		last     time.Time
		orders   map[string]struct{}
		monetary float64
	}

	groups := newGrouped[acc]()
	for _, l := range lines {
		if l.CustomerID == "" {
			continue
		}
		a := groups.at(l.CustomerID, func() acc { return acc{orders: make(map[string]struct{})} })
		if l.PurchasedAt.After(a.last) {
			a.last = l.PurchasedAt
		}
		if l.OrderID != "" {
			a.orders[l.OrderID] = struct{}{}
		}
		a.monetary += l.Price
	}

	records := make([]models.RFMRecord, len(groups.keys))
	for i, id := range groups.keys {
		a := groups.items[i]
		records[i] = models.RFMRecord{
			CustomerID:   id,
			LastPurchase: a.last,
			Recency:      daysBetween(a.last, baseline),
			Frequency:    len(a.orders),
			Monetary:     a.monetary,
		}
	}
	score(records)
	return records
}

// score fills in the R, F and M scores and the segment. The monetary score is
// the customer's quintile by monetary value, 5 being the top fifth.
func score(records []models.RFMRecord) {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return -compareFloatDesc(records[a].Monetary, records[b].Monetary)
	})
	for rank, i := range order {
		records[i].MonetaryScore = ntile(rank, len(records), monetaryTiles)
	}

	for i := range records {
		r := &records[i]
		r.RecencyScore = recencyScore(r.Recency)
		r.FrequencyScore = frequencyScore(r.Frequency)
		r.Segment = segmentFor(r.Score())
	}
}

// ntile mirrors SQL NTILE: rank (0-based) of n rows split into tiles groups,
// with the leading groups one row larger when n does not divide evenly.
func ntile(rank, n, tiles int) int {
	size, extra := n/tiles, n%tiles
	large := extra * (size + 1)
	if rank < large {
		return rank/(size+1) + 1
	}
	return extra + (rank-large)/size + 1
}

func recencyScore(days int) int {
	switch {
	case days <= 30:
		return 5
	case days <= 90:
		return 4
	case days <= 180:
		return 3
	case days <= 365:
		return 2
	default:
		return 1
	}
}

func frequencyScore(orders int) int {
	switch {
	case orders >= 20:
		return 5
	case orders >= 11:
		return 4
	case orders >= 6:
		return 3
	case orders >= 3:
		return 2
	default:
		return 1
	}
}

func segmentFor(total int) models.Segment {
	switch {
	case total >= 12:
		return models.SegmentChampions
	case total >= 9:
		return models.SegmentLoyal
	case total >= 6:
		return models.SegmentAtRisk
	default:
		return models.SegmentLost
	}
}

// SegmentCounts tallies customers per segment, best segment first.
func SegmentCounts(records []models.RFMRecord) []models.SegmentCount {
	if len(records) == 0 {
		return []models.SegmentCount{}
	}
	counts := make(map[models.Segment]int, len(models.Segments))
	for _, r := range records {
		counts[r.Segment]++
	}
	result := make([]models.SegmentCount, len(models.Segments))
	for i, s := range models.Segments {
		result[i] = models.SegmentCount{Segment: s, Customers: counts[s]}
	}
	return result
}

// TopByRecency returns the n most recent customers.
func TopByRecency(records []models.RFMRecord, n int) []models.RFMRecord {
	return topBy(records, n, func(a, b models.RFMRecord) int { return a.Recency - b.Recency })
}

func TopByFrequency(records []models.RFMRecord, n int) []models.RFMRecord {
	return topBy(records, n, func(a, b models.RFMRecord) int { return b.Frequency - a.Frequency })
}

func TopByMonetary(records []models.RFMRecord, n int) []models.RFMRecord {
	return topBy(records, n, func(a, b models.RFMRecord) int { return compareFloatDesc(a.Monetary, b.Monetary) })
}

func topBy(records []models.RFMRecord, n int, cmp func(a, b models.RFMRecord) int) []models.RFMRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, cmp)
	return nonNil(Head(sorted, n))
}

// Summarize reports the headline metrics. Averages are NaN when there are no
// customers; recency and frequency averages are rounded to one decimal.
func Summarize(daily []models.DailyOrders, records []models.RFMRecord) models.Summary {
	s := models.Summary{
		AverageRecency:   models.Average(math.NaN()),
		AverageFrequency: models.Average(math.NaN()),
		AverageMonetary:  models.Average(math.NaN()),
		Customers:        len(records),
	}
	for _, d := range daily {
		s.TotalOrders += d.OrderCount
		s.TotalRevenue += d.Revenue
	}
	if len(records) == 0 {
		return s
	}

	var recency, frequency, monetary float64
	for _, r := range records {
		recency += float64(r.Recency)
		frequency += float64(r.Frequency)
		monetary += r.Monetary
	}
	n := float64(len(records))
	s.AverageRecency = models.Average(roundTo(recency/n, 1))
	s.AverageFrequency = models.Average(roundTo(frequency/n, 1))
	s.AverageMonetary = models.Average(monetary / n)
	return s
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
