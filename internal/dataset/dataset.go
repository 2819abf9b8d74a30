package dataset

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"ecommerce-dashboard/internal/models"
)

const DateLayout = "2006-01-02"

// DateRange is an inclusive [Start, End] window over approval timestamps.
// A range whose End is before its Start matches nothing.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range covering the whole of each calendar day.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: StartOfDay(start), End: EndOfDay(end)}
	if r.Empty() {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s",
			start.Format(DateLayout), end.Format(DateLayout))
	}
	return r, nil
}

func (r DateRange) Empty() bool {
	return r.End.Before(r.Start)
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{r.Start.Format(DateLayout), r.End.Format(DateLayout)})
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Dataset is the loaded extract. It is never mutated after New returns, so
// one handle can be shared by every reader.
type Dataset struct {
	lines        []models.OrderLine
	approved     int
	maxPurchased time.Time
}

// New sorts a copy of lines by approval timestamp. Lines without an approval
// timestamp sort last and never match a date range.
func New(lines []models.OrderLine) *Dataset {
	sorted := slices.Clone(lines)
	slices.SortStableFunc(sorted, func(a, b models.OrderLine) int {
		switch {
		case a.ApprovedAt.IsZero() && b.ApprovedAt.IsZero():
			return 0
		case a.ApprovedAt.IsZero():
			return 1
		case b.ApprovedAt.IsZero():
			return -1
		}
		return a.ApprovedAt.Compare(b.ApprovedAt)
	})

	d := &Dataset{lines: sorted}
	for _, l := range sorted {
		if !l.ApprovedAt.IsZero() {
			d.approved++
		}
		if l.PurchasedAt.After(d.maxPurchased) {
			d.maxPurchased = l.PurchasedAt
		}
	}
	return d
}

func (d *Dataset) Len() int {
	return len(d.lines)
}

// Lines returns a copy of every line in approval order.
func (d *Dataset) Lines() []models.OrderLine {
	return slices.Clone(d.lines)
}

// Bounds is the observed [min, max] approval timestamp. ok is false when no
// line has been approved.
func (d *Dataset) Bounds() (r DateRange, ok bool) {
	if d.approved == 0 {
		return DateRange{}, false
	}
	return DateRange{Start: d.lines[0].ApprovedAt, End: d.lines[d.approved-1].ApprovedAt}, true
}

// MaxPurchase is the latest purchase timestamp over the whole dataset. RFM
// recency is measured against it regardless of the active filter.
func (d *Dataset) MaxPurchase() time.Time {
	return d.maxPurchased
}

// Clamp narrows r to the dataset bounds. The result may be empty when r lies
// entirely outside them.
func (d *Dataset) Clamp(r DateRange) DateRange {
	bounds, ok := d.Bounds()
	if !ok {
		return DateRange{Start: r.Start, End: r.Start.Add(-time.Nanosecond)}
	}
	if r.Start.Before(bounds.Start) {
		r.Start = bounds.Start
	}
	if r.End.After(bounds.End) {
		r.End = bounds.End
	}
	return r
}

// Filter returns the working set for r: a fresh slice holding every approved
// line whose approval timestamp lies in r, in approval order.
func (d *Dataset) Filter(r DateRange) []models.OrderLine {
	if r.Empty() {
		return []models.OrderLine{}
	}
	approved := d.lines[:d.approved]
	lo := sort.Search(len(approved), func(i int) bool {
		return !approved[i].ApprovedAt.Before(r.Start)
	})
	hi := sort.Search(len(approved), func(i int) bool {
		return approved[i].ApprovedAt.After(r.End)
	})
	if lo >= hi {
		return []models.OrderLine{}
	}
	return slices.Clone(approved[lo:hi])
}
