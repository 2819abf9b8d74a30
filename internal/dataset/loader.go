package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"ecommerce-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

const (
	ColOrderID     = "order_id"
	ColCustomerID  = "customer_unique_id"
	ColCity        = "customer_city"
	ColState       = "customer_state"
	ColApprovedAt  = "order_approved_at"
	ColPurchasedAt = "order_purchase_timestamp"
	ColCategory    = "product_category_name_english"
	ColOrderItemID = "order_item_id"
	ColPrice       = "price"
)

var requiredColumns = []string{
	ColOrderID, ColCustomerID, ColCity, ColState, ColApprovedAt,
	ColPurchasedAt, ColCategory, ColOrderItemID, ColPrice,
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	DateLayout,
}

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrNoRecords     = errors.New("no records found")
	ErrMissingColumn = errors.New("missing required column")
)

// ParseError reports a value that could not be coerced to its column type.
// Record is 1-based and does not count the header.
type ParseError struct {
	Record int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d: column %s: cannot parse %q: %v", e.Record, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads the CSV extract at path.
func Load(ctx context.Context, path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Read(ctx, file)
}

// Read parses a CSV extract. Columns are located by header name so extra
// columns are ignored. Any unparseable value fails the whole load.
func Read(ctx context.Context, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	lines := make([]models.OrderLine, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				line, err := parseRecord(records[i], columns)
				if err != nil {
					var pe *ParseError
					if errors.As(err, &pe) {
						pe.Record = i + 1
					}
					return err
				}
				lines[i] = line
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(lines), nil
}

type columnIndex map[string]int

func indexColumns(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return idx, nil
}

func (c columnIndex) get(record []string, col string) string {
	return strings.TrimSpace(record[c[col]])
}

func parseRecord(record []string, c columnIndex) (models.OrderLine, error) {
	approvedAt, err := parseTimestamp(c.get(record, ColApprovedAt), true)
	if err != nil {
		return models.OrderLine{}, &ParseError{Column: ColApprovedAt, Value: c.get(record, ColApprovedAt), Err: err}
	}

	purchasedAt, err := parseTimestamp(c.get(record, ColPurchasedAt), false)
	if err != nil {
		return models.OrderLine{}, &ParseError{Column: ColPurchasedAt, Value: c.get(record, ColPurchasedAt), Err: err}
	}

	price, err := strconv.ParseFloat(c.get(record, ColPrice), 64)
	if err != nil {
		return models.OrderLine{}, &ParseError{Column: ColPrice, Value: c.get(record, ColPrice), Err: err}
	}

	itemID, err := parseItemID(c.get(record, ColOrderItemID))
	if err != nil {
		return models.OrderLine{}, &ParseError{Column: ColOrderItemID, Value: c.get(record, ColOrderItemID), Err: err}
	}

	return models.OrderLine{
		OrderID:         c.get(record, ColOrderID),
		CustomerID:      c.get(record, ColCustomerID),
		CustomerCity:    c.get(record, ColCity),
		CustomerState:   c.get(record, ColState),
		ApprovedAt:      approvedAt,
		PurchasedAt:     purchasedAt,
		ProductCategory: c.get(record, ColCategory),
		OrderItemID:     itemID,
		Price:           price,
	}, nil
}

// parseTimestamp reads a naive timestamp as UTC. An empty value is the zero
// time when allowEmpty is set.
func parseTimestamp(s string, allowEmpty bool) (time.Time, error) {
	if s == "" {
		if allowEmpty {
			return time.Time{}, nil
		}
		return time.Time{}, errors.New("value is required")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized timestamp format")
}

// parseItemID accepts "3" and the float-formatted "3.0".
func parseItemID(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}
