package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/pipeline"
)

var ErrNotLoaded = errors.New("dataset not loaded")

type Options struct {
	// ViewCacheSize is the number of recomputed ranges kept in memory. Zero
	// disables the cache.
	ViewCacheSize int
	// CacheDir holds parsed dataset snapshots. Empty disables snapshots.
	CacheDir string
	Logger   *slog.Logger
}

// Dashboard owns the loaded dataset and hands out views for a date range.
type Dashboard struct {
	mu         sync.RWMutex
	data       *dataset.Dataset
	generation uint64
	loadedAt   time.Time
	cache      *lru.Cache
	snapshots  *dataset.SnapshotCache
	logger     *slog.Logger

	hits       atomic.Int64
	misses     atomic.Int64
	recomputes atomic.Int64
}

func NewDashboard(opts Options) (*Dashboard, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dashboard{logger: logger}
	if opts.ViewCacheSize > 0 {
		cache, err := lru.New(opts.ViewCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create view cache: %w", err)
		}
		d.cache = cache
	}
	if opts.CacheDir != "" {
		d.snapshots = dataset.NewSnapshotCache(opts.CacheDir)
	}
	return d, nil
}

// viewKey identifies one recompute: the dataset generation it ran against
// and the clamped range to the nanosecond.
type viewKey struct {
	generation uint64
	start, end int64
}

func newViewKey(generation uint64, r dataset.DateRange) viewKey {
	return viewKey{generation: generation, start: r.Start.UnixNano(), end: r.End.UnixNano()}
}

// SetData replaces the dataset with lines and drops every cached view.
func (d *Dashboard) SetData(lines []models.OrderLine) {
	d.setDataset(dataset.New(lines))
}

func (d *Dashboard) setDataset(ds *dataset.Dataset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = ds
	d.generation++
	d.loadedAt = time.Now()
	if d.cache != nil {
		d.cache.Purge()
	}
}

// LoadFromCSV loads path, preferring a snapshot that is newer than the file.
func (d *Dashboard) LoadFromCSV(ctx context.Context, path string) error {
	if d.snapshots != nil {
		ds, err := d.snapshots.Load(path)
		if err == nil {
			d.setDataset(ds)
			d.logger.Info("loaded from snapshot", "file", path, "records", ds.Len())
			return nil
		}
		d.logger.Debug("snapshot unusable", "file", path, "error", err)
	}

	start := time.Now()
	d.logger.Info("processing CSV file", "file", path)

	ds, err := dataset.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	d.setDataset(ds)

	duration := time.Since(start)
	d.logger.Info("csv processing complete",
		"records", ds.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(ds.Len())/duration.Seconds()))

	if d.snapshots != nil {
		if err := d.snapshots.Save(path, ds); err != nil {
			d.logger.Warn("failed to save snapshot", "error", err)
		}
	}
	return nil
}

func (d *Dashboard) current() (*dataset.Dataset, uint64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.data == nil {
		return nil, 0, ErrNotLoaded
	}
	return d.data, d.generation, nil
}

// Bounds returns the first and last approval dates in the dataset.
func (d *Dashboard) Bounds() (dataset.DateRange, error) {
	ds, _, err := d.current()
	if err != nil {
		return dataset.DateRange{}, err
	}
	bounds, ok := ds.Bounds()
	if !ok {
		return dataset.DateRange{}, fmt.Errorf("%w: no approved orders", ErrNotLoaded)
	}
	return bounds, nil
}

// Views returns every view for r, clamped to the dataset bounds. Views
// computed against a dataset that has since been replaced are never served.
func (d *Dashboard) Views(ctx context.Context, r dataset.DateRange) (*pipeline.Views, error) {
	ds, generation, err := d.current()
	if err != nil {
		return nil, err
	}

	clamped := ds.Clamp(r)
	key := newViewKey(generation, clamped)
	if d.cache != nil {
		if v, ok := d.cache.Get(key); ok {
			d.hits.Add(1)
			return v.(*pipeline.Views), nil
		}
		d.misses.Add(1)
	}

	ctx, span := observability.StartSpan(ctx, "pipeline.Recompute")
	span.SetTag("range", clamped.String())
	views := pipeline.Recompute(ds, r)
	span.Finish()
	d.recomputes.Add(1)

	observability.RequestLogger(ctx, d.logger).Debug("views recomputed",
		"range", clamped.String(),
		"rows", views.Rows,
		"duration", *span.Duration,
	)

	if d.cache != nil {
		d.cache.Add(key, views)
	}
	return views, nil
}

type Stats struct {
	Records     int                `json:"records"`
	Bounds      *dataset.DateRange `json:"bounds,omitempty"`
	LoadedAt    time.Time          `json:"loaded_at"`
	CacheSize   int                `json:"cache_size"`
	CacheHits   int64              `json:"cache_hits"`
	CacheMisses int64              `json:"cache_misses"`
	Recomputes  int64              `json:"recomputes"`
}

func (d *Dashboard) Stats() Stats {
	d.mu.RLock()
	ds, loadedAt := d.data, d.loadedAt
	d.mu.RUnlock()

	s := Stats{
		LoadedAt:    loadedAt,
		CacheHits:   d.hits.Load(),
		CacheMisses: d.misses.Load(),
		Recomputes:  d.recomputes.Load(),
	}
	if ds != nil {
		s.Records = ds.Len()
		if b, ok := ds.Bounds(); ok {
			s.Bounds = &b
		}
	}
	if d.cache != nil {
		s.CacheSize = d.cache.Len()
	}
	return s
}
