package dataset

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ecommerce-dashboard/internal/models"
)

const snapshotVersion = "v2"

var ErrStaleSnapshot = errors.New("snapshot is older than source file")

type snapshot struct {
	Version string
	SavedAt time.Time
	Lines   []models.OrderLine
}

// SnapshotCache stores parsed datasets as gob files so restarts skip CSV
// parsing. A snapshot is only used while it is newer than its source file.
type SnapshotCache struct {
	dir string
}

func NewSnapshotCache(dir string) *SnapshotCache {
	return &SnapshotCache{dir: dir}
}

func (c *SnapshotCache) filename(csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob", name, snapshotVersion))
}

func (c *SnapshotCache) Save(csvPath string, d *Dataset) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	file, err := os.Create(c.filename(csvPath))
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer file.Close()

	snap := snapshot{Version: snapshotVersion, SavedAt: time.Now(), Lines: d.lines}
	if err := gob.NewEncoder(file).Encode(&snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func (c *SnapshotCache) Load(csvPath string) (*Dataset, error) {
	source, err := os.Stat(csvPath)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	file, err := os.Open(c.filename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot version %q, want %q", snap.Version, snapshotVersion)
	}
	if !source.ModTime().Before(snap.SavedAt) {
		return nil, ErrStaleSnapshot
	}

	return New(snap.Lines), nil
}
