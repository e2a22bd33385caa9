package recorder

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"PriceSentinel/internal/model"
)

// ErrNotFound is returned when a product has no recorded snapshot.
var ErrNotFound = errors.New("snapshot not found")

// Recorder persists collection snapshots so trends can be computed across runs.
type Recorder interface {
	RecordSnapshot(ctx context.Context, snap *model.Snapshot) error
	// Latest returns the newest snapshot for the product or ErrNotFound.
	Latest(ctx context.Context, productID string) (*model.Snapshot, error)
	// History returns up to limit most recent snapshots, oldest first. limit <= 0 means all.
	History(ctx context.Context, productID string, limit int) ([]model.Snapshot, error)
	// Prune removes snapshots taken before the cutoff and reports how many were removed.
	Prune(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Points converts snapshots into a price series for trend analysis.
func Points(snaps []model.Snapshot) []model.PricePoint {
	points := make([]model.PricePoint, 0, len(snaps))
	for i := range snaps {
		if p, ok := snaps[i].Point(); ok {
			points = append(points, p)
		}
	}
	return points
}

func validate(snap *model.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	if snap.ID == "" {
		return errors.New("snapshot id is required")
	}
	if snap.ProductID == "" {
		return errors.New("snapshot product id is required")
	}
	return nil
}

func tail(snaps []model.Snapshot, limit int) []model.Snapshot {
	if limit > 0 && len(snaps) > limit {
		return snaps[len(snaps)-limit:]
	}
	return snaps
}
