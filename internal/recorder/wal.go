package recorder

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"PriceSentinel/internal/model"
)

const (
	defaultWALDir      = "./wal/snapshots"
	walSegmentLimit    = 1000
	walMaxSegments     = 100
	snapshotKeyPrefix  = "snapshot_"
	tombstoneKeyPrefix = "prune_"
)

// WALRecorder is an append-only snapshot journal backed by a write-ahead log.
// Pruning appends a tombstone with the cutoff instead of rewriting segments;
// old segments are dropped by the WAL once MaxSegments is reached.
type WALRecorder struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALRecorder opens the journal under dir.
func NewWALRecorder(dir string) (*WALRecorder, error) {
	if dir == "" {
		dir = defaultWALDir
	}
	w, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "seg_",
		SegmentThreshold: walSegmentLimit,
		MaxSegments:      walMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init snapshot WAL")
	}
	return &WALRecorder{wal: w}, nil
}

func (r *WALRecorder) RecordSnapshot(_ context.Context, snap *model.Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wal.Write(r.wal.CurrentIndex()+1, snapshotKeyPrefix+snap.ProductID, payload)
}

func (r *WALRecorder) Latest(ctx context.Context, productID string) (*model.Snapshot, error) {
	snaps, err := r.History(ctx, productID, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}
	return &snaps[0], nil
}

func (r *WALRecorder) History(_ context.Context, productID string, limit int) ([]model.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all, cutoff, err := r.replay()
	if err != nil {
		return nil, err
	}
	var out []model.Snapshot
	for _, s := range all {
		if s.ProductID == productID && !s.TakenAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	sortByTakenAt(out)
	return tail(out, limit), nil
}

func (r *WALRecorder) Prune(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, cutoff, err := r.replay()
	if err != nil {
		return 0, err
	}
	if !before.After(cutoff) {
		return 0, nil
	}
	removed := 0
	for _, s := range all {
		if s.TakenAt.Before(before) && !s.TakenAt.Before(cutoff) {
			removed++
		}
	}

	payload, err := before.MarshalBinary()
	if err != nil {
		return 0, errors.Wrap(err, "marshal prune cutoff")
	}
	if err := r.wal.Write(r.wal.CurrentIndex()+1, tombstoneKeyPrefix+"all", payload); err != nil {
		return 0, errors.Wrap(err, "write prune tombstone")
	}
	return removed, nil
}

// replay reads every live record and the latest prune cutoff.
func (r *WALRecorder) replay() ([]model.Snapshot, time.Time, error) {
	var (
		snaps  []model.Snapshot
		cutoff time.Time
	)
	current := r.wal.CurrentIndex()
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, ok := r.wal.Get(idx)
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(key, snapshotKeyPrefix):
			var s model.Snapshot
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, time.Time{}, errors.Wrap(err, "decode snapshot")
			}
			snaps = append(snaps, s)
		case strings.HasPrefix(key, tombstoneKeyPrefix):
			var t time.Time
			if err := t.UnmarshalBinary(payload); err != nil {
				return nil, time.Time{}, errors.Wrap(err, "decode prune cutoff")
			}
			if t.After(cutoff) {
				cutoff = t
			}
		}
	}
	return snaps, cutoff, nil
}

func (r *WALRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wal.Close()
}
