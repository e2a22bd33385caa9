package recorder

import (
	"context"
	"sort"
	"sync"
	"time"

	"PriceSentinel/internal/model"
)

// MemoryRecorder keeps snapshots in process memory. Used when no database is configured and in tests.
type MemoryRecorder struct {
	mu    sync.RWMutex
	snaps map[string][]model.Snapshot
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{snaps: make(map[string][]model.Snapshot)}
}

func (m *MemoryRecorder) RecordSnapshot(_ context.Context, snap *model.Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.snaps[snap.ProductID], *snap)
	sortByTakenAt(list)
	m.snaps[snap.ProductID] = list
	return nil
}

func (m *MemoryRecorder) Latest(_ context.Context, productID string) (*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.snaps[productID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	s := list[len(list)-1]
	return &s, nil
}

func (m *MemoryRecorder) History(_ context.Context, productID string, limit int) ([]model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := tail(m.snaps[productID], limit)
	return append([]model.Snapshot(nil), out...), nil
}

func (m *MemoryRecorder) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, list := range m.snaps {
		kept := list[:0]
		for _, s := range list {
			if s.TakenAt.Before(before) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			delete(m.snaps, id)
		} else {
			m.snaps[id] = kept
		}
	}
	return removed, nil
}

func (m *MemoryRecorder) Close() error { return nil }

func sortByTakenAt(snaps []model.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].TakenAt.Before(snaps[j].TakenAt) })
}
