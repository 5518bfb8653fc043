package inmemdb

import (
	"context"

	"github.com/trezcool/carline/core/metrics"
)

type snapshotRepository struct {
	db *DB
}

var _ metrics.SnapshotRepository = (*snapshotRepository)(nil)

func NewSnapshotRepository(db *DB) metrics.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (repo *snapshotRepository) UpsertSnapshot(_ context.Context, snap metrics.Snapshot) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.snapshots[snapshotKey{snap.CampusID, snap.Period, snap.Label}] = snap
	return nil
}

func (repo *snapshotRepository) GetSnapshot(_ context.Context, campusID string, period metrics.Period, label string) (metrics.Snapshot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if snap, ok := repo.db.snapshots[snapshotKey{campusID, period, label}]; ok {
		return snap, nil
	}
	return metrics.Snapshot{}, metrics.ErrSnapshotNotFound
}
