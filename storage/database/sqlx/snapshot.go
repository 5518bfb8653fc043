package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/carline/core/metrics"
)

type snapshotRow struct {
	CampusID           string         `db:"campus_id"`
	Period             string         `db:"period"`
	Label              string         `db:"label"`
	TotalEvents        int            `db:"total_events"`
	TotalWaitSeconds   int            `db:"total_wait_seconds"`
	ValidWaitCount     int            `db:"valid_wait_count"`
	AverageWaitSeconds float64        `db:"average_wait_seconds"`
	FirstArrival       null.Time      `db:"first_arrival"`
	LastPickup         null.Time      `db:"last_pickup"`
	TopCars            types.JSONText `db:"top_cars"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

type snapshotRepository struct {
	db *sqlx.DB
}

var _ metrics.SnapshotRepository = (*snapshotRepository)(nil)

func NewSnapshotRepository(db *sqlx.DB) metrics.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (repo *snapshotRepository) UpsertSnapshot(ctx context.Context, snap metrics.Snapshot) error {
	topCars, err := json.Marshal(snap.TopCars)
	if err != nil {
		return errors.Wrap(err, "marshalling top cars")
	}
	row := snapshotRow{
		CampusID:           snap.CampusID,
		Period:             string(snap.Period),
		Label:              snap.Label,
		TotalEvents:        snap.TotalEvents,
		TotalWaitSeconds:   snap.TotalWaitSeconds,
		ValidWaitCount:     snap.ValidWaitCount,
		AverageWaitSeconds: snap.AverageWaitSeconds,
		FirstArrival:       null.TimeFromPtr(snap.FirstArrival),
		LastPickup:         null.TimeFromPtr(snap.LastPickup),
		TopCars:            types.JSONText(topCars),
		UpdatedAt:          snap.UpdatedAt.UTC(),
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO metric_snapshots (campus_id, period, label, total_events, total_wait_seconds, valid_wait_count,
			average_wait_seconds, first_arrival, last_pickup, top_cars, updated_at)
		VALUES (:campus_id, :period, :label, :total_events, :total_wait_seconds, :valid_wait_count,
			:average_wait_seconds, :first_arrival, :last_pickup, :top_cars, :updated_at)
		ON CONFLICT (campus_id, period, label) DO UPDATE SET
			total_events = EXCLUDED.total_events,
			total_wait_seconds = EXCLUDED.total_wait_seconds,
			valid_wait_count = EXCLUDED.valid_wait_count,
			average_wait_seconds = EXCLUDED.average_wait_seconds,
			first_arrival = EXCLUDED.first_arrival,
			last_pickup = EXCLUDED.last_pickup,
			top_cars = EXCLUDED.top_cars,
			updated_at = EXCLUDED.updated_at`,
		row)
	return errors.Wrap(err, "upserting metric snapshot")
}

func (repo *snapshotRepository) GetSnapshot(ctx context.Context, campusID string, period metrics.Period, label string) (metrics.Snapshot, error) {
	var row snapshotRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT campus_id, period, label, total_events, total_wait_seconds, valid_wait_count,
			average_wait_seconds, first_arrival, last_pickup, top_cars, updated_at
		FROM metric_snapshots WHERE campus_id = $1 AND period = $2 AND label = $3`,
		campusID, period, label)
	if err != nil {
		return metrics.Snapshot{}, trapNoRowsErr(errors.Wrap(err, "selecting metric snapshot"), metrics.ErrSnapshotNotFound)
	}

	topCars := make([]metrics.CarArrival, 0)
	if err = row.TopCars.Unmarshal(&topCars); err != nil {
		return metrics.Snapshot{}, errors.Wrap(err, "unmarshalling top cars")
	}
	return metrics.Snapshot{
		CampusID:           row.CampusID,
		Period:             metrics.Period(row.Period),
		Label:              row.Label,
		TotalEvents:        row.TotalEvents,
		TotalWaitSeconds:   row.TotalWaitSeconds,
		ValidWaitCount:     row.ValidWaitCount,
		AverageWaitSeconds: row.AverageWaitSeconds,
		FirstArrival:       row.FirstArrival.Ptr(),
		LastPickup:         row.LastPickup.Ptr(),
		TopCars:            topCars,
		UpdatedAt:          row.UpdatedAt.UTC(),
	}, nil
}
