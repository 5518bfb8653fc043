package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/core/metrics"
	inmemdb "github.com/trezcool/carline/storage/database/inmem"
	"github.com/trezcool/carline/tests"
)

func seed(db *inmemdb.DB, campusID string, car int, queuedAt time.Time, wait time.Duration) {
	done := queuedAt.Add(wait)
	db.AddHistory(history.Record{
		ID:          campusID + "-" + queuedAt.Format(time.RFC3339),
		CarNumber:   car,
		CampusID:    campusID,
		QueuedAt:    queuedAt,
		CompletedAt: done,
		WaitSeconds: int(wait.Seconds()),
		DateLabel:   history.DateLabel(done, time.UTC),
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	testutil.FreezeClock(t, time.Date(2024, 3, 10, 3, 30, 0, 0, time.UTC))

	db := testutil.SeedDB()
	svc := testutil.NewMetricsService(db, time.UTC)
	snaps := inmemdb.NewSnapshotRepository(db)

	day := time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)
	seed(db, "north", 12, day, 2*time.Minute)
	seed(db, "north", 56, day.Add(time.Minute), 4*time.Minute)
	seed(db, "south", 34, day, 6*time.Minute)
	seed(db, "south", 34, day.AddDate(0, 0, -1), 6*time.Minute)

	t.Run("day", func(t *testing.T) {
		got, err := svc.RefreshDay(ctx, day)
		require.NoError(t, err)
		require.Len(t, got, 3) // global, north, south

		global, err := snaps.GetSnapshot(ctx, "", metrics.PeriodDay, "2024-03-09")
		require.NoError(t, err)
		assert.Equal(t, 3, global.TotalEvents)
		assert.Equal(t, 240.0, global.AverageWaitSeconds)
		assert.True(t, core.NowFunc().UTC().Equal(global.UpdatedAt))

		north, err := snaps.GetSnapshot(ctx, "north", metrics.PeriodDay, "2024-03-09")
		require.NoError(t, err)
		assert.Equal(t, 2, north.TotalEvents)
		assert.Equal(t, 180.0, north.AverageWaitSeconds)
		assert.Empty(t, north.TopCars)
	})

	t.Run("month", func(t *testing.T) {
		got, err := svc.RefreshMonth(ctx, day)
		require.NoError(t, err)
		require.Len(t, got, 3)

		south, err := snaps.GetSnapshot(ctx, "south", metrics.PeriodMonth, "2024-03")
		require.NoError(t, err)
		assert.Equal(t, 2, south.TotalEvents)
		require.Len(t, south.TopCars, 1)
		assert.Equal(t, 34, south.TopCars[0].CarNumber)
		assert.Equal(t, 2, south.TopCars[0].Appearances)
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		_, err := svc.RefreshDay(ctx, day)
		require.NoError(t, err)
		north, err := snaps.GetSnapshot(ctx, "north", metrics.PeriodDay, "2024-03-09")
		require.NoError(t, err)
		assert.Equal(t, 2, north.TotalEvents)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := snaps.GetSnapshot(ctx, "north", metrics.PeriodDay, "1999-01-01")
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_Day(t *testing.T) {
	ctx := context.Background()
	db := testutil.SeedDB()
	svc := testutil.NewMetricsService(db, time.UTC)

	day := time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)
	seed(db, "north", 12, day, 90*time.Second)

	snap, err := svc.Day(ctx, "North Campus", day)
	require.NoError(t, err)
	assert.Equal(t, "north", snap.CampusID)
	assert.Equal(t, 1, snap.TotalEvents)
	assert.Equal(t, 90.0, snap.AverageWaitSeconds)

	_, err = svc.Day(ctx, "nowhere", day)
	assert.True(t, core.IsNotFound(err))

	cars, err := svc.TopArrivals(ctx, "north", day)
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, 12, cars[0].CarNumber)
}
