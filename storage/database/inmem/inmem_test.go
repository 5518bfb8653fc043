package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/campus"
	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/core/queue"
)

func entry(id string, car, pos int) queue.Entry {
	return queue.Entry{ID: id, CarNumber: car, CampusID: "north", Lane: queue.LaneLeft, Position: pos, Status: queue.StatusWaiting}
}

func TestQueueStore_Update(t *testing.T) {
	ctx := context.Background()
	db := Open()
	store := NewQueueStore(db)

	require.NoError(t, store.Update(ctx, func(tx queue.Tx) error {
		if err := tx.InsertEntry(entry("a", 1, 1)); err != nil {
			return err
		}
		return tx.InsertEntry(entry("b", 2, 2))
	}))

	t.Run("rolled back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.Update(ctx, func(tx queue.Tx) error {
			if err := tx.DeleteEntry("a"); err != nil {
				return err
			}
			if err := tx.InsertHistory(history.Record{ID: "r1", EntryID: "a"}); err != nil {
				return err
			}
			if err := tx.ShiftPositions("north", queue.LaneLeft, 1); err != nil {
				return err
			}
			return boom
		})
		assert.Equal(t, boom, err)

		require.NoError(t, store.View(ctx, func(tx queue.ReadTx) error {
			e, err := tx.GetEntry("a")
			require.NoError(t, err)
			assert.Equal(t, 1, e.Position)
			b, err := tx.GetEntry("b")
			require.NoError(t, err)
			assert.Equal(t, 2, b.Position)
			recs, err := tx.QueryHistory(history.Filter{})
			require.NoError(t, err)
			assert.Empty(t, recs)
			return nil
		}))
	})

	t.Run("sees its own writes", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, func(tx queue.Tx) error {
			require.NoError(t, tx.InsertHistory(history.Record{ID: "r1", EntryID: "a"}))
			recs, err := tx.QueryHistory(history.Filter{})
			require.NoError(t, err)
			assert.Len(t, recs, 1)
			return tx.DeleteEntry("a")
		}))
	})

	t.Run("constraints", func(t *testing.T) {
		err := store.Update(ctx, func(tx queue.Tx) error {
			return tx.InsertEntry(entry("c", 2, 3))
		})
		assert.Equal(t, queue.ErrAlreadyQueued, err)

		err = store.Update(ctx, func(tx queue.Tx) error {
			return tx.InsertHistory(history.Record{ID: "r2", EntryID: "a"})
		})
		assert.Equal(t, errDuplicateHistory, err)

		err = store.Update(ctx, func(tx queue.Tx) error { return tx.DeleteEntry("a") })
		assert.True(t, core.IsNotFound(err))

		err = store.Update(ctx, func(tx queue.Tx) error { return tx.UpdateEntry(entry("zz", 9, 1)) })
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("waiting campuses and max position", func(t *testing.T) {
		require.NoError(t, store.View(ctx, func(tx queue.ReadTx) error {
			ids, err := tx.WaitingCampuses()
			require.NoError(t, err)
			assert.Equal(t, []string{"north"}, ids)

			max, err := tx.MaxPosition("north", queue.LaneLeft)
			require.NoError(t, err)
			assert.Equal(t, 2, max)

			max, err = tx.MaxPosition("north", queue.LaneRight)
			require.NoError(t, err)
			assert.Zero(t, max)
			return nil
		}))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Equal(t, context.Canceled, store.Update(cctx, func(queue.Tx) error { return nil }))
		assert.Equal(t, context.Canceled, store.View(cctx, func(queue.ReadTx) error { return nil }))
	})
}

func TestHistoryRepository_QueryRecords(t *testing.T) {
	db := Open()
	base := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)
	db.AddHistory(
		history.Record{ID: "1", CampusID: "north", CompletedAt: base, DateLabel: "2024-03-04"},
		history.Record{ID: "2", CampusID: "north", CompletedAt: base.Add(time.Hour), DateLabel: "2024-03-04"},
		history.Record{ID: "3", CampusID: "south", CompletedAt: base.Add(2 * time.Hour), DateLabel: "2024-03-04"},
		history.Record{ID: "4", CampusID: "north", CompletedAt: base.AddDate(0, 0, 1), DateLabel: "2024-03-05"},
	)
	repo := NewHistoryRepository(db)

	ids := func(recs []history.Record) []string {
		out := make([]string, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter history.Filter
		want   []string
	}{
		{name: "all", filter: history.Filter{}, want: []string{"1", "2", "3", "4"}},
		{name: "campus newest first", filter: history.Filter{CampusID: "north", NewestFirst: true}, want: []string{"4", "2", "1"}},
		{name: "day", filter: history.Filter{CampusID: "north", DateLabel: "2024-03-04"}, want: []string{"1", "2"}},
		{name: "limit", filter: history.Filter{NewestFirst: true, Limit: 2}, want: []string{"4", "3"}},
		{name: "range", filter: history.Filter{DateFrom: "2024-03-05", DateTo: "2024-03-31"}, want: []string{"4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := repo.QueryRecords(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(recs))
		})
	}
}

func TestCampusDirectory_Resolve(t *testing.T) {
	db := Open()
	db.AddCampus(campus.Campus{ID: "north", Name: "North Campus", IsActive: true})
	dir := NewCampusDirectory(db)

	c, err := dir.Resolve(context.Background(), "north")
	require.NoError(t, err)
	assert.Equal(t, "North Campus", c.Name)

	c, err = dir.Resolve(context.Background(), "NORTH campus")
	require.NoError(t, err)
	assert.Equal(t, "north", c.ID)

	_, err = dir.Resolve(context.Background(), "east")
	assert.Equal(t, campus.ErrNotFound, err)
}
