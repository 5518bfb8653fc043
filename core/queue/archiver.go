package queue

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core/history"
)

func newRecord(entry Entry, removedBy string, now time.Time, loc *time.Location) history.Record {
	ids := make([]string, 0, len(entry.Students))
	names := make([]string, 0, len(entry.Students))
	for _, s := range entry.Students {
		ids = append(ids, s.ID)
		names = append(names, s.Name)
	}
	return history.Record{
		ID:           uuid.NewString(),
		EntryID:      entry.ID,
		CarNumber:    entry.CarNumber,
		CampusID:     entry.CampusID,
		Lane:         string(entry.Lane),
		StudentIDs:   ids,
		StudentNames: names,
		QueuedAt:     entry.AssignedAt,
		CompletedAt:  now,
		WaitSeconds:  int(math.Floor(now.Sub(entry.AssignedAt).Seconds())),
		AddedBy:      entry.AddedBy,
		RemovedBy:    removedBy,
		DateLabel:    history.DateLabel(now, loc),
	}
}

// archive records the entry's history and deletes it within tx.
// The entry must have been read through the same tx.
func archive(tx Tx, entry Entry, removedBy string, now time.Time, loc *time.Location) (history.Record, error) {
	rec := newRecord(entry, removedBy, now, loc)
	if err := tx.InsertHistory(rec); err != nil {
		return history.Record{}, errors.Wrap(err, "inserting history record")
	}
	if err := tx.DeleteEntry(entry.ID); err != nil {
		return history.Record{}, errors.Wrap(err, "deleting queue entry")
	}
	return rec, nil
}
