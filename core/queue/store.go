package queue

import (
	"context"

	"github.com/trezcool/carline/core/history"
)

type (
	// EntryFilter applies AND on the set fields. Results are ordered by lane then position.
	EntryFilter struct {
		CampusID string
		Lane     Lane
		Status   Status
	}

	ReadTx interface {
		GetEntry(id string) (Entry, error)
		// FindWaitingByCar looks up the waiting entry of a car on any campus.
		FindWaitingByCar(carNumber int) (Entry, error)
		QueryEntries(filter EntryFilter) ([]Entry, error)
		// MaxPosition is 0 for an empty lane.
		MaxPosition(campusID string, lane Lane) (int, error)
		QueryHistory(filter history.Filter) ([]history.Record, error)
		// WaitingCampuses lists the ids of campuses with at least one waiting entry.
		WaitingCampuses() ([]string, error)
	}

	Tx interface {
		ReadTx

		// InsertEntry fails with ErrAlreadyQueued when the car already waits anywhere.
		InsertEntry(entry Entry) error
		UpdateEntry(entry Entry) error
		DeleteEntry(id string) error
		// ShiftPositions decrements the position of every waiting entry of the lane placed after `after`.
		ShiftPositions(campusID string, lane Lane, after int) error
		InsertHistory(rec history.Record) error
	}

	// Store is a serialized transactional store.
	// Changes made through the Tx of a failed Update are discarded.
	Store interface {
		View(ctx context.Context, fn func(tx ReadTx) error) error
		Update(ctx context.Context, fn func(tx Tx) error) error
	}
)
