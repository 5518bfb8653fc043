package queue

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// ScheduledClearAllQueues archives every waiting entry of every campus, crediting the removal
// to whoever added the car. Each entry is archived in its own transaction so that one failure
// does not prevent the others.
func (svc *Service) ScheduledClearAllQueues(ctx context.Context) (ResetResult, error) {
	var campusIDs []string
	err := svc.store.View(ctx, func(tx ReadTx) error {
		var err error
		campusIDs, err = tx.WaitingCampuses()
		return err
	})
	if err != nil {
		return ResetResult{}, errors.Wrap(err, "listing waiting campuses")
	}

	var res ResetResult
	for _, campusID := range campusIDs {
		cleared, failed := svc.resetCampus(ctx, campusID)
		res.Entries += cleared
		res.Failed += failed
		if cleared > 0 {
			res.Campuses++
			svc.notify(ctx, Event{Type: EventQueueReset, CampusID: campusID, Count: cleared, At: svc.now()})
		}
	}

	if res.Entries > 0 || res.Failed > 0 {
		svc.logger.Info(fmt.Sprintf("queue reset: cleared %d entries on %d campuses, %d failed", res.Entries, res.Campuses, res.Failed))
	}
	return res, nil
}

func (svc *Service) resetCampus(ctx context.Context, campusID string) (cleared, failed int) {
	var entries []Entry
	err := svc.store.View(ctx, func(tx ReadTx) error {
		var err error
		entries, err = tx.QueryEntries(EntryFilter{CampusID: campusID, Status: StatusWaiting})
		return err
	})
	if err != nil {
		svc.logger.Error("queue reset: querying waiting entries of campus "+campusID, errors.WithStack(err))
		return 0, 1
	}

	// tail first, so renumbering never has to shift anything
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position > entries[j].Position })

	for _, e := range entries {
		archived, err := svc.resetEntry(ctx, e.ID)
		if err != nil {
			failed++
			svc.logger.Error(fmt.Sprintf("queue reset: archiving entry %s (car %d)", e.ID, e.CarNumber), err)
			continue
		}
		if archived {
			cleared++
		}
	}
	return cleared, failed
}

// resetEntry is a no-op when the entry left the queue since it was listed.
func (svc *Service) resetEntry(ctx context.Context, entryID string) (bool, error) {
	var archived bool
	err := svc.store.Update(ctx, func(tx Tx) error {
		archived = false
		entry, err := tx.GetEntry(entryID)
		if errors.Is(err, ErrEntryNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		if entry.Status != StatusWaiting {
			return nil
		}

		if _, err = archive(tx, entry, entry.AddedBy, svc.now(), svc.loc); err != nil {
			return err
		}
		if err = renumberAfterRemoval(tx, entry.CampusID, entry.Lane, entry.Position); err != nil {
			return err
		}
		archived = true
		return nil
	})
	return archived, err
}
