package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/core/queue"
)

type queueStore struct {
	db *DB
}

var _ queue.Store = (*queueStore)(nil)

func NewQueueStore(db *DB) queue.Store {
	return &queueStore{db: db}
}

func (s *queueStore) View(ctx context.Context, fn func(tx queue.ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()
	return fn(&memTx{entries: s.db.entries, history: s.db.history})
}

// Update runs fn on a copy of the entries; the copy replaces the table only if fn succeeds.
func (s *queueStore) Update(ctx context.Context, fn func(tx queue.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	entries := make(map[string]queue.Entry, len(s.db.entries))
	for id, e := range s.db.entries {
		entries[id] = e
	}
	tx := &memTx{entries: entries, history: s.db.history}
	if err := fn(tx); err != nil {
		return err
	}
	s.db.entries = tx.entries
	s.db.history = append(s.db.history, tx.pending...)
	return nil
}

type memTx struct {
	entries map[string]queue.Entry
	history []history.Record // committed
	pending []history.Record
}

var _ queue.Tx = (*memTx)(nil)

func (tx *memTx) GetEntry(id string) (queue.Entry, error) {
	if e, ok := tx.entries[id]; ok {
		return e, nil
	}
	return queue.Entry{}, queue.ErrEntryNotFound
}

func (tx *memTx) FindWaitingByCar(carNumber int) (queue.Entry, error) {
	for _, e := range tx.entries {
		if e.CarNumber == carNumber && e.Status == queue.StatusWaiting {
			return e, nil
		}
	}
	return queue.Entry{}, queue.ErrEntryNotFound
}

func (tx *memTx) QueryEntries(filter queue.EntryFilter) ([]queue.Entry, error) {
	out := make([]queue.Entry, 0)
	for _, e := range tx.entries {
		if filter.CampusID != "" && e.CampusID != filter.CampusID {
			continue
		}
		if filter.Lane != "" && e.Lane != filter.Lane {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CampusID != out[j].CampusID {
			return out[i].CampusID < out[j].CampusID
		}
		if out[i].Lane != out[j].Lane {
			return out[i].Lane < out[j].Lane
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (tx *memTx) MaxPosition(campusID string, lane queue.Lane) (int, error) {
	var max int
	for _, e := range tx.entries {
		if e.CampusID == campusID && e.Lane == lane && e.Status == queue.StatusWaiting && e.Position > max {
			max = e.Position
		}
	}
	return max, nil
}

func (tx *memTx) QueryHistory(filter history.Filter) ([]history.Record, error) {
	return queryHistory(append(tx.history[:len(tx.history):len(tx.history)], tx.pending...), filter), nil
}

func (tx *memTx) WaitingCampuses() ([]string, error) {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, e := range tx.entries {
		if e.Status == queue.StatusWaiting && !seen[e.CampusID] {
			seen[e.CampusID] = true
			out = append(out, e.CampusID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (tx *memTx) InsertEntry(entry queue.Entry) error {
	if _, err := tx.FindWaitingByCar(entry.CarNumber); err == nil {
		return queue.ErrAlreadyQueued
	}
	tx.entries[entry.ID] = entry
	return nil
}

func (tx *memTx) UpdateEntry(entry queue.Entry) error {
	if _, ok := tx.entries[entry.ID]; !ok {
		return queue.ErrEntryNotFound
	}
	tx.entries[entry.ID] = entry
	return nil
}

func (tx *memTx) DeleteEntry(id string) error {
	if _, ok := tx.entries[id]; !ok {
		return queue.ErrEntryNotFound
	}
	delete(tx.entries, id)
	return nil
}

func (tx *memTx) ShiftPositions(campusID string, lane queue.Lane, after int) error {
	for id, e := range tx.entries {
		if e.CampusID == campusID && e.Lane == lane && e.Status == queue.StatusWaiting && e.Position > after {
			e.Position--
			tx.entries[id] = e
		}
	}
	return nil
}

func (tx *memTx) InsertHistory(rec history.Record) error {
	for _, r := range tx.history {
		if r.EntryID == rec.EntryID {
			return errDuplicateHistory
		}
	}
	for _, r := range tx.pending {
		if r.EntryID == rec.EntryID {
			return errDuplicateHistory
		}
	}
	tx.pending = append(tx.pending, rec)
	return nil
}
