package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/core/queue"
	"github.com/trezcool/carline/core/student"
)

const (
	maxTxAttempts = 5

	entryColumns = `id, car_number, campus_id, campus_name, lane, position, students, color, assigned_at, added_by, status`
)

type entryRow struct {
	ID         string         `db:"id"`
	CarNumber  int            `db:"car_number"`
	CampusID   string         `db:"campus_id"`
	CampusName string         `db:"campus_name"`
	Lane       string         `db:"lane"`
	Position   int            `db:"position"`
	Students   types.JSONText `db:"students"`
	Color      string         `db:"color"`
	AssignedAt time.Time      `db:"assigned_at"`
	AddedBy    string         `db:"added_by"`
	Status     string         `db:"status"`
}

func newEntryRow(e queue.Entry) (entryRow, error) {
	students, err := json.Marshal(e.Students)
	if err != nil {
		return entryRow{}, errors.Wrap(err, "marshalling students")
	}
	return entryRow{
		ID:         e.ID,
		CarNumber:  e.CarNumber,
		CampusID:   e.CampusID,
		CampusName: e.CampusName,
		Lane:       string(e.Lane),
		Position:   e.Position,
		Students:   types.JSONText(students),
		Color:      e.Color,
		AssignedAt: e.AssignedAt.UTC(),
		AddedBy:    e.AddedBy,
		Status:     string(e.Status),
	}, nil
}

func (r entryRow) entry() (queue.Entry, error) {
	students := make([]student.Summary, 0)
	if err := r.Students.Unmarshal(&students); err != nil {
		return queue.Entry{}, errors.Wrap(err, "unmarshalling students")
	}
	return queue.Entry{
		ID:         r.ID,
		CarNumber:  r.CarNumber,
		CampusID:   r.CampusID,
		CampusName: r.CampusName,
		Lane:       queue.Lane(r.Lane),
		Position:   r.Position,
		Students:   students,
		Color:      r.Color,
		AssignedAt: r.AssignedAt.UTC(),
		AddedBy:    r.AddedBy,
		Status:     queue.Status(r.Status),
	}, nil
}

type queueStore struct {
	db *sqlx.DB
}

var _ queue.Store = (*queueStore)(nil)

func NewQueueStore(db *sqlx.DB) queue.Store {
	return &queueStore{db: db}
}

func (s *queueStore) View(ctx context.Context, fn func(tx queue.ReadTx) error) error {
	return s.run(ctx, true, func(t *tx) error { return fn(t) })
}

// Update runs fn in a SERIALIZABLE transaction, retrying when Postgres aborts it
// because of a concurrent one.
func (s *queueStore) Update(ctx context.Context, fn func(tx queue.Tx) error) error {
	return s.run(ctx, false, func(t *tx) error { return fn(t) })
}

func (s *queueStore) run(ctx context.Context, readOnly bool, fn func(t *tx) error) error {
	return retryTx(ctx, maxTxAttempts, func() error { return s.runOnce(ctx, readOnly, fn) })
}

// retryTx calls once until it succeeds, fails with a non-retryable error or runs out of attempts.
func retryTx(ctx context.Context, attempts int, once func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = once(); err == nil || !isRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return errors.Wrap(err, "context done before retry")
		}
	}
	return errors.Wrapf(err, "giving up after %d attempts", attempts)
}

func (s *queueStore) runOnce(ctx context.Context, readOnly bool, fn func(t *tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: readOnly})
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(&tx{ctx: ctx, tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return errors.Wrap(sqlTx.Commit(), "committing transaction")
}

type tx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

var _ queue.Tx = (*tx)(nil)

func (t *tx) GetEntry(id string) (queue.Entry, error) {
	var row entryRow
	err := t.tx.GetContext(t.ctx, &row, `SELECT `+entryColumns+` FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return queue.Entry{}, trapNoRowsErr(errors.Wrap(err, "selecting queue entry"), queue.ErrEntryNotFound)
	}
	return row.entry()
}

func (t *tx) FindWaitingByCar(carNumber int) (queue.Entry, error) {
	var row entryRow
	err := t.tx.GetContext(t.ctx, &row,
		`SELECT `+entryColumns+` FROM queue_entries WHERE car_number = $1 AND status = $2`,
		carNumber, queue.StatusWaiting)
	if err != nil {
		return queue.Entry{}, trapNoRowsErr(errors.Wrap(err, "selecting waiting car"), queue.ErrEntryNotFound)
	}
	return row.entry()
}

func (t *tx) QueryEntries(filter queue.EntryFilter) ([]queue.Entry, error) {
	var w where
	if filter.CampusID != "" {
		w.add("campus_id = ?", filter.CampusID)
	}
	if filter.Lane != "" {
		w.add("lane = ?", filter.Lane)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}

	var rows []entryRow
	q := `SELECT ` + entryColumns + ` FROM queue_entries` + w.String() + ` ORDER BY campus_id, lane, position`
	if err := t.tx.SelectContext(t.ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting queue entries")
	}

	entries := make([]queue.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (t *tx) MaxPosition(campusID string, lane queue.Lane) (int, error) {
	var max int
	err := t.tx.GetContext(t.ctx, &max,
		`SELECT COALESCE(MAX(position), 0) FROM queue_entries WHERE campus_id = $1 AND lane = $2 AND status = $3`,
		campusID, lane, queue.StatusWaiting)
	return max, errors.Wrap(err, "selecting max position")
}

func (t *tx) QueryHistory(filter history.Filter) ([]history.Record, error) {
	return queryHistory(t.ctx, t.tx, filter)
}

func (t *tx) WaitingCampuses() ([]string, error) {
	ids := make([]string, 0)
	err := t.tx.SelectContext(t.ctx, &ids,
		`SELECT DISTINCT campus_id FROM queue_entries WHERE status = $1 ORDER BY campus_id`, queue.StatusWaiting)
	return ids, errors.Wrap(err, "selecting waiting campuses")
}

func (t *tx) InsertEntry(entry queue.Entry) error {
	row, err := newEntryRow(entry)
	if err != nil {
		return err
	}
	_, err = t.tx.NamedExecContext(t.ctx, `
		INSERT INTO queue_entries (`+entryColumns+`)
		VALUES (:id, :car_number, :campus_id, :campus_name, :lane, :position, :students, :color, :assigned_at, :added_by, :status)`,
		row)
	return insertEntryErr(err)
}

func insertEntryErr(err error) error {
	if isUniqueViolation(err, waitingCarIndex) {
		return queue.ErrAlreadyQueued
	}
	return errors.Wrap(err, "inserting queue entry")
}

func (t *tx) UpdateEntry(entry queue.Entry) error {
	row, err := newEntryRow(entry)
	if err != nil {
		return err
	}
	res, err := t.tx.NamedExecContext(t.ctx, `
		UPDATE queue_entries
		SET lane = :lane, position = :position, students = :students, color = :color, status = :status
		WHERE id = :id`,
		row)
	if err != nil {
		return errors.Wrap(err, "updating queue entry")
	}
	return checkAffected(res, queue.ErrEntryNotFound)
}

func (t *tx) DeleteEntry(id string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting queue entry")
	}
	return checkAffected(res, queue.ErrEntryNotFound)
}

// ShiftPositions relies on the deferred (campus_id, lane, position) unique constraint.
func (t *tx) ShiftPositions(campusID string, lane queue.Lane, after int) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE queue_entries SET position = position - 1
		WHERE campus_id = $1 AND lane = $2 AND status = $3 AND position > $4`,
		campusID, lane, queue.StatusWaiting, after)
	return errors.Wrap(err, "shifting positions")
}

func (t *tx) InsertHistory(rec history.Record) error {
	_, err := t.tx.NamedExecContext(t.ctx, `
		INSERT INTO queue_history (`+historyColumns+`)
		VALUES (:id, :entry_id, :car_number, :campus_id, :lane, :student_ids, :student_names,
			:queued_at, :completed_at, :wait_seconds, :added_by, :removed_by, :date_label)`,
		newHistoryRow(rec))
	return errors.Wrap(err, "inserting history record")
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
