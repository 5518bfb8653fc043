package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core/history"
)

const historyColumns = `id, entry_id, car_number, campus_id, lane, student_ids, student_names, queued_at, completed_at, wait_seconds, added_by, removed_by, date_label`

type historyRow struct {
	ID           string         `db:"id"`
	EntryID      string         `db:"entry_id"`
	CarNumber    int            `db:"car_number"`
	CampusID     string         `db:"campus_id"`
	Lane         string         `db:"lane"`
	StudentIDs   pq.StringArray `db:"student_ids"`
	StudentNames pq.StringArray `db:"student_names"`
	QueuedAt     time.Time      `db:"queued_at"`
	CompletedAt  time.Time      `db:"completed_at"`
	WaitSeconds  int            `db:"wait_seconds"`
	AddedBy      string         `db:"added_by"`
	RemovedBy    string         `db:"removed_by"`
	DateLabel    string         `db:"date_label"`
}

func newHistoryRow(r history.Record) historyRow {
	return historyRow{
		ID:           r.ID,
		EntryID:      r.EntryID,
		CarNumber:    r.CarNumber,
		CampusID:     r.CampusID,
		Lane:         r.Lane,
		StudentIDs:   pq.StringArray(r.StudentIDs),
		StudentNames: pq.StringArray(r.StudentNames),
		QueuedAt:     r.QueuedAt.UTC(),
		CompletedAt:  r.CompletedAt.UTC(),
		WaitSeconds:  r.WaitSeconds,
		AddedBy:      r.AddedBy,
		RemovedBy:    r.RemovedBy,
		DateLabel:    r.DateLabel,
	}
}

func (r historyRow) record() history.Record {
	return history.Record{
		ID:           r.ID,
		EntryID:      r.EntryID,
		CarNumber:    r.CarNumber,
		CampusID:     r.CampusID,
		Lane:         r.Lane,
		StudentIDs:   []string(r.StudentIDs),
		StudentNames: []string(r.StudentNames),
		QueuedAt:     r.QueuedAt.UTC(),
		CompletedAt:  r.CompletedAt.UTC(),
		WaitSeconds:  r.WaitSeconds,
		AddedBy:      r.AddedBy,
		RemovedBy:    r.RemovedBy,
		DateLabel:    r.DateLabel,
	}
}

type historyRepository struct {
	db *sqlx.DB
}

var _ history.Repository = (*historyRepository)(nil)

func NewHistoryRepository(db *sqlx.DB) history.Repository {
	return &historyRepository{db: db}
}

func (repo *historyRepository) QueryRecords(ctx context.Context, filter history.Filter) ([]history.Record, error) {
	return queryHistory(ctx, repo.db, filter)
}

func queryHistory(ctx context.Context, q sqlx.QueryerContext, filter history.Filter) ([]history.Record, error) {
	var w where
	if filter.CampusID != "" {
		w.add("campus_id = ?", filter.CampusID)
	}
	if filter.DateLabel != "" {
		w.add("date_label = ?", filter.DateLabel)
	}
	if filter.DateFrom != "" {
		w.add("date_label >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		w.add("date_label <= ?", filter.DateTo)
	}

	query := `SELECT ` + historyColumns + ` FROM queue_history` + w.String()
	if filter.NewestFirst {
		query += ` ORDER BY completed_at DESC`
	} else {
		query += ` ORDER BY completed_at ASC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ` + w.placeholder(filter.Limit)
	}

	var rows []historyRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting history records")
	}
	recs := make([]history.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}
