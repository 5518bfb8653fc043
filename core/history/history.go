package history

import (
	"context"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	// MaxValidWait caps the wait durations used for averages.
	MaxValidWait = 7200
)

type (
	// Record is the immutable trace of a queue entry that stopped waiting.
	Record struct {
		ID           string    `json:"id"`
		EntryID      string    `json:"entry_id"`
		CarNumber    int       `json:"car_number"`
		CampusID     string    `json:"campus_id"`
		Lane         string    `json:"lane"`
		StudentIDs   []string  `json:"student_ids"`
		StudentNames []string  `json:"student_names"`
		QueuedAt     time.Time `json:"queued_at"`
		CompletedAt  time.Time `json:"completed_at"`
		WaitSeconds  int       `json:"wait_seconds"`
		AddedBy      string    `json:"added_by"`
		RemovedBy    string    `json:"removed_by"`
		DateLabel    string    `json:"date_label"`
	}

	// Filter applies AND on the set fields. Date labels are inclusive.
	Filter struct {
		CampusID    string
		DateLabel   string
		DateFrom    string
		DateTo      string
		NewestFirst bool // by CompletedAt; oldest first otherwise
		Limit       int
	}

	Repository interface {
		QueryRecords(ctx context.Context, filter Filter) ([]Record, error)
	}
)

// DateLabel returns the calendar day of t in loc.
func DateLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// MonthRange returns the first and last date labels of the month containing t in loc.
func MonthRange(t time.Time, loc *time.Location) (string, string) {
	t = t.In(loc)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout)
}

// HasValidWait reports whether the record may contribute to wait-time averages.
func (r Record) HasValidWait() bool {
	return r.WaitSeconds >= 0 && r.WaitSeconds <= MaxValidWait && !r.CompletedAt.Before(r.QueuedAt)
}

// IsSameDay reports whether the record was queued and completed on the same calendar day in loc.
func (r Record) IsSameDay(loc *time.Location) bool {
	return DateLabel(r.QueuedAt, loc) == DateLabel(r.CompletedAt, loc)
}

// Matches reports whether r satisfies every set field of f except ordering and limit.
func (f Filter) Matches(r Record) bool {
	if f.CampusID != "" && r.CampusID != f.CampusID {
		return false
	}
	if f.DateLabel != "" && r.DateLabel != f.DateLabel {
		return false
	}
	if f.DateFrom != "" && r.DateLabel < f.DateFrom {
		return false
	}
	if f.DateTo != "" && r.DateLabel > f.DateTo {
		return false
	}
	return true
}
