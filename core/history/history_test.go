package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateLabel(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// 02:30 UTC is still the previous evening in New York
	at := time.Date(2024, 3, 5, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-05", DateLabel(at, time.UTC))
	assert.Equal(t, "2024-03-04", DateLabel(at, ny))
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		t         time.Time
		wantFirst string
		wantLast  string
	}{
		{name: "leap february", t: time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC), wantFirst: "2024-02-01", wantLast: "2024-02-29"},
		{name: "december", t: time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), wantFirst: "2023-12-01", wantLast: "2023-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := MonthRange(tt.t, time.UTC)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestRecord_HasValidWait(t *testing.T) {
	queued := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{name: "zero wait", rec: Record{QueuedAt: queued, CompletedAt: queued}, want: true},
		{name: "at the cap", rec: Record{QueuedAt: queued, CompletedAt: queued.Add(2 * time.Hour), WaitSeconds: MaxValidWait}, want: true},
		{name: "over the cap", rec: Record{QueuedAt: queued, CompletedAt: queued.Add(3 * time.Hour), WaitSeconds: MaxValidWait + 1}},
		{name: "negative", rec: Record{QueuedAt: queued, CompletedAt: queued, WaitSeconds: -5}},
		{name: "completed before queued", rec: Record{QueuedAt: queued, CompletedAt: queued.Add(-time.Minute), WaitSeconds: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.HasValidWait())
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	rec := Record{CampusID: "north", DateLabel: "2024-03-04"}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty", filter: Filter{}, want: true},
		{name: "campus", filter: Filter{CampusID: "north"}, want: true},
		{name: "other campus", filter: Filter{CampusID: "south"}},
		{name: "label", filter: Filter{DateLabel: "2024-03-04"}, want: true},
		{name: "inclusive range", filter: Filter{DateFrom: "2024-03-04", DateTo: "2024-03-04"}, want: true},
		{name: "before range", filter: Filter{DateFrom: "2024-03-05"}},
		{name: "after range", filter: Filter{DateTo: "2024-03-03"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(rec))
		})
	}
}
