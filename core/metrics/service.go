package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/campus"
	"github.com/trezcool/carline/core/history"
)

// Periods
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

var ErrSnapshotNotFound = core.NewNotFoundError("metric snapshot")

type (
	Period string

	// Snapshot is a persisted aggregate over one day or month, for a campus or globally (empty CampusID).
	Snapshot struct {
		CampusID           string       `json:"campus_id"`
		Period             Period       `json:"period"`
		Label              string       `json:"label"`
		TotalEvents        int          `json:"total_events"`
		TotalWaitSeconds   int          `json:"total_wait_seconds"`
		ValidWaitCount     int          `json:"valid_wait_count"`
		AverageWaitSeconds float64      `json:"average_wait_seconds"`
		FirstArrival       *time.Time   `json:"first_arrival,omitempty"`
		LastPickup         *time.Time   `json:"last_pickup,omitempty"`
		TopCars            []CarArrival `json:"top_cars"`
		UpdatedAt          time.Time    `json:"updated_at"`
	}

	SnapshotRepository interface {
		UpsertSnapshot(ctx context.Context, snap Snapshot) error
		GetSnapshot(ctx context.Context, campusID string, period Period, label string) (Snapshot, error)
	}

	Service struct {
		records   history.Repository
		snapshots SnapshotRepository
		campuses  campus.Directory
		loc       *time.Location
	}
)

func NewService(records history.Repository, snapshots SnapshotRepository, campuses campus.Directory, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{records: records, snapshots: snapshots, campuses: campuses, loc: loc}
}

func newSnapshot(campusID string, period Period, label string, b Bucket, now time.Time) Snapshot {
	return Snapshot{
		CampusID:           campusID,
		Period:             period,
		Label:              label,
		TotalEvents:        b.TotalEvents,
		TotalWaitSeconds:   b.TotalWaitSeconds,
		ValidWaitCount:     b.ValidWaitCount,
		AverageWaitSeconds: b.AverageWaitSeconds(),
		FirstArrival:       b.FirstArrival,
		LastPickup:         b.LastPickup,
		TopCars:            []CarArrival{},
		UpdatedAt:          now,
	}
}

// RefreshDay recomputes and upserts the day snapshots of every campus with activity plus the global one.
func (svc *Service) RefreshDay(ctx context.Context, day time.Time) ([]Snapshot, error) {
	label := history.DateLabel(day, svc.loc)
	recs, err := svc.records.QueryRecords(ctx, history.Filter{DateLabel: label})
	if err != nil {
		return nil, errors.Wrap(err, "querying day records")
	}

	now := core.NowFunc().UTC()
	dm := Daily(recs, svc.loc)
	snaps := make([]Snapshot, 0, len(dm.ByCampus)+1)
	snaps = append(snaps, newSnapshot("", PeriodDay, label, dm.Global, now))
	for campusID, b := range dm.ByCampus {
		snaps = append(snaps, newSnapshot(campusID, PeriodDay, label, *b, now))
	}
	return snaps, svc.upsert(ctx, snaps)
}

// RefreshMonth recomputes and upserts the month snapshots, including each campus' top arrivals.
func (svc *Service) RefreshMonth(ctx context.Context, month time.Time) ([]Snapshot, error) {
	from, to := history.MonthRange(month, svc.loc)
	recs, err := svc.records.QueryRecords(ctx, history.Filter{DateFrom: from, DateTo: to})
	if err != nil {
		return nil, errors.Wrap(err, "querying month records")
	}

	label := month.In(svc.loc).Format(history.MonthLayout)
	byCampus := make(map[string][]history.Record)
	for _, rec := range recs {
		byCampus[rec.CampusID] = append(byCampus[rec.CampusID], rec)
	}

	now := core.NowFunc().UTC()
	dm := Daily(recs, svc.loc)
	snaps := make([]Snapshot, 0, len(byCampus)+1)
	snaps = append(snaps, newSnapshot("", PeriodMonth, label, dm.Global, now))
	for campusID, b := range dm.ByCampus {
		snap := newSnapshot(campusID, PeriodMonth, label, *b, now)
		snap.TopCars = TopArrivals(byCampus[campusID], svc.loc)
		snaps = append(snaps, snap)
	}
	return snaps, svc.upsert(ctx, snaps)
}

func (svc *Service) upsert(ctx context.Context, snaps []Snapshot) error {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CampusID < snaps[j].CampusID })
	for _, snap := range snaps {
		if err := svc.snapshots.UpsertSnapshot(ctx, snap); err != nil {
			return errors.Wrapf(err, "upserting %s snapshot %s for campus %q", snap.Period, snap.Label, snap.CampusID)
		}
	}
	return nil
}

// Day returns the freshly recomputed day snapshot of a campus.
func (svc *Service) Day(ctx context.Context, campusRef string, day time.Time) (Snapshot, error) {
	cmp, err := svc.campuses.Resolve(ctx, campusRef)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "resolving campus")
	}

	label := history.DateLabel(day, svc.loc)
	recs, err := svc.records.QueryRecords(ctx, history.Filter{CampusID: cmp.ID, DateLabel: label})
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying day records")
	}

	var b Bucket
	for _, rec := range recs {
		b.Add(rec, svc.loc)
	}
	snap := newSnapshot(cmp.ID, PeriodDay, label, b, core.NowFunc().UTC())
	if err = svc.snapshots.UpsertSnapshot(ctx, snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "upserting day snapshot")
	}
	return snap, nil
}

// TopArrivals ranks a campus' earliest arriving cars for the month containing month.
func (svc *Service) TopArrivals(ctx context.Context, campusRef string, month time.Time) ([]CarArrival, error) {
	cmp, err := svc.campuses.Resolve(ctx, campusRef)
	if err != nil {
		return nil, errors.Wrap(err, "resolving campus")
	}

	from, to := history.MonthRange(month, svc.loc)
	recs, err := svc.records.QueryRecords(ctx, history.Filter{CampusID: cmp.ID, DateFrom: from, DateTo: to})
	if err != nil {
		return nil, errors.Wrap(err, "querying month records")
	}
	return TopArrivals(recs, svc.loc), nil
}

func (svc *Service) Location() *time.Location {
	return svc.loc
}
