package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/access"
	"github.com/trezcool/carline/core/campus"
	"github.com/trezcool/carline/core/history"
	"github.com/trezcool/carline/core/metrics"
	"github.com/trezcool/carline/core/student"
)

const defaultActivityLimit = 10

type (
	Option func(*Service)

	Service struct {
		store         Store
		campuses      campus.Directory
		resolver      *student.Resolver
		guard         access.Guard
		logger        core.Logger
		loc           *time.Location
		notifiers     []Notifier
		activityLimit int
	}
)

// WithLocation sets the reference timezone of history date labels.
func WithLocation(loc *time.Location) Option {
	return func(svc *Service) {
		if loc != nil {
			svc.loc = loc
		}
	}
}

func WithNotifiers(notifiers ...Notifier) Option {
	return func(svc *Service) { svc.notifiers = append(svc.notifiers, notifiers...) }
}

func WithActivityLimit(limit int) Option {
	return func(svc *Service) {
		if limit > 0 {
			svc.activityLimit = limit
		}
	}
}

func NewService(store Store, campuses campus.Directory, resolver *student.Resolver, logger core.Logger, opts ...Option) *Service {
	svc := &Service{
		store:         store,
		campuses:      campuses,
		resolver:      resolver,
		guard:         access.NewGuard(),
		logger:        logger,
		loc:           time.UTC,
		activityLimit: defaultActivityLimit,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *Service) Location() *time.Location {
	return svc.loc
}

func (svc *Service) now() time.Time {
	return core.NowFunc().UTC()
}

func (svc *Service) notify(ctx context.Context, evt Event) {
	for _, n := range svc.notifiers {
		n.Notify(ctx, evt)
	}
}

func (svc *Service) resolveCampus(ctx context.Context, ref string) (campus.Campus, error) {
	ref = core.CleanString(ref)
	if ref == "" {
		return campus.Campus{}, invalid(ErrInvalidCampus, "campus")
	}
	cmp, err := svc.campuses.Resolve(ctx, ref)
	if err != nil {
		return campus.Campus{}, errors.Wrap(err, "resolving campus")
	}
	return cmp, nil
}

// AddCar places a car at the tail of a campus lane.
func (svc *Service) AddCar(ctx context.Context, p *access.Principal, nc NewCar) (Entry, error) {
	if err := svc.guard.Authorize(p, access.ActionAllocate, nc.Campus); err != nil {
		return Entry{}, err
	}

	cmp, err := svc.resolveCampus(ctx, nc.Campus)
	if err != nil {
		return Entry{}, err
	}
	if !cmp.IsActive {
		return Entry{}, invalid(ErrInactiveCampus, "campus")
	}
	if nc.CarNumber <= 0 {
		return Entry{}, invalid(ErrInvalidCarNumber, "carNumber")
	}
	if !nc.Lane.IsValid() {
		return Entry{}, invalid(ErrInvalidLane, "lane")
	}

	students, err := svc.resolver.Resolve(ctx, nc.CarNumber, cmp.ID)
	if err != nil {
		return Entry{}, errors.Wrap(err, "resolving students")
	}
	if len(students) == 0 {
		return Entry{}, invalid(ErrNoStudents, "carNumber")
	}

	entry := Entry{
		ID:         uuid.NewString(),
		CarNumber:  nc.CarNumber,
		CampusID:   cmp.ID,
		CampusName: cmp.Name,
		Lane:       nc.Lane,
		Students:   students,
		Color:      ColorFor(nc.CarNumber),
		AssignedAt: svc.now(),
		AddedBy:    p.ID,
		Status:     StatusWaiting,
	}
	err = svc.store.Update(ctx, func(tx Tx) error {
		if _, err := tx.FindWaitingByCar(entry.CarNumber); err == nil {
			return ErrAlreadyQueued
		} else if !errors.Is(err, ErrEntryNotFound) {
			return errors.Wrap(err, "finding waiting car")
		}

		pos, err := nextPosition(tx, entry.CampusID, entry.Lane)
		if err != nil {
			return err
		}
		entry.Position = pos
		return errors.Wrap(tx.InsertEntry(entry), "inserting queue entry")
	})
	if errors.Is(err, ErrAlreadyQueued) {
		return Entry{}, invalid(ErrAlreadyQueued, "carNumber")
	}
	if err != nil {
		return Entry{}, errors.Wrap(err, "adding car")
	}

	svc.notify(ctx, Event{
		Type:      EventCarAdded,
		CampusID:  entry.CampusID,
		EntryID:   entry.ID,
		CarNumber: entry.CarNumber,
		Lane:      entry.Lane,
		Position:  entry.Position,
		At:        entry.AssignedAt,
	})
	return entry, nil
}

// RemoveCar dispatches a waiting car and closes the gap it leaves in its lane.
func (svc *Service) RemoveCar(ctx context.Context, p *access.Principal, entryID string) (Removal, error) {
	if !p.IsAuthenticated() {
		return Removal{}, access.ErrUnauthenticated
	}

	now := svc.now()
	var entry Entry
	var rec history.Record
	err := svc.store.Update(ctx, func(tx Tx) error {
		var err error
		if entry, err = tx.GetEntry(entryID); err != nil {
			return err
		}
		if err = svc.guard.Authorize(p, access.ActionDispatch, entry.CampusID); err != nil {
			return err
		}
		if entry.Status != StatusWaiting {
			return invalid(ErrNotWaiting, "id")
		}

		if rec, err = archive(tx, entry, p.ID, now, svc.loc); err != nil {
			return err
		}
		return renumberAfterRemoval(tx, entry.CampusID, entry.Lane, entry.Position)
	})
	if err != nil {
		return Removal{}, errors.Wrap(err, "removing car")
	}

	svc.notify(ctx, Event{
		Type:        EventCarRemoved,
		CampusID:    entry.CampusID,
		EntryID:     entry.ID,
		CarNumber:   entry.CarNumber,
		Lane:        entry.Lane,
		Position:    entry.Position,
		WaitSeconds: rec.WaitSeconds,
		At:          now,
	})
	return Removal{WaitSeconds: rec.WaitSeconds, CarNumber: entry.CarNumber}, nil
}

// MoveCar sends a waiting car to the tail of the other lane.
func (svc *Service) MoveCar(ctx context.Context, p *access.Principal, entryID string, lane Lane) (Entry, error) {
	if !p.IsAuthenticated() {
		return Entry{}, access.ErrUnauthenticated
	}
	if !lane.IsValid() {
		return Entry{}, invalid(ErrInvalidLane, "lane")
	}

	var entry Entry
	var fromLane Lane
	err := svc.store.Update(ctx, func(tx Tx) error {
		var err error
		if entry, err = tx.GetEntry(entryID); err != nil {
			return err
		}
		if err = svc.guard.Authorize(p, access.ActionAllocate, entry.CampusID); err != nil {
			return err
		}
		if entry.Status != StatusWaiting {
			return invalid(ErrNotWaiting, "id")
		}
		if entry.Lane == lane {
			return invalid(ErrSameLane, "lane")
		}

		fromLane = entry.Lane
		fromPos := entry.Position
		pos, err := nextPosition(tx, entry.CampusID, lane)
		if err != nil {
			return err
		}
		entry.Lane = lane
		entry.Position = pos
		if err = tx.UpdateEntry(entry); err != nil {
			return errors.Wrap(err, "updating queue entry")
		}
		return renumberAfterRemoval(tx, entry.CampusID, fromLane, fromPos)
	})
	if err != nil {
		return Entry{}, errors.Wrap(err, "moving car")
	}

	svc.notify(ctx, Event{
		Type:      EventCarMoved,
		CampusID:  entry.CampusID,
		EntryID:   entry.ID,
		CarNumber: entry.CarNumber,
		Lane:      entry.Lane,
		FromLane:  fromLane,
		Position:  entry.Position,
		At:        svc.now(),
	})
	return entry, nil
}

// ClearAllCars dispatches every waiting car of a campus at once.
func (svc *Service) ClearAllCars(ctx context.Context, p *access.Principal, campusRef string) (int, error) {
	if err := svc.guard.Authorize(p, access.ActionDispatch, campusRef); err != nil {
		return 0, err
	}
	cmp, err := svc.resolveCampus(ctx, campusRef)
	if err != nil {
		return 0, err
	}

	now := svc.now()
	var cleared int
	err = svc.store.Update(ctx, func(tx Tx) error {
		cleared = 0
		entries, err := tx.QueryEntries(EntryFilter{CampusID: cmp.ID, Status: StatusWaiting})
		if err != nil {
			return errors.Wrap(err, "querying waiting entries")
		}
		// the lanes end up empty, no renumbering needed
		for _, entry := range entries {
			if _, err = archive(tx, entry, p.ID, now, svc.loc); err != nil {
				return err
			}
			cleared++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "clearing cars")
	}

	if cleared > 0 {
		svc.notify(ctx, Event{Type: EventQueueCleared, CampusID: cmp.ID, Count: cleared, At: now})
	}
	return cleared, nil
}

// CheckCarInQueue looks a car up on every campus; campusRef does not filter the result.
func (svc *Service) CheckCarInQueue(ctx context.Context, p *access.Principal, carNumber int, campusRef string) (CarStatus, error) {
	if !p.IsAuthenticated() {
		return CarStatus{AuthState: AuthStateUnauthenticated}, nil
	}
	if carNumber <= 0 {
		return CarStatus{}, invalid(ErrInvalidCarNumber, "carNumber")
	}

	status := CarStatus{AuthState: AuthStateAuthenticated}
	err := svc.store.View(ctx, func(tx ReadTx) error {
		entry, err := tx.FindWaitingByCar(carNumber)
		if errors.Is(err, ErrEntryNotFound) {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "finding waiting car")
		}
		status.InQueue = true
		status.Entry = entry.location()
		return nil
	})
	if err != nil {
		return CarStatus{}, errors.Wrap(err, "checking car")
	}
	return status, nil
}

func (svc *Service) GetCurrentQueue(ctx context.Context, p *access.Principal, campusRef string) (CurrentQueue, error) {
	cq := CurrentQueue{LeftLane: []Entry{}, RightLane: []Entry{}, AuthState: AuthStateUnauthenticated}
	if !p.IsAuthenticated() {
		return cq, nil
	}
	cq.AuthState = AuthStateAuthenticated

	cmp, err := svc.resolveCampus(ctx, campusRef)
	if err != nil {
		return CurrentQueue{}, err
	}

	var entries []Entry
	err = svc.store.View(ctx, func(tx ReadTx) error {
		entries, err = tx.QueryEntries(EntryFilter{CampusID: cmp.ID, Status: StatusWaiting})
		return err
	})
	if err != nil {
		return CurrentQueue{}, errors.Wrap(err, "querying waiting entries")
	}

	for _, entry := range entries {
		switch entry.Lane {
		case LaneLeft:
			cq.LeftLane = append(cq.LeftLane, entry)
		case LaneRight:
			cq.RightLane = append(cq.RightLane, entry)
		}
	}
	cq.TotalCars = len(cq.LeftLane) + len(cq.RightLane)
	return cq, nil
}

func (svc *Service) GetQueueMetrics(ctx context.Context, p *access.Principal, campusRef string) (QueueMetrics, error) {
	if !p.IsAuthenticated() {
		return QueueMetrics{AuthState: AuthStateUnauthenticated}, nil
	}
	cmp, err := svc.resolveCampus(ctx, campusRef)
	if err != nil {
		return QueueMetrics{}, err
	}

	today := history.DateLabel(svc.now(), svc.loc)
	var entries []Entry
	var recs []history.Record
	err = svc.store.View(ctx, func(tx ReadTx) error {
		var err error
		if entries, err = tx.QueryEntries(EntryFilter{CampusID: cmp.ID, Status: StatusWaiting}); err != nil {
			return errors.Wrap(err, "querying waiting entries")
		}
		recs, err = tx.QueryHistory(history.Filter{CampusID: cmp.ID, DateLabel: today})
		return errors.Wrap(err, "querying today's history")
	})
	if err != nil {
		return QueueMetrics{}, err
	}

	qm := QueueMetrics{CurrentCars: len(entries), AuthState: AuthStateAuthenticated}
	for _, entry := range entries {
		if entry.Lane == LaneLeft {
			qm.LeftLaneCars++
		} else {
			qm.RightLaneCars++
		}
	}

	var b metrics.Bucket
	for _, rec := range recs {
		b.Add(rec, svc.loc)
		qm.TodayStudents += len(rec.StudentIDs)
	}
	qm.TodayTotal = b.TotalEvents
	qm.AverageWaitTime = b.RoundedAverageWait()
	return qm, nil
}

// GetRecentActivity returns the latest pickups of a campus, newest first.
func (svc *Service) GetRecentActivity(ctx context.Context, p *access.Principal, campusRef string, limit int) (RecentActivity, error) {
	ra := RecentActivity{Items: []Activity{}, AuthState: AuthStateUnauthenticated}
	if !p.IsAuthenticated() {
		return ra, nil
	}
	ra.AuthState = AuthStateAuthenticated

	cmp, err := svc.resolveCampus(ctx, campusRef)
	if err != nil {
		return RecentActivity{}, err
	}
	if limit <= 0 {
		limit = svc.activityLimit
	}

	var recs []history.Record
	err = svc.store.View(ctx, func(tx ReadTx) error {
		recs, err = tx.QueryHistory(history.Filter{CampusID: cmp.ID, NewestFirst: true, Limit: limit})
		return err
	})
	if err != nil {
		return RecentActivity{}, errors.Wrap(err, "querying history")
	}

	for _, rec := range recs {
		ra.Items = append(ra.Items, Activity{
			CarNumber:       rec.CarNumber,
			StudentNames:    rec.StudentNames,
			CompletedAt:     rec.CompletedAt,
			WaitTimeSeconds: rec.WaitSeconds,
			Lane:            Lane(rec.Lane),
		})
	}
	return ra, nil
}
