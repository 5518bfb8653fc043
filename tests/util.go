package testutil

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/access"
	"github.com/trezcool/carline/core/campus"
	"github.com/trezcool/carline/core/metrics"
	"github.com/trezcool/carline/core/queue"
	"github.com/trezcool/carline/core/student"
	logsvc "github.com/trezcool/carline/services/logger"
	inmemdb "github.com/trezcool/carline/storage/database/inmem"
)

// Seeded campuses
var (
	North  = campus.Campus{ID: "north", Name: "North Campus", IsActive: true}
	South  = campus.Campus{ID: "south", Name: "South Campus", IsActive: true}
	Closed = campus.Campus{ID: "closed", Name: "Closed Campus", IsActive: false}
)

// Seeded car numbers
const (
	CarSiblings = 12 // two students at North
	CarSouth    = 34 // one student at South
	CarShared   = 56 // one student at North, one at South
	CarUnknown  = 99 // no students
)

// NewLogger returns a logger that discards all output.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.Conf)
}

// SeedDB opens an in-memory DB holding the seeded campuses and students.
func SeedDB() *inmemdb.DB {
	db := inmemdb.Open()
	db.AddCampus(North, South, Closed)
	db.AddStudent(
		student.Student{ID: "s1", Name: "Amani Kabila", Grade: "3", CarNumber: CarSiblings, CampusIDs: []string{North.ID}, IsActive: true},
		student.Student{ID: "s2", Name: "Baraka Kabila", Grade: "5", CarNumber: CarSiblings, CampusIDs: []string{North.ID}, IsActive: true},
		student.Student{ID: "s3", Name: "Chiku Moyo", Grade: "1", CarNumber: CarSouth, CampusIDs: []string{South.ID}, IsActive: true},
		student.Student{ID: "s4", Name: "Dalia Osei", Grade: "2", CarNumber: CarShared, CampusIDs: []string{North.ID}, IsActive: true},
		student.Student{ID: "s5", Name: "Eli Osei", Grade: "4", CarNumber: CarShared, CampusIDs: []string{South.ID}, IsActive: true},
		student.Student{ID: "s6", Name: "Faraji Ndlovu", Grade: "6", CarNumber: CarUnknown, CampusIDs: []string{North.ID}, IsActive: false},
	)
	return db
}

// NewQueueService builds a queue service over db.
func NewQueueService(db *inmemdb.DB, opts ...queue.Option) *queue.Service {
	return queue.NewService(
		inmemdb.NewQueueStore(db),
		inmemdb.NewCampusDirectory(db),
		student.NewResolver(inmemdb.NewStudentRepository(db)),
		NewLogger(),
		opts...,
	)
}

func NewMetricsService(db *inmemdb.DB, loc *time.Location) *metrics.Service {
	return metrics.NewService(
		inmemdb.NewHistoryRepository(db),
		inmemdb.NewSnapshotRepository(db),
		inmemdb.NewCampusDirectory(db),
		loc,
	)
}

func Admin() *access.Principal {
	return &access.Principal{ID: "u-admin", Name: "Ada Admin", Email: "admin@carline.test", Role: access.RoleAdmin}
}

func Allocator() *access.Principal {
	return &access.Principal{ID: "u-alloc", Name: "Allie Allocator", Email: "alloc@carline.test", Role: access.RoleAllocator}
}

func Dispatcher() *access.Principal {
	return &access.Principal{ID: "u-disp", Name: "Dana Dispatcher", Email: "disp@carline.test", Role: access.RoleDispatcher}
}

func Operator(perms access.Permissions) *access.Principal {
	return &access.Principal{ID: "u-op", Name: "Otto Operator", Email: "op@carline.test", Role: access.RoleOperator, Permissions: perms}
}

func Viewer() *access.Principal {
	return &access.Principal{ID: "u-view", Name: "Vic Viewer", Email: "view@carline.test", Role: access.RoleViewer}
}

// Clock is a manually advanced replacement for core.NowFunc.
type Clock struct {
	now time.Time
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *Clock) Set(t time.Time) { c.now = t }

// FreezeClock pins core.NowFunc to at until the test ends.
func FreezeClock(t *testing.T, at time.Time) *Clock {
	t.Helper()
	clock := &Clock{now: at}
	prev := core.NowFunc
	core.NowFunc = clock.Now
	t.Cleanup(func() { core.NowFunc = prev })
	return clock
}
