package queue

import (
	"time"

	"github.com/trezcool/carline/core/student"
)

// Lanes
const (
	LaneLeft  Lane = "left"
	LaneRight Lane = "right"
)

const StatusWaiting Status = "waiting"

// Auth states of read results
const (
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateUnauthenticated AuthState = "unauthenticated"
)

var Lanes = []Lane{LaneLeft, LaneRight}

type (
	Lane      string
	Status    string
	AuthState string

	// Entry is a car waiting in a campus lane.
	Entry struct {
		ID         string            `json:"id"`
		CarNumber  int               `json:"carNumber"`
		CampusID   string            `json:"campusId"`
		CampusName string            `json:"campusName"`
		Lane       Lane              `json:"lane"`
		Position   int               `json:"position"`
		Students   []student.Summary `json:"students"`
		Color      string            `json:"color"`
		AssignedAt time.Time         `json:"assignedTime"`
		AddedBy    string            `json:"addedBy"`
		Status     Status            `json:"status"`
	}

	NewCar struct {
		CarNumber int    `json:"carNumber"`
		Campus    string `json:"campus"` // id or name
		Lane      Lane   `json:"lane"`
	}

	// Removal is the outcome of dispatching one car.
	Removal struct {
		WaitSeconds int `json:"waitSeconds"`
		CarNumber   int `json:"carNumber"`
	}

	CarLocation struct {
		CampusID     string            `json:"campusId"`
		Lane         Lane              `json:"lane"`
		Position     int               `json:"position"`
		AssignedTime time.Time         `json:"assignedTime"`
		Students     []student.Summary `json:"students"`
	}

	CarStatus struct {
		InQueue   bool         `json:"inQueue"`
		Entry     *CarLocation `json:"entry,omitempty"`
		AuthState AuthState    `json:"authState"`
	}

	CurrentQueue struct {
		LeftLane  []Entry   `json:"leftLane"`
		RightLane []Entry   `json:"rightLane"`
		TotalCars int       `json:"totalCars"`
		AuthState AuthState `json:"authState"`
	}

	QueueMetrics struct {
		CurrentCars     int       `json:"currentCars"`
		LeftLaneCars    int       `json:"leftLaneCars"`
		RightLaneCars   int       `json:"rightLaneCars"`
		AverageWaitTime int       `json:"averageWaitTime"` // seconds
		TodayTotal      int       `json:"todayTotal"`
		TodayStudents   int       `json:"todayStudents"`
		AuthState       AuthState `json:"authState"`
	}

	Activity struct {
		CarNumber       int       `json:"carNumber"`
		StudentNames    []string  `json:"studentNames"`
		CompletedAt     time.Time `json:"completedAt"`
		WaitTimeSeconds int       `json:"waitTimeSeconds"`
		Lane            Lane      `json:"lane"`
	}

	// RecentActivity holds the newest-first pickups of a campus.
	RecentActivity struct {
		Items     []Activity `json:"items"`
		AuthState AuthState  `json:"authState"`
	}

	ResetResult struct {
		Campuses int `json:"campuses"`
		Entries  int `json:"entries"`
		Failed   int `json:"failed"`
	}
)

func (l Lane) IsValid() bool {
	return l == LaneLeft || l == LaneRight
}

func (e Entry) location() *CarLocation {
	return &CarLocation{
		CampusID:     e.CampusID,
		Lane:         e.Lane,
		Position:     e.Position,
		AssignedTime: e.AssignedAt,
		Students:     e.Students,
	}
}
