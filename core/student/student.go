package student

import (
	"context"
	"time"
)

// NoCar is the car number of students without an assigned vehicle.
const NoCar = 0

type (
	Student struct {
		ID        string
		Name      string
		Grade     string
		Avatar    string
		Birthday  *time.Time
		CarNumber int
		CampusIDs []string
		IsActive  bool
	}

	// Summary is the snapshot of a Student denormalized into queue entries.
	Summary struct {
		ID       string     `json:"id"`
		Name     string     `json:"name"`
		Grade    string     `json:"grade"`
		Avatar   string     `json:"avatar,omitempty"`
		Birthday *time.Time `json:"birthday,omitempty"`
	}

	Repository interface {
		// QueryActiveByCarNumber returns every active student assigned to carNumber, on any campus.
		QueryActiveByCarNumber(ctx context.Context, carNumber int) ([]Student, error)
	}
)

func (s Student) Summary() Summary {
	return Summary{
		ID:       s.ID,
		Name:     s.Name,
		Grade:    s.Grade,
		Avatar:   s.Avatar,
		Birthday: s.Birthday,
	}
}

func (s Student) AttendsCampus(campusID string) bool {
	for _, id := range s.CampusIDs {
		if id == campusID {
			return true
		}
	}
	return false
}
