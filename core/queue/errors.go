package queue

import (
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core"
)

var (
	ErrInvalidCampus    = errors.New("campus is required")
	ErrInactiveCampus   = errors.New("campus is not active")
	ErrInvalidCarNumber = errors.New("car number must be a positive integer")
	ErrInvalidLane      = errors.New("lane must be one of: left, right")
	ErrAlreadyQueued    = errors.New("car is already in the queue")
	ErrNoStudents       = errors.New("no students found for this car number")
	ErrNotWaiting       = errors.New("queue entry is not waiting")
	ErrSameLane         = errors.New("car is already in this lane")

	ErrEntryNotFound = core.NewNotFoundError("queue entry")
)

func invalid(err error, field string) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}
