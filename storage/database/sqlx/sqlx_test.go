package sqlxrepos

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/carline/core/queue"
)

func TestWhere(t *testing.T) {
	var empty where
	assert.Equal(t, "", empty.String())

	var w where
	w.add("campus_id = ?", "north")
	w.add("date_label >= ?", "2024-03-01")
	limit := w.placeholder(10)

	assert.Equal(t, " WHERE campus_id = $1 AND date_label >= $2", w.String())
	assert.Equal(t, "$3", limit)
	assert.Equal(t, []interface{}{"north", "2024-03-01", 10}, w.args)
}

func TestErrorHelpers(t *testing.T) {
	serialization := &pq.Error{Code: codeSerializationFailure}
	deadlock := &pq.Error{Code: codeDeadlockDetected}
	dupCar := &pq.Error{Code: codeUniqueViolation, Constraint: waitingCarIndex}
	dupOther := &pq.Error{Code: codeUniqueViolation, Constraint: "queue_history_entry_id_key"}

	tests := []struct {
		name          string
		err           error
		wantRetryable bool
		wantDupCar    bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "serialization failure", err: errors.Wrap(serialization, "committing"), wantRetryable: true},
		{name: "deadlock", err: deadlock, wantRetryable: true},
		{name: "waiting car conflict", err: errors.Wrap(dupCar, "inserting"), wantDupCar: true},
		{name: "other unique conflict", err: dupOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRetryable, isRetryable(tt.err))
			assert.Equal(t, tt.wantDupCar, isUniqueViolation(tt.err, waitingCarIndex))
		})
	}
}

func TestTrapNoRowsErr(t *testing.T) {
	assert.Equal(t, queue.ErrEntryNotFound, trapNoRowsErr(errors.Wrap(sql.ErrNoRows, "selecting"), queue.ErrEntryNotFound))

	other := errors.New("boom")
	assert.Equal(t, other, trapNoRowsErr(other, queue.ErrEntryNotFound))
	assert.Nil(t, trapNoRowsErr(nil, queue.ErrEntryNotFound))
}

func TestRetryTx(t *testing.T) {
	serialization := &pq.Error{Code: codeSerializationFailure}
	boom := errors.New("boom")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", wantCalls: 1},
		{name: "retried until success", failures: []error{serialization, serialization}, wantCalls: 3},
		{name: "non-retryable stops", failures: []error{boom}, wantCalls: 1, wantErr: boom},
		{
			name:      "gives up",
			failures:  []error{serialization, serialization, serialization},
			wantCalls: 3,
			wantErr:   serialization,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryTx(context.Background(), 3, func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			}
		})
	}

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := retryTx(ctx, 3, func() error {
			calls++
			return serialization
		})
		assert.Equal(t, 1, calls)
		assert.Equal(t, serialization, errors.Cause(err))
	})
}

func TestInsertEntryErr(t *testing.T) {
	dupCar := &pq.Error{Code: codeUniqueViolation, Constraint: waitingCarIndex}
	dupPosition := &pq.Error{Code: codeUniqueViolation, Constraint: "queue_entries_position_key"}

	assert.NoError(t, insertEntryErr(nil))
	assert.Equal(t, queue.ErrAlreadyQueued, insertEntryErr(dupCar))
	assert.Equal(t, error(dupPosition), errors.Cause(insertEntryErr(dupPosition)))
}
