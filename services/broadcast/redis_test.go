package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/carline/core/queue"
)

type warnLogger struct {
	warnings []string
}

func (l *warnLogger) Debug(string, ...interface{}) {}
func (l *warnLogger) Info(string, ...interface{})  {}
func (l *warnLogger) Warn(msg string, _ ...interface{}) {
	l.warnings = append(l.warnings, msg)
}
func (l *warnLogger) Error(string, ...interface{}) {}
func (l *warnLogger) Fatal(string, ...interface{}) {}

func TestRedisPublisher_Notify(t *testing.T) {
	db, mock := redismock.NewClientMock()
	logger := new(warnLogger)
	pub := NewRedisPublisher(db, "carline:queue", logger)

	evt := queue.Event{
		Type:      queue.EventCarAdded,
		CampusID:  "north",
		EntryID:   "e1",
		CarNumber: 12,
		Lane:      queue.LaneLeft,
		Position:  1,
		At:        time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	assert.Equal(t, "carline:queue:north", pub.Channel("north"))

	t.Run("published", func(t *testing.T) {
		mock.ExpectPublish("carline:queue:north", string(payload)).SetVal(1)
		pub.Notify(context.Background(), evt)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Empty(t, logger.warnings)
	})

	t.Run("failure is logged, not returned", func(t *testing.T) {
		mock.ExpectPublish("carline:queue:north", string(payload)).SetErr(errors.New("connection refused"))
		pub.Notify(context.Background(), evt)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, []string{"broadcasting car_added event for campus north"}, logger.warnings)
	})

	t.Run("publish returns the error", func(t *testing.T) {
		mock.ExpectPublish("carline:queue:north", string(payload)).SetErr(errors.New("connection refused"))
		err := pub.Publish(context.Background(), evt)
		assert.EqualError(t, err, "publishing event: connection refused")
	})
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}
