package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/queue"
)

// RedisPublisher publishes queue events on one channel per campus for lane boards to subscribe to.
type RedisPublisher struct {
	client redis.Cmdable
	prefix string
	logger core.Logger
}

var _ queue.Notifier = (*RedisPublisher)(nil)

func NewRedisPublisher(client redis.Cmdable, prefix string, logger core.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix, logger: logger}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	return redis.NewClient(opts), nil
}

func (p *RedisPublisher) Channel(campusID string) string {
	return p.prefix + ":" + campusID
}

// Notify never fails the caller; publishing errors are logged.
func (p *RedisPublisher) Notify(ctx context.Context, evt queue.Event) {
	if err := p.Publish(ctx, evt); err != nil {
		p.logger.Warn(fmt.Sprintf("broadcasting %s event for campus %s", evt.Type, evt.CampusID), err)
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt queue.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshalling event")
	}
	return errors.Wrap(p.client.Publish(ctx, p.Channel(evt.CampusID), string(payload)).Err(), "publishing event")
}
