package monitoring

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/carline/core/queue"
)

func TestCollector_Notify(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	ctx := context.Background()

	c.Notify(ctx, queue.Event{Type: queue.EventCarAdded, CampusID: "north"})
	c.Notify(ctx, queue.Event{Type: queue.EventCarAdded, CampusID: "north"})
	c.Notify(ctx, queue.Event{Type: queue.EventCarRemoved, CampusID: "north", WaitSeconds: 95})
	c.Notify(ctx, queue.Event{Type: queue.EventQueueCleared, CampusID: "north", Count: 4})
	c.Notify(ctx, queue.Event{Type: queue.EventQueueReset, CampusID: "south", Count: 2})

	tests := []struct {
		name      string
		collector prometheus.Collector
		want      float64
	}{
		{name: "adds", collector: c.operations.WithLabelValues("car_added", "north"), want: 2},
		{name: "removes", collector: c.operations.WithLabelValues("car_removed", "north"), want: 1},
		{name: "dispatched", collector: c.archived.WithLabelValues("north", "dispatch"), want: 1},
		{name: "cleared", collector: c.archived.WithLabelValues("north", "clear"), want: 4},
		{name: "reset", collector: c.archived.WithLabelValues("south", "reset"), want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.ToFloat64(tt.collector))
		})
	}

	assert.Equal(t, 1, testutil.CollectAndCount(c.waitSeconds))
}
