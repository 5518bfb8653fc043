package monitoring

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/carline/core/queue"
)

// Collector turns queue events into Prometheus series.
type Collector struct {
	operations  *prometheus.CounterVec
	archived    *prometheus.CounterVec
	waitSeconds *prometheus.HistogramVec
}

var _ queue.Notifier = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carline_queue_operations_total",
				Help: "Committed queue operations",
			},
			[]string{"operation", "campus_id"},
		),
		archived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carline_queue_archived_total",
				Help: "Queue entries archived to history",
			},
			[]string{"campus_id", "reason"},
		),
		waitSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "carline_pickup_wait_seconds",
				Help:    "Wait time of dispatched cars",
				Buckets: prometheus.ExponentialBuckets(30, 2, 9),
			},
			[]string{"campus_id"},
		),
	}
}

func (c *Collector) Notify(_ context.Context, evt queue.Event) {
	c.operations.WithLabelValues(string(evt.Type), evt.CampusID).Inc()

	switch evt.Type {
	case queue.EventCarRemoved:
		c.archived.WithLabelValues(evt.CampusID, "dispatch").Inc()
		c.waitSeconds.WithLabelValues(evt.CampusID).Observe(float64(evt.WaitSeconds))
	case queue.EventQueueCleared:
		c.archived.WithLabelValues(evt.CampusID, "clear").Add(float64(evt.Count))
	case queue.EventQueueReset:
		c.archived.WithLabelValues(evt.CampusID, "reset").Add(float64(evt.Count))
	}
}
