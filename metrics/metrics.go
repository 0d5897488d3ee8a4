// Package metrics exposes Prometheus counters for the conversion pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements lc.Metrics over a private registry.
type Collector struct {
	reg *prometheus.Registry

	TripsProcessed prometheus.Counter
	TripsSkipped   prometheus.Counter

	Connections           *prometheus.CounterVec // type label: connection|cancelled
	ConnectionsSuppressed prometheus.Counter

	FeedFetchErrs prometheus.Counter
	BatchDuration prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TripsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfsrt2lc_trips_processed_total",
			Help: "Total trip updates successfully reconciled.",
		}),
		TripsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfsrt2lc_trips_skipped_total",
			Help: "Total trip updates dropped for missing or ambiguous data.",
		}),
		Connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfsrt2lc_connections_total",
			Help: "Total connections emitted.",
		}, []string{"type"}),
		ConnectionsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfsrt2lc_connections_suppressed_total",
			Help: "Total connections filtered out as unchanged by the history.",
		}),
		FeedFetchErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfsrt2lc_feed_fetch_errors_total",
			Help: "Total realtime feed fetch or decode failures.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gtfsrt2lc_batch_duration_seconds",
			Help:    "Duration of processing one feed snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfsrt2lc_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfsrt2lc_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gtfsrt2lc_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.TripsProcessed, c.TripsSkipped,
		c.Connections, c.ConnectionsSuppressed,
		c.FeedFetchErrs, c.BatchDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
	)
	return c
}

// lc.Metrics implementation.

func (c *Collector) TripProcessed() { c.TripsProcessed.Inc() }
func (c *Collector) TripSkipped()   { c.TripsSkipped.Inc() }

func (c *Collector) ConnectionEmitted(cancelled bool) {
	if cancelled {
		c.Connections.WithLabelValues("cancelled").Inc()
	} else {
		c.Connections.WithLabelValues("connection").Inc()
	}
}

func (c *Collector) ConnectionSuppressed() { c.ConnectionsSuppressed.Inc() }

func (c *Collector) BatchDone(d time.Duration) { c.BatchDuration.Observe(d.Seconds()) }

// publisher.Metrics implementation.

func (c *Collector) NATSPublishedInc()  { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc() { c.NATSPublishErrs.Inc() }
func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
