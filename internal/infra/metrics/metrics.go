// Package metrics exposes Prometheus metrics for anniversary batch runs and channel deliveries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the notifier's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RecordsCreated    prometheus.Counter
	RecordsProcessed  prometheus.Counter
	RecordsSent       prometheus.Counter
	RunErrors         prometheus.Counter
	RunsCompleted     prometheus.Counter
	LastRunTimestamp  prometheus.Gauge
	ChannelDeliveries *prometheus.CounterVec // by channel, status

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		RecordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anniversary_tracking_records_created_total",
			Help: "Tracking records created by batch runs",
		}),
		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anniversary_tracking_records_processed_total",
			Help: "Tracking records handed to the dispatcher",
		}),
		RecordsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anniversary_tracking_records_sent_total",
			Help: "Tracking records marked sent",
		}),
		RunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anniversary_batch_errors_total",
			Help: "Errors logged and skipped during batch runs",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anniversary_batch_runs_total",
			Help: "Completed batch runs",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "anniversary_batch_last_run_timestamp_seconds",
			Help: "Unix time the last batch run finished",
		}),
		ChannelDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anniversary_channel_deliveries_total",
			Help: "Notification channel send attempts by channel and status",
		}, []string{"channel", "status"}),
		registry: reg,
	}
	reg.MustRegister(
		m.RecordsCreated, m.RecordsProcessed, m.RecordsSent, m.RunErrors,
		m.RunsCompleted, m.LastRunTimestamp, m.ChannelDeliveries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ChannelDelivery counts one channel send attempt.
func (m *Metrics) ChannelDelivery(channel string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.ChannelDeliveries.WithLabelValues(channel, status).Inc()
}

// ObserveRun records the counters of a finished run.
func (m *Metrics) ObserveRun(created, processed, sent, errs int, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.RecordsCreated.Add(float64(created))
	m.RecordsProcessed.Add(float64(processed))
	m.RecordsSent.Add(float64(sent))
	m.RunErrors.Add(float64(errs))
	m.RunsCompleted.Inc()
	m.LastRunTimestamp.Set(float64(finishedAt.Unix()))
}
