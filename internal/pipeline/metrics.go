package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "etl"

// Table outcomes recorded in etl_tables_total.
const (
	outcomeCleaned     = "cleaned"
	outcomePassthrough = "passthrough"
	outcomeFailed      = "failed"
	outcomeSkipped     = "skipped"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	tables          *prometheus.CounterVec
	rows            *prometheus.CounterVec
	rawBytes        *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tables_total",
			Help:      "Raw tables processed by outcome.",
		}, []string{"table", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_total",
			Help:      "Rows read from raw tables and written to outputs.",
		}, []string{"table", "stage"}),
		rawBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "raw_bytes_total",
			Help:      "Bytes read from the raw store.",
		}, []string{"table"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "publish_failures_total",
			Help:      "Outputs that could not be published after retries.",
		}, []string{"table", "publisher"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run without table errors.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.runs, m.runDuration, m.tables, m.rows, m.rawBytes, m.publishFailures, m.lastSuccess,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(res *RunResult) {
	if m == nil {
		return
	}
	result := "success"
	if res.Failed() {
		result = "partial"
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(res.Duration.Seconds())
	if !res.Failed() {
		m.lastSuccess.Set(float64(res.FinishedAt.Unix()))
	}
}

func (m *Metrics) observeAborted(d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues("error").Inc()
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) observeTable(t TableResult) {
	if m == nil {
		return
	}
	m.tables.WithLabelValues(t.Table, t.Outcome).Inc()
	m.rows.WithLabelValues(t.Table, "in").Add(float64(t.RowsIn))
	m.rawBytes.WithLabelValues(t.Table).Add(float64(t.Bytes))
	for _, o := range t.Outputs {
		m.rows.WithLabelValues(o.Table, "out").Add(float64(o.Rows))
		for _, pub := range o.Failed {
			m.publishFailures.WithLabelValues(o.Table, pub).Inc()
		}
	}
}
