package bulkwriter

import (
	"github.com/dogechain-lab/docwriter/helper/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors the shape of jsonrpc.Metrics in the teacher repo: plain
// prometheus instruments behind small Inc/Observe/Set helpers, all
// nil-safe so a BulkWriter constructed without metrics wiring still runs.
type Metrics struct {
	operationsEnqueued *prometheus.CounterVec
	operationsFailed   *prometheus.CounterVec
	batchesSent        prometheus.Counter
	batchSendSeconds   prometheus.Histogram
	inFlightBatches    prometheus.Gauge
}

// NewMetrics registers a fresh set of bulkwriter instruments on reg. Pass
// prometheus.DefaultRegisterer for process-global metrics, or a dedicated
// *prometheus.Registry in tests to avoid collisions between parallel
// subtests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docwriter_bulkwriter_operations_enqueued_total",
			Help: metrics.MetricName2Help("docwriter bulkwriter operations enqueued total"),
		}, []string{"kind"}),
		operationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docwriter_bulkwriter_operations_failed_total",
			Help: metrics.MetricName2Help("docwriter bulkwriter operations failed total"),
		}, []string{"kind"}),
		batchesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docwriter_bulkwriter_batches_sent_total",
			Help: metrics.MetricName2Help("docwriter bulkwriter batches sent total"),
		}),
		batchSendSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docwriter_bulkwriter_batch_send_seconds",
			Help:    metrics.MetricName2Help("docwriter bulkwriter batch send seconds"),
			Buckets: prometheus.DefBuckets,
		}),
		inFlightBatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docwriter_bulkwriter_in_flight_batches",
			Help: metrics.MetricName2Help("docwriter bulkwriter in flight batches"),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.operationsEnqueued,
			m.operationsFailed,
			m.batchesSent,
			m.batchSendSeconds,
			m.inFlightBatches,
		)
	}

	return m
}

func (m *Metrics) enqueued(kind Kind) {
	if m == nil {
		return
	}

	m.operationsEnqueued.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) failed(kind Kind) {
	if m == nil {
		return
	}

	m.operationsFailed.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) batchSent(seconds float64) {
	if m == nil {
		return
	}

	metrics.CounterInc(m.batchesSent)
	metrics.HistogramObserve(m.batchSendSeconds, seconds)
}

func (m *Metrics) setInFlightBatches(n int) {
	if m == nil {
		return
	}

	metrics.SetGauge(m.inFlightBatches, float64(n))
}
