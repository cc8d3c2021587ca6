package optimistic

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors for tracker and projection
// activity. A nil *metrics is valid and disables all observation; metric
// recording never fails a state-mutating path.
type metrics struct {
	created    *prometheus.CounterVec
	confirmed  prometheus.Counter
	rolledBack prometheus.Counter
	cacheOps   *prometheus.HistogramVec
	compressed prometheus.Counter
	queueDepth prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, namespace string) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}
	if namespace == "" {
		namespace = "ereceipts_optimistic"
	}

	m := &metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_created_total",
			Help:      "Optimistic operations created, by resource and action.",
		}, []string{"resource", "action"}),
		confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_confirmed_total",
			Help:      "Optimistic operations confirmed with server data.",
		}),
		rolledBack: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_rolled_back_total",
			Help:      "Optimistic operations rolled back to their prior snapshot.",
		}),
		cacheOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_operation_duration_seconds",
			Help:      "Latency of cache collaborator calls issued by the projection layer.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		compressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compressed_writes_total",
			Help:      "Cache writes stored compressed.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "replay_queue_depth",
			Help:      "Operations waiting in the replay queue.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.created, m.confirmed, m.rolledBack, m.cacheOps, m.compressed, m.queueDepth,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) incCreated(resource string, action Action) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(resource, string(action)).Inc()
}

func (m *metrics) incConfirmed() {
	if m == nil {
		return
	}
	m.confirmed.Inc()
}

func (m *metrics) incRolledBack() {
	if m == nil {
		return
	}
	m.rolledBack.Inc()
}

func (m *metrics) observeCacheOp(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *metrics) incCompressedWrite() {
	if m == nil {
		return
	}
	m.compressed.Inc()
}

func (m *metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
