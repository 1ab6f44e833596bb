package observability

import (
	"encoding/json"
	"net/http"

	"github.com/xraph/go-utils/metrics"
)

// Collector adapts a go-utils metrics collector to MetricFactory.
type Collector struct {
	metrics metrics.Metrics
}

// NewCollector wraps m. A nil m gets a fresh in-process collector.
func NewCollector(m metrics.Metrics) *Collector {
	if m == nil {
		m = metrics.NewMetricsCollector("groupbuy")
	}
	return &Collector{metrics: m}
}

// Metrics returns the underlying collector.
func (c *Collector) Metrics() metrics.Metrics { return c.metrics }

// Counter implements MetricFactory.
func (c *Collector) Counter(name string) Counter {
	return c.metrics.Counter(name, metrics.WithDescription(describe(name)))
}

// Histogram implements MetricFactory.
func (c *Collector) Histogram(name string) Histogram {
	return c.metrics.Histogram(name, metrics.WithDescription(describe(name)))
}

// HistogramSnapshot is the exported view of one histogram.
type HistogramSnapshot struct {
	Count uint64  `json:"count"`
	Sum   float64 `json:"sum"`
}

// Snapshot is the exported view of every registered metric.
type Snapshot struct {
	Counters   map[string]float64           `json:"counters"`
	Histograms map[string]HistogramSnapshot `json:"histograms"`
}

// Snapshot reads the current counter and histogram values.
func (c *Collector) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   map[string]float64{},
		Histograms: map[string]HistogramSnapshot{},
	}
	for name, m := range c.metrics.ListMetricsByType(metrics.MetricTypeCounter) {
		if ctr, ok := m.(metrics.Counter); ok {
			snap.Counters[name] = ctr.Value()
		}
	}
	for name, m := range c.metrics.ListMetricsByType(metrics.MetricTypeHistogram) {
		if h, ok := m.(metrics.Histogram); ok {
			snap.Histograms[name] = HistogramSnapshot{Count: h.Count(), Sum: h.Sum()}
		}
	}
	return snap
}

// ServeHTTP writes the snapshot as JSON.
func (c *Collector) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c.Snapshot())
}

func describe(name string) string {
	switch name {
	case MetricLedgerCreated:
		return "Ledgers created by coordinators"
	case MetricLedgerOpened, MetricLedgerClosed:
		return "Ledger status transitions"
	case MetricOrderPlaced:
		return "Accepted order deltas"
	case MetricOrderRemoved:
		return "Order rows removed after reaching zero"
	case MetricOrderRejected:
		return "Order deltas refused by the engine"
	case MetricOrderDelta:
		return "Signed size of accepted order deltas"
	case MetricPaymentMarked, MetricPaymentUnmarked:
		return "Order rows whose paid flag changed"
	}
	return ""
}
