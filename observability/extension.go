// Package observability provides a metrics extension for groupbuy that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnLedgerCreated       = (*MetricsExtension)(nil)
	_ plugin.OnLedgerStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnOrderPlaced         = (*MetricsExtension)(nil)
	_ plugin.OnOrderRemoved        = (*MetricsExtension)(nil)
	_ plugin.OnOrderRejected       = (*MetricsExtension)(nil)
	_ plugin.OnPaymentMarked       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Metric names.
const (
	MetricLedgerCreated   = "groupbuy.ledger.created"
	MetricLedgerOpened    = "groupbuy.ledger.opened"
	MetricLedgerClosed    = "groupbuy.ledger.closed"
	MetricOrderPlaced     = "groupbuy.order.placed"
	MetricOrderRemoved    = "groupbuy.order.removed"
	MetricOrderRejected   = "groupbuy.order.rejected"
	MetricOrderDelta      = "groupbuy.order.delta"
	MetricPaymentMarked   = "groupbuy.payment.marked"
	MetricPaymentUnmarked = "groupbuy.payment.unmarked"
)

// MetricsExtension records group-buy lifecycle metrics.
// Register it as an engine plugin to track ledgers, orders and payments.
type MetricsExtension struct {
	// Ledger metrics
	LedgerCreated Counter
	LedgerOpened  Counter
	LedgerClosed  Counter

	// Order metrics
	OrderPlaced   Counter
	OrderRemoved  Counter
	OrderRejected Counter
	OrderDelta    Histogram

	// Payment metrics
	PaymentMarked   Counter
	PaymentUnmarked Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		LedgerCreated: factory.Counter(MetricLedgerCreated),
		LedgerOpened:  factory.Counter(MetricLedgerOpened),
		LedgerClosed:  factory.Counter(MetricLedgerClosed),

		OrderPlaced:   factory.Counter(MetricOrderPlaced),
		OrderRemoved:  factory.Counter(MetricOrderRemoved),
		OrderRejected: factory.Counter(MetricOrderRejected),
		OrderDelta:    factory.Histogram(MetricOrderDelta),

		PaymentMarked:   factory.Counter(MetricPaymentMarked),
		PaymentUnmarked: factory.Counter(MetricPaymentUnmarked),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnLedgerCreated implements plugin.OnLedgerCreated.
func (m *MetricsExtension) OnLedgerCreated(context.Context, *ledger.Ledger) error {
	m.LedgerCreated.Inc()
	return nil
}

// OnLedgerStatusChanged implements plugin.OnLedgerStatusChanged.
func (m *MetricsExtension) OnLedgerStatusChanged(_ context.Context, l *ledger.Ledger, _ ledger.Status) error {
	if l.IsOpen() {
		m.LedgerOpened.Inc()
	} else {
		m.LedgerClosed.Inc()
	}
	return nil
}

// OnOrderPlaced implements plugin.OnOrderPlaced.
func (m *MetricsExtension) OnOrderPlaced(_ context.Context, _ *ledger.Ledger, _ *order.Row, delta int64) error {
	m.OrderPlaced.Inc()
	m.OrderDelta.Observe(float64(delta))
	return nil
}

// OnOrderRemoved implements plugin.OnOrderRemoved.
func (m *MetricsExtension) OnOrderRemoved(context.Context, *ledger.Ledger, *order.Row) error {
	m.OrderRemoved.Inc()
	return nil
}

// OnOrderRejected implements plugin.OnOrderRejected.
func (m *MetricsExtension) OnOrderRejected(context.Context, string, string, int64, error) error {
	m.OrderRejected.Inc()
	return nil
}

// OnPaymentMarked implements plugin.OnPaymentMarked.
func (m *MetricsExtension) OnPaymentMarked(_ context.Context, _ string, rows []*order.Row, paid bool) error {
	if paid {
		m.PaymentMarked.Add(float64(len(rows)))
	} else {
		m.PaymentUnmarked.Add(float64(len(rows)))
	}
	return nil
}
