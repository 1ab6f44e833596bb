// Package audithook turns groupbuy lifecycle events into audit records.
//
// Records go to a Recorder. RecorderFunc adapts a plain function and
// SlogRecorder writes them as structured log lines.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnLedgerCreated       = (*Extension)(nil)
	_ plugin.OnLedgerStatusChanged = (*Extension)(nil)
	_ plugin.OnOrderPlaced         = (*Extension)(nil)
	_ plugin.OnOrderRemoved        = (*Extension)(nil)
	_ plugin.OnOrderRejected       = (*Extension)(nil)
	_ plugin.OnPaymentMarked       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audited action.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// SlogRecorder writes audit events to a logger at info level.
type SlogRecorder struct {
	Logger *slog.Logger
}

// Record implements Recorder.
func (r SlogRecorder) Record(ctx context.Context, event *AuditEvent) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("action", event.Action),
		slog.String("resource", event.Resource),
		slog.String("resource_id", event.ResourceID),
		slog.String("outcome", event.Outcome),
		slog.String("severity", event.Severity),
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata)*2)
		for k, v := range event.Metadata {
			meta = append(meta, k, v)
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
	return nil
}

// Extension bridges groupbuy lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ledger lifecycle hooks
// ──────────────────────────────────────────────────

// OnLedgerCreated implements plugin.OnLedgerCreated.
func (e *Extension) OnLedgerCreated(ctx context.Context, l *ledger.Ledger) error {
	return e.record(ctx, ActionLedgerCreated, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.Title, CategoryLedger, nil,
		"ledger_id", l.ID.String(),
		"product", l.Product,
		"unit_price", l.UnitPrice.Amount,
		"currency", l.UnitPrice.Currency,
	)
}

// OnLedgerStatusChanged implements plugin.OnLedgerStatusChanged.
func (e *Extension) OnLedgerStatusChanged(ctx context.Context, l *ledger.Ledger, from ledger.Status) error {
	action := ActionLedgerClosed
	if l.IsOpen() {
		action = ActionLedgerOpened
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.Title, CategoryLedger, nil,
		"from", string(from),
		"to", string(l.Status),
	)
}

// ──────────────────────────────────────────────────
// Order hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced implements plugin.OnOrderPlaced.
func (e *Extension) OnOrderPlaced(ctx context.Context, l *ledger.Ledger, row *order.Row, delta int64) error {
	return e.record(ctx, ActionOrderPlaced, SeverityInfo, OutcomeSuccess,
		ResourceOrder, row.ID.String(), CategoryOrder, nil,
		"ledger", l.Title,
		"member_id", row.MemberID,
		"delta", delta,
		"quantity", row.Quantity,
		"price", row.Price.Amount,
	)
}

// OnOrderRemoved implements plugin.OnOrderRemoved.
func (e *Extension) OnOrderRemoved(ctx context.Context, l *ledger.Ledger, row *order.Row) error {
	return e.record(ctx, ActionOrderRemoved, SeverityInfo, OutcomeSuccess,
		ResourceOrder, row.ID.String(), CategoryOrder, nil,
		"ledger", l.Title,
		"member_id", row.MemberID,
	)
}

// OnOrderRejected implements plugin.OnOrderRejected.
func (e *Extension) OnOrderRejected(ctx context.Context, title, memberID string, delta int64, reason error) error {
	return e.record(ctx, ActionOrderRejected, SeverityWarning, OutcomeFailure,
		ResourceLedger, title, CategoryOrder, reason,
		"member_id", memberID,
		"delta", delta,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentMarked implements plugin.OnPaymentMarked.
func (e *Extension) OnPaymentMarked(ctx context.Context, title string, rows []*order.Row, paid bool) error {
	action := ActionPaymentUnmarked
	if paid {
		action = ActionPaymentMarked
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID.String()
	}

	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceLedger, title, CategoryPayment, nil,
		"rows", ids,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
