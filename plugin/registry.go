package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
)

// DefaultTimeout bounds every plugin callback.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Interfaces are discovered once at registration time.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onLedgerCreated       []OnLedgerCreated
	onLedgerStatusChanged []OnLedgerStatusChanged
	onOrderPlaced         []OnOrderPlaced
	onOrderRemoved        []OnOrderRemoved
	onOrderRejected       []OnOrderRejected
	onPaymentMarked       []OnPaymentMarked
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-callback timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnLedgerCreated); ok {
		r.onLedgerCreated = append(r.onLedgerCreated, v)
	}
	if v, ok := p.(OnLedgerStatusChanged); ok {
		r.onLedgerStatusChanged = append(r.onLedgerStatusChanged, v)
	}
	if v, ok := p.(OnOrderPlaced); ok {
		r.onOrderPlaced = append(r.onOrderPlaced, v)
	}
	if v, ok := p.(OnOrderRemoved); ok {
		r.onOrderRemoved = append(r.onOrderRemoved, v)
	}
	if v, ok := p.(OnOrderRejected); ok {
		r.onOrderRejected = append(r.onOrderRejected, v)
	}
	if v, ok := p.(OnPaymentMarked); ok {
		r.onPaymentMarked = append(r.onPaymentMarked, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnLedgerCreated", reflect.TypeFor[OnLedgerCreated]()},
	{"OnLedgerStatusChanged", reflect.TypeFor[OnLedgerStatusChanged]()},
	{"OnOrderPlaced", reflect.TypeFor[OnOrderPlaced]()},
	{"OnOrderRemoved", reflect.TypeFor[OnOrderRemoved]()},
	{"OnOrderRejected", reflect.TypeFor[OnOrderRejected]()},
	{"OnPaymentMarked", reflect.TypeFor[OnPaymentMarked]()},
}

// implementedInterfaces returns the hook interfaces implemented by p.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitLedgerCreated emits a ledger created event.
func (r *Registry) EmitLedgerCreated(ctx context.Context, l *ledger.Ledger) {
	r.mu.RLock()
	plugins := r.onLedgerCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnLedgerCreated", p.Name(), func() error {
			return p.OnLedgerCreated(ctx, l)
		})
	}
}

// EmitLedgerStatusChanged emits a ledger status change event.
func (r *Registry) EmitLedgerStatusChanged(ctx context.Context, l *ledger.Ledger, from ledger.Status) {
	r.mu.RLock()
	plugins := r.onLedgerStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnLedgerStatusChanged", p.Name(), func() error {
			return p.OnLedgerStatusChanged(ctx, l, from)
		})
	}
}

// EmitOrderPlaced emits an order placed event.
func (r *Registry) EmitOrderPlaced(ctx context.Context, l *ledger.Ledger, row *order.Row, delta int64) {
	r.mu.RLock()
	plugins := r.onOrderPlaced
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOrderPlaced", p.Name(), func() error {
			return p.OnOrderPlaced(ctx, l, row, delta)
		})
	}
}

// EmitOrderRemoved emits an order removed event.
func (r *Registry) EmitOrderRemoved(ctx context.Context, l *ledger.Ledger, row *order.Row) {
	r.mu.RLock()
	plugins := r.onOrderRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOrderRemoved", p.Name(), func() error {
			return p.OnOrderRemoved(ctx, l, row)
		})
	}
}

// EmitOrderRejected emits an order rejected event.
func (r *Registry) EmitOrderRejected(ctx context.Context, title, memberID string, delta int64, reason error) {
	r.mu.RLock()
	plugins := r.onOrderRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOrderRejected", p.Name(), func() error {
			return p.OnOrderRejected(ctx, title, memberID, delta, reason)
		})
	}
}

// EmitPaymentMarked emits a payment marked event.
func (r *Registry) EmitPaymentMarked(ctx context.Context, title string, rows []*order.Row, paid bool) {
	r.mu.RLock()
	plugins := r.onPaymentMarked
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPaymentMarked", p.Name(), func() error {
			return p.OnPaymentMarked(ctx, title, rows, paid)
		})
	}
}

// dispatch runs one hook and logs its failure. Hook errors never reach the
// engine caller.
func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
