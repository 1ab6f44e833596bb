package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionLedgerCreated = "ledger.created"
	ActionLedgerOpened  = "ledger.opened"
	ActionLedgerClosed  = "ledger.closed"

	// Order actions
	ActionOrderPlaced   = "order.placed"
	ActionOrderRemoved  = "order.removed"
	ActionOrderRejected = "order.rejected"

	// Payment actions
	ActionPaymentMarked   = "payment.marked"
	ActionPaymentUnmarked = "payment.unmarked"
)

// Resource constants for audit events.
const (
	ResourceLedger = "ledger"
	ResourceOrder  = "order"
)

// Category constants for audit events.
const (
	CategoryLedger  = "ledger"
	CategoryOrder   = "order"
	CategoryPayment = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
