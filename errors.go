package groupbuy

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Ledger errors
	ErrNotFound       = errors.New("groupbuy: ledger not found")
	ErrAlreadyExists  = errors.New("groupbuy: ledger already exists")
	ErrLedgerClosed   = errors.New("groupbuy: ledger is closed")
	ErrAlreadyInState = errors.New("groupbuy: ledger already in requested status")

	// Order errors
	ErrInvalidQuantity = errors.New("groupbuy: invalid quantity")
	ErrNoOrderFound    = errors.New("groupbuy: no order found")

	// Input errors
	ErrFormat       = errors.New("groupbuy: malformed command")
	ErrInvalidInput = errors.New("groupbuy: invalid input")

	// Remote errors
	ErrRemote      = errors.New("groupbuy: remote call failed")
	ErrStoreClosed = errors.New("groupbuy: store is closed")
)

// LedgerError attaches the ledger title to a ledger-level failure.
type LedgerError struct {
	Title string
	Err   error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Title)
}

func (e *LedgerError) Unwrap() error { return e.Err }

// QuantityError is returned when a delta would leave a row with a
// non-positive quantity, or one above Limit when Limit is set. Current is
// the quantity before the delta.
type QuantityError struct {
	Title     string
	Current   int64
	Requested int64
	Limit     int64
}

func (e *QuantityError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("groupbuy: quantity on %s exceeds %d: current %d, delta %d", e.Title, e.Limit, e.Current, e.Requested)
	}
	return fmt.Sprintf("groupbuy: invalid quantity on %s: current %d, delta %d", e.Title, e.Current, e.Requested)
}

func (e *QuantityError) Unwrap() error { return ErrInvalidQuantity }

// FormatError is returned for a command whose keyword matched but whose
// arguments did not. Usage is shown to the sender verbatim.
type FormatError struct {
	Usage string
}

func (e *FormatError) Error() string {
	return "groupbuy: malformed command: " + e.Usage
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// RemoteError wraps a failure of the row store, profile lookup or chat
// transport.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("groupbuy: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() []error { return []error{ErrRemote, e.Err} }

// Remote wraps err as a RemoteError unless it is nil or already carries a
// domain sentinel.
func Remote(op string, err error) error {
	if err == nil || IsUserError(err) || errors.Is(err, ErrRemote) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoOrderFound)
}

// IsUserError returns true if the error was caused by the command itself
// rather than by infrastructure. Its message is safe to show in chat.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrLedgerClosed) ||
		errors.Is(err, ErrAlreadyInState) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrNoOrderFound) ||
		errors.Is(err, ErrFormat) ||
		errors.Is(err, ErrInvalidInput)
}

// IsRetryable returns true if the error is temporary. The bot never retries
// on its own; this only informs logging and the sender.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRemote) && !errors.Is(err, ErrStoreClosed)
}
