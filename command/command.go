// Package command turns chat text into typed ledger commands.
//
// Parse tries an ordered list of matchers and the first one that accepts the
// text wins. Every result is one of the concrete types in this package.
package command

import (
	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
)

// Source is the kind of chat a message came from.
type Source int

const (
	SourceUser Source = iota
	SourceGroup
	SourceRoom
)

func (s Source) String() string {
	switch s {
	case SourceGroup:
		return "group"
	case SourceRoom:
		return "room"
	default:
		return "user"
	}
}

// Direct reports whether the message was sent in a one-to-one chat.
func (s Source) Direct() bool { return s == SourceUser }

// Sender is the already-verified author of a message.
type Sender struct {
	UserID        string
	IsCoordinator bool
	Source        Source
}

// Kind discriminates Command values.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindMalformed
	KindCreateLedger
	KindToggleLedger
	KindSetStatus
	KindMarkPaid
	KindCheckMember
	KindOrderDelta
	KindQueryLedger
	KindQueryMine
	KindQueryAll
	KindHelp
)

var kindNames = [...]string{
	KindUnrecognized: "unrecognized",
	KindMalformed:    "malformed",
	KindCreateLedger: "create_ledger",
	KindToggleLedger: "toggle_ledger",
	KindSetStatus:    "set_status",
	KindMarkPaid:     "mark_paid",
	KindCheckMember:  "check_member",
	KindOrderDelta:   "order_delta",
	KindQueryLedger:  "query_ledger",
	KindQueryMine:    "query_mine",
	KindQueryAll:     "query_all",
	KindHelp:         "help",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Command is a parsed chat message.
type Command interface {
	Kind() Kind
}

type CreateLedger struct {
	Title       string
	Product     string
	UnitPrice   int64
	Description string
}

type ToggleLedger struct {
	Title string
}

type SetStatus struct {
	Title  string
	Status ledger.Status
}

type MarkPaid struct {
	Title       string
	DisplayName string
	Paid        bool
}

type CheckMember struct {
	DisplayName string
}

type OrderDelta struct {
	Title      string
	Amount     int64
	Comment    string
	HasComment bool
}

// QueryLedger asks for one ledger by name. It is produced for any bare
// ledger-shaped word, so callers treat an unknown ledger as Unrecognized.
type QueryLedger struct {
	Title string
}

type QueryMine struct{}

type QueryAll struct{}

type Help struct{}

// Malformed is a command whose keyword matched but whose arguments did not.
type Malformed struct {
	Keyword string
	Usage   string
}

// Err returns the matching *groupbuy.FormatError.
func (m Malformed) Err() error { return &groupbuy.FormatError{Usage: m.Usage} }

type Unrecognized struct {
	Text string
}

func (CreateLedger) Kind() Kind { return KindCreateLedger }
func (ToggleLedger) Kind() Kind { return KindToggleLedger }
func (SetStatus) Kind() Kind    { return KindSetStatus }
func (MarkPaid) Kind() Kind     { return KindMarkPaid }
func (CheckMember) Kind() Kind  { return KindCheckMember }
func (OrderDelta) Kind() Kind   { return KindOrderDelta }
func (QueryLedger) Kind() Kind  { return KindQueryLedger }
func (QueryMine) Kind() Kind    { return KindQueryMine }
func (QueryAll) Kind() Kind     { return KindQueryAll }
func (Help) Kind() Kind         { return KindHelp }
func (Malformed) Kind() Kind    { return KindMalformed }
func (Unrecognized) Kind() Kind { return KindUnrecognized }
