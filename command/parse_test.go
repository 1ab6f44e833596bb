package command_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/command"
	"github.com/xraph/groupbuy/ledger"
)

var (
	coordinator = command.Sender{UserID: "U-admin", IsCoordinator: true, Source: command.SourceUser}
	member      = command.Sender{UserID: "U-member", Source: command.SourceGroup}
	adminGroup  = command.Sender{UserID: "U-admin", IsCoordinator: true, Source: command.SourceGroup}
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		sender command.Sender
		want   command.Command
	}{
		{
			name:   "create",
			text:   "create-D1-Mango-100-Fresh mangoes",
			sender: coordinator,
			want:   command.CreateLedger{Title: "D1", Product: "Mango", UnitPrice: 100, Description: "Fresh mangoes"},
		},
		{
			name:   "create normalizes title and keeps hyphens in description",
			text:   "  CREATE - d2-芒果-250-愛文-產地直送 ",
			sender: coordinator,
			want:   command.CreateLedger{Title: "D2", Product: "芒果", UnitPrice: 250, Description: "愛文-產地直送"},
		},
		{
			name:   "create missing field",
			text:   "create-D1-Mango-100",
			sender: coordinator,
			want:   command.Malformed{Keyword: "create", Usage: command.UsageCreate},
		},
		{
			name:   "create non numeric price",
			text:   "create-D1-Mango-abc-Fresh",
			sender: coordinator,
			want:   command.Malformed{Keyword: "create", Usage: command.UsageCreate},
		},
		{
			name:   "create empty product",
			text:   "create-D1--100-Fresh",
			sender: coordinator,
			want:   command.Malformed{Keyword: "create", Usage: command.UsageCreate},
		},
		{
			name:   "create from member",
			text:   "create-D1-Mango-100-Fresh",
			sender: member,
			want:   command.Unrecognized{Text: "create-D1-Mango-100-Fresh"},
		},
		{
			name:   "toggle",
			text:   "toggle-d1",
			sender: adminGroup,
			want:   command.ToggleLedger{Title: "D1"},
		},
		{
			name:   "toggle without ledger",
			text:   "toggle",
			sender: coordinator,
			want:   command.Malformed{Keyword: "toggle", Usage: command.UsageToggle},
		},
		{
			name:   "open",
			text:   "open-D1",
			sender: coordinator,
			want:   command.SetStatus{Title: "D1", Status: ledger.StatusOpen},
		},
		{
			name:   "close",
			text:   "Close-D1",
			sender: coordinator,
			want:   command.SetStatus{Title: "D1", Status: ledger.StatusClosed},
		},
		{
			name:   "close malformed",
			text:   "close-",
			sender: coordinator,
			want:   command.Malformed{Keyword: "close", Usage: command.UsageClose},
		},
		{
			name:   "paid with hyphenated name",
			text:   "paid-D1-Amy-Lin",
			sender: coordinator,
			want:   command.MarkPaid{Title: "D1", DisplayName: "Amy-Lin", Paid: true},
		},
		{
			name:   "unpaid",
			text:   "unpaid-D1-Amy",
			sender: coordinator,
			want:   command.MarkPaid{Title: "D1", DisplayName: "Amy", Paid: false},
		},
		{
			name:   "paid missing name",
			text:   "paid-D1",
			sender: coordinator,
			want:   command.Malformed{Keyword: "paid", Usage: command.UsagePaid},
		},
		{
			name:   "check",
			text:   "check-Amy",
			sender: coordinator,
			want:   command.CheckMember{DisplayName: "Amy"},
		},
		{
			name:   "check in group",
			text:   "check-Amy",
			sender: adminGroup,
			want:   command.Unrecognized{Text: "check-Amy"},
		},
		{
			name:   "increment",
			text:   "D1+2",
			sender: member,
			want:   command.OrderDelta{Title: "D1", Amount: 2},
		},
		{
			name:   "decrement with spaces",
			text:   "d1 - 3",
			sender: member,
			want:   command.OrderDelta{Title: "D1", Amount: -3},
		},
		{
			name:   "delta with comment",
			text:   "D1+1#不要香菜",
			sender: member,
			want:   command.OrderDelta{Title: "D1", Amount: 1, Comment: "不要香菜", HasComment: true},
		},
		{
			name:   "delta with empty comment",
			text:   "D1+0#",
			sender: member,
			want:   command.OrderDelta{Title: "D1", Amount: 0, HasComment: true},
		},
		{
			name:   "delta overflow",
			text:   "D1+99999999999999999999",
			sender: member,
			want:   command.Malformed{Keyword: "order", Usage: command.UsageOrder},
		},
		{
			name:   "delta above row limit is left to the engine",
			text:   "D1+922337203685477581",
			sender: member,
			want:   command.OrderDelta{Title: "D1", Amount: 922337203685477581},
		},
		{
			name:   "help",
			text:   "說明",
			sender: member,
			want:   command.Help{},
		},
		{
			name:   "mine",
			text:   "我的訂單",
			sender: member,
			want:   command.QueryMine{},
		},
		{
			name:   "mine english",
			text:   "My   Orders",
			sender: member,
			want:   command.QueryMine{},
		},
		{
			name:   "all",
			text:   "全部訂單",
			sender: coordinator,
			want:   command.QueryAll{},
		},
		{
			name:   "all from member",
			text:   "全部訂單",
			sender: member,
			want:   command.Unrecognized{Text: "全部訂單"},
		},
		{
			name:   "all in group",
			text:   "all orders",
			sender: adminGroup,
			want:   command.Unrecognized{Text: "all orders"},
		},
		{
			name:   "bare ledger",
			text:   "d1",
			sender: member,
			want:   command.QueryLedger{Title: "D1"},
		},
		{
			name:   "chatter",
			text:   "hello there",
			sender: member,
			want:   command.Unrecognized{Text: "hello there"},
		},
		{
			name:   "empty",
			text:   "   ",
			sender: member,
			want:   command.Unrecognized{Text: "   "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, command.Parse(tt.text, tt.sender))
		})
	}
}

func TestMalformedErr(t *testing.T) {
	cmd := command.Parse("create-D1", coordinator)

	m, ok := cmd.(command.Malformed)
	if !ok {
		t.Fatalf("expected Malformed, got %T", cmd)
	}

	err := m.Err()
	assert.True(t, errors.Is(err, groupbuy.ErrFormat))

	var fe *groupbuy.FormatError
	if assert.True(t, errors.As(err, &fe)) {
		assert.Equal(t, command.UsageCreate, fe.Usage)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "order_delta", command.OrderDelta{}.Kind().String())
	assert.Equal(t, "unrecognized", command.Unrecognized{}.Kind().String())
	assert.Equal(t, "unknown", command.Kind(99).String())
}
