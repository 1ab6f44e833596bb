package bot

import (
	"context"

	"github.com/xraph/groupbuy/command"
)

// EventKind distinguishes the inbound events the bot cares about.
type EventKind int

const (
	// EventOther covers every event that is not a text message. Such
	// events are acknowledged and ignored.
	EventOther EventKind = iota
	EventText
)

// Event is one inbound chat event, already converted from the transport's
// wire format.
type Event struct {
	ID         string
	Kind       EventKind
	Source     command.Source
	ChatID     string // group or room id; empty for direct chats
	UserID     string
	ReplyToken string
	Text       string
}

// Replier sends the single reply allowed for an event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Pusher sends an unsolicited message to a user, group or room.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

// Profiles resolves the display name of a chat member.
type Profiles interface {
	DisplayName(ctx context.Context, source command.Source, chatID, userID string) (string, error)
}
