// Package line connects the bot to the LINE Messaging API: it verifies and
// decodes webhook deliveries, and sends replies, pushes and profile lookups.
package line

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/xraph/groupbuy/bot"
	"github.com/xraph/groupbuy/command"
)

const (
	// DefaultEndpoint is the Messaging API base URL.
	DefaultEndpoint = "https://api.line.me"

	// MaxTextLength is the longest text a single message may carry.
	MaxTextLength = 5000
)

// Client talks to the Messaging API on behalf of one channel.
type Client struct {
	token    string
	endpoint string
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the channel access token.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, errors.New("line: missing channel access token")
	}

	c := &Client{
		token:    token,
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	// Validate the endpoint once up front.
	if _, err := c.api(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

var (
	_ bot.Replier  = (*Client)(nil)
	_ bot.Pusher   = (*Client)(nil)
	_ bot.Profiles = (*Client)(nil)
)

// api returns an API handle bound to ctx. The SDK keeps the context on the
// handle, so every call gets its own.
func (c *Client) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	api, err := messaging_api.NewMessagingApiAPI(c.token,
		messaging_api.WithEndpoint(c.endpoint),
		messaging_api.WithHTTPClient(c.http),
	)
	if err != nil {
		return nil, fmt.Errorf("line: %w", err)
	}
	return api.WithContext(ctx), nil
}

// Reply answers the event that issued replyToken.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}

	_, err = api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   []messaging_api.MessageInterface{textMessage(text)},
	})
	if err != nil {
		return fmt.Errorf("line: reply: %w", err)
	}
	return nil
}

// Push sends text to a user, group or room id.
func (c *Client) Push(ctx context.Context, to, text string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}

	_, err = api.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: []messaging_api.MessageInterface{textMessage(text)},
	}, uuid.NewString())
	if err != nil {
		return fmt.Errorf("line: push: %w", err)
	}
	return nil
}

// DisplayName looks the member up through the group, room or user profile
// endpoint depending on where the message came from.
func (c *Client) DisplayName(ctx context.Context, source command.Source, chatID, userID string) (string, error) {
	api, err := c.api(ctx)
	if err != nil {
		return "", err
	}

	switch {
	case source == command.SourceGroup && chatID != "":
		p, err := api.GetGroupMemberProfile(chatID, userID)
		if err != nil {
			return "", fmt.Errorf("line: group member profile: %w", err)
		}
		return p.DisplayName, nil

	case source == command.SourceRoom && chatID != "":
		p, err := api.GetRoomMemberProfile(chatID, userID)
		if err != nil {
			return "", fmt.Errorf("line: room member profile: %w", err)
		}
		return p.DisplayName, nil

	default:
		p, err := api.GetProfile(userID)
		if err != nil {
			return "", fmt.Errorf("line: profile: %w", err)
		}
		return p.DisplayName, nil
	}
}

func textMessage(text string) messaging_api.TextMessage {
	if r := []rune(text); len(r) > MaxTextLength {
		text = string(r[:MaxTextLength-1]) + "…"
	}
	return messaging_api.TextMessage{Text: text}
}
