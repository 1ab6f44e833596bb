package line

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/xraph/groupbuy/bot"
	"github.com/xraph/groupbuy/command"
)

// EventHandler consumes a decoded webhook batch. *bot.Bot implements it.
type EventHandler interface {
	HandleEvents(ctx context.Context, events []bot.Event) error
}

// WebhookHandler verifies LINE webhook deliveries and hands the decoded
// events to an EventHandler. It responds only after the whole batch has
// been handled.
type WebhookHandler struct {
	secret  string
	handler EventHandler
	logger  *slog.Logger
}

// NewWebhookHandler creates the webhook endpoint for a channel secret.
func NewWebhookHandler(secret string, h EventHandler, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{secret: secret, handler: h, logger: logger}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(h.secret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("webhook signature rejected", "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		h.logger.Error("webhook decode failed", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	events := Events(cb)
	if err := h.handler.HandleEvents(r.Context(), events); err != nil {
		// Delivery failures never change the status code.
		h.logger.Warn("webhook batch had delivery failures",
			"events", len(events),
			"error", err,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}

// Events converts a callback payload into bot events. Events that are not
// messages become bot.EventOther.
func Events(cb *webhook.CallbackRequest) []bot.Event {
	out := make([]bot.Event, 0, len(cb.Events))
	for _, raw := range cb.Events {
		out = append(out, convert(raw))
	}
	return out
}

func convert(raw webhook.EventInterface) bot.Event {
	msg, ok := raw.(webhook.MessageEvent)
	if !ok {
		return bot.Event{Kind: bot.EventOther}
	}

	ev := bot.Event{
		ID:         msg.WebhookEventId,
		Kind:       bot.EventOther,
		ReplyToken: msg.ReplyToken,
	}
	ev.Source, ev.ChatID, ev.UserID = source(msg.Source)

	if text, ok := msg.Message.(webhook.TextMessageContent); ok {
		ev.Kind = bot.EventText
		ev.Text = text.Text
	}
	return ev
}

func source(s webhook.SourceInterface) (command.Source, string, string) {
	switch src := s.(type) {
	case webhook.GroupSource:
		return command.SourceGroup, src.GroupId, src.UserId
	case webhook.RoomSource:
		return command.SourceRoom, src.RoomId, src.UserId
	case webhook.UserSource:
		return command.SourceUser, "", src.UserId
	default:
		return command.SourceUser, "", ""
	}
}
