package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/groupbuy/bot"
	"github.com/xraph/groupbuy/command"
)

const secret = "channel-secret"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type capture struct {
	mu     sync.Mutex
	events []bot.Event
}

func (c *capture) HandleEvents(_ context.Context, events []bot.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
	return nil
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const payload = `{
  "destination": "Ubot",
  "events": [
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1700000000000,
      "webhookEventId": "01H-text-group",
      "deliveryContext": {"isRedelivery": false},
      "replyToken": "reply-1",
      "source": {"type": "group", "groupId": "C-group", "userId": "U-1"},
      "message": {"type": "text", "id": "m1", "quoteToken": "q1", "text": "D1+2"}
    },
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1700000000001,
      "webhookEventId": "01H-sticker",
      "deliveryContext": {"isRedelivery": false},
      "replyToken": "reply-2",
      "source": {"type": "user", "userId": "U-2"},
      "message": {"type": "sticker", "id": "m2", "quoteToken": "q2", "packageId": "1", "stickerId": "1", "stickerResourceType": "STATIC"}
    },
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1700000000002,
      "webhookEventId": "01H-text-room",
      "deliveryContext": {"isRedelivery": false},
      "replyToken": "reply-3",
      "source": {"type": "room", "roomId": "R-room", "userId": "U-3"},
      "message": {"type": "text", "id": "m3", "quoteToken": "q3", "text": "我的訂單"}
    }
  ]
}`

func TestWebhookHandler(t *testing.T) {
	c := &capture{}
	h := NewWebhookHandler(secret, c, discard)

	body := []byte(payload)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("x-line-signature", sign(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, c.events, 3)

	assert.Equal(t, bot.Event{
		ID:         "01H-text-group",
		Kind:       bot.EventText,
		Source:     command.SourceGroup,
		ChatID:     "C-group",
		UserID:     "U-1",
		ReplyToken: "reply-1",
		Text:       "D1+2",
	}, c.events[0])

	assert.Equal(t, bot.EventOther, c.events[1].Kind)
	assert.Equal(t, command.SourceUser, c.events[1].Source)
	assert.Equal(t, "U-2", c.events[1].UserID)

	assert.Equal(t, command.SourceRoom, c.events[2].Source)
	assert.Equal(t, "R-room", c.events[2].ChatID)
	assert.Equal(t, "我的訂單", c.events[2].Text)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	c := &capture{}
	h := NewWebhookHandler(secret, c, discard)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("x-line-signature", sign([]byte("something else")))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, c.events)
}

type apiCall struct {
	path    string
	auth    string
	retry   string
	payload map[string]any
}

func fakeAPI(t *testing.T) (*httptest.Server, *[]apiCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []apiCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := apiCall{
			path:  r.URL.Path,
			auth:  r.Header.Get("Authorization"),
			retry: r.Header.Get("X-Line-Retry-Key"),
		}
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&call.payload)
		}
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/v2/bot/group/"):
			_, _ = w.Write([]byte(`{"displayName":"Group Amy","userId":"U-1"}`))
		case strings.HasPrefix(r.URL.Path, "/v2/bot/room/"):
			_, _ = w.Write([]byte(`{"displayName":"Room Amy","userId":"U-1"}`))
		case strings.HasPrefix(r.URL.Path, "/v2/bot/profile/"):
			_, _ = w.Write([]byte(`{"displayName":"Amy","userId":"U-1"}`))
		case r.URL.Path == "/v2/bot/message/push" && call.payload["to"] == "C-broken":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"The request body has 1 error(s)"}`))
		default:
			_, _ = w.Write([]byte(`{"sentMessages":[{"id":"1","quoteToken":"q"}]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	srv, calls := fakeAPI(t)

	c, err := NewClient("token-123", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	require.NoError(t, c.Reply(ctx, "reply-1", "創建 D1:Fresh"))
	require.NoError(t, c.Push(ctx, "C-group", "announcement"))

	name, err := c.DisplayName(ctx, command.SourceGroup, "C-group", "U-1")
	require.NoError(t, err)
	assert.Equal(t, "Group Amy", name)

	name, err = c.DisplayName(ctx, command.SourceRoom, "R-room", "U-1")
	require.NoError(t, err)
	assert.Equal(t, "Room Amy", name)

	name, err = c.DisplayName(ctx, command.SourceUser, "", "U-1")
	require.NoError(t, err)
	assert.Equal(t, "Amy", name)

	require.Len(t, *calls, 5)
	reply := (*calls)[0]
	assert.Equal(t, "/v2/bot/message/reply", reply.path)
	assert.Equal(t, "Bearer token-123", reply.auth)
	assert.Equal(t, "reply-1", reply.payload["replyToken"])
	msgs := reply.payload["messages"].([]any)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "text", msg["type"])
	assert.Equal(t, "創建 D1:Fresh", msg["text"])

	push := (*calls)[1]
	assert.Equal(t, "/v2/bot/message/push", push.path)
	assert.Equal(t, "C-group", push.payload["to"])
	assert.Len(t, push.retry, 36)

	assert.Equal(t, "/v2/bot/group/C-group/member/U-1", (*calls)[2].path)
	assert.Equal(t, "/v2/bot/room/R-room/member/U-1", (*calls)[3].path)
	assert.Equal(t, "/v2/bot/profile/U-1", (*calls)[4].path)

	err = c.Push(ctx, "C-broken", "x")
	assert.ErrorContains(t, err, "line: push")
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("token", WithEndpoint("not a url"))
	assert.Error(t, err)
}

func TestTextMessageTruncation(t *testing.T) {
	long := strings.Repeat("芒", MaxTextLength+10)
	msg := textMessage(long)
	assert.Len(t, []rune(msg.Text), MaxTextLength)
	assert.True(t, strings.HasSuffix(msg.Text, "…"))

	assert.Equal(t, "short", textMessage("short").Text)
}
