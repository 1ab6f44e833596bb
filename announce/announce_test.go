package announce

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/store/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type pushed struct {
	to, text string
}

type fakePusher struct {
	mu   sync.Mutex
	sent []pushed
	err  error
}

func (p *fakePusher) Push(_ context.Context, to, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, pushed{to, text})
	return nil
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

type ackRecord struct {
	acked, nacked, requeued bool
}

func (a *ackRecord) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *ackRecord) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *ackRecord) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func TestPluginAnnouncesThroughEngine(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{}
	p := NewPlugin(NewDirectSink(pusher), "C-group", WithLogger(discard), WithStatusChanges(true))

	e := groupbuy.New(memory.New(), groupbuy.WithLogger(discard), groupbuy.WithPlugin(p))
	require.NoError(t, e.Start(ctx))

	_, err := e.CreateLedger(ctx, groupbuy.CreateLedgerInput{Title: "D1", Product: "Mango", UnitPrice: 100, Description: "Fresh"})
	require.NoError(t, err)
	_, err = e.SetLedgerStatus(ctx, "D1", ledger.StatusClosed)
	require.NoError(t, err)

	assert.Equal(t, []pushed{
		{"C-group", "創建 D1:Fresh"},
		{"C-group", "已將 D1 關閉"},
	}, pusher.sent)
}

func TestPluginSkipsWithoutTarget(t *testing.T) {
	pusher := &fakePusher{}
	p := NewPlugin(NewDirectSink(pusher), "", WithLogger(discard))

	require.NoError(t, p.OnLedgerCreated(context.Background(), &ledger.Ledger{Title: "D1"}))
	require.NoError(t, p.OnLedgerStatusChanged(context.Background(), &ledger.Ledger{Title: "D1"}, ledger.StatusOpen))
	assert.Empty(t, pusher.sent)
}

func TestPublisher(t *testing.T) {
	ch := &fakeChannel{}
	pub := NewPublisher(ch, "")

	a := Announcement{
		ID:        "5f0c1f7e-8d5e-4f57-9d36-1f0f5a0c2b11",
		Kind:      KindLedgerCreated,
		Ledger:    "D1",
		To:        "C-group",
		Text:      "創建 D1:Fresh",
		CreatedAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Announce(context.Background(), a))

	assert.Equal(t, DefaultExchange, ch.exchange)
	assert.Equal(t, "groupbuy.announce.ledger.created", ch.key)
	assert.Equal(t, a.ID, ch.msg.MessageId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var got Announcement
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, a, got)

	ch.err = errors.New("channel closed")
	assert.ErrorContains(t, pub.Announce(context.Background(), a), "announce: publish")
}

func TestConsume(t *testing.T) {
	pusher := &fakePusher{}
	sink := NewDirectSink(pusher)

	body, err := json.Marshal(Announcement{ID: "1", Kind: KindLedgerCreated, To: "C-group", Text: "hello"})
	require.NoError(t, err)

	good, bad := &ackRecord{}, &ackRecord{}
	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Acknowledger: good, Body: body}
	deliveries <- amqp.Delivery{Acknowledger: bad, Body: []byte("not json")}
	close(deliveries)

	require.NoError(t, Consume(context.Background(), deliveries, sink, discard))

	assert.True(t, good.acked)
	assert.True(t, bad.nacked)
	assert.False(t, bad.requeued)
	assert.Equal(t, []pushed{{"C-group", "hello"}}, pusher.sent)
}

func TestConsumeRequeuesOnFailure(t *testing.T) {
	pusher := &fakePusher{err: errors.New("push quota exceeded")}

	body, err := json.Marshal(Announcement{ID: "1", To: "C-group", Text: "hello"})
	require.NoError(t, err)

	rec := &ackRecord{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: rec, Body: body}
	close(deliveries)

	require.NoError(t, Consume(context.Background(), deliveries, NewDirectSink(pusher), discard))
	assert.True(t, rec.nacked)
	assert.True(t, rec.requeued)
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Consume(ctx, make(chan amqp.Delivery), NewDirectSink(&fakePusher{}), discard)
	assert.ErrorIs(t, err, context.Canceled)
}
