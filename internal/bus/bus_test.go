package bus

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestPublishSubscribe(t *testing.T) {
	b := New(nopLogger())
	t.Cleanup(func() { b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []byte, 2)
	require.NoError(t, b.Subscribe(ctx, "session.ended", func(_ context.Context, payload []byte) error {
		got <- payload
		return nil
	}))

	require.NoError(t, b.Publish("session.ended", []byte(`{"reason":"leave"}`)))
	require.NoError(t, b.Publish("other.topic", []byte(`ignored`)))

	select {
	case payload := <-got:
		assert.JSONEq(t, `{"reason":"leave"}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case payload := <-got:
		t.Fatalf("unexpected message %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFailedHandlerIsNotRedelivered(t *testing.T) {
	b := New(nopLogger())
	t.Cleanup(func() { b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	require.NoError(t, b.Subscribe(ctx, "t", func(context.Context, []byte) error {
		calls <- struct{}{}
		return errors.New("boom")
	}))
	require.NoError(t, b.Publish("t", []byte("x")))

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	select {
	case <-calls:
		t.Fatal("message was redelivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLoggerAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	adapter := NewLoggerAdapter(&l).With(watermill.LogFields{"topic": "t"})

	adapter.Info("subscribed", watermill.LogFields{"n": 1})

	out := buf.String()
	assert.Contains(t, out, `"topic":"t"`)
	assert.Contains(t, out, `"n":1`)
	assert.Contains(t, out, `"message":"subscribed"`)
}
