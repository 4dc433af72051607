package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifierPublishesEvent(t *testing.T) {
	w := &fakeWriter{}
	n := newKafkaNotifier(w)
	n.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, n.Send(context.Background(), Message{Kind: KindAccountLocked, Destination: "client:2", Body: "locked"}))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "client:2", string(w.messages[0].Key))

	var event map[string]any
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, KindAccountLocked, event["kind"])
	assert.Equal(t, "2024-03-01T12:00:00Z", event["occurred_at"])

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifierWrapsWriteError(t *testing.T) {
	broker := errors.New("broker unavailable")
	n := newKafkaNotifier(&fakeWriter{err: broker})

	err := n.Send(context.Background(), Message{Kind: KindAccountLocked})
	require.ErrorIs(t, err, broker)
	assert.Contains(t, err.Error(), "publish account_locked event")
}

func TestFanoutJoinsErrors(t *testing.T) {
	ok := &fakeWriter{}
	failing := errors.New("down")
	f := Fanout(nil, newKafkaNotifier(ok), newKafkaNotifier(&fakeWriter{err: failing}))

	err := f.Send(context.Background(), Message{Kind: KindAccountLocked, Destination: "client:1"})
	require.ErrorIs(t, err, failing)
	assert.Len(t, ok.messages, 1)

	assert.NoError(t, Fanout().Send(context.Background(), Message{}))
}
