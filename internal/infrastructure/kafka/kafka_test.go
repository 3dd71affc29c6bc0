package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
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

// fakeReader replays queued messages, then cancels the consumer's context.
type fakeReader struct {
	queue  []kafka.Message
	errs   []error
	cancel context.CancelFunc
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.queue) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) Close() error { return nil }

// ============================================
// Producer Tests
// ============================================

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p := &Producer{writer: w, now: func() time.Time { return at }}

	err := p.Publish(context.Background(), "item-1", map[string]string{"kind": "sale"})

	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "item-1", string(w.messages[0].Key))
	assert.JSONEq(t, `{"kind":"sale"}`, string(w.messages[0].Value))
	assert.Equal(t, at, w.messages[0].Time)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{writer: w, now: time.Now}

	assert.EqualError(t, p.Publish(context.Background(), "k", 1), "broker down")

	_, isJSONErr := p.Publish(context.Background(), "k", func() {}).(*json.UnsupportedTypeError)
	assert.True(t, isJSONErr)
}

// ============================================
// Consumer Tests
// ============================================

func TestConsumer_ConsumeUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	core, logs := observer.New(zapcore.InfoLevel)
	reader := &fakeReader{
		queue: []kafka.Message{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2"), Offset: 7},
		},
		errs:   []error{errors.New("rebalance")},
		cancel: cancel,
	}
	c := &Consumer{reader: reader, topic: "resellz.activity", logger: zap.New(core)}

	var seen []string
	err := c.Consume(ctx, func(_ context.Context, key, value []byte) error {
		seen = append(seen, string(key)+"="+string(value))
		if string(key) == "b" {
			return errors.New("bad payload")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a=1", "b=2"}, seen)
	assert.Equal(t, 1, logs.FilterMessage("Error reading message").Len())
	handled := logs.FilterMessage("Error handling message").All()
	require.Len(t, handled, 1)
	assert.Equal(t, int64(7), handled[0].ContextMap()["offset"])
}
