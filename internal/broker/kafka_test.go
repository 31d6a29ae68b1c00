package broker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
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

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "vg.events")
	assert.Error(t, err)

	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "vg.events")
	require.NoError(t, err)
	assert.Equal(t, "vg.events", p.topic)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "vg.events"}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Message{
		Type:    VisitorAssigned,
		Key:     "test-1",
		Payload: map[string]string{"visitor_id": "v-1", "variant_id": "red"},
		Time:    at,
	})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, []byte("test-1"), msg.Key)
	assert.JSONEq(t, `{"visitor_id":"v-1","variant_id":"red"}`, string(msg.Value))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte(VisitorAssigned)}}, msg.Headers)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &KafkaPublisher{writer: w, topic: "vg.events"}

	err := p.Publish(context.Background(), Message{Type: TestCreated, Key: "t", Payload: struct{}{}})
	assert.ErrorContains(t, err, "broker down")
}

func TestKafkaPublisher_UnmarshalablePayload(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{}, topic: "vg.events"}

	err := p.Publish(context.Background(), Message{Type: TestCreated, Payload: make(chan int)})
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf).Level(zerolog.DebugLevel))

	require.NoError(t, p.Publish(context.Background(), Message{Type: ResultsComputed, Key: "t1", Payload: map[string]int{"visitors": 3}}))

	out := buf.String()
	assert.Contains(t, out, `"type":"results.computed"`)
	assert.Contains(t, out, `"key":"t1"`)
	assert.Contains(t, out, `"visitors":3`)
	assert.NoError(t, p.Close())
}
