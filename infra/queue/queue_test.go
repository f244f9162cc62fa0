package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SundayYogurt/school_service/internal/dto"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type published struct {
	key, value []byte
}

type fakeProducer struct {
	msgs []published
	err  error
}

func (f *fakeProducer) PublishMessage(_ context.Context, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{key: key, value: value})
	return nil
}

func TestMailNotifierPublishesEvent(t *testing.T) {
	p := &fakeProducer{}
	n := NewMailNotifier(p)

	require.NoError(t, n.SendMail(context.Background(), "school@example.com", "Verify your email", "<a>link</a>"))
	require.Len(t, p.msgs, 1)
	require.Equal(t, MailEventKey, string(p.msgs[0].key))

	var event dto.MailEvent
	require.NoError(t, json.Unmarshal(p.msgs[0].value, &event))
	require.Equal(t, "school@example.com", event.To)
	require.Equal(t, "Verify your email", event.Subject)
	require.Equal(t, "<a>link</a>", event.HTML)
	require.NotEmpty(t, event.SentAt)
}

func TestMailNotifierPropagatesPublishError(t *testing.T) {
	n := NewMailNotifier(&fakeProducer{err: errors.New("broker down")})
	require.EqualError(t, n.SendMail(context.Background(), "a@b.c", "s", "h"), "broker down")
}

func TestNilProducerFails(t *testing.T) {
	var p *Producer
	require.Error(t, p.PublishMessage(context.Background(), nil, nil))
	require.NoError(t, p.Close())
}

type fakeReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type recordingHandler struct {
	values []string
}

func (h *recordingHandler) HandleMessage(_ context.Context, _, value []byte) error {
	h.values = append(h.values, string(value))
	if string(value) == "bad" {
		return errors.New("bad message")
	}
	return nil
}

func TestConsumerListenStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		msgs:   []kafka.Message{{Value: []byte("one")}, {Value: []byte("bad")}, {Value: []byte("two")}},
		cancel: cancel,
	}
	handler := &recordingHandler{}
	consumer := &KafkaConsumer{Reader: reader, Handler: handler, ServiceName: "test"}

	require.NoError(t, consumer.Listen(ctx))
	require.Equal(t, []string{"one", "bad", "two"}, handler.values)
	require.True(t, reader.closed)
}
