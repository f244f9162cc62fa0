package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

type Producer struct {
	writer *kafka.Writer
}

// NewProducer writes to topic on broker. SASL/PLAIN over TLS is used when a
// username is set, which is what managed Kafka providers expect.
func NewProducer(broker, topic, username, password string) *Producer {
	transport := &kafka.Transport{}
	if username != "" {
		transport.SASL = plain.Mechanism{
			Username: username,
			Password: password,
		}
		transport.TLS = &tls.Config{}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka producer not ready")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
