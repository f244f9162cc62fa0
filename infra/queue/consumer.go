package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/SundayYogurt/school_service/internal/interfaces"
	"github.com/SundayYogurt/school_service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaConsumer struct {
	Reader      messageReader
	Handler     interfaces.ConsumerHandler
	ServiceName string
	log         *zap.Logger
}

func NewKafkaConsumer(broker, topic, groupID, username, password string, handler interfaces.ConsumerHandler) *KafkaConsumer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if username != "" {
		dialer.SASLMechanism = plain.Mechanism{
			Username: username,
			Password: password,
		}
		dialer.TLS = &tls.Config{}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, //10KB
		MaxBytes: 10e6, //10MB
		Dialer:   dialer,
	})

	return &KafkaConsumer{
		Reader:      reader,
		Handler:     handler,
		ServiceName: "Mail Service",
		log:         logger.WithModule("consumer"),
	}
}

// Listen reads until ctx is cancelled. Handler errors are logged and the
// message is committed anyway; there is no retry.
func (kc *KafkaConsumer) Listen(ctx context.Context) error {
	if kc.log == nil {
		kc.log = logger.WithModule("consumer")
	}
	defer kc.Reader.Close()

	for {
		msg, err := kc.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			kc.log.Error("read message", zap.String("service", kc.ServiceName), zap.Error(err))
			continue
		}

		kc.log.Debug("received message",
			zap.String("service", kc.ServiceName),
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
		)

		if err := kc.Handler.HandleMessage(ctx, msg.Key, msg.Value); err != nil {
			kc.log.Error("handle message", zap.String("service", kc.ServiceName), zap.Error(err))
		}
	}
}
