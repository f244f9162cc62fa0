package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/SundayYogurt/school_service/internal/dto"
	"github.com/SundayYogurt/school_service/internal/interfaces"
	"github.com/SundayYogurt/school_service/pkg/logger"
	"github.com/SundayYogurt/school_service/pkg/metrics"
	"go.uber.org/zap"
)

// MailHandler delivers MailEvents consumed from Kafka.
type MailHandler struct {
	notifier interfaces.Notifier
	log      *zap.Logger
}

func NewMailHandler(notifier interfaces.Notifier) *MailHandler {
	return &MailHandler{
		notifier: notifier,
		log:      logger.WithModule("mail-handler"),
	}
}

func (h *MailHandler) HandleMessage(ctx context.Context, key, value []byte) error {
	var event dto.MailEvent
	if err := json.Unmarshal(value, &event); err != nil {
		h.log.Warn("invalid mail event payload", zap.ByteString("key", key), zap.Error(err))
		return err
	}
	if event.To == "" {
		return errors.New("mail event without recipient")
	}

	if err := h.notifier.SendMail(ctx, event.To, event.Subject, event.HTML); err != nil {
		metrics.MailsSent.WithLabelValues("event", "failed").Inc()
		return err
	}
	metrics.MailsSent.WithLabelValues("event", "sent").Inc()
	h.log.Info("mail event delivered", zap.String("to", event.To))
	return nil
}
