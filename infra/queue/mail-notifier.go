package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SundayYogurt/school_service/internal/dto"
	"github.com/SundayYogurt/school_service/internal/interfaces"
)

const MailEventKey = "school.mail"

// MailNotifier hands mails to mail-svc through Kafka instead of sending them inline.
type MailNotifier struct {
	producer interfaces.ProducerHandler
}

func NewMailNotifier(producer interfaces.ProducerHandler) *MailNotifier {
	return &MailNotifier{producer: producer}
}

func (n *MailNotifier) SendMail(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(dto.MailEvent{
		To:      to,
		Subject: subject,
		HTML:    html,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return n.producer.PublishMessage(ctx, []byte(MailEventKey), payload)
}
