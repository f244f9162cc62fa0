package interfaces

import "context"

// Notifier delivers an HTML email to a single recipient.
type Notifier interface {
	SendMail(ctx context.Context, to, subject, html string) error
}
