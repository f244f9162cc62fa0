package dto

// MailEvent is published to Kafka by the API and delivered by mail-svc.
type MailEvent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	SentAt  string `json:"sent_at"`
}
