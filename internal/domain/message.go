package domain

import "time"

// EmailMessage is the fully-composed message ready for the mail transport.
// By the time a message reaches this struct, all template rendering and
// unsubscribe-footer injection is complete.
type EmailMessage struct {
	To        string `json:"to"`
	ToName    string `json:"to_name"`
	FromName  string `json:"from_name"`
	FromEmail string `json:"from_email"`
	Subject   string `json:"subject"`

	// TextBody and HTMLBody may each be empty, but never both. When both are
	// set the transport emits a multipart/alternative message; when only one
	// is set it emits a single body with the matching content subtype.
	TextBody string `json:"text_body,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

// Multipart reports whether the message carries both body variants.
func (m *EmailMessage) Multipart() bool {
	return m.TextBody != "" && m.HTMLBody != ""
}

// SendResult is returned by the mail transport after a successful delivery
// attempt.
type SendResult struct {
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}
