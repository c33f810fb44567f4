package domain

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is one send-event of a newsletter to a resolved recipient set.
//
// The durable state machine is the three boolean flags:
//
//	not prepared -> prepared -> sending -> sent
//
// Prepared is set by an operator (the submit trigger). Sending and Sent are
// owned exclusively by the submission engine: Sending is claimed with a
// compare-and-set before the recipient loop and cleared on every exit path;
// Sent is set only after the loop completes without a fatal error. Sending
// and Sent are never both true outside the atomic transition.
type Campaign struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Slug         string    `json:"slug" db:"slug"`
	Title        string    `json:"title" db:"title"`
	NewsletterID uuid.UUID `json:"newsletter_id" db:"newsletter_id"`

	// SegmentIDs are the segments whose membership is unioned into the
	// recipient set when no explicit override is present.
	SegmentIDs []uuid.UUID `json:"segment_ids" db:"segment_ids"`

	// RecipientIDs is the explicit recipient override. When non-empty it is
	// used directly; otherwise the resolver materializes segment membership
	// into it so repeated submissions reuse a consistent set.
	RecipientIDs []uuid.UUID `json:"recipient_ids" db:"recipient_ids"`

	Publish     bool      `json:"publish" db:"publish"`
	PublishDate time.Time `json:"publish_date" db:"publish_date"`

	SendPlain   bool `json:"send_plain" db:"send_plain"`
	SendHTML    bool `json:"send_html" db:"send_html"`
	UseTemplate bool `json:"use_template" db:"use_template"`

	Prepared bool `json:"prepared" db:"prepared"`
	Sending  bool `json:"sending" db:"sending"`
	Sent     bool `json:"sent" db:"sent"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Due reports whether the campaign is eligible for submission at the given
// instant: prepared, not yet sent, not claimed by another run, and past its
// publish date.
func (c *Campaign) Due(now time.Time) bool {
	return c.Prepared && !c.Sent && !c.Sending && c.PublishDate.Before(now)
}

// Attachment is a file owned by exactly one campaign. Read-only after
// creation; deleted only by deleting the owning campaign.
type Attachment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CampaignID uuid.UUID `json:"campaign_id" db:"campaign_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	Path       string    `json:"path" db:"path"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
