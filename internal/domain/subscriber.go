package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Subscriber represents a single addressable recipient in the directory.
// Email is the identity: unique and case-normalized across all subscribers.
// A subscriber is never hard-deleted; unsubscribing flips Unsubscribed and
// stamps UnsubscribedAt.
type Subscriber struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	Name           string     `json:"name" db:"name"`
	Confirmed      bool       `json:"confirmed" db:"confirmed"`
	Unsubscribed   bool       `json:"unsubscribed" db:"unsubscribed"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at" db:"unsubscribed_at"`

	// Token is the opaque unsubscribe token. Generated once on creation and
	// rotated only when an unsubscribed profile resubscribes.
	Token string `json:"-" db:"token"`

	// Optional locale fields populated by address-book imports.
	City       string `json:"city,omitempty" db:"city"`
	PostalCode string `json:"postal_code,omitempty" db:"postal_code"`
	Country    string `json:"country,omitempty" db:"country"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Sendable reports whether the subscriber may receive campaign mail.
// Unsubscribe state is checked at send time, not at resolution time.
func (s *Subscriber) Sendable() bool {
	return !s.Unsubscribed
}

// FirstName returns the first whitespace-separated word of the display name.
func (s *Subscriber) FirstName() string {
	fields := strings.Fields(s.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NormalizeEmail lowercases and trims an address so that equality checks and
// the unique-email invariant are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Segment is a named persisted set of subscribers. Membership is stored by
// ID and reads return every member; unsubscribed members are filtered out
// at send time, not here.
type Segment struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	MemberIDs []uuid.UUID `json:"member_ids" db:"member_ids"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
