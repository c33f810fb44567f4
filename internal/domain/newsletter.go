package domain

import (
	"time"

	"github.com/google/uuid"
)

// Newsletter is a message template: a subject line plus raw body content,
// possibly carrying Liquid placeholders. One newsletter may back multiple
// campaigns, but at most one of them may be published at a time.
type Newsletter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
