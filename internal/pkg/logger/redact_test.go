package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "ad***@example.com", RedactEmail("ada.lovelace@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactPIIValue(t *testing.T) {
	// Keyed fields are masked directly.
	assert.Equal(t, "ad***@example.com", redactPIIValue("recipient", "ada.lovelace@example.com"))
	// Embedded addresses in generic fields are found by pattern.
	got := redactPIIValue("error", "delivery to ada@example.com refused")
	assert.Equal(t, "delivery to ***@example.com refused", got)
}
