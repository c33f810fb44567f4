// Package transport delivers composed messages through an outbound mail
// provider. Delivery errors are per-recipient and recoverable: the
// submission engine logs them and moves on to the next recipient.
package transport

import "fmt"

// Error wraps a delivery failure for a single recipient. It is the
// recoverable half of the error taxonomy; configuration defects never
// surface as transport errors.
type Error struct {
	Recipient string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
