package submission

import "time"

// Pacing enforces the delivery cadence of a run: an inter-message delay
// before every message after the first, plus a longer batch delay each
// time the zero-based index is a multiple of the batch size.
//
// The model is deliberately blocking and sequential. The transport is
// invoked synchronously per recipient, so suspending the loop is what
// keeps the provider-side rate limits deterministic; a token bucket would
// buy nothing here.
type Pacing struct {
	PerMessage time.Duration
	BatchSize  int
	BatchDelay time.Duration

	sleep func(time.Duration)
}

// NewPacing creates a pacing controller. Zero values disable the
// corresponding delay.
func NewPacing(perMessage time.Duration, batchSize int, batchDelay time.Duration) *Pacing {
	return &Pacing{
		PerMessage: perMessage,
		BatchSize:  batchSize,
		BatchDelay: batchDelay,
		sleep:      time.Sleep,
	}
}

// BeforeEach suspends the loop ahead of sending message index (counted
// from zero). The first message is never delayed.
func (p *Pacing) BeforeEach(index int) {
	if index == 0 {
		return
	}
	if p.PerMessage > 0 {
		p.sleep(p.PerMessage)
	}
	if p.BatchSize > 0 && p.BatchDelay > 0 && index%p.BatchSize == 0 {
		p.sleep(p.BatchDelay)
	}
}
