package submission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// sleepRecorder captures requested delays instead of blocking.
type sleepRecorder struct {
	slept []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.slept = append(r.slept, d)
}

func (r *sleepRecorder) total() time.Duration {
	var t time.Duration
	for _, d := range r.slept {
		t += d
	}
	return t
}

func TestPacingFirstMessageNeverDelayed(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewPacing(time.Second, 2, time.Minute)
	p.sleep = rec.sleep

	p.BeforeEach(0)

	assert.Empty(t, rec.slept)
}

func TestPacingPerMessageDelay(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewPacing(250*time.Millisecond, 0, 0)
	p.sleep = rec.sleep

	for i := 0; i < 4; i++ {
		p.BeforeEach(i)
	}

	assert.Equal(t, []time.Duration{
		250 * time.Millisecond,
		250 * time.Millisecond,
		250 * time.Millisecond,
	}, rec.slept)
}

func TestPacingBatchDelayOnBatchBoundary(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewPacing(0, 3, 5*time.Second)
	p.sleep = rec.sleep

	for i := 0; i < 7; i++ {
		p.BeforeEach(i)
	}

	// Boundaries at indexes 3 and 6; index 0 is exempt.
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, rec.slept)
}

func TestPacingCombinedFloor(t *testing.T) {
	// Five recipients with a batch size of two must pace at least
	// 4 per-message delays plus 2 batch delays in total.
	const (
		perMessage = 100 * time.Millisecond
		batchDelay = time.Second
	)
	rec := &sleepRecorder{}
	p := NewPacing(perMessage, 2, batchDelay)
	p.sleep = rec.sleep

	for i := 0; i < 5; i++ {
		p.BeforeEach(i)
	}

	assert.GreaterOrEqual(t, rec.total(), 4*perMessage+2*batchDelay)
}

func TestPacingZeroConfigIsNoop(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewPacing(0, 0, 0)
	p.sleep = rec.sleep

	for i := 0; i < 10; i++ {
		p.BeforeEach(i)
	}

	assert.Empty(t, rec.slept)
}
