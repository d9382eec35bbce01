package dispatch

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacing is the randomized wait inserted between per-recipient channel
// operations. It exists to avoid abuse-detection throttling on the
// external channel, which is also why recipient processing is strictly
// sequential: parallel sends would defeat it.
type Pacing struct {
	Min time.Duration
	Max time.Duration
	// RatePerSec is a hard ceiling on channel calls layered under the
	// randomized delay. <=0 defaults to 1.
	RatePerSec int
}

// Delay draws a uniformly random delay in [Min, Max], in whole seconds.
func (p Pacing) Delay() time.Duration {
	min := int(p.Min / time.Second)
	max := int(p.Max / time.Second)
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return time.Duration(min+rand.IntN(max-min+1)) * time.Second
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	tmr := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !tmr.Stop() {
			<-tmr.C
		}
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}
