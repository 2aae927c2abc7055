package auth

import (
	"context"
	"time"
)

// Cooldown counts down the OTP resend window one second at a time and
// stops on context cancellation, matching the teardown behavior of the
// resend timer it replaces.
type Cooldown struct {
	Duration time.Duration
	Interval time.Duration // defaults to one second
}

// Start returns a channel that emits the remaining whole seconds, ending
// with 0. The channel closes when the countdown finishes or ctx is
// cancelled.
func (c *Cooldown) Start(ctx context.Context) <-chan int {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}

	remaining := int(c.Duration / time.Second)
	out := make(chan int, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		send := func(n int) bool {
			select {
			case out <- n:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(remaining) {
			return
		}
		for remaining > 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				remaining--
				if !send(remaining) {
					return
				}
			}
		}
	}()

	return out
}
