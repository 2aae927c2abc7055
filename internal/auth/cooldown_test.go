package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownCountsDownToZero(t *testing.T) {
	c := &Cooldown{Duration: 3 * time.Second, Interval: time.Millisecond}

	var got []int
	for n := range c.Start(context.Background()) {
		got = append(got, n)
	}
	assert.Equal(t, []int{3, 2, 1, 0}, got)
}

func TestCooldownStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cooldown{Duration: time.Hour, Interval: time.Millisecond}

	ch := c.Start(ctx)
	first, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, 3600, first)

	cancel()

	// The channel must close promptly once the context is gone.
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("cooldown channel did not close after cancellation")
		}
	}
}
