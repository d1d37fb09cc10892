// Package progress drives the cosmetic stage animation shown while a
// generation run is in flight. It is not connected to the run itself: the
// stages cycle on a fixed interval until the caller loses interest.
package progress

import (
	"context"
	"time"

	"github.com/JaimeStill/roomset/internal/workflow"
)

// Tick is one step of the animation.
type Tick struct {
	Index int            `json:"index"`
	Stage workflow.Stage `json:"stage"`
}

// Cycle emits the first stage immediately and the following stages every
// interval, wrapping after the last one. The channel is closed once ctx is
// done. Ticks are dropped rather than queued when the receiver falls behind.
func Cycle(ctx context.Context, interval time.Duration) <-chan Tick {
	out := make(chan Tick, 1)
	out <- Tick{Index: 0, Stage: workflow.StageAt(0)}

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		count := len(workflow.Stages())
		index := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				index = (index + 1) % count
				select {
				case out <- Tick{Index: index, Stage: workflow.StageAt(index)}:
				default:
				}
			}
		}
	}()

	return out
}

// At returns the tick an animation started elapsed ago would be showing.
func At(elapsed, interval time.Duration) Tick {
	index := 0
	if elapsed > 0 && interval > 0 {
		index = int(elapsed/interval) % len(workflow.Stages())
	}
	return Tick{Index: index, Stage: workflow.StageAt(index)}
}
