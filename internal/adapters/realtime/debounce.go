package realtime

import (
	"context"
	"time"
)

// DefaultDebounce is the quiet period before a burst of changes triggers a re-fetch.
const DefaultDebounce = 500 * time.Millisecond

// Debounce calls fn once per burst of changes on in, after no change has
// arrived for wait. It returns when ctx is done or in is closed; a pending
// burst is dropped in either case.
// PRE: wait > 0, fn is non-nil
func Debounce(ctx context.Context, in <-chan Change, wait time.Duration, fn func()) {
	timer := time.NewTimer(wait)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case _, ok := <-in:
			if !ok {
				timer.Stop()
				return
			}
			// Reset drops an unreceived expiry, so a burst fires once.
			timer.Reset(wait)
		case <-timer.C:
			fn()
		}
	}
}
