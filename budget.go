package sqsdrain

import (
	"context"
	"math"
	"time"
)

// RemainingTimeFunc reports how much execution time the host still allows.
// The host injects it (a Lambda supplies its invocation deadline); the
// drainer never owns a clock, it only samples this before each cycle. The
// value must be monotonically non-increasing over one drain.
type RemainingTimeFunc func() time.Duration

// RemainingFromContext derives a RemainingTimeFunc from the context deadline.
// A context without a deadline reports an effectively unlimited budget, in
// which case the drain runs until the context itself is torn down by the
// host or a poll or handler error stops it.
func RemainingFromContext(ctx context.Context) RemainingTimeFunc {
	deadline, ok := ctx.Deadline()
	if !ok {
		return func() time.Duration { return math.MaxInt64 }
	}
	return func() time.Duration { return time.Until(deadline) }
}
