package engine

import (
	"math/rand/v2"
	"time"
)

// TimeSource supplies wall-clock time. The scheduler takes it as a seam
// so tests can pin timestamps.
type TimeSource interface {
	Now() time.Time
}

// SystemClock is the production TimeSource.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// jitterMillis is the half-width of the timestamp jitter: ±6 hours.
const jitterMillis = 21_600_000

// JitteredTimestamp returns wall-clock milliseconds offset by a uniform
// draw from [-jitterMillis, +jitterMillis]. The jitter deliberately
// decorrelates record order from wall-clock order, imitating a less
// orderly distributed system; readers must not assume monotonic
// timestamps.
func JitteredTimestamp(clock TimeSource, rng *rand.Rand) int64 {
	offset := rng.Int64N(2*jitterMillis+1) - jitterMillis
	return clock.Now().UnixMilli() + offset
}
