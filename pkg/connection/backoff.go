package connection

import (
	"math/rand/v2"
	"time"
)

// Backoff defaults.
const (
	// DefaultInitialDelay is the base delay of the first retry.
	DefaultInitialDelay = 1000 * time.Millisecond

	// DefaultMaxDelay caps the base delay.
	DefaultMaxDelay = 30 * time.Second

	// DefaultJitter is the exclusive upper bound of the additive jitter.
	DefaultJitter = 500 * time.Millisecond

	// DefaultMultiplier is the factor by which the base grows.
	DefaultMultiplier = 2.0
)

// Policy computes retry delays. All methods are pure; the retry state is
// owned by the caller and passed by value.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Jitter     time.Duration
	Multiplier float64
}

// DefaultPolicy returns the default backoff policy.
func DefaultPolicy() Policy {
	return Policy{
		Initial:    DefaultInitialDelay,
		Max:        DefaultMaxDelay,
		Jitter:     DefaultJitter,
		Multiplier: DefaultMultiplier,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Initial <= 0 {
		p.Initial = DefaultInitialDelay
	}
	if p.Max <= 0 {
		p.Max = DefaultMaxDelay
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Multiplier <= 1 {
		p.Multiplier = DefaultMultiplier
	}
	return p
}

// RetryState is the backoff progress of one supervisor.
type RetryState struct {
	// CurrentDelay is the base (pre-jitter) delay of the next retry.
	CurrentDelay time.Duration

	// Attempts counts retries started since the last reset.
	Attempts int
}

// Reset returns the initial retry state.
func (p Policy) Reset() RetryState {
	return RetryState{CurrentDelay: p.Initial}
}

// Delay returns the wait before the next retry for the given jitter.
func (p Policy) Delay(s RetryState, jitter time.Duration) time.Duration {
	return s.CurrentDelay + jitter
}

// Advance records that a retry started and grows the base delay.
func (p Policy) Advance(s RetryState) RetryState {
	next := time.Duration(float64(s.CurrentDelay) * p.Multiplier)
	if next > p.Max || next <= 0 {
		next = p.Max
	}
	return RetryState{CurrentDelay: next, Attempts: s.Attempts + 1}
}

// DrawJitter draws a jitter from [0, p.Jitter). A nil rng uses the global
// source.
func (p Policy) DrawJitter(rng *rand.Rand) time.Duration {
	if p.Jitter <= 0 {
		return 0
	}
	if rng == nil {
		return rand.N(p.Jitter)
	}
	return time.Duration(rng.Int64N(int64(p.Jitter)))
}

// Next draws a jitter and returns the wait before the next retry.
func (p Policy) Next(s RetryState, rng *rand.Rand) (delay, jitter time.Duration) {
	jitter = p.DrawJitter(rng)
	return p.Delay(s, jitter), jitter
}
