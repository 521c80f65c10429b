// Package retry implements the bounded-attempt, randomized-backoff retry
// policy used by internal/webcache. A Strategy is created fresh per
// download attempt loop; it is not safe for reuse across loops or for
// concurrent use by multiple goroutines.
package retry

import (
	"math/rand"
	"time"

	"tripdig/internal/errors"
)

// Strategy tracks the attempt budget and classifies errors as retryable
// or terminal for a single download loop.
type Strategy struct {
	maxAttempts int
	lower       time.Duration
	upper       time.Duration
	rng         *rand.Rand

	attempts  int
	lastError error
}

// New creates a retrier with the given attempt budget and backoff window
// [lower, upper]. maxAttempts counts attempts, not wall-clock time.
func New(maxAttempts int, lower, upper time.Duration) *Strategy {
	return &Strategy{
		maxAttempts: maxAttempts,
		lower:       lower,
		upper:       upper,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterError consumes one attempt and records e for classification by
// Seconds. A terminal error kind exhausts the budget immediately.
func (s *Strategy) RegisterError(e error) {
	s.attempts++
	s.lastError = e
}

// Seconds returns the delay to sleep before the next attempt and whether
// the caller is done (budget exhausted or the last error was terminal).
// Before any error has been registered, Seconds returns (0, false) so the
// first attempt is immediate.
func (s *Strategy) Seconds() (time.Duration, bool) {
	if s.lastError == nil {
		return 0, false
	}
	if errors.IsPermanent(s.lastError) {
		return 0, true
	}
	if s.attempts >= s.maxAttempts {
		return 0, true
	}
	if s.upper <= s.lower {
		return s.lower, false
	}
	span := s.upper - s.lower
	return s.lower + time.Duration(s.rng.Int63n(int64(span))), false
}
