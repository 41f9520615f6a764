package ratelimit

import (
	"context"
	"time"
)

// Rule is a budget of Limit requests per Period
type Rule struct {
	Limit  int
	Period time.Duration
}

// Valid reports whether the rule limits anything
func (r Rule) Valid() bool {
	return r.Limit > 0 && r.Period > 0
}

// Decision is the outcome of an admission check
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects requests per key without blocking
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockLimiter
type Limiter interface {
	// Allow consumes one token of the key's bucket if available
	Allow(ctx context.Context, key string, rule Rule) (Decision, error)

	// Close releases background resources
	Close() error
}
