package github

import (
	"net/http"
	"strconv"
	"time"
)

// GitHub reports the core API quota in these headers on every response.
const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateReset     = "X-RateLimit-Reset"
)

// RateBudget is the last provider-reported request quota.
type RateBudget struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RateLimiter decides whether the next request still fits into the
// remaining budget. It holds state only: the caller performs the wait,
// which keeps this component synchronous and trivially testable.
type RateLimiter struct {
	budget RateBudget
	buffer int
	now    func() time.Time
}

// NewRateLimiter creates a limiter that keeps buffer requests in
// reserve. Before the first response the budget is unknown and every
// request is allowed.
func NewRateLimiter(buffer int) *RateLimiter {
	return &RateLimiter{
		budget: RateBudget{Remaining: -1},
		buffer: buffer,
		now:    time.Now,
	}
}

// CheckBudget reports whether a request may be issued now. When the
// remaining quota is at or below the buffer and the reset is still
// pending, it returns false and the duration to wait until the reset.
func (r *RateLimiter) CheckBudget() (bool, time.Duration) {
	if r.budget.Remaining < 0 || r.budget.Remaining > r.buffer {
		return true, 0
	}
	wait := r.budget.ResetAt.Sub(r.now())
	if wait <= 0 {
		return true, 0
	}
	return false, wait + time.Second
}

// UpdateFromResponse overwrites the budget from response headers.
// The provider's numbers are authoritative and replace local state
// unconditionally; responses without quota headers are ignored.
func (r *RateLimiter) UpdateFromResponse(h http.Header) {
	remaining, err := strconv.Atoi(h.Get(headerRateRemaining))
	if err != nil {
		return
	}
	budget := RateBudget{Remaining: remaining}
	budget.Limit, _ = strconv.Atoi(h.Get(headerRateLimit))
	if reset, err := strconv.ParseInt(h.Get(headerRateReset), 10, 64); err == nil {
		budget.ResetAt = time.Unix(reset, 0)
	}
	r.budget = budget
}

// Budget returns the current budget state.
func (r *RateLimiter) Budget() RateBudget {
	return r.budget
}
