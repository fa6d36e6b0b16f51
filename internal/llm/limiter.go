package llm

import (
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// Limiter enforces per-instance request and token budgets for language-model
// calls. A zero budget disables that bucket.
type Limiter struct {
	requests *rate.Limiter
	tokens   *rate.Limiter
	now      func() time.Time
}

// NewLimiter creates a Limiter allowing requestsPerMinute calls and
// tokensPerMinute estimated tokens, each with a one-minute burst.
func NewLimiter(requestsPerMinute, tokensPerMinute int) *Limiter {
	l := &Limiter{now: time.Now}
	if requestsPerMinute > 0 {
		l.requests = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), requestsPerMinute)
	}
	if tokensPerMinute > 0 {
		l.tokens = rate.NewLimiter(rate.Limit(float64(tokensPerMinute)/60), tokensPerMinute)
	}
	return l
}

// CheckLimit reserves budget for one call of roughly estimatedTokens. It
// never blocks: when either bucket is exhausted nothing is consumed and a
// rate-limited *Error is returned.
func (l *Limiter) CheckLimit(estimatedTokens int) error {
	if l == nil {
		return nil
	}
	now := l.now()

	var reqRes *rate.Reservation
	if l.requests != nil {
		reqRes = l.requests.ReserveN(now, 1)
		if !reqRes.OK() || reqRes.DelayFrom(now) > 0 {
			reqRes.CancelAt(now)
			return &Error{Kind: KindRateLimited, Message: "request budget exhausted", Err: ErrLimitExceeded}
		}
	}

	if l.tokens != nil && estimatedTokens > 0 {
		tokRes := l.tokens.ReserveN(now, estimatedTokens)
		if !tokRes.OK() || tokRes.DelayFrom(now) > 0 {
			tokRes.CancelAt(now)
			if reqRes != nil {
				reqRes.CancelAt(now)
			}
			return &Error{Kind: KindRateLimited, Message: "token budget exhausted", Err: ErrLimitExceeded}
		}
	}

	return nil
}

// EstimateTokens approximates the token count of the given texts at four
// characters per token.
func EstimateTokens(texts ...string) int {
	n := 0
	for _, t := range texts {
		n += utf8.RuneCountInString(t)
	}
	return n/4 + 1
}
