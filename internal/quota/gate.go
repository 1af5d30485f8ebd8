// Package quota implements the daily prompt ledger and the request
// gate that decides whether a chat request may reach the model.
package quota

import (
	"errors"

	"github.com/promptly-ai/chat-gateway/internal/model"
)

// ReasonLimitReached is the machine-checkable reason code carried by a
// quota denial.
const ReasonLimitReached = "limit_reached"

// ErrLimitReached is returned when the gate denies a request. It is an
// expected outcome, not an exception path: handlers map it to 403 with
// the structured reason rather than a generic failure.
var ErrLimitReached = errors.New("quota: daily prompt limit reached")

// Caller is the resolved identity of an inbound request.
type Caller struct {
	UserID        string
	Authenticated bool
}

// Decision is the gate's verdict for one request.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate is the allow/deny decision point preceding any paid upstream
// call. Anonymous callers pass the gate: the guest ceiling is tracked
// client-side and the transport rate limiter is the only server-side
// brake on unauthenticated traffic.
type Gate struct {
	FreeDailyLimit int
}

// NewGate creates a gate with the given free-tier daily limit.
func NewGate(freeDailyLimit int) *Gate {
	return &Gate{FreeDailyLimit: freeDailyLimit}
}

// Evaluate combines identity and ledger state into a verdict. profile
// may be nil for anonymous callers. Denial must short-circuit before
// any model invocation.
func (g *Gate) Evaluate(caller Caller, profile *model.Profile) Decision {
	if !caller.Authenticated || profile == nil {
		return Decision{Allowed: true}
	}

	switch profile.Tier {
	case model.TierPro, model.TierAdmin:
		return Decision{Allowed: true}
	}

	if profile.DailyPromptsUsed >= g.FreeDailyLimit {
		return Decision{Allowed: false, Reason: ReasonLimitReached}
	}
	return Decision{Allowed: true}
}
