// Package model defines data structures for the chat gateway.
package model

import (
	"time"
)

// Tier is the subscription class controlling quota.
type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierAdmin Tier = "admin"
)

// ValidTier reports whether t is a known subscription tier.
func ValidTier(t Tier) bool {
	switch t {
	case TierFree, TierPro, TierAdmin:
		return true
	}
	return false
}

// Profile is the server-side record for an authenticated user.
//
// DailyPromptsUsed and DailyPromptsResetDate form the quota ledger:
// the counter resets to zero the first time a request is evaluated on
// a new UTC calendar day, and is incremented only after a successful
// model exchange.
type Profile struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	Tier                  Tier      `json:"tier"`
	DailyPromptsUsed      int       `json:"daily_prompts_used"`
	DailyPromptsResetDate string    `json:"daily_prompts_reset_date"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// QuotaDate formats t as the calendar-date key used by the ledger.
func QuotaDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
