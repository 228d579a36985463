package model

import "time"

// CreditMonthLayout is the calendar-month key format of credit records.
const CreditMonthLayout = "2006-01"

// CreditRecord tracks AI-tutor credit usage for one user in one calendar month.
type CreditRecord struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	MonthYear    string     `json:"month_year"`
	CreditsUsed  int        `json:"credits_used"`
	CreditsLimit int        `json:"credits_limit"`
	AbuseStrikes int        `json:"abuse_strikes"`
	IsSuspended  bool       `json:"is_suspended"`
	SuspendedAt  *time.Time `json:"suspended_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Remaining returns the unused balance, never negative.
func (c *CreditRecord) Remaining() int {
	if c.CreditsUsed >= c.CreditsLimit {
		return 0
	}
	return c.CreditsLimit - c.CreditsUsed
}

// MonthKey returns the credit record key for the calendar month containing t.
func MonthKey(t time.Time) string {
	return t.UTC().Format(CreditMonthLayout)
}

// CreditAllotments maps tiers to their monthly credit limit.
type CreditAllotments map[Tier]int

// DefaultCreditAllotments returns the standard monthly word allowance per tier.
func DefaultCreditAllotments() CreditAllotments {
	return CreditAllotments{
		TierSilver:   0,
		TierGold:     10000,
		TierPlatinum: 25000,
	}
}

// For returns the allotment of a tier, 0 for unknown tiers.
func (a CreditAllotments) For(t Tier) int {
	return a[ParseTier(string(t))]
}
