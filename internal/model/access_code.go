package model

import "time"

// AccessCode is a redeemable code that grants an enrollment without payment.
type AccessCode struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	Grade        string     `json:"grade"`
	Stream       *string    `json:"stream"`
	Medium       string     `json:"medium"`
	Tier         Tier       `json:"tier"`
	DurationDays int        `json:"duration_days"` // 0 = бессрочный доступ
	MaxUses      *int       `json:"max_uses"`      // nil = unlimited uses
	CurrentUses  int        `json:"current_uses"`
	ExpiresAt    *time.Time `json:"expires_at"` // nil = never expires
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsValid checks if the code can still be redeemed at now.
func (c *AccessCode) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}

	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}

	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return false
	}

	return true
}

// Scope returns the grade/stream/medium the code grants.
func (c *AccessCode) Scope() Scope {
	return Scope{Grade: c.Grade, Stream: c.Stream, Medium: c.Medium}
}

// EnrollmentExpiry returns the expiry of an enrollment granted at now, nil when unlimited.
func (c *AccessCode) EnrollmentExpiry(now time.Time) *time.Time {
	if c.DurationDays <= 0 {
		return nil
	}
	t := now.AddDate(0, 0, c.DurationDays)
	return &t
}
