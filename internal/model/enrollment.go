package model

import "time"

// EnrollmentSource describes how an enrollment was granted.
type EnrollmentSource string

const (
	EnrollmentSourcePayment EnrollmentSource = "payment" // Оплата через платёжный шлюз
	EnrollmentSourceCode    EnrollmentSource = "code"    // Активация по коду доступа
)

// Enrollment represents a user's access grant for a grade/stream/medium at a given tier.
type Enrollment struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Grade     string           `json:"grade"`
	Stream    *string          `json:"stream"` // nil для классов без потока (O/L)
	Medium    string           `json:"medium"`
	Tier      Tier             `json:"tier"`
	IsActive  bool             `json:"is_active"`
	ExpiresAt *time.Time       `json:"expires_at"` // nil = бессрочно
	Source    EnrollmentSource `json:"source"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsExpired reports whether the enrollment's expiration timestamp has passed at now.
func (e *Enrollment) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// IsEffective checks the active flag and the expiration timestamp together.
func (e *Enrollment) IsEffective(now time.Time) bool {
	return e.IsActive && !e.IsExpired(now)
}

// Scope returns the grade/stream/medium tuple the enrollment grants.
func (e *Enrollment) Scope() Scope {
	return Scope{Grade: e.Grade, Stream: e.Stream, Medium: e.Medium}
}

// Scope identifies a grade/stream/medium combination.
type Scope struct {
	Grade  string  `json:"grade"`
	Stream *string `json:"stream"`
	Medium string  `json:"medium"`
}

// Matches compares two scopes; a nil stream only matches a nil stream.
func (s Scope) Matches(other Scope) bool {
	if s.Grade != other.Grade || s.Medium != other.Medium {
		return false
	}
	if s.Stream == nil || other.Stream == nil {
		return s.Stream == nil && other.Stream == nil
	}
	return *s.Stream == *other.Stream
}
