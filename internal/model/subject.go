package model

import "time"

// Subject is a course within a grade/stream/medium.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade"`
	Stream    *string   `json:"stream"`
	Medium    string    `json:"medium"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Scope returns the grade/stream/medium tuple that gates the subject's notes.
func (s *Subject) Scope() Scope {
	return Scope{Grade: s.Grade, Stream: s.Stream, Medium: s.Medium}
}

// Topic groups notes inside a subject.
type Topic struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
}
