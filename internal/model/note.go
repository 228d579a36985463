package model

import "time"

// Note is a protected PDF document.
type Note struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topic_id"`
	Title     string    `json:"title"`
	MinTier   Tier      `json:"min_tier"`
	IsActive  bool      `json:"is_active"`
	PDFURL    *string   `json:"pdf_url"` // путь в хранилище или полный URL
	CreatedAt time.Time `json:"created_at"`
}

// HasFile reports whether the note references a stored file.
func (n *Note) HasFile() bool {
	return n.PDFURL != nil && *n.PDFURL != ""
}

// AccessLog is an audit entry written for every successful document grant.
type AccessLog struct {
	UserID     string    `json:"user_id"`
	NoteID     string    `json:"note_id"`
	AccessedAt time.Time `json:"accessed_at"`
	IPAddress  string    `json:"ip_address"`
}
