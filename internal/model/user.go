package model

import "time"

// Role is a back-office role granted to a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCreator   Role = "creator"
	RoleCMO       Role = "cmo"
	RoleHeadOfOps Role = "head_of_ops"
)

// Profile holds the public profile of an authenticated user.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}
