package models

import "time"

// ResetCode is a one-time password recovery code delivered by email.
type ResetCode struct {
	ID        string
	UserID    string
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// IsValid reports whether the code may still authorize a reset at now.
func (c *ResetCode) IsValid(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
