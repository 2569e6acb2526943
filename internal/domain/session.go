package domain

import "time"

// Principal is an authenticated identity issued by the identity provider.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Session is the explicit handle for an authenticated principal. Workflows receive it
// from the caller instead of reading an ambient "current user".
type Session struct {
	ID        string
	Principal *Principal
	Token     string
	AuthTime  time.Time
	ExpiresAt time.Time
}

// Active reports whether the session still carries a signed-in principal at now.
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.Principal == nil {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
