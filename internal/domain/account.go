package domain

import "time"

// Account is the identity provider's credential record for a principal.
type Account struct {
	UID          string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the public identity view of the account.
func (a *Account) Principal() *Principal {
	return &Principal{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		CreatedAt:   a.CreatedAt,
	}
}
