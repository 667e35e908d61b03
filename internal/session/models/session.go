package models

import "time"

// Kind distinguishes the two independent session tracks. Holding one implies
// nothing about the other.
type Kind string

const (
	KindPartner       Kind = "partner"
	KindAdministrator Kind = "administrator"
)

// IsValid checks the kind against the supported enum values.
func (k Kind) IsValid() bool {
	return k == KindPartner || k == KindAdministrator
}

// Session is the credential record handed out at login and persisted in the
// durable credential store. Token is set for administrator sessions only.
type Session struct {
	Kind         Kind      `json:"kind"`
	Email        string    `json:"email"`
	Token        string    `json:"token,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	BusinessName string    `json:"business_name,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// Account is a partner's authentication record. The password is stored as a
// bcrypt hash; the profile itself lives in the onboarding domain.
type Account struct {
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}
