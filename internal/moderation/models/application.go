package models

import (
	"strings"
	"time"
)

// Status is the moderation state of an application. Pending entries are the
// queue; approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid checks the status against the supported enum values.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether a decision has been made.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Variant distinguishes the two submission form shapes.
type Variant string

const (
	VariantFood Variant = "food"
	VariantShop Variant = "shop"
)

// Application is one externally submitted "get featured" request. Variant
// decides which of the form-specific fields carry data.
type Application struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	BusinessName string    `json:"business_name"`
	Category     string    `json:"category"`
	Address      string    `json:"address,omitempty"`
	Website      string    `json:"website,omitempty"`
	Description  string    `json:"description,omitempty"`
	Variant      Variant   `json:"variant"`
	OpeningHours string    `json:"opening_hours,omitempty"`
	ProductTypes string    `json:"product_types,omitempty"`
	DocumentRef  string    `json:"document_ref,omitempty"`
	Status       Status    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Key returns the identifier moderation decisions address the entry by: the
// id when present, otherwise the email. Empty when the entry has neither.
func (a *Application) Key() string {
	if a.ID != "" {
		return a.ID
	}
	return strings.ToLower(strings.TrimSpace(a.Email))
}

// Matches reports whether the given id-or-email key addresses this entry.
func (a *Application) Matches(key string) bool {
	if key == "" {
		return false
	}
	if a.ID == key {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(key))
}
