package accounts

import (
	"fmt"
	"time"
)

// TemporaryEmailDomain marks identities minted when the provider profile
// could not be read during login.
const TemporaryEmailDomain = "temporary.com"

// DefaultDisplayName is used when the provider does not supply one.
const DefaultDisplayName = "User"

// Account maps a mailbox owner to the provider credentials used on their behalf.
type Account struct {
	ID           string     `json:"id"`                  // Unique identifier, carried as userId in session tokens
	Email        string     `json:"email"`               // Identity key, unique across accounts
	DisplayName  string     `json:"displayName"`         // Name shown in the client
	AccessToken  string     `json:"-"`                   // Provider access token - never serialize
	RefreshToken string     `json:"-"`                   // Provider refresh token, optional - never serialize
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"` // Provider access token expiry
	IsTemporary  bool       `json:"isTemporary"`         // Created without a resolved identity
	LastLogin    time.Time  `json:"lastLogin,omitempty"` // Last successful OAuth callback
	CreatedAt    time.Time  `json:"createdAt,omitempty"` // Set by the store on create
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"` // Set by the store on every save
}

// Credentials are the provider values refreshed on every login.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// ApplyLogin overwrites the provider credentials and login bookkeeping in place.
// An empty display name keeps the existing one.
func (a *Account) ApplyLogin(creds Credentials, displayName string, at time.Time) {
	a.AccessToken = creds.AccessToken
	a.RefreshToken = creds.RefreshToken
	a.ExpiresAt = creds.ExpiresAt
	if displayName != "" {
		a.DisplayName = displayName
	}
	if a.DisplayName == "" {
		a.DisplayName = DefaultDisplayName
	}
	a.LastLogin = at
}

// TokenExpired reports whether the provider access token is past its expiry.
// Accounts without a recorded expiry are treated as valid.
func (a *Account) TokenExpired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// TemporaryEmail builds the placeholder identity for a login without a profile.
func TemporaryEmail(at time.Time) string {
	return fmt.Sprintf("user_%d@%s", at.UnixMilli(), TemporaryEmailDomain)
}
