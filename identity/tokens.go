package identity

import "time"

// Tokens is the result of exchanging an authorization code at the identity
// provider's token endpoint.
type Tokens struct {
	// AccessToken is the provider bearer token used for every Graph call.
	// Lifespan: short-lived (typically 60-90 minutes)
	AccessToken string

	// RefreshToken is only present when offline_access was granted.
	RefreshToken string

	// ExpiresIn is the lifetime in seconds reported by the provider.
	ExpiresIn int64

	// Expiry is ExpiresIn resolved against the time of the exchange.
	// Zero when the provider did not report a lifetime.
	Expiry time.Time

	// Scope is the space separated list of scopes actually granted.
	// May be less than requested if the user or tenant declined some.
	Scope string
}

// ExpiresAt returns Expiry as an optional timestamp.
func (t *Tokens) ExpiresAt() *time.Time {
	if t.Expiry.IsZero() {
		return nil
	}
	expiry := t.Expiry
	return &expiry
}
