package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// minSecretLength is the shortest client or signing secret accepted as plausible.
const minSecretLength = 11

// Validator checks the login related settings without revealing their values.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateClientID checks for an app registration id (a 36 character uuid).
func (v *Validator) ValidateClientID(clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}
	if len(clientID) != 36 {
		return fmt.Errorf("client id must be a 36 character application id")
	}
	if _, err := uuid.Parse(clientID); err != nil {
		return fmt.Errorf("client id is not a valid application id")
	}
	return nil
}

// ValidateSecret checks a client or signing secret for presence and length.
func (v *Validator) ValidateSecret(name, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s is required", name)
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("%s must be longer than %d characters", name, minSecretLength-1)
	}
	return nil
}

// ValidateFrontendURL checks the base URL the callback redirects the browser to.
func (v *Validator) ValidateFrontendURL(frontendURL string) error {
	if frontendURL == "" {
		return fmt.Errorf("frontend url is required")
	}
	u, err := url.Parse(frontendURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("frontend url must be an absolute url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("frontend url must use http or https scheme")
	}
	return nil
}

// ValidateScope validates individual scope strings
func ValidateScope(scope string) error {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil // Empty scope is valid
	}

	// Check for invalid characters
	if strings.ContainsAny(scope, "\n\r\t") {
		return fmt.Errorf("scope contains invalid characters")
	}

	for _, s := range strings.Split(scope, " ") {
		if s == "" {
			return fmt.Errorf("scope tokens must be separated by a single space")
		}
	}

	return nil
}

// ValidateRedirectURI validates redirect URI format
func ValidateRedirectURI(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("redirect_uri is required")
	}

	// Must start with http:// or https://
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return fmt.Errorf("redirect_uri must use http or https scheme")
	}

	// Should not contain fragments
	if strings.Contains(uri, "#") {
		return fmt.Errorf("redirect_uri must not contain fragments")
	}

	return nil
}

// ValidateState validates OAuth state parameter
func ValidateState(state string) error {
	if state == "" {
		return fmt.Errorf("state is required")
	}

	// Should be reasonably long for CSRF protection
	if len(state) < 8 {
		return fmt.Errorf("state parameter should be at least 8 characters for security")
	}

	// Should not contain whitespace
	if strings.TrimSpace(state) != state {
		return fmt.Errorf("state parameter must not contain leading/trailing whitespace")
	}

	return nil
}
