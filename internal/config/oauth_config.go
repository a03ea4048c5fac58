package config

import (
	"strings"
	"time"
)

const (
	graphMailRead      = "https://graph.microsoft.com/Mail.Read"
	graphMailReadWrite = "https://graph.microsoft.com/Mail.ReadWrite"
	graphMailSend      = "https://graph.microsoft.com/Mail.Send"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetOAuthTenant() string
	GetOAuthState() string
	GetAuthorizeScopes() []string
	GetTokenScopes() []string
	GetTokenExchangeTimeout() time.Duration
	GetProfileMaxRetries() int
	GetProfileRetryBackoff() time.Duration
	GetTemporaryAccountFallback() bool
	GetOIDCIssuerURL() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetClientID() string {
	return GetEnv("CLIENT_ID", "")
}

func (OAuth) GetClientSecret() string {
	return GetEnv("CLIENT_SECRET", "")
}

func (OAuth) GetRedirectURI() string {
	return GetEnv("REDIRECT_URI", EnvVars{}.GetBaseURL()+"/auth/callback")
}

// GetOAuthTenant is the directory segment of the identity provider URLs.
// "common" accepts both work/school and personal accounts.
func (OAuth) GetOAuthTenant() string {
	return GetEnv("OAUTH_TENANT", "common")
}

// GetOAuthState is the anti-forgery value sent with the authorize request.
func (OAuth) GetOAuthState() string {
	return GetEnv("OAUTH_STATE", "email_client_app")
}

// GetAuthorizeScopes covers profile plus mail read/write/send. offline_access
// is what makes the provider return a refresh token.
func (o OAuth) GetAuthorizeScopes() []string {
	return append([]string{"openid", "profile", "email", "offline_access"}, o.GetTokenScopes()...)
}

func (OAuth) GetTokenScopes() []string {
	if scopes := GetEnv("OAUTH_TOKEN_SCOPES", ""); scopes != "" {
		return strings.Fields(scopes)
	}
	return []string{graphMailRead, graphMailReadWrite, graphMailSend}
}

func (OAuth) GetTokenExchangeTimeout() time.Duration {
	return 10 * time.Second
}

// GetProfileMaxRetries is the number of retries after the first profile
// fetch attempt fails (2 retries = 3 attempts).
func (OAuth) GetProfileMaxRetries() int {
	return GetEnvInt("PROFILE_MAX_RETRIES", 2)
}

// GetProfileRetryBackoff is multiplied by the attempt number between tries.
func (OAuth) GetProfileRetryBackoff() time.Duration {
	return GetEnvDuration("PROFILE_RETRY_BACKOFF", 1*time.Second)
}

// GetTemporaryAccountFallback controls whether a login whose profile lookup
// failed on every attempt still succeeds with a placeholder account.
func (OAuth) GetTemporaryAccountFallback() bool {
	return GetEnvBool("TEMPORARY_ACCOUNT_FALLBACK", true)
}

// GetOIDCIssuerURL is where the provider's discovery document is looked up.
func (o OAuth) GetOIDCIssuerURL() string {
	return strings.TrimSuffix(GetEnv("OIDC_ISSUER_URL", "https://login.microsoftonline.com/"+o.GetOAuthTenant()+"/v2.0"), "/")
}
