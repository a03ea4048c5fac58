// Package identity talks to the identity provider's authorize and token
// endpoints.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-graph-mail/internal/config"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	responseModeQuery = "query"
	promptConsent     = "consent"
)

// Provider builds authorize URLs and exchanges authorization codes.
type Provider struct {
	oauth2Config *oauth2.Config
	tokenScopes  []string
	state        string
	timeout      time.Duration
	httpClient   *http.Client
	nowFunc      func() time.Time
}

type ProviderOption func(*Provider)

// WithEndpoint replaces the provider endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) ProviderOption {
	return func(p *Provider) {
		p.oauth2Config.Endpoint = endpoint
	}
}

func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

func WithNowFunc(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowFunc = now
	}
}

func New(cfg config.OAuthConfig, opts ...ProviderOption) *Provider {
	endpoint := microsoft.AzureADEndpoint(cfg.GetOAuthTenant())
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	p := &Provider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			RedirectURL:  cfg.GetRedirectURI(),
			Endpoint:     endpoint,
			Scopes:       cfg.GetAuthorizeScopes(),
		},
		tokenScopes: cfg.GetTokenScopes(),
		state:       cfg.GetOAuthState(),
		timeout:     cfg.GetTokenExchangeTimeout(),
		httpClient:  http.DefaultClient,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthCodeURL returns the authorize URL the browser is redirected to.
// Consent is forced so that newly added mail permissions are always granted.
func (p *Provider) AuthCodeURL() string {
	return p.oauth2Config.AuthCodeURL(p.state,
		oauth2.SetAuthURLParam("response_mode", responseModeQuery),
		oauth2.SetAuthURLParam("prompt", promptConsent),
	)
}

// State is the anti-forgery value sent with the authorize request.
func (p *Provider) State() string {
	return p.state
}

// Endpoint exposes the configured authorize/token URLs for diagnostics.
func (p *Provider) Endpoint() oauth2.Endpoint {
	return p.oauth2Config.Endpoint
}

// Exchange trades an authorization code for provider tokens. There is no
// retry: a failed exchange ends the login.
func (p *Provider) Exchange(ctx context.Context, code string) (*Tokens, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.oauth2Config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("scope", strings.Join(p.tokenScopes, " ")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrTokenExchange, describe(err))
	}
	if tok.AccessToken == "" {
		return nil, apperrors.ErrNoAccessToken
	}

	tokens := &Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		tokens.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		tokens.ExpiresIn = int64(tok.Expiry.Sub(p.nowFunc()).Round(time.Second).Seconds())
	}
	return tokens, nil
}

// describe prefers the provider's error_description over the transport message.
func describe(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorDescription != "" {
			return retrieveErr.ErrorDescription
		}
		if retrieveErr.ErrorCode != "" {
			return retrieveErr.ErrorCode
		}
	}
	return err.Error()
}
