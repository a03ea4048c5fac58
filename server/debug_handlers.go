package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-graph-mail/auth"
	"github.com/jrsteele09/go-graph-mail/internal/metrics"
	"github.com/rs/zerolog"
)

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

// ReachabilityCheck is the result of contacting one upstream endpoint.
type ReachabilityCheck struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type MicrosoftCheckResponse struct {
	Status    string            `json:"status"`
	Graph     ReachabilityCheck `json:"graph"`
	Discovery ReachabilityCheck `json:"discovery"`
}

// GraphAccessResponse reports what the caller's stored token can reach.
type GraphAccessResponse struct {
	Success     bool   `json:"success"`
	User        any    `json:"user,omitempty"`
	MailFolders any    `json:"mailFolders,omitempty"`
	TokenLength int    `json:"tokenLength"`
	Error       string `json:"error,omitempty"`
	Details     any    `json:"details,omitempty"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:      "OK",
			Timestamp:   s.nowTime().UTC(),
			Environment: s.env,
		})
	}
}

func (s *Server) MetricsHandler() http.HandlerFunc {
	h := metrics.Handler()
	return h.ServeHTTP
}

// ConfigCheckHandler reports whether each login setting is present and
// well formed.
func (s *Server) ConfigCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.validator.CheckSettings(s.loginSettings()))
	}
}

func (s *Server) loginSettings() auth.Settings {
	return auth.Settings{
		ClientID:     s.config.GetClientID(),
		ClientSecret: s.config.GetClientSecret(),
		RedirectURI:  s.config.GetRedirectURI(),
		JWTSecret:    s.config.GetJWTSecret(),
		FrontendURL:  s.config.GetFrontendURL(),
		State:        s.config.GetOAuthState(),
		Scopes:       s.config.GetAuthorizeScopes(),
	}
}

// TestMicrosoftHandler checks that the Graph service root and the identity
// provider's discovery document can be reached. It always answers 200.
func (s *Server) TestMicrosoftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := MicrosoftCheckResponse{
			Graph:     s.checkGraph(r.Context()),
			Discovery: s.checkDiscovery(r.Context()),
		}
		resp.Status = "OK"
		if !resp.Graph.Reachable || !resp.Discovery.Reachable {
			resp.Status = "DEGRADED"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) checkGraph(ctx context.Context) ReachabilityCheck {
	check := ReachabilityCheck{URL: s.graph.BaseURL()}
	root, err := s.graph.Ping(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("graph unreachable")
		check.Error = err.Error()
		return check
	}
	check.Reachable = true
	check.Details = root
	return check
}

// checkDiscovery loads the OpenID configuration. The multi-tenant issuer is a
// template, so the issuer in the document is not compared with the URL.
func (s *Server) checkDiscovery(ctx context.Context) ReachabilityCheck {
	issuer := s.config.GetOIDCIssuerURL()
	check := ReachabilityCheck{URL: issuer + "/.well-known/openid-configuration"}

	ctx, cancel := context.WithTimeout(ctx, s.config.GetTokenExchangeTimeout())
	defer cancel()
	ctx = oidc.ClientContext(ctx, s.httpClient)
	ctx = oidc.InsecureIssuerURLContext(ctx, issuer)

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("discovery document unavailable")
		check.Error = err.Error()
		return check
	}

	var doc struct {
		Issuer          string   `json:"issuer"`
		JWKSURI         string   `json:"jwks_uri"`
		ScopesSupported []string `json:"scopes_supported"`
	}
	if err := provider.Claims(&doc); err != nil {
		check.Error = err.Error()
		return check
	}
	check.Reachable = true
	check.Details = map[string]any{
		"issuer":                 doc.Issuer,
		"authorization_endpoint": provider.Endpoint().AuthURL,
		"token_endpoint":         provider.Endpoint().TokenURL,
		"jwks_uri":               doc.JWKSURI,
		"offline_access":         supportsScope(doc.ScopesSupported, oidc.ScopeOfflineAccess),
	}
	return check
}

func supportsScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TestGraphHandler calls the profile and mail folder endpoints with the
// caller's stored provider token.
func (s *Server) TestGraphHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		resp := GraphAccessResponse{TokenLength: len(acct.AccessToken)}
		profile, err := s.graph.Me(r.Context(), acct.AccessToken)
		if err != nil {
			resp.Error = "Graph profile request failed"
			resp.Details = err.Error()
			writeJSON(w, http.StatusInternalServerError, resp)
			return
		}
		resp.User = profile

		folders, err := s.graph.MailFolders(r.Context(), acct.AccessToken)
		if err != nil {
			resp.Error = "Graph mail folder request failed"
			resp.Details = err.Error()
			writeJSON(w, http.StatusInternalServerError, resp)
			return
		}
		resp.MailFolders = folders
		resp.Success = true
		writeJSON(w, http.StatusOK, resp)
	}
}
