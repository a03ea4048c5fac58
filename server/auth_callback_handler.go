package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/go-graph-mail/auth"
	"github.com/jrsteele09/go-graph-mail/internal/metrics"
	"github.com/jrsteele09/go-graph-mail/internal/utils"
	"github.com/rs/zerolog"
)

const missingCodeMessage = "No authorization code received from Microsoft"

// LoginRedirectHandler starts the authorization code flow.
func (s *Server) LoginRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.provider.AuthCodeURL(), http.StatusFound)
	}
}

// OAuthCallbackHandler completes a login and hands the session token to the
// front end. Every outcome ends in a redirect, never a JSON body.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		// r.FormValue covers both query params and form_post bodies
		code := r.FormValue("code")
		state := r.FormValue("state")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		logger.Info().
			Str("code", utils.Mask(code, 10)).
			Bool("hasError", errorParam != "").
			Msg("oauth callback received")

		if state != s.provider.State() {
			logger.Warn().Str("state", state).Msg("callback state does not match")
		}

		if errorParam != "" {
			metrics.ObserveLogin(metrics.LoginProviderError)
			message := errorDesc
			if message == "" {
				message = "OAuth error: " + errorParam
			}
			logger.Warn().Str("error", errorParam).Str("description", errorDesc).Msg("provider returned an authorization error")
			s.redirectToFrontend(w, r, RouteAuthError, "message", message)
			return
		}

		if code == "" {
			metrics.ObserveLogin(metrics.LoginFailed)
			s.redirectToFrontend(w, r, RouteAuthError, "message", missingCodeMessage)
			return
		}

		result, err := s.auth.CompleteLogin(r.Context(), code)
		if err != nil {
			message := err.Error()
			var loginErr *auth.LoginError
			if errors.As(err, &loginErr) {
				message = loginErr.Message()
			}
			s.redirectToFrontend(w, r, RouteAuthError, "message", message)
			return
		}

		s.redirectToFrontend(w, r, RouteAuthSuccess, "token", result.SessionToken)
	}
}
