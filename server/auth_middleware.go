package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-graph-mail/accounts"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/token"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAccount stores the authenticated account
	ContextKeyAccount ContextKey = "account"
	// ContextKeyClaims stores parsed session token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireSession is middleware for API routes that validates the session
// token in the Authorization header and loads its account.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "No token provided", nil)
				return
			}

			acct, claims, err := s.auth.ResolveSession(r.Context(), raw)
			if err != nil {
				zerolog.Ctx(r.Context()).Info().Err(err).Msg("session rejected")
				writeError(w, http.StatusUnauthorized, sessionErrorMessage(err), nil)
				return
			}

			logger := zerolog.Ctx(r.Context()).With().Str("account", acct.ID).Logger()
			ctx := logger.WithContext(r.Context())
			ctx = context.WithValue(ctx, ContextKeyAccount, acct)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// AccountFromContext returns the account stored by RequireSession.
func AccountFromContext(ctx context.Context) (*accounts.Account, bool) {
	acct, ok := ctx.Value(ContextKeyAccount).(*accounts.Account)
	return acct, ok && acct != nil
}

// ClaimsFromContext returns the session claims stored by RequireSession.
func ClaimsFromContext(ctx context.Context) (*token.SessionClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.SessionClaims)
	return claims, ok && claims != nil
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

func sessionErrorMessage(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		return "Token expired"
	case apperrors.Is(err, apperrors.ErrAccountNotFound):
		return "User not found"
	case apperrors.Is(err, apperrors.ErrMissingToken):
		return "No token provided"
	}
	return "Invalid token"
}
