package server

import (
	"fmt"

	"github.com/jrsteele09/go-graph-mail/auth"
	"github.com/jrsteele09/go-graph-mail/graph"
	"github.com/jrsteele09/go-graph-mail/identity"
	"github.com/jrsteele09/go-graph-mail/internal/config"
	"github.com/jrsteele09/go-graph-mail/mail"
	"github.com/jrsteele09/go-graph-mail/token"
	"github.com/rs/zerolog/log"
)

// InitialiseServices builds the identity provider, Graph client, mail gateway
// and login service from config, using any collaborators passed in deps.
func (s *Server) InitialiseServices(config config.Config, deps Dependencies) error {
	// Step 1: Session token signing
	signer, err := token.NewHMACSigner(config.GetJWTSecret())
	if err != nil {
		return fmt.Errorf("[Server InitialiseServices] JWT_SECRET: %w", err)
	}
	sessions := token.NewManager(signer, token.WithValidity(config.GetSessionTokenValidity()))

	// Step 2: Identity provider and Graph client
	s.provider = deps.Provider
	if s.provider == nil {
		s.provider = identity.New(config)
	}
	s.graph = deps.Graph
	if s.graph == nil {
		s.graph = graph.New(
			graph.WithBaseURL(config.GetGraphBaseURL()),
			graph.WithTimeouts(config.GetGraphTimeout(), config.GetAttachmentSendTimeout()),
		)
	}

	// Step 3: Mail gateway
	s.mail = mail.NewService(s.graph, mail.Options{
		DefaultPageSize: config.GetDefaultPageSize(),
		MaxPageSize:     config.GetMaxPageSize(),
		PreviewLength:   config.GetBundlePreviewLength(),
	})
	s.limits = mail.Limits{
		MaxFiles:    config.GetMaxAttachmentCount(),
		MaxFileSize: config.GetMaxAttachmentSize(),
	}

	// Step 4: Login flow
	s.auth, err = auth.NewService(deps.Accounts, s.provider, s.graph, sessions,
		auth.WithProfileRetries(config.GetProfileMaxRetries(), config.GetProfileRetryBackoff()),
		auth.WithTemporaryAccountFallback(config.GetTemporaryAccountFallback()),
	)
	if err != nil {
		return fmt.Errorf("[Server InitialiseServices] failed to create login service: %w", err)
	}

	// Step 5: Optional rate limiting of the login endpoints
	if config.GetEnableRateLimiting() {
		s.limiter = newClientRateLimiter(config.GetRateLimitRPS(), config.GetRateLimitBurst())
	}

	log.Info().
		Str("graph", s.graph.BaseURL()).
		Str("authorize", s.provider.Endpoint().AuthURL).
		Bool("temporaryAccountFallback", config.GetTemporaryAccountFallback()).
		Bool("rateLimiting", s.limiter != nil).
		Msg("services initialised")
	return nil
}
