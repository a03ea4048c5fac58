package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-graph-mail/accounts"
	"github.com/jrsteele09/go-graph-mail/auth"
	"github.com/jrsteele09/go-graph-mail/graph"
	"github.com/jrsteele09/go-graph-mail/identity"
	"github.com/jrsteele09/go-graph-mail/internal/config"
	"github.com/jrsteele09/go-graph-mail/mail"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators the server cannot build from config
// alone. Provider, Graph and HTTPClient are optional.
type Dependencies struct {
	Accounts   accounts.Repo
	Provider   *identity.Provider
	Graph      *graph.Client
	HTTPClient *http.Client
}

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	httpClient *http.Client

	auth      *auth.Service
	provider  *identity.Provider
	graph     *graph.Client
	mail      *mail.Service
	limits    mail.Limits
	validator *auth.Validator
	limiter   *clientRateLimiter
	nowTime   func() time.Time
}

func New(config config.Config, deps Dependencies) (*Server, error) {
	if deps.Accounts == nil {
		return nil, fmt.Errorf("[Server New] accounts repo is required")
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		httpClient: deps.HTTPClient,
		validator:  auth.NewValidator(),
		nowTime:    time.Now,
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: config.GetGraphTimeout()}
	}

	if err := s.InitialiseServices(config, deps); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise services: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
