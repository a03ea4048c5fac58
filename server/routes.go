package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginRedirectHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware(s.RateLimitMiddleware)...)) // For form_post response mode

	// Mail API routes (require a session token)
	s.RegisterRouteHandler("GET "+RouteEmails, ChainMiddleware(s.ListEmailsHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteEmail, ChainMiddleware(s.GetEmailHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("PATCH "+RouteEmail, ChainMiddleware(s.UpdateEmailHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteEmailSend, ChainMiddleware(s.SendEmailHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteEmailSendAttachments, ChainMiddleware(s.SendWithAttachmentsHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteEmailAttachments, ChainMiddleware(s.ListAttachmentsHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteEmailAttachmentsAll, ChainMiddleware(s.DownloadAllAttachmentsHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteEmailAttachment, ChainMiddleware(s.GetAttachmentHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteEmailAttachmentContent, ChainMiddleware(s.GetAttachmentContentHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIPreflight, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// Diagnostics
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, ChainMiddleware(s.MetricsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDebugCheck, ChainMiddleware(s.ConfigCheckHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDebugTestMicrosoft, ChainMiddleware(s.TestMicrosoftHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDebugTestGraph, ChainMiddleware(s.TestGraphHandler(), s.APIMiddleware(s.RequireSession())...))

	// Single page app
	index := ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...)
	for _, route := range []string{RouteAppIndex, RouteAppLogin, RouteAppDashboard, RouteAppInbox, RouteAppEmail, RouteAppCompose, RouteAuthSuccess, RouteAuthError} {
		s.RegisterRouteHandler("GET "+route, index)
	}

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware, s.CompressionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware, s.CompressionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteFavicon, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
}

// PreflightHandler answers CORS preflights that CorsMiddleware let through,
// which only happens for requests without an Origin header.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", s.config.GetAllowedMethods())
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("static file not served")
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
