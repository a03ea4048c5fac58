package server

import (
	"bytes"
	"net/http"

	"github.com/rs/zerolog"
)

// indexData is handed to the app shell so the client enforces the same
// upload limits as the server.
type indexData struct {
	AppName         string
	MaxFiles        int
	MaxFileSize     int64
	MaxFileSizeMB   int64
	PageSize        int
	LoginPath       string
	SuccessPath     string
	ErrorPath       string
	APIBase         string
	RequestIDHeader string
}

// IndexHandler serves the single page app for every client-side route.
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	data := indexData{
		AppName:         s.config.GetAppName(),
		MaxFiles:        s.limits.MaxFiles,
		MaxFileSize:     s.limits.MaxFileSize,
		MaxFileSizeMB:   s.limits.MaxFileSize / (1024 * 1024),
		PageSize:        s.config.GetDefaultPageSize(),
		LoginPath:       RouteAuthLogin,
		SuccessPath:     RouteAuthSuccess,
		ErrorPath:       RouteAuthError,
		APIBase:         RouteEmails,
		RequestIDHeader: requestIDHeader,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("index template failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(buf.Bytes())
	}
}
