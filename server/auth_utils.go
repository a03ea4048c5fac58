package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/jrsteele09/go-graph-mail/graph"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/mail"
	"github.com/rs/zerolog"
)

// errorResponse is the JSON body of every failed API call.
type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes a provider payload through unchanged.
func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// writeOperationError maps a gateway error to a status code. Client mistakes
// get their own message; anything else is reported as the failed operation
// with the provider's details when there are any.
func writeOperationError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	logger := zerolog.Ctx(r.Context())

	var validationErr *mail.ValidationError
	var apiErr *graph.APIError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error(), nil)
	case apperrors.Is(err, apperrors.ErrTooManyFiles), apperrors.Is(err, apperrors.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case apperrors.Is(err, apperrors.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case apperrors.Is(err, apperrors.ErrNoAttachments):
		writeError(w, http.StatusNotFound, "No attachments found", nil)
	case apperrors.Is(err, apperrors.ErrUnsupported):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &apiErr):
		logger.Error().Err(err).Int("upstreamStatus", apiErr.StatusCode).Msg(operation)
		writeError(w, http.StatusInternalServerError, operation, apiErr.Details())
	default:
		logger.Error().Err(err).Msg(operation)
		writeError(w, http.StatusInternalServerError, operation, err.Error())
	}
}

// writeDownload streams a file with type, length and disposition headers.
func writeDownload(w http.ResponseWriter, d *mail.Download, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.Header().Set("Content-Disposition", contentDisposition(disposition, d.Name))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

// contentDisposition quotes an ASCII-safe file name and adds the RFC 5987
// form whenever sanitising changed the name.
func contentDisposition(disposition, name string) string {
	if name == "" {
		name = "attachment"
	}
	ascii := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\':
			return '_'
		case r > unicode.MaxASCII || unicode.IsControl(r):
			return '_'
		}
		return r
	}, name)

	value := fmt.Sprintf(`%s; filename="%s"`, disposition, ascii)
	if ascii != name {
		value += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return value
}

// redirectToFrontend sends the browser to a front-end page with one query value.
func (s *Server) redirectToFrontend(w http.ResponseWriter, r *http.Request, path, key, value string) {
	target := s.config.GetFrontendURL() + path + "?" + url.Values{key: {value}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
