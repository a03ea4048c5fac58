package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-graph-mail/mail"
	"github.com/rs/zerolog"
)

const (
	// maxJSONBody bounds plain send and update bodies.
	maxJSONBody = 4 << 20
	// multipartOverhead allows for form fields and part headers on top of the files.
	multipartOverhead = 2 << 20
)

// SendResponse is returned by both send endpoints.
type SendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListEmailsHandler returns one page of the inbox as the provider sent it.
func (s *Server) ListEmailsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		page, err := queryInt(r, "page")
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be a number", nil)
			return
		}
		pageSize, err := queryInt(r, "pageSize")
		if err != nil {
			writeError(w, http.StatusBadRequest, "pageSize must be a number", nil)
			return
		}

		messages, err := s.mail.List(r.Context(), acct, page, pageSize)
		if err != nil {
			writeOperationError(w, r, "Failed to fetch emails", err)
			return
		}
		writeRawJSON(w, http.StatusOK, messages)
	}
}

func (s *Server) GetEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		message, err := s.mail.Get(r.Context(), acct, r.PathValue("id"))
		if err != nil {
			writeOperationError(w, r, "Failed to fetch email", err)
			return
		}
		writeRawJSON(w, http.StatusOK, message)
	}
}

// UpdateEmailHandler forwards a partial update such as {"isRead": true}.
func (s *Server) UpdateEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Could not read request body", nil)
			return
		}

		updated, err := s.mail.Update(r.Context(), acct, r.PathValue("id"), patch)
		if err != nil {
			writeOperationError(w, r, "Failed to update email", err)
			return
		}
		writeRawJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) SendEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		var req mail.SendRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("bad send body")
			writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}

		if err := s.mail.Send(r.Context(), acct, req); err != nil {
			writeOperationError(w, r, "Failed to send email", err)
			return
		}
		writeJSON(w, http.StatusOK, SendResponse{Success: true, Message: "Email sent successfully"})
	}
}

// SendWithAttachmentsHandler streams a multipart compose form. Upload limits
// are enforced while reading, before anything is sent upstream.
func (s *Server) SendWithAttachmentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		maxBody := int64(s.limits.MaxFiles+1)*s.limits.MaxFileSize + multipartOverhead
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		reader, err := r.MultipartReader()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Expected a multipart/form-data body", err.Error())
			return
		}

		req, err := mail.ParseMultipart(reader, s.limits)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}
			writeOperationError(w, r, "Failed to read attachments", err)
			return
		}

		if err := s.mail.SendWithAttachments(r.Context(), acct, req); err != nil {
			writeOperationError(w, r, "Failed to send email with attachments", err)
			return
		}
		writeJSON(w, http.StatusOK, SendResponse{Success: true, Message: "Email sent successfully"})
	}
}

// queryInt reads an optional integer query value. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
