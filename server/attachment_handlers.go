package server

import (
	"net/http"

	"github.com/jrsteele09/go-graph-mail/graph"
	"github.com/jrsteele09/go-graph-mail/mail"
)

// AttachmentListResponse wraps attachment metadata the way the provider does.
type AttachmentListResponse struct {
	Value []graph.Attachment `json:"value"`
}

func (s *Server) ListAttachmentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		attachments, err := s.mail.ListAttachments(r.Context(), acct, r.PathValue("emailId"))
		if err != nil {
			writeOperationError(w, r, "Failed to fetch attachments", err)
			return
		}
		writeJSON(w, http.StatusOK, AttachmentListResponse{Value: attachments})
	}
}

// GetAttachmentHandler downloads one attachment. ?inline=1 asks the browser
// to display it instead of saving it.
func (s *Server) GetAttachmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		download, err := s.mail.GetAttachment(r.Context(), acct, r.PathValue("emailId"), r.PathValue("attachmentId"))
		if err != nil {
			writeOperationError(w, r, "Failed to download attachment", err)
			return
		}
		writeDownload(w, download, queryBool(r, "inline"))
	}
}

func (s *Server) GetAttachmentContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		download, err := s.mail.GetAttachmentContent(r.Context(), acct, r.PathValue("emailId"), r.PathValue("attachmentId"))
		if err != nil {
			writeOperationError(w, r, "Failed to download attachment content", err)
			return
		}
		writeDownload(w, download, queryBool(r, "inline"))
	}
}

// DownloadAllAttachmentsHandler returns a single attachment as is, or a
// bundle chosen by ?format=summary|zip.
func (s *Server) DownloadAllAttachmentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found", nil)
			return
		}

		format, err := mail.ParseBundleFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeOperationError(w, r, "Failed to download attachments", err)
			return
		}

		download, err := s.mail.DownloadAll(r.Context(), acct, r.PathValue("emailId"), format)
		if err != nil {
			writeOperationError(w, r, "Failed to download attachments", err)
			return
		}
		writeDownload(w, download, false)
	}
}
