// Package mail translates mailbox operations into calls against the mail
// provider using the account's stored access token.
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-graph-mail/accounts"
	"github.com/jrsteele09/go-graph-mail/graph"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 1000

	// DefaultPreviewLength is how many characters of each attachment a summary keeps.
	DefaultPreviewLength = 1000

	emlContentType = "message/rfc822"
	binaryType     = "application/octet-stream"
)

// Provider is the subset of the Graph client the gateway uses.
type Provider interface {
	ListMessages(ctx context.Context, accessToken string, page, pageSize int) (json.RawMessage, error)
	GetMessage(ctx context.Context, accessToken, id string) (json.RawMessage, error)
	SendMail(ctx context.Context, accessToken string, msg *graph.Message, saveToSentItems bool) error
	UpdateMessage(ctx context.Context, accessToken, id string, patch json.RawMessage) (json.RawMessage, error)
	ListAttachments(ctx context.Context, accessToken, messageID string) ([]graph.Attachment, error)
	GetAttachment(ctx context.Context, accessToken, messageID, attachmentID string) (*graph.Attachment, error)
	GetAttachmentInfo(ctx context.Context, accessToken, messageID, attachmentID string) (*graph.Attachment, error)
	GetAttachmentValue(ctx context.Context, accessToken, messageID, attachmentID string) ([]byte, string, error)
}

type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	PreviewLength   int
	NowFunc         func() time.Time
}

type Service struct {
	provider Provider
	opts     Options
}

func NewService(provider Provider, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = MaxPageSize
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}
	return &Service{provider: provider, opts: opts}
}

// SendRequest is the JSON body of a plain send.
type SendRequest struct {
	To      Recipients `json:"to"`
	Subject string     `json:"subject"`
	Body    string     `json:"body"`
}

// Page fills in defaults for unset values (0) and validates the rest.
func (s *Service) Page(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = s.opts.DefaultPageSize
	}
	if page < 1 {
		return 0, 0, invalid("page", "must be at least 1")
	}
	if pageSize < 1 || pageSize > s.opts.MaxPageSize {
		return 0, 0, invalid("pageSize", fmt.Sprintf("must be between 1 and %d", s.opts.MaxPageSize))
	}
	return page, pageSize, nil
}

// List returns one page of messages, newest first. Zero page or pageSize
// selects the default.
func (s *Service) List(ctx context.Context, acct *accounts.Account, page, pageSize int) (json.RawMessage, error) {
	page, pageSize, err := s.Page(page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.provider.ListMessages(ctx, acct.AccessToken, page, pageSize)
}

func (s *Service) Get(ctx context.Context, acct *accounts.Account, id string) (json.RawMessage, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	return s.provider.GetMessage(ctx, acct.AccessToken, id)
}

// Update passes a partial update through. The patch must be a JSON object.
func (s *Service) Update(ctx context.Context, acct *accounts.Account, id string, patch json.RawMessage) (json.RawMessage, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil || fields == nil {
		return nil, invalid("body", "must be a JSON object")
	}
	if len(fields) == 0 {
		return nil, invalid("body", "no fields to update")
	}
	return s.provider.UpdateMessage(ctx, acct.AccessToken, id, patch)
}

// Send delivers an HTML message. At least one recipient is required.
func (s *Service) Send(ctx context.Context, acct *accounts.Account, req SendRequest) error {
	to := NormalizeRecipients(req.To...)
	if len(to) == 0 {
		return invalid("to", "at least one recipient is required")
	}
	msg := &graph.Message{
		Subject:      req.Subject,
		Body:         graph.ItemBody{ContentType: graph.ContentTypeHTML, Content: req.Body},
		ToRecipients: graph.RecipientsOf(to),
	}
	if err := s.provider.SendMail(ctx, acct.AccessToken, msg, false); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("account", acct.Email).Int("recipients", len(to)).Msg("message sent")
	return nil
}

// SendWithAttachments delivers a message with inline file attachments and
// keeps a copy in Sent Items.
func (s *Service) SendWithAttachments(ctx context.Context, acct *accounts.Account, req *ComposeRequest) error {
	to := NormalizeRecipients(req.To...)
	switch {
	case len(to) == 0:
		return invalid("to", "at least one recipient is required")
	case strings.TrimSpace(req.Subject) == "":
		return invalid("subject", "subject is required")
	case strings.TrimSpace(req.Body) == "":
		return invalid("body", "body is required")
	}

	msg := &graph.Message{
		Subject:       req.Subject,
		Body:          graph.ItemBody{ContentType: graph.ContentTypeHTML, Content: req.Body},
		ToRecipients:  graph.RecipientsOf(to),
		CcRecipients:  graph.RecipientsOf(NormalizeRecipients(req.Cc...)),
		BccRecipients: graph.RecipientsOf(NormalizeRecipients(req.Bcc...)),
	}
	for _, f := range req.Attachments {
		contentType := f.ContentType
		if contentType == "" {
			contentType = binaryType
		}
		msg.Attachments = append(msg.Attachments, graph.Attachment{
			ODataType:    graph.FileAttachmentType,
			Name:         f.Name,
			ContentType:  contentType,
			ContentBytes: f.Data,
		})
	}

	if err := s.provider.SendMail(ctx, acct.AccessToken, msg, true); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().
		Str("account", acct.Email).
		Int("recipients", len(to)).
		Int("attachments", len(msg.Attachments)).
		Msg("message with attachments sent")
	return nil
}

func (s *Service) ListAttachments(ctx context.Context, acct *accounts.Account, emailID string) ([]graph.Attachment, error) {
	if err := requireID("emailId", emailID); err != nil {
		return nil, err
	}
	attachments, err := s.provider.ListAttachments(ctx, acct.AccessToken, emailID)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []graph.Attachment{}
	}
	return attachments, nil
}

// GetAttachment fetches one attachment through its metadata endpoint. File
// attachments carry their bytes; embedded messages are fetched as MIME and
// returned as .eml files.
func (s *Service) GetAttachment(ctx context.Context, acct *accounts.Account, emailID, attachmentID string) (*Download, error) {
	if err := requireIDs(emailID, attachmentID); err != nil {
		return nil, err
	}
	attachment, err := s.provider.GetAttachment(ctx, acct.AccessToken, emailID, attachmentID)
	if err != nil {
		return nil, err
	}
	return s.download(ctx, acct, emailID, attachment)
}

// GetAttachmentContent fetches the bytes from the raw content endpoint,
// using the metadata endpoint only for name and type.
func (s *Service) GetAttachmentContent(ctx context.Context, acct *accounts.Account, emailID, attachmentID string) (*Download, error) {
	if err := requireIDs(emailID, attachmentID); err != nil {
		return nil, err
	}
	info, err := s.provider.GetAttachmentInfo(ctx, acct.AccessToken, emailID, attachmentID)
	if err != nil {
		return nil, err
	}
	data, contentType, err := s.provider.GetAttachmentValue(ctx, acct.AccessToken, emailID, attachmentID)
	if err != nil {
		return nil, err
	}
	if info.IsItem() {
		return &Download{Name: emlName(info.Name), ContentType: emlContentType, Data: data}, nil
	}
	return &Download{Name: info.Name, ContentType: firstNonEmpty(info.ContentType, contentType, binaryType), Data: data}, nil
}

// DownloadAll returns the message's only attachment as is, or every
// attachment bundled in the requested format. Cloud file links have no bytes:
// the summary lists them with a note and the zip leaves them out.
func (s *Service) DownloadAll(ctx context.Context, acct *accounts.Account, emailID string, format BundleFormat) (*Download, error) {
	if err := requireID("emailId", emailID); err != nil {
		return nil, err
	}
	attachments, err := s.provider.ListAttachments(ctx, acct.AccessToken, emailID)
	if err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return nil, apperrors.ErrNoAttachments
	}
	if len(attachments) == 1 {
		return s.GetAttachment(ctx, acct, emailID, attachments[0].ID)
	}

	files := make([]Download, 0, len(attachments))
	for _, a := range attachments {
		if a.ODataType == graph.ReferenceAttachmentType {
			if format == FormatSummary {
				files = append(files, Download{Name: a.Name, ContentType: a.ContentType, Note: linkNote})
			}
			continue
		}
		d, err := s.GetAttachment(ctx, acct, emailID, a.ID)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", a.Name, err)
		}
		files = append(files, *d)
	}

	if format == FormatZip {
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: every attachment is a link to a cloud file", apperrors.ErrUnsupported)
		}
		return Archive(files, s.opts.NowFunc())
	}
	return Summarize(emailID, files, s.opts.PreviewLength), nil
}

func (s *Service) download(ctx context.Context, acct *accounts.Account, emailID string, a *graph.Attachment) (*Download, error) {
	switch a.ODataType {
	case graph.ItemAttachmentType:
		data, _, err := s.provider.GetAttachmentValue(ctx, acct.AccessToken, emailID, a.ID)
		if err != nil {
			return nil, err
		}
		return &Download{Name: emlName(a.Name), ContentType: emlContentType, Data: data}, nil
	case graph.ReferenceAttachmentType:
		return nil, fmt.Errorf("%w: %s is a link to a cloud file", apperrors.ErrUnsupported, a.Name)
	}
	return &Download{Name: a.Name, ContentType: firstNonEmpty(a.ContentType, binaryType), Data: a.ContentBytes}, nil
}

func emlName(name string) string {
	if name == "" {
		name = "message"
	}
	if strings.HasSuffix(strings.ToLower(name), ".eml") {
		return name
	}
	return name + ".eml"
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func requireIDs(emailID, attachmentID string) error {
	if err := requireID("emailId", emailID); err != nil {
		return err
	}
	return requireID("attachmentId", attachmentID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
