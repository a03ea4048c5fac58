package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
)

// maxFieldSize bounds each non-file form field.
const maxFieldSize = 1 << 20

// Limits bounds an attachment upload.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

// DefaultLimits allows 10 files of up to 10MB each.
var DefaultLimits = Limits{MaxFiles: 10, MaxFileSize: 10 * 1024 * 1024}

// File is one uploaded attachment, held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ComposeRequest is a message with optional copies and attachments.
type ComposeRequest struct {
	To          Recipients
	Cc          Recipients
	Bcc         Recipients
	Subject     string
	Body        string
	Attachments []File
}

// ParseMultipart reads a compose form. Any part carrying a filename is an
// attachment; to, cc, bcc, subject and body are read as fields.
func ParseMultipart(reader *multipart.Reader, limits Limits) (*ComposeRequest, error) {
	req := &ComposeRequest{}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		if err != nil {
			return nil, invalidCause("form", "malformed multipart body", err)
		}

		if part.FileName() != "" {
			if len(req.Attachments) >= limits.MaxFiles {
				part.Close()
				return nil, fmt.Errorf("%w: at most %d files are allowed", apperrors.ErrTooManyFiles, limits.MaxFiles)
			}
			file, err := readFile(part, limits.MaxFileSize)
			part.Close()
			if err != nil {
				return nil, err
			}
			req.Attachments = append(req.Attachments, *file)
			continue
		}

		value, err := readField(part)
		part.Close()
		if err != nil {
			return nil, err
		}
		if err := req.setField(part.FormName(), value); err != nil {
			return nil, err
		}
	}
}

func (r *ComposeRequest) setField(name, value string) error {
	var err error
	switch name {
	case "to":
		r.To, err = ParseRecipients(value)
	case "cc":
		r.Cc, err = ParseRecipients(value)
	case "bcc":
		r.Bcc, err = ParseRecipients(value)
	case "subject":
		r.Subject = value
	case "body":
		r.Body = value
	}
	return err
}

func readFile(part *multipart.Part, maxSize int64) (*File, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxSize+1))
	if err != nil {
		return nil, invalidCause("attachments", "could not read "+part.FileName(), err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", apperrors.ErrFileTooLarge, part.FileName(), maxSize)
	}

	name := filepath.Base(part.FileName())
	contentType := part.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(name, data)
	}
	return &File{Name: name, ContentType: contentType, Data: data}, nil
}

func readField(part *multipart.Part) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, maxFieldSize+1))
	if err != nil {
		return "", invalidCause(part.FormName(), "could not read field", err)
	}
	if n > maxFieldSize {
		return "", invalid(part.FormName(), "field too large")
	}
	return buf.String(), nil
}

func detectContentType(name string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
