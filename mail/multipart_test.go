package mail_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/mail"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func buildForm(t *testing.T, fields map[string]string, files ...formFile) *multipart.Reader {
	t.Helper()
	body, boundary := encodeForm(t, fields, files...)
	return multipart.NewReader(body, boundary)
}

func encodeForm(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachments"; filename="%s"`, f.name))
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.Boundary()
}

func TestParseMultipart(t *testing.T) {
	reader := buildForm(t, map[string]string{
		"to":      `["a@example.com","b@example.com"]`,
		"cc":      "c@example.com",
		"subject": "Report",
		"body":    "<p>attached</p>",
	},
		formFile{name: "report.pdf", contentType: "application/pdf", data: []byte("%PDF-1.7")},
		formFile{name: "notes.txt", data: []byte("plain notes")},
	)

	req, err := mail.ParseMultipart(reader, mail.DefaultLimits)
	require.NoError(t, err)
	require.Equal(t, mail.Recipients{"a@example.com", "b@example.com"}, req.To)
	require.Equal(t, mail.Recipients{"c@example.com"}, req.Cc)
	require.Empty(t, req.Bcc)
	require.Equal(t, "Report", req.Subject)
	require.Len(t, req.Attachments, 2)
	require.Equal(t, "application/pdf", req.Attachments[0].ContentType)
	require.Equal(t, "notes.txt", req.Attachments[1].Name)
	require.Contains(t, req.Attachments[1].ContentType, "text/plain")
}

func TestParseMultipart_FileTooLarge(t *testing.T) {
	big := formFile{name: "big.bin", contentType: "application/octet-stream", data: make([]byte, 11*1024*1024)}
	reader := buildForm(t, map[string]string{"to": "a@example.com"}, big)

	_, err := mail.ParseMultipart(reader, mail.DefaultLimits)
	require.ErrorIs(t, err, apperrors.ErrFileTooLarge)
}

func TestParseMultipart_TooManyFiles(t *testing.T) {
	var files []formFile
	for i := range 11 {
		files = append(files, formFile{name: fmt.Sprintf("f%d.txt", i), contentType: "text/plain", data: []byte("x")})
	}
	reader := buildForm(t, map[string]string{"to": "a@example.com"}, files...)

	_, err := mail.ParseMultipart(reader, mail.DefaultLimits)
	require.ErrorIs(t, err, apperrors.ErrTooManyFiles)
}

func TestParseMultipart_ExactLimitsAccepted(t *testing.T) {
	limits := mail.Limits{MaxFiles: 2, MaxFileSize: 4}
	reader := buildForm(t, nil,
		formFile{name: "a.txt", data: []byte("abcd")},
		formFile{name: "b.txt", data: []byte("efgh")},
	)

	req, err := mail.ParseMultipart(reader, limits)
	require.NoError(t, err)
	require.Len(t, req.Attachments, 2)
}

func TestParseMultipart_BodyCapKeepsCause(t *testing.T) {
	body, boundary := encodeForm(t, map[string]string{"to": "a@example.com"},
		formFile{name: "a.bin", contentType: "application/octet-stream", data: make([]byte, 5000)})
	capped := http.MaxBytesReader(nil, io.NopCloser(body), 1000)

	_, err := mail.ParseMultipart(multipart.NewReader(capped, boundary), mail.DefaultLimits)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	var tooLarge *http.MaxBytesError
	require.ErrorAs(t, err, &tooLarge)
	require.Equal(t, int64(1000), tooLarge.Limit)
}

func TestParseMultipart_MalformedRecipients(t *testing.T) {
	reader := buildForm(t, map[string]string{"bcc": `["x@example.com"`})
	_, err := mail.ParseMultipart(reader, mail.DefaultLimits)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
