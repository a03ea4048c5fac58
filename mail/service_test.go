package mail_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jrsteele09/go-graph-mail/accounts"
	"github.com/jrsteele09/go-graph-mail/graph"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/mail"
	"github.com/stretchr/testify/require"
)

var account = &accounts.Account{ID: "acct-1", Email: "ada@contoso.com", AccessToken: "provider-token"}

func newService() (*mail.Service, *fakeProvider) {
	provider := newFakeProvider()
	return mail.NewService(provider, mail.Options{}), provider
}

func TestList_Paging(t *testing.T) {
	svc, provider := newService()

	_, err := svc.List(t.Context(), account, 0, 0)
	require.NoError(t, err)
	require.Equal(t, listCall{Page: 1, PageSize: 20}, provider.lastList)

	_, err = svc.List(t.Context(), account, 2, 5)
	require.NoError(t, err)
	require.Equal(t, listCall{Page: 2, PageSize: 5}, provider.lastList)
}

func TestList_InvalidPaging(t *testing.T) {
	svc, provider := newService()
	for _, tc := range []struct{ page, size int }{{-1, 5}, {1, -3}, {1, 1001}} {
		_, err := svc.List(t.Context(), account, tc.page, tc.size)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	}
	require.Zero(t, provider.calls)
}

func TestSend_RequiresRecipients(t *testing.T) {
	svc, provider := newService()

	err := svc.Send(t.Context(), account, mail.SendRequest{Subject: "hi", Body: "there"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	err = svc.Send(t.Context(), account, mail.SendRequest{To: mail.Recipients{" "}, Subject: "hi"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Zero(t, provider.calls)
}

func TestSend(t *testing.T) {
	svc, provider := newService()

	err := svc.Send(t.Context(), account, mail.SendRequest{To: mail.Recipients{"b@example.com"}, Subject: "hi", Body: "<b>x</b>"})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)
	require.Equal(t, graph.ContentTypeHTML, provider.sent[0].Body.ContentType)
	require.Equal(t, "b@example.com", provider.sent[0].ToRecipients[0].EmailAddress.Address)
	require.False(t, provider.savedToSent[0])
}

func TestSend_UpstreamFailure(t *testing.T) {
	svc, provider := newService()
	provider.err = &graph.APIError{StatusCode: 403, Code: "ErrorAccessDenied"}

	err := svc.Send(t.Context(), account, mail.SendRequest{To: mail.Recipients{"b@example.com"}})
	var apiErr *graph.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 1, provider.calls)
}

func TestSendWithAttachments(t *testing.T) {
	svc, provider := newService()

	err := svc.SendWithAttachments(t.Context(), account, &mail.ComposeRequest{
		To:      mail.Recipients{"b@example.com"},
		Cc:      mail.Recipients{"c@example.com"},
		Bcc:     mail.Recipients{"d@example.com"},
		Subject: "Report",
		Body:    "<p>see attached</p>",
		Attachments: []mail.File{
			{Name: "r.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
			{Name: "blob", Data: []byte{1, 2}},
		},
	})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)
	require.True(t, provider.savedToSent[0])

	msg := provider.sent[0]
	require.Len(t, msg.CcRecipients, 1)
	require.Len(t, msg.BccRecipients, 1)
	require.Len(t, msg.Attachments, 2)
	require.Equal(t, graph.FileAttachmentType, msg.Attachments[0].ODataType)
	require.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	require.Equal(t, "application/octet-stream", msg.Attachments[1].ContentType)
}

func TestSendWithAttachments_Validation(t *testing.T) {
	svc, provider := newService()
	for name, req := range map[string]*mail.ComposeRequest{
		"no to":      {Subject: "s", Body: "b"},
		"no subject": {To: mail.Recipients{"a@example.com"}, Body: "b"},
		"no body":    {To: mail.Recipients{"a@example.com"}, Subject: "s"},
	} {
		err := svc.SendWithAttachments(t.Context(), account, req)
		require.ErrorIs(t, err, apperrors.ErrValidation, name)
	}
	require.Zero(t, provider.calls)
}

func TestUpdate(t *testing.T) {
	svc, provider := newService()

	_, err := svc.Update(t.Context(), account, "m1", json.RawMessage(`{"isRead":false}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"isRead":false}`, string(provider.patches["m1"]))

	for _, bad := range []string{`[]`, `"x"`, `{}`, `null`, `{`} {
		_, err := svc.Update(t.Context(), account, "m1", json.RawMessage(bad))
		require.ErrorIs(t, err, apperrors.ErrValidation, bad)
	}
}

func fileAttachment(id, name, contentType string, data []byte) graph.Attachment {
	return graph.Attachment{ODataType: graph.FileAttachmentType, ID: id, Name: name, ContentType: contentType, Size: int64(len(data)), ContentBytes: data}
}

func TestGetAttachment_File(t *testing.T) {
	svc, provider := newService()
	provider.attachments = []graph.Attachment{fileAttachment("a1", "hello.txt", "text/plain", []byte("hello"))}

	d, err := svc.GetAttachment(t.Context(), account, "m1", "a1")
	require.NoError(t, err)
	require.Equal(t, &mail.Download{Name: "hello.txt", ContentType: "text/plain", Data: []byte("hello")}, d)
}

func TestGetAttachment_Item(t *testing.T) {
	svc, provider := newService()
	provider.attachments = []graph.Attachment{{ODataType: graph.ItemAttachmentType, ID: "a2", Name: "Fwd: plans"}}
	provider.values["a2"] = []byte("Subject: plans\r\n\r\nhi")

	d, err := svc.GetAttachment(t.Context(), account, "m1", "a2")
	require.NoError(t, err)
	require.Equal(t, "Fwd: plans.eml", d.Name)
	require.Equal(t, "message/rfc822", d.ContentType)
	require.Equal(t, "Subject: plans\r\n\r\nhi", string(d.Data))
}

func TestGetAttachmentContent(t *testing.T) {
	svc, provider := newService()
	provider.attachments = []graph.Attachment{fileAttachment("a1", "hello.txt", "text/plain", []byte("hello"))}
	provider.values["a1"] = []byte("raw hello")

	d, err := svc.GetAttachmentContent(t.Context(), account, "m1", "a1")
	require.NoError(t, err)
	require.Equal(t, "hello.txt", d.Name)
	require.Equal(t, "text/plain", d.ContentType)
	require.Equal(t, "raw hello", string(d.Data))
}

func TestGetAttachment_NotFound(t *testing.T) {
	svc, _ := newService()
	_, err := svc.GetAttachment(t.Context(), account, "m1", "missing")
	require.True(t, graph.IsNotFound(err))
}

func TestDownloadAll(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.DownloadAll(t.Context(), account, "m1", mail.FormatSummary)
		require.True(t, errors.Is(err, apperrors.ErrNoAttachments))
	})

	t.Run("single file is returned directly", func(t *testing.T) {
		svc, provider := newService()
		provider.attachments = []graph.Attachment{fileAttachment("a1", "photo.jpg", "image/jpeg", []byte{0xff, 0xd8})}

		d, err := svc.DownloadAll(t.Context(), account, "m1", mail.FormatZip)
		require.NoError(t, err)
		require.Equal(t, "photo.jpg", d.Name)
		require.Equal(t, []byte{0xff, 0xd8}, d.Data)
	})

	t.Run("several files as summary", func(t *testing.T) {
		svc, provider := newService()
		provider.attachments = []graph.Attachment{
			fileAttachment("a1", "one.txt", "text/plain", []byte("first file")),
			fileAttachment("a2", "two.csv", "text/csv", []byte("a,b\n1,2")),
		}

		d, err := svc.DownloadAll(t.Context(), account, "m1", mail.FormatSummary)
		require.NoError(t, err)
		require.Equal(t, "text/plain; charset=utf-8", d.ContentType)
		require.Contains(t, string(d.Data), "one.txt")
		require.Contains(t, string(d.Data), "first file")
		require.Contains(t, string(d.Data), "two.csv")
	})

	t.Run("several files as zip", func(t *testing.T) {
		svc, provider := newService()
		provider.attachments = []graph.Attachment{
			fileAttachment("a1", "one.txt", "text/plain", []byte("first file")),
			fileAttachment("a2", "two.txt", "text/plain", []byte("second file")),
		}

		d, err := svc.DownloadAll(t.Context(), account, "m1", mail.FormatZip)
		require.NoError(t, err)
		zr, err := zip.NewReader(bytes.NewReader(d.Data), int64(len(d.Data)))
		require.NoError(t, err)
		require.Len(t, zr.File, 2)
	})

	t.Run("links are noted in the summary", func(t *testing.T) {
		svc, provider := newService()
		provider.attachments = []graph.Attachment{
			fileAttachment("a1", "one.txt", "text/plain", []byte("first file")),
			{ODataType: graph.ReferenceAttachmentType, ID: "a2", Name: "plan.docx"},
		}

		d, err := svc.DownloadAll(t.Context(), account, "m1", mail.FormatSummary)
		require.NoError(t, err)
		text := string(d.Data)
		require.Contains(t, text, "(2 files)")
		require.Contains(t, text, "first file")
		require.Contains(t, text, "=== 2. plan.docx ===")
		require.Contains(t, text, "Note: link to a cloud file")
	})

	t.Run("links are left out of the zip", func(t *testing.T) {
		svc, provider := newService()
		provider.attachments = []graph.Attachment{
			fileAttachment("a1", "one.txt", "text/plain", []byte("first file")),
			{ODataType: graph.ReferenceAttachmentType, ID: "a2", Name: "plan.docx"},
		}

		d, err := svc.DownloadAll(t.Context(), account, "m1", mail.FormatZip)
		require.NoError(t, err)
		zr, err := zip.NewReader(bytes.NewReader(d.Data), int64(len(d.Data)))
		require.NoError(t, err)
		require.Len(t, zr.File, 1)
		require.Equal(t, "one.txt", zr.File[0].Name)
	})

	t.Run("zip of links only", func(t *testing.T) {
		svc, provider := newService()
		provider.attachments = []graph.Attachment{
			{ODataType: graph.ReferenceAttachmentType, ID: "a1", Name: "a.docx"},
			{ODataType: graph.ReferenceAttachmentType, ID: "a2", Name: "b.docx"},
		}

		_, err := svc.DownloadAll(t.Context(), account, "m1", mail.FormatZip)
		require.ErrorIs(t, err, apperrors.ErrUnsupported)
	})
}
