package mail_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jrsteele09/go-graph-mail/graph"
)

type listCall struct {
	Page, PageSize int
}

// fakeProvider records calls and serves attachments from memory.
type fakeProvider struct {
	mu          sync.Mutex
	calls       int
	lastList    listCall
	sent        []*graph.Message
	savedToSent []bool
	patches     map[string]json.RawMessage
	attachments []graph.Attachment
	values      map[string][]byte
	err         error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{patches: map[string]json.RawMessage{}, values: map[string][]byte{}}
}

func (f *fakeProvider) record() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeProvider) ListMessages(_ context.Context, _ string, page, pageSize int) (json.RawMessage, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.lastList = listCall{Page: page, PageSize: pageSize}
	return json.RawMessage(`{"value":[]}`), nil
}

func (f *fakeProvider) GetMessage(_ context.Context, _, id string) (json.RawMessage, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"id":"` + id + `"}`), nil
}

func (f *fakeProvider) SendMail(_ context.Context, _ string, msg *graph.Message, save bool) error {
	if err := f.record(); err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	f.savedToSent = append(f.savedToSent, save)
	return nil
}

func (f *fakeProvider) UpdateMessage(_ context.Context, _, id string, patch json.RawMessage) (json.RawMessage, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.patches[id] = patch
	return patch, nil
}

func (f *fakeProvider) ListAttachments(context.Context, string, string) ([]graph.Attachment, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	list := make([]graph.Attachment, 0, len(f.attachments))
	for _, a := range f.attachments {
		a.ContentBytes = nil
		list = append(list, a)
	}
	return list, nil
}

func (f *fakeProvider) find(id string) *graph.Attachment {
	for i := range f.attachments {
		if f.attachments[i].ID == id {
			a := f.attachments[i]
			return &a
		}
	}
	return nil
}

func (f *fakeProvider) GetAttachment(_ context.Context, _, _, attachmentID string) (*graph.Attachment, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	a := f.find(attachmentID)
	if a == nil {
		return nil, &graph.APIError{StatusCode: 404, Code: "ErrorItemNotFound"}
	}
	if a.IsItem() {
		a.ContentBytes = nil
	}
	return a, nil
}

func (f *fakeProvider) GetAttachmentInfo(ctx context.Context, token, messageID, attachmentID string) (*graph.Attachment, error) {
	a, err := f.GetAttachment(ctx, token, messageID, attachmentID)
	if err != nil {
		return nil, err
	}
	a.ContentBytes = nil
	return a, nil
}

func (f *fakeProvider) GetAttachmentValue(_ context.Context, _, _, attachmentID string) ([]byte, string, error) {
	if err := f.record(); err != nil {
		return nil, "", err
	}
	if v, ok := f.values[attachmentID]; ok {
		return v, "application/octet-stream", nil
	}
	a := f.find(attachmentID)
	if a == nil {
		return nil, "", &graph.APIError{StatusCode: 404}
	}
	return a.ContentBytes, a.ContentType, nil
}
