// Package graph is a small typed client for the Microsoft Graph mail API.
// Every call is made with the caller's provider access token.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-graph-mail/internal/metrics"
	"github.com/jrsteele09/go-graph-mail/internal/utils"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL     = "https://graph.microsoft.com/v1.0"
	DefaultTimeout     = 10 * time.Second
	DefaultSendTimeout = 60 * time.Second

	// maxErrorBody caps how much of a failed response is kept for diagnostics.
	maxErrorBody = 64 * 1024
)

// messageListFields are the fields returned per message in a list page.
var messageListFields = []string{"id", "subject", "from", "receivedDateTime", "isRead", "bodyPreview", "hasAttachments"}

var attachmentListFields = []string{"id", "name", "contentType", "size", "isInline"}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	sendTimeout time.Duration
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the client whose transport carries the bearer requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeouts sets the per-call timeout and the timeout for sends that
// carry attachments. Zero values keep the defaults.
func WithTimeouts(call, send time.Duration) ClientOption {
	return func(c *Client) {
		if call > 0 {
			c.timeout = call
		}
		if send > 0 {
			c.sendTimeout = send
		}
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  http.DefaultClient,
		timeout:     DefaultTimeout,
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if err := c.getJSON(ctx, accessToken, "me", "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListMessages returns one page of the inbox, newest first, exactly as Graph
// shaped it. page is 1-based.
func (c *Client) ListMessages(ctx context.Context, accessToken string, page, pageSize int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", strconv.Itoa(pageSize))
	query.Set("$skip", strconv.Itoa((page-1)*pageSize))
	query.Set("$orderby", "receivedDateTime DESC")
	query.Set("$select", strings.Join(messageListFields, ","))

	var raw json.RawMessage
	if err := c.getJSON(ctx, accessToken, "list_messages", "/me/messages", query, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) GetMessage(ctx context.Context, accessToken, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, accessToken, "get_message", messagePath(id), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// SendMail submits a message. Messages with attachments get the longer send timeout.
func (c *Client) SendMail(ctx context.Context, accessToken string, msg *Message, saveToSentItems bool) error {
	payload := sendMailRequest{Message: msg}
	if saveToSentItems {
		payload.SaveToSentItems = utils.Ptr(true)
	}
	timeout := c.timeout
	if len(msg.Attachments) > 0 {
		timeout = c.sendTimeout
	}
	_, err := c.do(ctx, accessToken, "send_mail", request{
		method:  http.MethodPost,
		path:    "/me/sendMail",
		body:    payload,
		timeout: timeout,
	})
	return err
}

// UpdateMessage applies a partial update, such as {"isRead": true}.
func (c *Client) UpdateMessage(ctx context.Context, accessToken, id string, patch json.RawMessage) (json.RawMessage, error) {
	resp, err := c.do(ctx, accessToken, "update_message", request{
		method: http.MethodPatch,
		path:   messagePath(id),
		body:   patch,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.body), nil
}

func (c *Client) ListAttachments(ctx context.Context, accessToken, messageID string) ([]Attachment, error) {
	query := url.Values{}
	query.Set("$select", strings.Join(attachmentListFields, ","))

	var list attachmentList
	if err := c.getJSON(ctx, accessToken, "list_attachments", messagePath(messageID)+"/attachments", query, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

// GetAttachment returns one attachment with its decoded contentBytes for file attachments.
func (c *Client) GetAttachment(ctx context.Context, accessToken, messageID, attachmentID string) (*Attachment, error) {
	var attachment Attachment
	if err := c.getJSON(ctx, accessToken, "get_attachment", attachmentPath(messageID, attachmentID), nil, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// GetAttachmentInfo returns attachment metadata without the content.
func (c *Client) GetAttachmentInfo(ctx context.Context, accessToken, messageID, attachmentID string) (*Attachment, error) {
	query := url.Values{}
	query.Set("$select", strings.Join(attachmentListFields, ","))

	var attachment Attachment
	if err := c.getJSON(ctx, accessToken, "get_attachment_info", attachmentPath(messageID, attachmentID), query, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// GetAttachmentValue returns the raw bytes from the attachment's /$value
// endpoint along with the content type Graph reported.
func (c *Client) GetAttachmentValue(ctx context.Context, accessToken, messageID, attachmentID string) ([]byte, string, error) {
	resp, err := c.do(ctx, accessToken, "get_attachment_value", request{
		method: http.MethodGet,
		path:   attachmentPath(messageID, attachmentID) + "/$value",
	})
	if err != nil {
		return nil, "", err
	}
	return resp.body, resp.contentType, nil
}

func (c *Client) MailFolders(ctx context.Context, accessToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, accessToken, "mail_folders", "/me/mailFolders", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Ping fetches the unauthenticated service root.
func (c *Client) Ping(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.ping(ctx)
	metrics.ObserveGraph("ping", err, time.Since(start))
	return raw, err
}

func (c *Client) ping(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(resp.StatusCode, body)
	}
	if !json.Valid(body) {
		return json.RawMessage(strconv.Quote(string(body))), nil
	}
	return body, nil
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	timeout time.Duration
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) getJSON(ctx context.Context, accessToken, operation, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, accessToken, operation, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("graph %s: decoding response: %w", operation, err)
	}
	return nil
}

// do performs one authenticated call and records its latency and outcome.
func (c *Client) do(ctx context.Context, accessToken, operation string, r request) (*response, error) {
	if r.timeout == 0 {
		r.timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.roundTrip(ctx, accessToken, r)
	metrics.ObserveGraph(operation, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, accessToken string, r request) (*response, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := encodeBody(r.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.bearerClient(ctx, accessToken).Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, newAPIError(httpResp.StatusCode, data)
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return &response{
		status:      httpResp.StatusCode,
		contentType: httpResp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *Client) bearerClient(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

func encodeBody(body any) ([]byte, error) {
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(body)
}

func messagePath(id string) string {
	return "/me/messages/" + url.PathEscape(id)
}

func attachmentPath(messageID, attachmentID string) string {
	return messagePath(messageID) + "/attachments/" + url.PathEscape(attachmentID)
}
