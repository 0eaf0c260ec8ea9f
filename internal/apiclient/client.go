// Package apiclient talks to the blog backend's REST API.
//
// Every operation makes a single attempt and returns either its decoded
// payload or an *Error whose message is ready for a notification.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/rs/zerolog"
)

const maxResponseSize = 10 << 20

var apiLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

// Multipart is a request body encoded as multipart/form-data.
type Multipart interface {
	Encode() (body io.Reader, contentType string, err error)
}

// Observer is told about every completed round trip. status is 0 on
// transport failure.
type Observer func(op string, status int, elapsed time.Duration)

type PostList struct {
	Posts     []model.Post `json:"posts"`
	PostCount int          `json:"postCount"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	observer   Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as the Authorization header on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListPosts(ctx context.Context, pageIndex, pageSize int) (*PostList, error) {
	q := url.Values{}
	q.Set("pageNo", strconv.Itoa(pageIndex))
	q.Set("limit", strconv.Itoa(pageSize))

	var out PostList
	if err := c.do(ctx, "ListPosts", http.MethodGet, "/post/posts?"+q.Encode(), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchPosts(ctx context.Context, query string) ([]model.Post, error) {
	var out struct {
		Posts []model.Post `json:"posts"`
	}
	if err := c.do(ctx, "SearchPosts", http.MethodGet, "/post/search?title="+url.QueryEscape(query), nil, "", &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

func (c *Client) GetPost(ctx context.Context, slug string) (*model.Post, error) {
	return c.postRequest(ctx, "GetPost", http.MethodGet, "/post/single/"+url.PathEscape(slug), nil)
}

func (c *Client) CreatePost(ctx context.Context, payload Multipart) (*model.Post, error) {
	return c.postRequest(ctx, "CreatePost", http.MethodPost, "/post/create", payload)
}

func (c *Client) UpdatePost(ctx context.Context, id model.PostID, payload Multipart) (*model.Post, error) {
	return c.postRequest(ctx, "UpdatePost", http.MethodPut, "/post/"+url.PathEscape(string(id)), payload)
}

// DeletePost returns the backend's confirmation message.
func (c *Client) DeletePost(ctx context.Context, id model.PostID) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "DeletePost", http.MethodDelete, "/post/"+url.PathEscape(string(id)), nil, "", &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// UploadImage sends file as the "image" field and returns the stored
// image URL.
func (c *Client) UploadImage(ctx context.Context, file *model.Upload) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, file.Filename))
	if file.ContentType != "" {
		h.Set("Content-Type", file.ContentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", transportError("UploadImage", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", transportError("UploadImage", err)
	}
	if err := mw.Close(); err != nil {
		return "", transportError("UploadImage", err)
	}

	var out struct {
		Image string `json:"image"`
	}
	if err := c.do(ctx, "UploadImage", http.MethodPost, "/post/upload-image", &buf, mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.Image, nil
}

func (c *Client) postRequest(ctx context.Context, op, method, path string, payload Multipart) (*model.Post, error) {
	var body io.Reader
	var contentType string
	if payload != nil {
		var err error
		body, contentType, err = payload.Encode()
		if err != nil {
			return nil, transportError(op, err)
		}
	}

	var out struct {
		Post *model.Post `json:"post"`
	}
	if err := c.do(ctx, op, method, path, body, contentType, &out); err != nil {
		return nil, err
	}
	if out.Post == nil {
		return nil, &Error{Op: op, Message: "malformed response: missing post"}
	}
	return out.Post, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return transportError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		apiLogger.Warn().Err(err).Str("op", op).Msg("Request failed")
		return transportError(op, err)
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, start)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	msg, hasError := errorFromBody(raw)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !ok || hasError {
		if !hasError {
			msg = statusMessage(resp)
		}
		apiErr := &Error{Op: op, Status: resp.StatusCode, Message: msg}
		apiLogger.Debug().Str("op", op).Int("status", resp.StatusCode).Str("error", msg).Msg("Backend returned an error")
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error(), Err: err}
	}
	return nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer(op, status, time.Since(start))
	}
}
