package wfclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/model"
)

// AllTags is the tag segment the listing endpoint uses for "every tag".
const AllTags = 9999

// Client is a thin wrapper over the watchface service HTTP API.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	clientVersion string
	deviceID      string
	logger        zerolog.Logger
	now           func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithIdentity sets the version and did headers sent on login.
func WithIdentity(version, deviceID string) Option {
	return func(c *Client) {
		c.clientVersion = version
		c.deviceID = deviceID
	}
}

// WithClock overrides the clock used for cache-busting parameters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a watchface API client.
func New(rawURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("base url must include scheme")
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	c := &Client{
		baseURL: parsed,
		http: &http.Client{
			Timeout: timeout,
		},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured service URL without trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// ListByTag fetches one page of watchfaces for a device ordered by sort.
func (c *Client) ListByTag(ctx context.Context, device string, sort, page, size int) ([]model.Watchface, error) {
	p := fmt.Sprintf("/watchface/listbytag/%d/%d/%d/%d", sort, page, size, AllTags)
	req, err := c.newRequest(ctx, http.MethodGet, p, c.cacheBust(nil), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("type", device)
	noCache(req)
	items, err := call[[]model.Watchface](c, req)
	if err != nil {
		return nil, fmt.Errorf("list watchfaces: %w", err)
	}
	return items, nil
}

// Search fetches one page of keyword search results.
func (c *Client) Search(ctx context.Context, device, keyword string, page int) ([]model.Watchface, error) {
	form := url.Values{}
	form.Set("keyword", keyword)
	form.Set("page", strconv.Itoa(page))
	req, err := c.newRequest(ctx, http.MethodPost, "/watchface/searchForPage", c.cacheBust(nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("type", device)
	noCache(req)
	items, err := call[[]model.Watchface](c, req)
	if err != nil {
		return nil, fmt.Errorf("search watchfaces: %w", err)
	}
	return items, nil
}

// LoginByCode exchanges an OAuth authorisation code for a session.
func (c *Client) LoginByCode(ctx context.Context, code string) (*model.Session, error) {
	q := url.Values{}
	q.Set("code", code)
	req, err := c.newRequest(ctx, http.MethodPost, "/watchface/my/loginByMitanTokenNew2", q, nil)
	if err != nil {
		return nil, err
	}
	if c.clientVersion != "" {
		req.Header.Set("version", c.clientVersion)
	}
	req.Header.Set("type", model.DefaultDevice)
	if c.deviceID != "" {
		req.Header.Set("did", c.deviceID)
	}
	sess, err := call[model.Session](c, req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &sess, nil
}

// TrackView bumps the view counter of a watchface.
func (c *Client) TrackView(ctx context.Context, id model.ID) error {
	q := url.Values{}
	q.Set("id", id.String())
	req, err := c.newRequest(ctx, http.MethodGet, "/watchface/add/views", q, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("track view: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("track view: %w", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}
	return nil
}

// DownloadURL resolves the file URL of a watchface.
func (c *Client) DownloadURL(ctx context.Context, id model.ID) (string, error) {
	q := url.Values{}
	q.Set("id", id.String())
	req, err := c.newRequest(ctx, http.MethodPost, "/watchface/downloadUsr", c.cacheBust(q), nil)
	if err != nil {
		return "", err
	}
	noCache(req)
	link, err := call[string](c, req)
	if err != nil {
		return "", fmt.Errorf("resolve download: %w", err)
	}
	if link == "" {
		return "", fmt.Errorf("resolve download: empty link")
	}
	return link, nil
}

// FetchFile streams the resource at rawURL into w and returns the byte count.
func (c *Client) FetchFile(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("fetch file: %w", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("fetch file: %w", err)
	}
	return n, nil
}

// MyResources lists the watchfaces uploaded by the session's user.
func (c *Client) MyResources(ctx context.Context, sess *model.Session, page, size int) ([]model.Watchface, error) {
	p := fmt.Sprintf("/watchface/my/share/list/%d/%d", page, size)
	req, err := c.newRequest(ctx, http.MethodGet, p, nil, nil)
	if err != nil {
		return nil, err
	}
	authorize(req, sess)
	items, err := call[[]model.Watchface](c, req)
	if err != nil {
		return nil, fmt.Errorf("list my resources: %w", err)
	}
	return items, nil
}

// SetShare publishes (public=true) or hides a resource.
func (c *Client) SetShare(ctx context.Context, sess *model.Session, id model.ID, public bool) error {
	q := url.Values{}
	q.Set("id", id.String())
	// 0 is public, 1 is private.
	if public {
		q.Set("isShare", "0")
	} else {
		q.Set("isShare", "1")
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/watchface/my/share/set", q, nil)
	if err != nil {
		return err
	}
	authorize(req, sess)
	if _, err := call[json.RawMessage](c, req); err != nil {
		return fmt.Errorf("set share: %w", err)
	}
	return nil
}

// DeleteResource removes one of the user's uploads.
func (c *Client) DeleteResource(ctx context.Context, sess *model.Session, id model.ID) error {
	q := url.Values{}
	q.Set("id", id.String())
	req, err := c.newRequest(ctx, http.MethodPost, "/watchface/my/share/delete", q, nil)
	if err != nil {
		return err
	}
	authorize(req, sess)
	if _, err := call[json.RawMessage](c, req); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}

func (c *Client) resolve(p string) string {
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, p)
	if !strings.HasSuffix(p, "/") && strings.HasSuffix(u.Path, "/") {
		u.Path = u.Path[:len(u.Path)-1]
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, p string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.resolve(p)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

// cacheBust adds the millisecond timestamp parameter the service uses to
// defeat intermediate caches.
func (c *Client) cacheBust(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	return q
}

func noCache(req *http.Request) {
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
}

func authorize(req *http.Request, sess *model.Session) {
	if sess == nil {
		return
	}
	req.Header.Set("openId", sess.OpenID)
	req.Header.Set("validtoken", sess.ValidToken)
}

// call executes req and unwraps the response envelope.
func call[T any](c *Client, req *http.Request) (T, error) {
	var zero T
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get("X-Request-Id")).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode/100 != 2 {
		return zero, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	var payload model.Response[T]
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	if !payload.OK() {
		return zero, &APIError{Code: payload.Code, Msg: payload.Msg}
	}
	return payload.Data, nil
}
