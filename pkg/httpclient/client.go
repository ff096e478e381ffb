// Package httpclient is the single gateway to the marketplace backend. It
// attaches identity, applies the request timeout and converts every failure
// into a typed error with a message fit for display.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"github.com/angelmondragon/campusmarket-client/pkg/metrics"
	"github.com/angelmondragon/campusmarket-client/pkg/nav"
	"github.com/angelmondragon/campusmarket-client/pkg/validation"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultLoginPath = "/login"
	maxBodyBytes     = 8 << 20
)

// ErrSessionExpired is returned for any 401. By the time the caller sees it the
// session is already cleared and the navigator points at the login page.
var ErrSessionExpired = pkgerrors.New(pkgerrors.CodeUnauthorized, "Your session has expired. Please sign in again.")

// Session is the identity source consulted on every request.
type Session interface {
	Token() string
	Clear(ctx context.Context) error
}

// Params configures a Client.
type Params struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	LoginPath  string
	Session    Session
	Navigator  nav.Navigator
	Limiter    *rate.Limiter
	Metrics    *metrics.RequestMetrics
	Logger     *logger.Logger
	HTTPClient *http.Client
	Remaps     []Remap
}

// Client issues JSON requests against the backend.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	timeout    time.Duration
	userAgent  string
	loginPath  string
	session    Session
	navigator  nav.Navigator
	limiter    *rate.Limiter
	metrics    *metrics.RequestMetrics
	logg       *logger.Logger
	remaps     []Remap
}

// New validates params and builds a client.
func New(p Params) (*Client, error) {
	if strings.TrimSpace(p.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(p.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute")
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
	if p.LoginPath == "" {
		p.LoginPath = defaultLoginPath
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.HTTPClient == nil {
		p.HTTPClient = &http.Client{}
	}
	if p.Remaps == nil {
		p.Remaps = DefaultRemaps()
	}
	return &Client{
		httpClient: p.HTTPClient,
		baseURL:    base,
		timeout:    p.Timeout,
		userAgent:  p.UserAgent,
		loginPath:  p.LoginPath,
		session:    p.Session,
		navigator:  p.Navigator,
		limiter:    p.Limiter,
		metrics:    p.Metrics,
		logg:       p.Logger,
		remaps:     p.Remaps,
	}, nil
}

// Request describes one backend call. Route is the metrics label; it
// defaults to Path, so callers with ids in the path should set it.
type Request struct {
	Method string
	Path   string
	Route  string
	Query  url.Values
	Body   any
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// Do executes req and decodes a successful body into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	route := req.Route
	if route == "" {
		route = req.Path
	}
	requestID := uuid.NewString()
	ctx = c.logg.WithFields(ctx, map[string]any{
		"method":     req.Method,
		"path":       req.Path,
		"request_id": requestID,
	})

	start := time.Now()
	status, err := c.do(ctx, req, requestID, out)
	elapsed := time.Since(start)

	code := ""
	if err != nil {
		code = string(pkgerrors.As(err).Code())
	}
	c.metrics.Observe(req.Method, route, elapsed, code)

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
	})
	switch {
	case err == nil:
		c.logg.Info(logCtx, "http.request.complete")
	case status >= 400 && status < 500:
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "http.request.rejected")
	default:
		c.logg.Error(logCtx, "http.request.failed", err)
	}
	return err
}

func (c *Client) do(ctx context.Context, req Request, requestID string, out any) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, pkgerrors.MessageConnectivity)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, req, requestID)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, pkgerrors.MessageConnectivity)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.expireSession(ctx)
		return resp.StatusCode, ErrSessionExpired
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, pkgerrors.MessageConnectivity)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, c.responseError(resp.StatusCode, body)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, decodeBody(body, out)
}

func (c *Client) newRequest(ctx context.Context, req Request, requestID string) (*http.Request, error) {
	target := c.resolve(req.Path, req.Query)

	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		httpReq.Header.Set("Idempotency-Key", requestID)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// expireSession runs the 401 side effects. It must complete even when the
// request context is already done.
func (c *Client) expireSession(ctx context.Context) {
	detached := context.WithoutCancel(ctx)
	if c.session != nil {
		if err := c.session.Clear(detached); err != nil {
			c.logg.Error(detached, "session.clear.failed", err)
		}
	}
	nav.Redirect(c.navigator, c.loginPath)
	c.logg.Info(detached, "session.expired")
}

// envelopeKeys are the members allowed next to "data" for a body to be
// treated as a {data} envelope.
var envelopeKeys = map[string]struct{}{
	"data":    {},
	"success": {},
	"message": {},
	"status":  {},
}

func decodeBody(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	payload := unwrapEnvelope(body)
	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDecode, err, "unexpected response from server")
	}
	if !isStruct(out) {
		return nil
	}
	return validation.Check(pkgerrors.CodeDecode, "unexpected response from server", out)
}

func unwrapEnvelope(body []byte) []byte {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return body
	}
	data, ok := members["data"]
	if !ok {
		return body
	}
	for key := range members {
		if _, allowed := envelopeKeys[key]; !allowed {
			return body
		}
	}
	return data
}
