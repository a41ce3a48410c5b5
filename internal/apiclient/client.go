// Package apiclient executes JSON requests against the Slurp Social API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"
)

// HTTP methods used by the API.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodDelete = http.MethodDelete
)

// DefaultTimeout is the per-attempt limit. The backend can take tens of
// seconds to wake from a cold start.
const DefaultTimeout = 60 * time.Second

// maxAttempts allows one retry after a timed-out attempt.
const maxAttempts = 2

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token() string
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client sends requests to the API root and decodes response envelopes.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *observability.ClientLogger
}

// NewClient creates a client. tokens may be nil for a client that never authenticates.
func NewClient(opts Options, tokens TokenSource) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    limiter,
		logger:     observability.NewClientLogger(),
	}
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type tokenOverrideKey struct{}

// ContextWithToken makes requests on ctx authenticate with token instead of
// the client's TokenSource.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenOverrideKey{}, token)
}

func (c *Client) token(ctx context.Context) string {
	if token, ok := ctx.Value(tokenOverrideKey{}).(string); ok {
		return token
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// Do sends a request to path under the API root and decodes the envelope.
func Do[T any](ctx context.Context, c *Client, method, path string, body any, requiresAuth bool) (*models.Envelope[T], error) {
	raw, err := c.call(ctx, method, path, body, requiresAuth)
	if err != nil {
		return nil, err
	}

	var env models.Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &env, nil
}

// DoVoid sends a request whose response payload is ignored.
func (c *Client) DoVoid(ctx context.Context, method, path string, body any, requiresAuth bool) error {
	raw, err := c.call(ctx, method, path, body, requiresAuth)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env models.Envelope[models.Empty]
	if err := json.Unmarshal(raw, &env); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// Fetch downloads rawURL without authentication, under the same timeout and
// retry policy as API calls.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, request{method: MethodGet, url: target, accept: "image/*"})
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status > 299 {
		return nil, &HTTPError{StatusCode: resp.status}
	}
	return resp.body, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any, requiresAuth bool) ([]byte, error) {
	target, err := parseTarget(c.baseURL + path)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req := request{
		method:      method,
		url:         target,
		body:        payload,
		accept:      "application/json",
		contentType: "application/json",
	}
	if requiresAuth {
		req.token = c.token(ctx)
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status > 299 {
		return nil, statusError(resp)
	}
	return resp.body, nil
}

func parseTarget(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

// statusError turns a non-2xx response into a ServerError when the body is an
// error envelope, and an HTTPError otherwise.
func statusError(resp *response) error {
	var env struct {
		Success *bool             `json:"success"`
		Error   *models.ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(resp.body, &env); err != nil || (env.Success == nil && env.Error == nil) {
		return &HTTPError{StatusCode: resp.status}
	}

	serverErr := &ServerError{Code: "unknown", Message: "Unknown error", Status: resp.status}
	if env.Error != nil {
		if env.Error.Code != "" {
			serverErr.Code = env.Error.Code
		}
		if env.Error.Message != "" {
			serverErr.Message = env.Error.Message
		}
	}
	return serverErr
}

type request struct {
	method      string
	url         string
	body        []byte
	token       string
	accept      string
	contentType string
}

type response struct {
	status int
	body   []byte
}

// send runs the attempt loop. Only a timed-out attempt is retried, and only
// while the caller's context is still live.
func (c *Client) send(ctx context.Context, req request) (*response, error) {
	requestID := observability.ExtractCorrelationID(ctx)
	if requestID == "" {
		requestID = observability.GenerateCorrelationID()
		ctx = observability.WithCorrelationID(ctx, requestID)
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var resp *response
		resp, err = c.attempt(ctx, req, requestID, attempt)
		if err == nil {
			return resp, nil
		}
		if !isTimeout(ctx, err) || attempt == maxAttempts {
			break
		}
		observability.APITimeoutRetries.Inc()
		c.logger.LogRetry(ctx, req.method, req.url, err)
	}

	err = classify(ctx, err)
	c.logger.LogError(ctx, req.method, req.url, err)
	return nil, err
}

func (c *Client) attempt(ctx context.Context, req request, requestID string, attempt int) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	span, attemptCtx := observability.NewClientSpan(attemptCtx, "http "+req.method)
	defer span.End()
	span.AddAttributes(
		attribute.String("http.method", req.method),
		attribute.String("http.url", req.url),
		attribute.Int("http.attempt", attempt),
	)

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.method, req.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	observability.InjectHeaders(attemptCtx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.ObserveRequest(req.method, 0, start)
		span.SetError(err)
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	observability.ObserveRequest(req.method, httpResp.StatusCode, start)
	c.logger.LogRequest(ctx, req.method, req.url, httpResp.StatusCode, time.Since(start), attempt)
	span.AddAttributes(attribute.Int("http.status_code", httpResp.StatusCode))
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &response{status: httpResp.StatusCode, body: data}, nil
}

// isTimeout reports whether err came from the per-attempt deadline rather
// than from the caller giving up or the connection failing.
func isTimeout(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func classify(parent context.Context, err error) error {
	if parentErr := parent.Err(); parentErr != nil {
		return fmt.Errorf("request canceled: %w", parentErr)
	}
	if isTimeout(parent, err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, ErrInvalidURL) {
		return err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
}
