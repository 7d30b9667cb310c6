// Package client issues authorized calls to the Eagle Bank API and classifies
// their outcomes.
//
// Any response whose body decodes as JSON is returned to the caller as-is,
// whatever its HTTP status; telling a success payload from a {message}
// payload is the caller's job. Only the absence of a response
// (TransportError) and an undecodable body (DecodeError) are errors here.
// Nothing is retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/eaglebank/client/internal/credential"
	"github.com/eaglebank/client/shared/models"
)

const (
	DefaultBaseURL  = "http://localhost:8080"
	DefaultBasePath = "/v1"
	DefaultTimeout  = 15 * time.Second
)

// CredentialSource supplies the bearer token for guarded operations.
type CredentialSource interface {
	Credential() (credential.Token, bool)
}

// Client provides typed access to the API. It is safe for concurrent use.
type Client struct {
	root       string
	basePath   string
	httpClient *http.Client
	creds      CredentialSource
	log        *zap.Logger
	metrics    *metrics
	newID      func() string

	timeout  time.Duration
	injected bool
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client, including its timeout and
// transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
			c.injected = true
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client. It has no effect
// when WithHTTPClient is also given, in whichever order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBasePath replaces the prefix shared by every endpoint. It defaults to
// /v1 unless the base URL already carries a path.
func WithBasePath(p string) Option {
	return func(c *Client) {
		c.basePath = normalisePath(p)
	}
}

// New constructs a Client for the API rooted at base. creds may be nil when
// only Login and CreateUser are used.
func New(base string, creds CredentialSource, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: missing host", base)
	}
	basePath := ""
	if u.Path == "" || u.Path == "/" {
		basePath = DefaultBasePath
	}

	cli := &Client{
		root:     strings.TrimRight(trimmed, "/"),
		basePath: basePath,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		creds: creds,
		log:   zap.NewNop(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(cli)
	}
	if !cli.injected && cli.timeout > 0 {
		cli.httpClient.Timeout = cli.timeout
	}
	return cli, nil
}

func (c *Client) BaseURL() string { return c.root + c.basePath }

func normalisePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	return "/" + strings.Trim(p, "/")
}

// Response is the decoded body of a completed request. Body is populated from
// whatever JSON arrived, so on an error status it is usually zero-valued and
// Message holds the server's explanation.
type Response[T any] struct {
	Status    int
	Body      T
	Message   string
	Details   []FieldDetail
	NoContent bool
}

// FieldDetail is one entry of a 400 response's details array.
type FieldDetail = models.FieldDetail

// Declared returns the server's {message} payload as an error, or nil when the
// body carried no message.
func (r *Response[T]) Declared() *DeclaredError {
	if r == nil || r.Message == "" {
		return nil
	}
	return &DeclaredError{Status: r.Status, Message: r.Message}
}

// Empty stands in for operations whose success carries no body.
type Empty struct{}

type request struct {
	op       string
	method   string
	path     string
	body     any
	guarded  bool
	deletion bool
}

func send[T any](ctx context.Context, c *Client, r request) (*Response[T], error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var token credential.Token
	if r.guarded {
		var ok bool
		if c.creds != nil {
			token, ok = c.creds.Credential()
		}
		if !ok {
			c.metrics.observe(r.op, outcomeUnauthenticated, 0)
			return nil, fmt.Errorf("%s: %w", r.op, ErrUnauthenticated)
		}
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request body: %w", r.op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.BaseURL()+r.path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", r.op, err)
	}
	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.guarded {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}

	log := c.log.With(
		zap.String("operation", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.String("request_id", requestID),
	)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(r.op, outcomeTransport, time.Since(start))
		log.Debug("client.Request.TransportError", zap.Error(err))
		return nil, &TransportError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("duration", elapsed))
	if err != nil {
		c.metrics.observe(r.op, outcomeTransport, elapsed)
		log.Debug("client.Request.TransportError", zap.Error(err))
		return nil, &TransportError{Op: r.op, Err: fmt.Errorf("read response body: %w", err)}
	}

	out := &Response[T]{Status: resp.StatusCode}
	if len(bytes.TrimSpace(data)) == 0 {
		if r.deletion && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			out.NoContent = true
			c.metrics.observe(r.op, outcomeNoContent, elapsed)
			log.Debug("client.Request.Complete")
			return out, nil
		}
		c.metrics.observe(r.op, outcomeDecode, elapsed)
		log.Debug("client.Request.DecodeError", zap.String("reason", "empty body"))
		return nil, &DecodeError{Op: r.op, Status: resp.StatusCode, Err: errors.New("empty response body")}
	}

	if err := json.Unmarshal(data, &out.Body); err != nil {
		c.metrics.observe(r.op, outcomeDecode, elapsed)
		log.Debug("client.Request.DecodeError", zap.Error(err))
		return nil, &DecodeError{Op: r.op, Status: resp.StatusCode, Err: err}
	}
	out.Message, out.Details = peekMessage(data)

	c.metrics.observe(r.op, outcomeDecoded, elapsed)
	log.Debug("client.Request.Complete", zap.Bool("declared_error", out.Message != ""))
	return out, nil
}

// peekMessage extracts {message, details} when the body is an object that
// carries a string message. Anything else yields no message.
func peekMessage(data []byte) (string, []FieldDetail) {
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Message) == 0 {
		return "", nil
	}
	var msg string
	if err := json.Unmarshal(envelope.Message, &msg); err != nil {
		return "", nil
	}
	var details []FieldDetail
	if len(envelope.Details) > 0 {
		_ = json.Unmarshal(envelope.Details, &details)
	}
	return msg, details
}
