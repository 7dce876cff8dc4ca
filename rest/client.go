// Package rest implements hxadmin.Transport over HTTP for backends that
// answer with the {"result", "data", "message"} envelope.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pthm/hxadmin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody caps how much of a failed response is kept as the message.
const maxErrorBody = 4 << 10

// Client sends backend requests relative to an API root.
type Client struct {
	httpclient *http.Client
	api        string
	token      string
	logger     *slog.Logger
}

var _ hxadmin.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpclient = hc
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the API rooted at apiRoot, e.g.
// "https://api.example.com". By default requests go through an
// OpenTelemetry-instrumented transport.
func NewClient(apiRoot string, opts ...Option) (*Client, error) {
	u, err := url.Parse(apiRoot)
	if err != nil {
		return nil, fmt.Errorf("rest: api root: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rest: api root %q: scheme must be http or https", apiRoot)
	}

	c := &Client{
		httpclient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		api:        strings.TrimSuffix(apiRoot, "/"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) apipath(path string) string {
	return c.api + "/" + strings.TrimPrefix(path, "/")
}

// Execute implements hxadmin.Transport.
//
// Non-2xx responses return *StatusError. A 2xx response is decoded as an
// Envelope whatever its result flag; result=false is left for the caller.
func (c *Client) Execute(ctx context.Context, ep hxadmin.Endpoint, params hxadmin.Params) (hxadmin.Envelope, error) {
	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.apipath(ep.Expand(params.Path))
	if len(params.Query) > 0 {
		target += "?" + params.Query.Encode()
	}

	var body io.Reader
	if params.Body != nil {
		buf, err := json.Marshal(params.Body)
		if err != nil {
			return hxadmin.Envelope{}, fmt.Errorf("rest: encode body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return hxadmin.Envelope{}, fmt.Errorf("rest: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return hxadmin.Envelope{}, fmt.Errorf("rest: %s %s: %w", method, ep.Path, err)
	}
	defer resp.Body.Close()

	return c.unmarshalEnvelope(ctx, req, resp)
}

func (c *Client) unmarshalEnvelope(ctx context.Context, req *http.Request, resp *http.Response) (hxadmin.Envelope, error) {
	if StatusCodeRangeOf(resp) != Status2xx {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        req.URL.Path,
			Message:    parseErrorMessage(raw),
		}
		c.logger.WarnContext(ctx, "backend request failed",
			"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)
		return hxadmin.Envelope{}, serr
	}

	var env hxadmin.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return hxadmin.Envelope{}, fmt.Errorf(
			"rest: %s %s: unexpected response: %w (status code = %d)",
			req.Method, req.URL.Path, err, resp.StatusCode,
		)
	}
	return env, nil
}

// parseErrorMessage extracts {"message": "..."} from an error body, falling
// back to the body itself.
func parseErrorMessage(body []byte) string {
	var msg struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != nil {
		return *msg.Message
	}
	return strings.TrimSpace(string(body))
}
