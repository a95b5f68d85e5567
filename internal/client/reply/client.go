// Package reply talks to the remote reply service over HTTP.
//
// Send never returns an error. Every result, including failures to build the
// request, is folded into a chat.Outcome so callers only branch on its Kind.
package reply

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/anythingboes/boes-chat/internal/model/chat"
)

// MessagePath is appended to the configured base URL.
const MessagePath = "/message"

// Request is the body posted to the reply service.
type Request struct {
	Message string `json:"message"`
}

// Response is the success body returned by the reply service.
type Response struct {
	Response string `json:"response"`
}

// Client sends chat messages to the reply service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a single round trip. Zero means no timeout. The timeout
// is set on a copy, so a client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send posts text to the reply service and classifies the result.
func (c *Client) Send(ctx context.Context, text string) chat.Outcome {
	req, err := c.newRequest(ctx, text)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to construct reply request")
		return chat.LocalError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("url", req.URL.String()).Msg("no response from reply service")
		return chat.NetworkError(errors.Wrap(err, "post message"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error().Err(err).Int("status", resp.StatusCode).Msg("failed to read reply body")
		return chat.NetworkError(errors.Wrap(err, "read reply body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(body), 256)).
			Msg("reply service responded with error status")
		return chat.ServerError(statusText(resp))
	}

	var payload Response
	if err := sonic.Unmarshal(body, &payload); err != nil {
		c.log.Error().Err(err).Str("body", truncate(string(body), 256)).Msg("invalid response from reply service")
		return chat.EmptyReply(errors.Wrap(err, "decode reply"))
	}
	if payload.Response == "" {
		c.log.Error().Str("body", truncate(string(body), 256)).Msg("reply field missing from response")
		return chat.EmptyReply(nil)
	}

	return chat.Success(payload.Response)
}

func (c *Client) newRequest(ctx context.Context, text string) (*http.Request, error) {
	endpoint, err := joinURL(c.baseURL, MessagePath)
	if err != nil {
		return nil, err
	}

	body, err := sonic.Marshal(Request{Message: text})
	if err != nil {
		return nil, errors.Wrap(err, "encode message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func joinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "parse base url %q", base)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("base url %q is not absolute", base)
	}
	return strings.TrimRight(base, "/") + path, nil
}

// statusText extracts the reason phrase from the status line, e.g.
// "Internal Server Error" from "500 Internal Server Error".
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
