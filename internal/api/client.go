package api

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

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"prhealth/internal/session"
)

const requestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// Client talks to the PR Health Dashboard backend. It holds no state of its
// own: the credential is read from the session on every request.
type Client struct {
	baseURL string
	plain   *http.Client
	authed  *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying client; its transport is wrapped for
// authenticated calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.plain = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client against baseURL that authenticates with creds.
func New(baseURL string, creds session.Reader, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		plain:   http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}

	base := c.plain.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.authed = &http.Client{
		Transport: &oauth2.Transport{
			Source: credentialSource{creds: creds},
			Base:   base,
		},
		CheckRedirect: c.plain.CheckRedirect,
		Jar:           c.plain.Jar,
		Timeout:       c.plain.Timeout,
	}
	return c
}

// credentialSource hands the current session credential to oauth2.Transport.
// An empty credential still produces a token so the request goes out and the
// backend decides.
type credentialSource struct {
	creds session.Reader
}

func (s credentialSource) Token() (*oauth2.Token, error) {
	cred, _ := s.creds.Credential()
	return &oauth2.Token{AccessToken: cred, TokenType: "Bearer"}, nil
}

func (c *Client) endpoint(path string) string { return c.baseURL + path }

// do sends one request. in is JSON-encoded when non-nil; out, when non-nil,
// receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.With("request_id", reqID, "method", method, "path", path)
	resp, err := hc.Do(req)
	if err != nil {
		log.Debug("request failed", "err", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	log.Debug("request done", "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.authed, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, c.authed, http.MethodPost, path, in, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, c.authed, http.MethodDelete, path, nil, nil)
}

func pathf(format string, ids ...int) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(fmt.Sprint(id))
	}
	return fmt.Sprintf(format, args...)
}
