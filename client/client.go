// Package client is the Go SDK for the Auditorium conference API.
//
// Every call goes through Client.do, which attaches the stored bearer token
// and, on a recoverable 401, refreshes the token pair once and resubmits the
// request once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"auditorium/pkg/constraints"
	"auditorium/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxErrorBody bounds how much of a failed response is read for its payload.
const maxErrorBody = 1 << 20

// TokenStore is the persisted token pair the client reads and rotates.
// *tokenstore.Store satisfies it.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetPair(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// Observer receives request, refresh and session-expiry events.
type Observer interface {
	ObserveRequest(method string, status int)
	RecordRefresh(success bool)
	RecordRetry()
	RecordSessionExpired()
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	userAgent  string
	observer   Observer

	coalesce bool
	flights  singleflight.Group

	mu        sync.RWMutex
	onExpired []func(error)

	Auth          *AuthService
	Users         *UserService
	Conferences   *ConferenceService
	Registrations *RegistrationService
	Feedbacks     *FeedbackService
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has no timeout of its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithSessionExpiredHandler registers fn to run after a failed refresh has
// cleared the stored tokens.
func WithSessionExpiredHandler(fn func(error)) Option {
	return func(c *Client) { c.onExpired = append(c.onExpired, fn) }
}

// WithRefreshCoalescing makes concurrent requests that fail with the same
// refresh token share a single refresh call. Without it every failing
// request refreshes on its own.
func WithRefreshCoalescing() Option {
	return func(c *Client) { c.coalesce = true }
}

func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 0},
		tokens:     tokens,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.Users = &UserService{client: c}
	c.Conferences = &ConferenceService{client: c}
	c.Registrations = &RegistrationService{client: c}
	c.Feedbacks = &FeedbackService{client: c}
	return c
}

// Tokens exposes the store the client reads from.
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// OnSessionExpired registers fn to run after a failed refresh has cleared
// the stored tokens.
func (c *Client) OnSessionExpired(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = append(c.onExpired, fn)
}

// attempt is the retry state of one logical call. It never outlives the call.
type attempt struct {
	refreshed bool
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("read access token: %w", err)
	}

	var at attempt
	for {
		resp, err := c.send(ctx, method, path, query, body, token)
		if err != nil {
			c.observer.ObserveRequest(method, 0)
			return transportError(err)
		}
		c.observer.ObserveRequest(method, resp.StatusCode)

		if resp.StatusCode < http.StatusBadRequest {
			return decodeResponse(resp, out)
		}

		payload := readErrorPayload(resp)
		refreshToken, ok := c.shouldRefresh(ctx, resp.StatusCode, payload.Code(), at)
		if !ok {
			return newAPIError(resp.StatusCode, payload)
		}

		logger.Debug("access token rejected, refreshing",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("error_code", payload.Code()))

		at.refreshed = true
		token, err = c.refresh(ctx, refreshToken)
		if err != nil {
			return err
		}
		c.observer.RecordRetry()
	}
}

// shouldRefresh decides the FAILED -> REFRESHING transition and returns the
// refresh token to use.
func (c *Client) shouldRefresh(ctx context.Context, status int, code string, at attempt) (string, bool) {
	if status != http.StatusUnauthorized || at.refreshed {
		return "", false
	}
	if code == constraints.CodeInvalidRefreshToken || code == constraints.CodeNoBearerToken {
		return "", false
	}
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		logger.Warn("read refresh token failed", zap.Error(err))
		return "", false
	}
	return refreshToken, refreshToken != ""
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte, token string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int) {}
func (nopObserver) RecordRefresh(bool)         {}
func (nopObserver) RecordRetry()               {}
func (nopObserver) RecordSessionExpired()      {}
