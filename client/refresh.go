package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/logger"

	"go.uber.org/zap"
)

const refreshPath = "/auth/refresh"

// refresh runs the REFRESHING state and returns the new access token. A
// failure has already cleared the session by the time it is returned.
func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	if !c.coalesce {
		return c.rotate(ctx, refreshToken)
	}
	// The flight outlives any single waiter, so it must not inherit one
	// caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, joined := c.flights.Do(refreshToken, func() (any, error) {
		return c.rotate(shared, refreshToken)
	})
	if joined {
		logger.Debug("joined in-flight refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) rotate(ctx context.Context, refreshToken string) (string, error) {
	res, err := c.postRefresh(ctx, refreshToken)
	if err != nil && callerGaveUp(ctx, err) {
		// The server may never have seen the token; keep the session.
		return "", err
	}
	if err == nil {
		// The server has rotated by now, so the new pair must be stored even
		// if the caller is gone.
		err = c.tokens.SetPair(context.WithoutCancel(ctx), res.AccessToken, res.RefreshToken)
		if err != nil {
			err = fmt.Errorf("store refreshed tokens: %w", err)
		}
	}
	if err != nil {
		c.observer.RecordRefresh(false)
		c.expire(ctx, err)
		return "", err
	}
	c.observer.RecordRefresh(true)
	return res.AccessToken, nil
}

// postRefresh calls the refresh endpoint directly. It never carries the
// bearer header and never recurses into the 401 handling of do.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (*v1.AuthResponse, error) {
	body, err := json.Marshal(v1.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveRequest(http.MethodPost, 0)
		return nil, transportError(err)
	}
	c.observer.ObserveRequest(http.MethodPost, resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(resp.StatusCode, readErrorPayload(resp))
	}

	var res v1.AuthResponse
	if err := decodeResponse(resp, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		return nil, ErrMalformedRefresh
	}
	return &res, nil
}

// callerGaveUp reports whether err comes from ctx being cancelled or timing
// out rather than from the server.
func callerGaveUp(ctx context.Context, err error) bool {
	return ctx.Err() != nil &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

// expire terminates the local session after an unrecoverable auth failure.
func (c *Client) expire(ctx context.Context, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := c.tokens.Clear(ctx); err != nil {
		logger.Error("clear tokens after failed refresh", zap.Error(err))
	}
	c.observer.RecordSessionExpired()
	logger.Warn("session expired", zap.Error(cause))

	c.mu.RLock()
	handlers := make([]func(error), len(c.onExpired))
	copy(handlers, c.onExpired)
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(cause)
	}
}
