package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/logger"

	"go.uber.org/zap"
)

// AuthService covers the /auth endpoints. Calls that return a token pair
// persist it before returning.
type AuthService struct {
	client *Client
}

func (s *AuthService) RequestRegisterOTP(ctx context.Context, email string) error {
	req := v1.RegisterOTPRequest{Email: email}
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPost, "/auth/register/otp", nil, req, nil)
}

func (s *AuthService) CheckRegisterOTP(ctx context.Context, email, otp string) error {
	req := v1.CheckOTPRequest{Email: email, OTP: otp}
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPost, "/auth/register/otp/check", nil, req, nil)
}

func (s *AuthService) Register(ctx context.Context, req v1.RegisterRequest) (*v1.AuthResponse, error) {
	return s.authenticate(ctx, "/auth/register", req)
}

func (s *AuthService) Login(ctx context.Context, req v1.LoginRequest) (*v1.AuthResponse, error) {
	return s.authenticate(ctx, "/auth/login", req)
}

func (s *AuthService) RequestResetPasswordOTP(ctx context.Context, email string) error {
	req := v1.ResetPasswordOTPRequest{Email: email}
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPost, "/auth/reset-password/otp", nil, req, nil)
}

func (s *AuthService) ResetPassword(ctx context.Context, req v1.ResetPasswordRequest) (*v1.AuthResponse, error) {
	return s.authenticate(ctx, "/auth/reset-password", req)
}

// Refresh rotates the stored token pair explicitly. Unlike the automatic
// refresh inside a failing call, a failure here leaves the stored tokens
// untouched.
func (s *AuthService) Refresh(ctx context.Context) (*v1.AuthResponse, error) {
	refreshToken, err := s.client.tokens.RefreshToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	res, err := s.client.postRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.client.tokens.SetPair(ctx, res.AccessToken, res.RefreshToken); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return res, nil
}

// Logout tells the server to revoke the session and always clears the local
// tokens. The server call is best effort: its failure is logged, not
// returned. Only a failure to clear local storage is reported.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.client.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		logger.Warn("logout request failed, clearing local session anyway", zap.Error(err))
	}
	if err := s.client.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, path string, req any) (*v1.AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var res v1.AuthResponse
	if err := s.client.do(ctx, http.MethodPost, path, nil, req, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		return nil, errors.New("auth response carried no token pair")
	}
	if err := s.client.tokens.SetPair(ctx, res.AccessToken, res.RefreshToken); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return &res, nil
}
