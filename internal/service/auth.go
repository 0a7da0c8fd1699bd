package service

import (
	"context"
	"errors"
	"time"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"
	"auditorium/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const Issuer = "auditorium-auth-service"

type AuthConfig struct {
	SigningKey      []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// EchoOTP logs issued codes so a developer can finish OTP flows locally.
	EchoOTP bool
	Now     func() time.Time
}

type AuthService struct {
	users   *Directory
	otps    *OTPStore
	refresh RefreshStore
	cfg     AuthConfig
}

type UserClaims struct {
	UserID string           `json:"uid"`
	Name   string           `json:"name"`
	Role   constraints.Role `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(users *Directory, otps *OTPStore, refresh RefreshStore, cfg AuthConfig) *AuthService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthService{users: users, otps: otps, refresh: refresh, cfg: cfg}
}

// OTPs exposes the code store so tests can read issued codes.
func (s *AuthService) OTPs() *OTPStore {
	return s.otps
}

func (s *AuthService) RequestRegisterOTP(_ context.Context, email string) error {
	if _, taken := s.users.ByEmail(email); taken {
		return ErrEmailAlreadyRegistered
	}
	return s.issueOTP(PurposeRegister, email)
}

func (s *AuthService) CheckRegisterOTP(_ context.Context, email, code string) error {
	if !s.otps.Check(PurposeRegister, normalizeEmail(email), code) {
		return ErrInvalidOTP
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req v1.RegisterRequest) (*v1.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if _, taken := s.users.ByEmail(email); taken {
		return nil, ErrEmailAlreadyRegistered
	}
	if !s.otps.Consume(PurposeRegister, email, req.OTP) {
		return nil, ErrInvalidOTP
	}
	u, err := s.users.Create(req.Name, email, req.Password, constraints.RoleUser)
	if err != nil {
		return nil, err
	}
	logger.Info("user registered", zap.String("user_id", u.ID))
	return s.issue(ctx, u)
}

func (s *AuthService) Login(ctx context.Context, req v1.LoginRequest) (*v1.AuthResponse, error) {
	u, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Refresh rotates the pair: the presented token is consumed whether or not
// the rest of the call succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*v1.AuthResponse, error) {
	userID, err := s.refresh.Consume(ctx, refreshToken)
	if errors.Is(err, errRefreshUnknown) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	return s.issue(ctx, u)
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.refresh.RevokeUser(ctx, userID)
}

func (s *AuthService) RequestResetPasswordOTP(_ context.Context, email string) error {
	if _, ok := s.users.ByEmail(email); !ok {
		return ErrEmailNotRegistered
	}
	return s.issueOTP(PurposeResetPassword, email)
}

// ResetPassword sets the new password, revokes every open session and signs
// the user in.
func (s *AuthService) ResetPassword(ctx context.Context, req v1.ResetPasswordRequest) (*v1.AuthResponse, error) {
	u, ok := s.users.ByEmail(req.Email)
	if !ok {
		return nil, ErrEmailNotRegistered
	}
	if !s.otps.Consume(PurposeResetPassword, u.Email, req.OTP) {
		return nil, ErrInvalidOTP
	}
	if err := s.users.SetPassword(u.ID, req.NewPassword); err != nil {
		return nil, err
	}
	if err := s.refresh.RevokeUser(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// ParseAccessToken verifies signature and expiry and returns the operator.
func (s *AuthService) ParseAccessToken(tokenString string) (*OperatorInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(t *jwt.Token) (any, error) {
		return s.cfg.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.cfg.Now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidAccessToken
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok {
		return nil, ErrInvalidAccessToken
	}
	return &OperatorInfo{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}, nil
}

func (s *AuthService) issueOTP(purpose OTPPurpose, email string) error {
	code, err := s.otps.Issue(purpose, normalizeEmail(email))
	if err != nil {
		return err
	}
	if s.cfg.EchoOTP {
		logger.Info("otp issued", zap.String("purpose", string(purpose)), zap.String("email", email), zap.String("otp", code))
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, u UserRecord) (*v1.AuthResponse, error) {
	now := s.cfg.Now()
	claims := UserClaims{
		UserID: u.ID,
		Name:   u.Name,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   u.ID,
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.NewString()
	if err := s.refresh.Put(ctx, refreshToken, u.ID, s.cfg.RefreshTokenTTL); err != nil {
		return nil, err
	}

	user := u.View()
	return &v1.AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: &user}, nil
}
