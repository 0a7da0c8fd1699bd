package api

import (
	"context"
	"net/http"

	"auditorium/internal/service"
	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthProvider interface {
	RequestRegisterOTP(ctx context.Context, email string) error
	CheckRegisterOTP(ctx context.Context, email, code string) error
	Register(ctx context.Context, req v1.RegisterRequest) (*v1.AuthResponse, error)
	Login(ctx context.Context, req v1.LoginRequest) (*v1.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*v1.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	RequestResetPasswordOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req v1.ResetPasswordRequest) (*v1.AuthResponse, error)
}

type AuthHandler struct {
	svc AuthProvider
}

func NewAuthHandler(svc AuthProvider) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) RequestRegisterOTP(c *gin.Context) {
	var body v1.RegisterOTPRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.svc.RequestRegisterOTP(c.Request.Context(), body.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "otp sent"})
}

func (h *AuthHandler) CheckRegisterOTP(c *gin.Context) {
	var body v1.CheckOTPRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.svc.CheckRegisterOTP(c.Request.Context(), body.Email, body.OTP); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "otp verified"})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body v1.RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	tokens, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokens)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body v1.LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	tokens, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var body v1.RefreshTokenRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidRefreshToken)
		return
	}
	tokens, err := h.svc.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	op := operator(c)
	if err := h.svc.Logout(c.Request.Context(), op.UserID); err != nil {
		logger.Error("logout failed", zap.String("user_id", op.UserID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) RequestResetPasswordOTP(c *gin.Context) {
	var body v1.ResetPasswordOTPRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.svc.RequestResetPasswordOTP(c.Request.Context(), body.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "otp sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var body v1.ResetPasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	tokens, err := h.svc.ResetPassword(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}
