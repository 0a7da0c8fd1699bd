package client

import (
	"context"
	"strings"
	"sync"
)

// OTPGate remembers which email last passed the registration OTP check so a
// multi-step form can gate its final step. It is advisory: the server checks
// the code again on Register.
type OTPGate struct {
	mu       sync.Mutex
	email    string
	code     string
	verified bool
}

// Check verifies code against the server. Checking a different email drops
// any earlier verification.
func (g *OTPGate) Check(ctx context.Context, auth *AuthService, email, code string) error {
	email = normalizeEmail(email)

	g.mu.Lock()
	if g.email != email {
		g.email, g.code, g.verified = email, "", false
	}
	g.mu.Unlock()

	if err := auth.CheckRegisterOTP(ctx, email, code); err != nil {
		g.mu.Lock()
		if g.email == email {
			g.code, g.verified = "", false
		}
		g.mu.Unlock()
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.email == email {
		g.code, g.verified = code, true
	}
	return nil
}

func (g *OTPGate) Verified(email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verified && g.email == normalizeEmail(email)
}

// Code returns the verified code for email, to be sent with Register.
func (g *OTPGate) Code(email string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.verified || g.email != normalizeEmail(email) {
		return "", false
	}
	return g.code, true
}

func (g *OTPGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.email, g.code, g.verified = "", "", false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
