package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

type OTPPurpose string

const (
	PurposeRegister      OTPPurpose = "register"
	PurposeResetPassword OTPPurpose = "reset_password"
)

const otpTTL = 10 * time.Minute

type otpEntry struct {
	code    string
	expires time.Time
}

// OTPStore issues six-digit one-time codes per email and purpose.
type OTPStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]otpEntry
}

func NewOTPStore(now func() time.Time) *OTPStore {
	if now == nil {
		now = time.Now
	}
	return &OTPStore{now: now, entries: make(map[string]otpEntry)}
}

func otpKey(purpose OTPPurpose, email string) string {
	return string(purpose) + ":" + strings.ToLower(email)
}

// Issue replaces any outstanding code for email and purpose.
func (s *OTPStore) Issue(purpose OTPPurpose, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[otpKey(purpose, email)] = otpEntry{code: code, expires: s.now().Add(otpTTL)}
	return code, nil
}

// Check reports whether code is the live code, without consuming it.
func (s *OTPStore) Check(purpose OTPPurpose, email, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[otpKey(purpose, email)]
	return ok && e.code == code && s.now().Before(e.expires)
}

// Consume checks code and removes it on success.
func (s *OTPStore) Consume(purpose OTPPurpose, email, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := otpKey(purpose, email)
	e, ok := s.entries[key]
	if !ok || e.code != code || !s.now().Before(e.expires) {
		return false
	}
	delete(s.entries, key)
	return true
}

// Peek returns the outstanding code. Used by tests and the dev echo.
func (s *OTPStore) Peek(purpose OTPPurpose, email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[otpKey(purpose, email)]
	return e.code, ok
}
