package client

import (
	"context"
	"sync"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/logger"

	"go.uber.org/zap"
)

type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateAnonymous:
		return "ANONYMOUS"
	case StateAuthenticated:
		return "AUTHENTICATED"
	}
	return "UNKNOWN"
}

const subscriberBuffer = 8

// Session tracks who is signed in. It starts in StateLoading until Start
// resolves the stored tokens, and drops to StateAnonymous whenever the
// client reports an expired session.
type Session struct {
	client *Client
	otp    *OTPGate

	mu    sync.RWMutex
	state State
	user  *v1.User
	subs  map[chan State]struct{}
}

func NewSession(c *Client) *Session {
	s := &Session{
		client: c,
		otp:    &OTPGate{},
		state:  StateLoading,
		subs:   make(map[chan State]struct{}),
	}
	c.OnSessionExpired(func(error) {
		s.set(StateAnonymous, nil)
	})
	return s
}

// Start resolves the initial state from the token store.
func (s *Session) Start(ctx context.Context) error {
	token, err := s.client.tokens.AccessToken(ctx)
	if err != nil || token == "" {
		s.set(StateAnonymous, nil)
		return err
	}

	user, err := s.client.Users.Me(ctx)
	if err != nil {
		logger.Warn("restore session failed", zap.Error(err))
		s.set(StateAnonymous, nil)
		return err
	}
	s.set(StateAuthenticated, user)
	return nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, or nil.
func (s *Session) User() *v1.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.user != nil
}

func (s *Session) Login(ctx context.Context, req v1.LoginRequest) error {
	return s.authenticate(ctx, func() (*v1.AuthResponse, error) {
		return s.client.Auth.Login(ctx, req)
	})
}

// Register creates the account. Callers are expected to have passed
// CheckRegisterOTP for the same email first.
func (s *Session) Register(ctx context.Context, req v1.RegisterRequest) error {
	return s.authenticate(ctx, func() (*v1.AuthResponse, error) {
		return s.client.Auth.Register(ctx, req)
	})
}

func (s *Session) ResetPassword(ctx context.Context, req v1.ResetPasswordRequest) error {
	return s.authenticate(ctx, func() (*v1.AuthResponse, error) {
		return s.client.Auth.ResetPassword(ctx, req)
	})
}

func (s *Session) RequestRegisterOTP(ctx context.Context, email string) error {
	return s.client.Auth.RequestRegisterOTP(ctx, email)
}

// CheckRegisterOTP verifies code and records the outcome in the OTP gate.
func (s *Session) CheckRegisterOTP(ctx context.Context, email, code string) error {
	return s.otp.Check(ctx, s.client.Auth, email, code)
}

func (s *Session) RequestResetPasswordOTP(ctx context.Context, email string) error {
	return s.client.Auth.RequestResetPasswordOTP(ctx, email)
}

// OTP exposes the gate filled by CheckRegisterOTP.
func (s *Session) OTP() *OTPGate {
	return s.otp
}

// Logout always ends in StateAnonymous. The returned error only reports a
// failure to clear local token storage.
func (s *Session) Logout(ctx context.Context) error {
	s.set(StateLoading, s.User())
	err := s.client.Auth.Logout(ctx)
	s.otp.Reset()
	s.set(StateAnonymous, nil)
	return err
}

// RefreshUser refetches the current user without touching the tokens.
func (s *Session) RefreshUser(ctx context.Context) error {
	user, err := s.client.Users.Me(ctx)
	if err != nil {
		return err
	}
	s.set(StateAuthenticated, user)
	return nil
}

// Subscribe returns a channel of state transitions. Slow readers miss
// transitions rather than block the session. Call the returned func to stop.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, subscriberBuffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) authenticate(ctx context.Context, call func() (*v1.AuthResponse, error)) error {
	s.set(StateLoading, nil)

	res, err := call()
	if err != nil {
		s.set(StateAnonymous, nil)
		return err
	}

	user := res.User
	if user == nil {
		if user, err = s.client.Users.Me(ctx); err != nil {
			// Never leave a stored pair behind an anonymous session.
			if clearErr := s.client.tokens.Clear(context.WithoutCancel(ctx)); clearErr != nil {
				logger.Error("clear tokens after user fetch failed", zap.Error(clearErr))
			}
			s.set(StateAnonymous, nil)
			return err
		}
	}
	s.set(StateAuthenticated, user)
	return nil
}

func (s *Session) set(state State, user *v1.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.state != state
	s.state = state
	s.user = user
	if !changed {
		return
	}
	for ch := range s.subs {
		select {
		case ch <- state:
		default:
		}
	}
}
