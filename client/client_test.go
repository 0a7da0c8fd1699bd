package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"
	"auditorium/pkg/logger"
	"auditorium/pkg/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, v1.ErrorResponse{Message: &msg, ErrorCode: &code})
}

func strPtr(s string) *string { return &s }

// fakeAPI serves /users/me for a single valid access token and rotates
// tokens on /auth/refresh.
type fakeAPI struct {
	mu          sync.Mutex
	validAccess string
	next        v1.AuthResponse
	refreshErr  string // error_code returned by refresh, "" for success
	meCode      string // error_code returned on a rejected token

	meCalls      atomic.Int32
	refreshCalls atomic.Int32
	seenBearers  []string
	refreshAuth  []string
	refreshSent  []string
}

func newFakeAPI(t *testing.T, f *fakeAPI) *httptest.Server {
	t.Helper()
	if f.meCode == "" {
		f.meCode = constraints.CodeInvalidAccessToken
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		auth := r.Header.Get("Authorization")
		f.mu.Lock()
		f.seenBearers = append(f.seenBearers, auth)
		valid := f.validAccess
		f.mu.Unlock()
		if auth != "Bearer "+valid {
			writeError(w, http.StatusUnauthorized, f.meCode, "token rejected")
			return
		}
		writeJSON(w, http.StatusOK, v1.GetUserResponse{User: v1.User{ID: strPtr("u1"), Name: strPtr("Ada")}})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		var req v1.RefreshTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.refreshAuth = append(f.refreshAuth, r.Header.Get("Authorization"))
		f.refreshSent = append(f.refreshSent, req.RefreshToken)
		f.mu.Unlock()
		if f.refreshErr != "" {
			writeError(w, http.StatusUnauthorized, f.refreshErr, "refresh rejected")
			return
		}
		writeJSON(w, http.StatusOK, f.next)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func seed(t *testing.T, access, refresh string) *tokenstore.Store {
	t.Helper()
	store := tokenstore.NewMemory()
	ctx := context.Background()
	if access != "" {
		require.NoError(t, store.SetAccessToken(ctx, access))
	}
	if refresh != "" {
		require.NoError(t, store.SetRefreshToken(ctx, refresh))
	}
	return store
}

func TestBearerHeader(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, v1.GetUserResponse{})
	}))
	defer srv.Close()
	ctx := context.Background()

	store := seed(t, "A1", "")
	c := New(srv.URL, store)
	_, err := c.Users.Me(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))
	_, err = c.Users.Me(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer A1", ""}, got)
}

func TestRefreshAndRetry(t *testing.T) {
	f := &fakeAPI{validAccess: "A2", next: v1.AuthResponse{AccessToken: "A2", RefreshToken: "R2"}}
	srv := newFakeAPI(t, f)
	store := seed(t, "A1", "R1")
	ctx := context.Background()

	c := New(srv.URL, store)
	user, err := c.Users.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", *user.Name)

	assert.EqualValues(t, 1, f.refreshCalls.Load())
	assert.EqualValues(t, 2, f.meCalls.Load())
	assert.Equal(t, []string{"Bearer A1", "Bearer A2"}, f.seenBearers)
	assert.Equal(t, []string{"R1"}, f.refreshSent)
	assert.Equal(t, []string{""}, f.refreshAuth, "refresh must not carry the bearer header")

	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	assert.Equal(t, "A2", access)
	assert.Equal(t, "R2", refresh)
}

func TestNoRefreshTokenPropagates401(t *testing.T) {
	f := &fakeAPI{validAccess: "other"}
	srv := newFakeAPI(t, f)
	store := seed(t, "A1", "")

	c := New(srv.URL, store)
	_, err := c.Users.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.NotNil(t, apiErr.Payload)
	assert.Equal(t, constraints.CodeInvalidAccessToken, apiErr.Code())
	assert.Equal(t, "token rejected", apiErr.Message)
	assert.True(t, IsUnauthorized(err))
	assert.EqualValues(t, 0, f.refreshCalls.Load())
	assert.EqualValues(t, 1, f.meCalls.Load())
}

func TestTerminalCodesNeverRefresh(t *testing.T) {
	for _, code := range []string{constraints.CodeInvalidRefreshToken, constraints.CodeNoBearerToken} {
		t.Run(code, func(t *testing.T) {
			f := &fakeAPI{validAccess: "other", meCode: code}
			srv := newFakeAPI(t, f)
			store := seed(t, "A1", "R1")

			c := New(srv.URL, store)
			_, err := c.Users.Me(context.Background())

			assert.Equal(t, code, Code(err))
			assert.EqualValues(t, 0, f.refreshCalls.Load())

			access, _ := store.AccessToken(context.Background())
			assert.Equal(t, "A1", access, "terminal codes leave storage alone")
		})
	}
}

func TestRetriedRequestNeverRefreshesAgain(t *testing.T) {
	f := &fakeAPI{validAccess: "never", next: v1.AuthResponse{AccessToken: "A2", RefreshToken: "R2"}}
	srv := newFakeAPI(t, f)
	store := seed(t, "A1", "R1")

	c := New(srv.URL, store)
	_, err := c.Users.Me(context.Background())

	assert.True(t, IsUnauthorized(err))
	assert.EqualValues(t, 1, f.refreshCalls.Load())
	assert.EqualValues(t, 2, f.meCalls.Load())
}

func TestRefreshFailureClearsSession(t *testing.T) {
	f := &fakeAPI{validAccess: "A2", refreshErr: constraints.CodeInvalidRefreshToken}
	srv := newFakeAPI(t, f)
	store := seed(t, "A1", "R1")
	ctx := context.Background()

	var expired []error
	c := New(srv.URL, store, WithSessionExpiredHandler(func(err error) {
		expired = append(expired, err)
	}))
	_, err := c.Users.Me(ctx)

	require.Error(t, err)
	assert.Equal(t, constraints.CodeInvalidRefreshToken, Code(err), "the refresh error reaches the caller")
	require.Len(t, expired, 1)
	assert.Equal(t, err, expired[0])
	assert.False(t, store.IsAuthenticated(ctx))
	refresh, _ := store.RefreshToken(ctx)
	assert.Empty(t, refresh)
	assert.EqualValues(t, 1, f.meCalls.Load())
}

func TestMalformedRefreshResponse(t *testing.T) {
	tests := []struct {
		name string
		next v1.AuthResponse
	}{
		{name: "empty body"},
		{name: "no refresh token", next: v1.AuthResponse{AccessToken: "A2"}},
		{name: "no access token", next: v1.AuthResponse{RefreshToken: "R2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAPI{validAccess: "A2", next: tt.next}
			srv := newFakeAPI(t, f)
			store := seed(t, "A1", "R1")
			ctx := context.Background()

			c := New(srv.URL, store)
			_, err := c.Users.Me(ctx)

			assert.ErrorIs(t, err, ErrMalformedRefresh)
			assert.False(t, store.IsAuthenticated(ctx))
			refresh, _ := store.RefreshToken(ctx)
			assert.Empty(t, refresh)
			assert.EqualValues(t, 1, f.meCalls.Load(), "a malformed pair is never retried with")
		})
	}
}

// cancelAfter cancels the caller's context as soon as the response for path
// has been read, before the client gets to act on it.
type cancelAfter struct {
	path   string
	cancel context.CancelFunc
}

func (rt cancelAfter) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil || req.URL.Path != rt.path {
		return resp, err
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	rt.cancel()
	return resp, nil
}

func TestCancelledRefreshKeepsSession(t *testing.T) {
	f := &fakeAPI{validAccess: "A2", next: v1.AuthResponse{AccessToken: "A2", RefreshToken: "R2"}}
	srv := newFakeAPI(t, f)
	store := seed(t, "A1", "R1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var expired int
	c := New(srv.URL, store,
		WithHTTPClient(&http.Client{Transport: cancelAfter{path: "/users/me", cancel: cancel}}),
		WithSessionExpiredHandler(func(error) { expired++ }),
	)
	_, err := c.Users.Me(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.refreshCalls.Load())
	assert.Zero(t, expired)

	access, _ := store.AccessToken(context.Background())
	refresh, _ := store.RefreshToken(context.Background())
	assert.Equal(t, "A1", access)
	assert.Equal(t, "R1", refresh)
}

func TestNon401IsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeError(w, http.StatusForbidden, constraints.CodeForbidden, "admins only")
	}))
	defer srv.Close()

	c := New(srv.URL, seed(t, "A1", "R1"))
	err := c.Conferences.UpdateStatus(context.Background(), "c1", constraints.StatusApproved)

	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Equal(t, constraints.CodeForbidden, Code(err))
	assert.EqualValues(t, 1, hits.Load())
}

func TestErrorNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conferences/plain":
			w.WriteHeader(http.StatusInternalServerError)
		case "/conferences/html":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		case "/conferences/clash":
			writeJSON(w, http.StatusConflict, map[string]any{
				"detail":   map[string]any{"conflicts": []string{"c2"}},
				"trace_id": "trace-9",
			})
		default:
			writeError(w, http.StatusConflict, constraints.CodeConflict, "already registered")
		}
	}))
	defer srv.Close()
	c := New(srv.URL, tokenstore.NewMemory())
	ctx := context.Background()

	_, err := c.Conferences.Get(ctx, "plain")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal Server Error", apiErr.Message)
	assert.Nil(t, apiErr.Payload)

	_, err = c.Conferences.Get(ctx, "html")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Nil(t, apiErr.Payload)

	_, err = c.Conferences.Get(ctx, "clash")
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, apiErr.Payload, "detail-only payloads are kept")
	assert.Equal(t, "Conflict", apiErr.Message)
	assert.Equal(t, "trace-9", apiErr.TraceID())
	assert.NotNil(t, apiErr.Payload.Detail)

	_, err = c.Conferences.Get(ctx, "dup")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "already registered", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "409")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, seed(t, "A1", "R1"))
	_, err := c.Users.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.Status)
	assert.Nil(t, apiErr.Payload)
	assert.NotNil(t, apiErr.Err)
	assert.NotEmpty(t, apiErr.Message)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := New(srv.URL, tokenstore.NewMemory())
	_, err := c.Users.Me(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestConcurrentRefresh(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		expected int32
	}{
		{name: "independent by default", expected: 2},
		{name: "coalesced", opts: []Option{WithRefreshCoalescing()}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rejected atomic.Int32
			bothRejected := make(chan struct{})
			var refreshes atomic.Int32

			mux := http.NewServeMux()
			mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") == "Bearer A2" {
					writeJSON(w, http.StatusOK, v1.GetUserResponse{})
					return
				}
				if rejected.Add(1) == 2 {
					close(bothRejected)
				}
				writeError(w, http.StatusUnauthorized, constraints.CodeInvalidAccessToken, "expired")
			})
			mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
				refreshes.Add(1)
				select {
				case <-bothRejected:
				case <-time.After(2 * time.Second):
				}
				time.Sleep(100 * time.Millisecond)
				writeJSON(w, http.StatusOK, v1.AuthResponse{AccessToken: "A2", RefreshToken: "R2"})
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			c := New(srv.URL, seed(t, "A1", "R1"), tt.opts...)

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = c.Users.Me(context.Background())
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, refreshes.Load())
		})
	}
}

func TestValidationNeverReachesNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c := New(srv.URL, seed(t, "A1", "R1"))
	ctx := context.Background()

	now := time.Now()
	_, regErr := c.Auth.Register(ctx, v1.RegisterRequest{Email: "a@b.co", OTP: "123456", Name: "A", Password: "short"})
	_, confErr := c.Conferences.Create(ctx, v1.CreateConferenceRequest{
		Title: "Go", Description: "d", SpeakerName: "s", SpeakerTitle: "t", TargetAudience: "all",
		Seats: 10, StartsAt: now.Add(2 * time.Hour), EndsAt: now.Add(time.Hour),
	})
	_, getErr := c.Users.Get(ctx, " ")
	_, fbErr := c.Feedbacks.Create(ctx, v1.CreateFeedbackRequest{ConferenceID: "c1", Comment: "ok"})

	errs := map[string]error{
		"otp":      c.Auth.CheckRegisterOTP(ctx, "a@b.co", "12ab56"),
		"email":    c.Auth.RequestRegisterOTP(ctx, "not-an-email"),
		"password": regErr,
		"status":   c.Conferences.UpdateStatus(ctx, "c1", "archived"),
		"ends":     confErr,
		"id":       getErr,
		"comment":  fbErr,
	}
	for name, err := range errs {
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr, name)
		assert.Zero(t, apiErr.Status, name)
		assert.Equal(t, constraints.CodeValidation, apiErr.Code(), name)
	}
	assert.EqualValues(t, 0, hits.Load())
}

func TestValidationDetailNamesJSONFields(t *testing.T) {
	err := validateRequest(v1.ResetPasswordRequest{Email: "a@b.co", OTP: "123456", NewPassword: "x"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	fields, ok := apiErr.Payload.Detail.([]FieldError)
	require.True(t, ok)
	assert.Equal(t, []FieldError{{Field: "new_password", Rule: "min"}}, fields)
}

func TestQueryEncoding(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()
	c := New(srv.URL+"/", tokenstore.NewMemory())
	ctx := context.Background()

	before := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err := c.Conferences.List(ctx, v1.ConferenceQuery{
		Page:         v1.Page{Limit: 50, AfterID: "01J"},
		Status:       constraints.StatusApproved,
		StartsBefore: &before,
		IncludePast:  true,
		OrderBy:      "starts_at",
		Order:        "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, "/conferences", gotPath)
	assert.Equal(t, "after_id=01J&include_past=true&limit=20&order=asc&order_by=starts_at&starts_before=2026-05-01T09%3A00%3A00Z&status=approved", gotQuery)

	_, err = c.Feedbacks.ListByConference(ctx, "c1", v1.Page{})
	require.NoError(t, err)
	assert.Equal(t, "/feedbacks/conferences/c1", gotPath)
	assert.Equal(t, "limit=10", gotQuery)

	_, err = c.Conferences.Get(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/conferences/a%2Fb", gotPath)

	_, err = c.Registrations.ListConferences(ctx, "u1", v1.RegisteredConferencesQuery{Page: v1.Page{Limit: 3, BeforeID: "z"}, IncludePast: true})
	require.NoError(t, err)
	assert.Equal(t, "/registrations/users/u1", gotPath)
	assert.Equal(t, "before_id=z&include_past=true&limit=3", gotQuery)
}

func TestAuthStoresTokenPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, v1.AuthResponse{AccessToken: "A1", RefreshToken: "R1"})
	}))
	defer srv.Close()
	store := tokenstore.NewMemory()
	ctx := context.Background()

	c := New(srv.URL, store)
	_, err := c.Auth.Login(ctx, v1.LoginRequest{Email: "a@b.co", Password: "secret"})
	require.NoError(t, err)

	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	assert.Equal(t, "A1", access)
	assert.Equal(t, "R1", refresh)
}

func TestExplicitRefresh(t *testing.T) {
	f := &fakeAPI{refreshErr: constraints.CodeInvalidRefreshToken}
	srv := newFakeAPI(t, f)
	ctx := context.Background()

	c := New(srv.URL, tokenstore.NewMemory())
	_, err := c.Auth.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	store := seed(t, "A1", "R1")
	c = New(srv.URL, store)
	_, err = c.Auth.Refresh(ctx)
	assert.Equal(t, constraints.CodeInvalidRefreshToken, Code(err))
	assert.True(t, store.IsAuthenticated(ctx), "explicit refresh failure keeps the stored pair")
}

func TestLogoutClearsOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := seed(t, "A1", "R1")
	c := New(url, store)
	require.NoError(t, c.Auth.Logout(context.Background()))
	assert.False(t, store.IsAuthenticated(context.Background()))
}
