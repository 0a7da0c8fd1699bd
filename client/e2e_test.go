package client

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"auditorium/internal/api"
	"auditorium/internal/service"
	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"
	"auditorium/pkg/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newDevServer(t *testing.T) (*httptest.Server, *service.Domain, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Now()}
	d, err := service.NewDomain(service.DomainOptions{
		Auth: service.AuthConfig{
			SigningKey:      []byte("e2e-key"),
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		AdminEmail:    "admin@auditorium.local",
		AdminPassword: "admin12345",
		BcryptCost:    bcrypt.MinCost,
		Now:           clock.Now,
	})
	require.NoError(t, err)

	router := api.RegisterRoutes(api.NewHandlers(d), d.Auth, nil, api.RouterOptions{RequestsPerSecond: 1000})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, d, clock
}

func TestEndToEnd_RegisterBookAndReview(t *testing.T) {
	srv, d, clock := newDevServer(t)
	ctx := context.Background()

	adminClient := New(srv.URL, tokenstore.NewMemory())
	adminSession := NewSession(adminClient)
	require.NoError(t, adminSession.Login(ctx, v1.LoginRequest{Email: "admin@auditorium.local", Password: "admin12345"}))
	require.True(t, adminSession.User().HasRole(constraints.RoleAdmin))

	start := clock.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	confID, err := adminClient.Conferences.Create(ctx, v1.CreateConferenceRequest{
		Title: "Profiling Go", Description: "pprof deep dive", SpeakerName: "Dmitry", SpeakerTitle: "Engineer",
		TargetAudience: "backend", Seats: 50, StartsAt: start, EndsAt: start.Add(90 * time.Minute),
	})
	require.NoError(t, err)
	require.NoError(t, adminClient.Conferences.UpdateStatus(ctx, confID, constraints.StatusApproved))

	// a new attendee signs up through the OTP flow
	store := tokenstore.NewMemory()
	c := New(srv.URL, store)
	s := NewSession(c)
	require.NoError(t, s.Start(ctx))
	require.Equal(t, StateAnonymous, s.State())

	email := "ada@example.com"
	require.NoError(t, s.RequestRegisterOTP(ctx, email))
	code, ok := d.Auth.OTPs().Peek(service.PurposeRegister, email)
	require.True(t, ok)
	require.NoError(t, s.CheckRegisterOTP(ctx, email, code))
	require.True(t, s.OTP().Verified(email))
	require.NoError(t, s.Register(ctx, v1.RegisterRequest{Email: email, OTP: code, Name: "Ada", Password: "correct-horse"}))
	require.True(t, s.IsAuthenticated())

	require.NoError(t, c.Registrations.Register(ctx, confID))
	err = c.Registrations.Register(ctx, confID)
	assert.Equal(t, constraints.CodeConflict, Code(err))

	// the access token expires; the next call refreshes transparently
	before, _ := store.RefreshToken(ctx)
	clock.Advance(2 * time.Minute)
	fbID, err := c.Feedbacks.Create(ctx, v1.CreateFeedbackRequest{ConferenceID: confID, Comment: "very useful"})
	require.NoError(t, err)
	after, _ := store.RefreshToken(ctx)
	assert.NotEqual(t, before, after, "refresh rotated the pair")

	page, err := c.Feedbacks.ListByConference(ctx, confID, v1.Page{Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Feedbacks, 1)
	assert.Equal(t, fbID, page.Feedbacks[0].ID)

	mine, err := c.Registrations.ListConferences(ctx, *s.User().ID, v1.RegisteredConferencesQuery{})
	require.NoError(t, err)
	require.Len(t, mine.Conferences, 1)
	assert.Equal(t, 1, *mine.Conferences[0].SeatsTaken)

	// profile edits round-trip through /users/me
	bio := "gopher"
	require.NoError(t, c.Users.UpdateProfile(ctx, v1.UpdateUserProfileRequest{Bio: &bio}))
	require.NoError(t, s.RefreshUser(ctx))
	assert.Equal(t, "gopher", *s.User().Bio)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, StateAnonymous, s.State())
	_, err = c.Users.Me(ctx)
	assert.Equal(t, constraints.CodeNoBearerToken, Code(err))
}

func TestEndToEnd_RevokedSessionExpires(t *testing.T) {
	srv, d, clock := newDevServer(t)
	ctx := context.Background()

	store := tokenstore.NewMemory()
	c := New(srv.URL, store)
	s := NewSession(c)
	require.NoError(t, s.Login(ctx, v1.LoginRequest{Email: "admin@auditorium.local", Password: "admin12345"}))

	// server-side logout revokes the refresh token behind the client's back
	require.NoError(t, d.Auth.Logout(ctx, *s.User().ID))
	clock.Advance(2 * time.Minute)

	_, err := c.Conferences.List(ctx, v1.ConferenceQuery{})
	assert.Equal(t, constraints.CodeInvalidRefreshToken, Code(err))
	assert.Equal(t, StateAnonymous, s.State())
	assert.False(t, store.IsAuthenticated(ctx))
}

func TestEndToEnd_ResetPassword(t *testing.T) {
	srv, d, _ := newDevServer(t)
	ctx := context.Background()

	s := NewSession(New(srv.URL, tokenstore.NewMemory()))
	require.NoError(t, s.RequestResetPasswordOTP(ctx, "admin@auditorium.local"))
	code, ok := d.Auth.OTPs().Peek(service.PurposeResetPassword, "admin@auditorium.local")
	require.True(t, ok)

	require.NoError(t, s.ResetPassword(ctx, v1.ResetPasswordRequest{
		Email: "admin@auditorium.local", OTP: code, NewPassword: "new-admin-pass",
	}))
	assert.True(t, s.IsAuthenticated())

	err := s.Login(ctx, v1.LoginRequest{Email: "admin@auditorium.local", Password: "admin12345"})
	assert.Equal(t, constraints.CodeInvalidCredentials, Code(err))
	assert.Equal(t, StateAnonymous, s.State())
}
