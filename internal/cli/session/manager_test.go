package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldread-dev/coldread/internal/cli/account"
	"github.com/coldread-dev/coldread/internal/cli/client"
	"github.com/coldread-dev/coldread/internal/cli/credstore"
)

// mockAPI simulates the backend for manager tests
type mockAPI struct {
	mu sync.Mutex

	email    string
	password string
	token    string
	user     *account.Profile

	meErr      error
	usageErr   error
	forgotErr  error
	loginErr   error
	meCalls    int
	loginCalls int
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		email:    "a@b.com",
		password: "pw",
		token:    "tok-abc",
		user: &account.Profile{
			ID:               "u1",
			Email:            "a@b.com",
			FullName:         "Ada",
			SubscriptionTier: account.TierFree,
		},
	}
}

func (m *mockAPI) Me(ctx context.Context) (*account.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meCalls++
	if m.meErr != nil {
		return nil, m.meErr
	}
	return m.user.Clone(), nil
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCalls++
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	if email != m.email || password != m.password {
		return nil, &client.APIError{StatusCode: http.StatusUnauthorized, Detail: "Invalid email or password"}
	}
	return &client.AuthResponse{Token: m.token, User: m.user.Clone()}, nil
}

func (m *mockAPI) Signup(ctx context.Context, email, password, fullName string) (*client.AuthResponse, error) {
	if email == m.email {
		return nil, &client.APIError{StatusCode: http.StatusConflict, Detail: "Email already registered"}
	}
	return &client.AuthResponse{
		Token: "tok-new",
		User: &account.Profile{
			ID:               "u2",
			Email:            email,
			FullName:         fullName,
			SubscriptionTier: account.TierFree,
		},
	}, nil
}

func (m *mockAPI) ForgotPassword(ctx context.Context, email string) error {
	return m.forgotErr
}

func (m *mockAPI) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token != "reset-ok" {
		return &client.APIError{StatusCode: http.StatusBadRequest, Detail: "Invalid or expired reset token"}
	}
	return nil
}

func (m *mockAPI) VerifyEmail(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user.EmailVerified = true
	return "Email verified", nil
}

func (m *mockAPI) Usage(ctx context.Context) (*account.Usage, error) {
	if m.usageErr != nil {
		return nil, m.usageErr
	}
	return &account.Usage{Used: 2, Limit: 5}, nil
}

func (m *mockAPI) CompleteOnboarding(ctx context.Context) (*account.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user.OnboardingCompleted = true
	return m.user.Clone(), nil
}

func (m *mockAPI) UpdatePlan(ctx context.Context, tier account.Tier) (*account.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user.SubscriptionTier = tier
	return m.user.Clone(), nil
}

var unauthorized = &client.APIError{StatusCode: http.StatusUnauthorized, Detail: "Could not validate credentials"}

func TestResolve_NoTokenIsAnonymousWithoutProfileCall(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api, credstore.NewMemoryStore())

	assert.Equal(t, StatusLoading, m.State().Status)

	state := m.Resolve(context.Background())
	assert.Equal(t, StatusAnonymous, state.Status)
	assert.Nil(t, state.User)
	assert.Equal(t, 0, api.meCalls)
}

func TestResolve_RejectedTokenClearsStore(t *testing.T) {
	api := newMockAPI()
	api.meErr = unauthorized

	store := credstore.NewMemoryStore()
	require.NoError(t, store.SetToken("expired"))
	require.NoError(t, store.SetUser(api.user))

	state := NewManager(api, store).Resolve(context.Background())
	assert.Equal(t, StatusAnonymous, state.Status)

	_, err := store.GetToken()
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = store.GetUser()
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestResolve_NetworkErrorFailsClosed(t *testing.T) {
	api := newMockAPI()
	api.meErr = &client.TransportError{Op: "GET /auth/me", Err: errors.New("connection refused")}

	store := credstore.NewMemoryStore()
	require.NoError(t, store.SetToken("tok"))

	state := NewManager(api, store).Resolve(context.Background())
	assert.Equal(t, StatusAnonymous, state.Status)
	assert.Equal(t, 1, api.meCalls, "resolution must not retry")

	ok, err := credstore.HasToken(store)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_ValidTokenAuthenticates(t *testing.T) {
	api := newMockAPI()
	store := credstore.NewMemoryStore()
	require.NoError(t, store.SetToken("tok"))

	state := NewManager(api, store).Resolve(context.Background())
	require.True(t, state.IsAuthenticated())
	assert.Equal(t, "u1", state.User.ID)

	cached, err := store.GetUser()
	require.NoError(t, err)
	assert.Equal(t, "u1", cached.ID)
}

func TestLogin_WritesThroughToStore(t *testing.T) {
	api := newMockAPI()
	store := credstore.NewMemoryStore()
	m := NewManager(api, store)
	m.Resolve(context.Background())

	user, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, StatusAuthenticated, m.State().Status)

	token, err := store.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)

	// A fresh manager over the same store models a reload right after login
	reloaded := NewManager(api, store).Resolve(context.Background())
	assert.True(t, reloaded.IsAuthenticated())
}

func TestResolve_CorruptWebStorageStillAllowsLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web-storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0600))

	api := newMockAPI()
	store := credstore.NewFileStore(path)
	m := NewManager(api, store)

	state := m.Resolve(context.Background())
	assert.Equal(t, StatusAnonymous, state.Status)

	m.Logout()
	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.True(t, m.State().IsAuthenticated())

	token, err := store.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestLogin_FailureLeavesStateUntouched(t *testing.T) {
	api := newMockAPI()
	store := credstore.NewMemoryStore()
	m := NewManager(api, store)

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", client.DisplayMessage(err))

	// The existing session survives a failed attempt
	assert.True(t, m.State().IsAuthenticated())
	token, err := store.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestLogin_NetworkErrorKeepsExistingSession(t *testing.T) {
	api := newMockAPI()
	store := credstore.NewMemoryStore()
	m := NewManager(api, store)

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	api.loginErr = &client.TransportError{Op: "POST /auth/login", Err: errors.New("timeout")}
	_, err = m.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.Equal(t, client.GenericErrorMessage, client.DisplayMessage(err))
	assert.True(t, m.State().IsAuthenticated())
}

func TestSignup_StartsWithOnboardingPending(t *testing.T) {
	m := NewManager(newMockAPI(), credstore.NewMemoryStore())

	user, err := m.Signup(context.Background(), "new@b.com", "pw", "New User")
	require.NoError(t, err)
	assert.False(t, user.OnboardingCompleted)
	assert.True(t, m.State().IsAuthenticated())
	assert.False(t, m.State().OnboardingCompleted())

	_, err = m.Signup(context.Background(), "a@b.com", "pw", "Dup")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", client.DisplayMessage(err))
}

func TestLogout_IsIdempotent(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := NewManager(newMockAPI(), store)

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		m.Logout()
		assert.Equal(t, StatusAnonymous, m.State().Status)
		assert.Nil(t, m.User())

		ok, err := credstore.HasToken(store)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestUpdateUser(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := NewManager(newMockAPI(), store)

	// No session: nothing happens
	m.UpdateUser(&account.Profile{ID: "ghost"})
	assert.Nil(t, m.User())
	_, err := store.GetUser()
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	_, err = m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	updated := m.User()
	updated.SubscriptionTier = account.TierAgency
	m.UpdateUser(updated)

	assert.Equal(t, account.TierAgency, m.User().SubscriptionTier)
	token, err := store.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token, "token must be untouched")
}

func TestCompleteOnboardingAndChangePlan(t *testing.T) {
	m := NewManager(newMockAPI(), credstore.NewMemoryStore())
	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	_, err = m.CompleteOnboarding(context.Background())
	require.NoError(t, err)
	assert.True(t, m.State().OnboardingCompleted())

	_, err = m.ChangePlan(context.Background(), account.TierGrowthAgency)
	require.NoError(t, err)
	assert.Equal(t, account.TierGrowthAgency, m.User().SubscriptionTier)
}

func TestAuthorizedCallRejectionEndsSession(t *testing.T) {
	api := newMockAPI()
	store := credstore.NewMemoryStore()
	m := NewManager(api, store)

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	api.usageErr = &client.APIError{StatusCode: http.StatusForbidden, Detail: "Forbidden"}
	_, err = m.Usage(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, StatusAnonymous, m.State().Status)

	ok, err := credstore.HasToken(store)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsage_OtherErrorsKeepSession(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api, credstore.NewMemoryStore())
	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	api.usageErr = &client.APIError{StatusCode: http.StatusInternalServerError, Detail: "boom"}
	_, err = m.Usage(context.Background())
	require.Error(t, err)
	assert.True(t, m.State().IsAuthenticated())
}

func TestForgotPassword_NeverReportsOutcome(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api, credstore.NewMemoryStore())

	// Neither call has an outcome to report, whatever the backend does
	m.ForgotPassword(context.Background(), "a@b.com")
	api.forgotErr = &client.APIError{StatusCode: http.StatusNotFound, Detail: "User not found"}
	m.ForgotPassword(context.Background(), "nobody@b.com")

	assert.Equal(t, StatusLoading, m.State().Status)
}

func TestResetPassword(t *testing.T) {
	m := NewManager(newMockAPI(), credstore.NewMemoryStore())

	require.NoError(t, m.ResetPassword(context.Background(), "reset-ok", "N3wPassword"))

	err := m.ResetPassword(context.Background(), "bad", "N3wPassword")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired reset token", client.DisplayMessage(err))
}

func TestVerifyEmail_RefreshesProfileWhenSignedIn(t *testing.T) {
	m := NewManager(newMockAPI(), credstore.NewMemoryStore())
	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	msg, err := m.VerifyEmail(context.Background(), "verify-token")
	require.NoError(t, err)
	assert.Equal(t, "Email verified", msg)
	assert.True(t, m.User().EmailVerified)
}

func TestSubscribe(t *testing.T) {
	m := NewManager(newMockAPI(), credstore.NewMemoryStore())

	var got []Status
	unsubscribe := m.Subscribe(func(s State) {
		got = append(got, s.Status)
	})

	m.Resolve(context.Background())
	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
	m.Logout()

	assert.Equal(t, []Status{StatusAnonymous, StatusAuthenticated}, got)
}

func TestSubscribe_SnapshotsAreCopies(t *testing.T) {
	m := NewManager(newMockAPI(), credstore.NewMemoryStore())

	m.Subscribe(func(s State) {
		if s.User != nil {
			s.User.Email = "mutated@b.com"
		}
	})

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", m.User().Email)
}

func TestManager_AgainstHTTPBackend(t *testing.T) {
	var meCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]any{
				"token": "http-token",
				"user":  map[string]any{"id": "u9", "email": "a@b.com", "subscription_tier": "pro"},
			})
		case "/auth/me":
			meCalls++
			if r.Header.Get("Authorization") != "Bearer http-token" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Could not validate credentials"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "u9", "email": "a@b.com", "subscription_tier": "pro"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := credstore.NewMemoryStore()
	api := client.New(srv.URL, store)

	m := NewManager(api, store)
	assert.Equal(t, StatusAnonymous, m.Resolve(context.Background()).Status)
	assert.Equal(t, 0, meCalls)

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	state := NewManager(api, store).Resolve(context.Background())
	require.True(t, state.IsAuthenticated())
	assert.Equal(t, account.TierPro, state.User.SubscriptionTier)

	// Tamper with the token: next resolution fails closed and empties the store
	require.NoError(t, store.SetToken("tampered"))
	state = NewManager(api, store).Resolve(context.Background())
	assert.Equal(t, StatusAnonymous, state.Status)
	ok, err := credstore.HasToken(store)
	require.NoError(t, err)
	assert.False(t, ok)
}
