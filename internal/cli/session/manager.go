package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coldread-dev/coldread/internal/cli/account"
	"github.com/coldread-dev/coldread/internal/cli/client"
	"github.com/coldread-dev/coldread/internal/cli/credstore"
)

// API is the backend surface the manager drives. *client.Client implements it.
type API interface {
	ProfileFetcher
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Signup(ctx context.Context, email, password, fullName string) (*client.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) (string, error)
	Usage(ctx context.Context) (*account.Usage, error)
	CompleteOnboarding(ctx context.Context) (*account.Profile, error)
	UpdatePlan(ctx context.Context, tier account.Tier) (*account.Profile, error)
}

// Listener is notified with a snapshot after every state change.
type Listener func(State)

// Manager is the single owner of the session state for one execution
// context.
//
// Lifecycle operations are not serialized against each other: two
// overlapping logins both write the store and the last write wins.
type Manager struct {
	api   API
	store credstore.Store
	log   zerolog.Logger

	mu    sync.RWMutex
	state State

	subsMu sync.Mutex
	subs   map[uint64]Listener
	nextID uint64
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used for state transitions
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager returns a manager in the Loading state. Call Resolve to settle it.
func NewManager(api API, store credstore.Store, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		log:   zerolog.Nop(),
		state: Loading(),
		subs:  make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// User returns the cached profile, or nil without a session.
func (m *Manager) User() *account.Profile {
	return m.State().User
}

// Subscribe registers fn for state changes and returns a function that
// unregisters it. After unsubscribing fn receives nothing, including results
// of operations that were already in flight.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.subsMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			m.subsMu.Unlock()
		})
	}
}

func (m *Manager) setState(next State) {
	m.mu.Lock()
	prev := m.state.Status
	m.state = next.clone()
	m.mu.Unlock()

	m.log.Debug().
		Str("from", prev.String()).
		Str("to", next.Status.String()).
		Msg("Session state changed")

	m.subsMu.Lock()
	listeners := make([]Listener, 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range listeners {
		fn(next.clone())
	}
}

// Resolve runs startup resolution and settles the Loading state.
func (m *Manager) Resolve(ctx context.Context) State {
	next := Resolve(ctx, m.api, m.store, m.log)
	m.setState(next)
	return next
}

// Login authenticates with email and password. On failure the state is left
// untouched and the backend's error is returned (see client.DisplayMessage).
func (m *Manager) Login(ctx context.Context, email, password string) (*account.Profile, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.log.Info().Err(err).Str("email", email).Msg("Login failed")
		return nil, err
	}
	return m.establish(resp)
}

// Signup creates an account and signs it in. New accounts start with
// onboarding_completed=false.
func (m *Manager) Signup(ctx context.Context, email, password, fullName string) (*account.Profile, error) {
	resp, err := m.api.Signup(ctx, email, password, fullName)
	if err != nil {
		m.log.Info().Err(err).Str("email", email).Msg("Signup failed")
		return nil, err
	}
	return m.establish(resp)
}

// establish writes the new session through to the store before settling the
// in-memory state, so a restart right after observes the same session.
func (m *Manager) establish(resp *client.AuthResponse) (*account.Profile, error) {
	if err := m.store.SetToken(resp.Token); err != nil {
		return nil, fmt.Errorf("failed to save session token: %w", err)
	}
	if err := m.store.SetUser(resp.User); err != nil {
		m.log.Warn().Err(err).Msg("Failed to cache user profile")
	}

	m.setState(Authenticated(resp.User))
	m.log.Info().Str("user_id", resp.User.ID).Msg("Signed in")
	return resp.User.Clone(), nil
}

// Logout drops the session. It makes no backend call and always succeeds
// locally; calling it repeatedly is harmless.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("Failed to clear credential store on logout")
	}
	m.setState(Anonymous())
}

// UpdateUser replaces the cached profile without touching the token. It is a
// no-op without a session.
func (m *Manager) UpdateUser(user *account.Profile) {
	if user == nil || !m.State().IsAuthenticated() {
		return
	}
	if err := m.store.SetUser(user); err != nil {
		m.log.Warn().Err(err).Msg("Failed to cache user profile")
	}
	m.setState(Authenticated(user))
}

// checkAuth turns a credential rejection from any authorized call into a
// session loss.
func (m *Manager) checkAuth(err error) error {
	if client.IsAuthFailure(err) {
		m.log.Info().Err(err).Msg("Credential rejected, ending session")
		m.Logout()
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return err
}

// Usage returns the current period's usage.
func (m *Manager) Usage(ctx context.Context) (*account.Usage, error) {
	usage, err := m.api.Usage(ctx)
	if err != nil {
		return nil, m.checkAuth(err)
	}
	return usage, nil
}

// CompleteOnboarding marks onboarding done and refreshes the cached profile.
func (m *Manager) CompleteOnboarding(ctx context.Context) (*account.Profile, error) {
	user, err := m.api.CompleteOnboarding(ctx)
	if err != nil {
		return nil, m.checkAuth(err)
	}
	m.UpdateUser(user)
	return user, nil
}

// ChangePlan switches the subscription tier and refreshes the cached profile.
func (m *Manager) ChangePlan(ctx context.Context, tier account.Tier) (*account.Profile, error) {
	user, err := m.api.UpdatePlan(ctx, tier)
	if err != nil {
		return nil, m.checkAuth(err)
	}
	m.UpdateUser(user)
	return user, nil
}

// ForgotPassword asks the backend to send a reset email. The outcome is never
// reported back so account existence can't be probed.
func (m *Manager) ForgotPassword(ctx context.Context, email string) {
	if err := m.api.ForgotPassword(ctx, email); err != nil {
		m.log.Debug().Err(err).Msg("Forgot-password request failed")
	}
}

// ResetPassword sets a new password with a reset token. It does not touch the
// current session.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.api.ResetPassword(ctx, token, newPassword)
}

// VerifyEmail confirms an email address. When signed in, the cached profile
// is refreshed so email_verified is current.
func (m *Manager) VerifyEmail(ctx context.Context, token string) (string, error) {
	msg, err := m.api.VerifyEmail(ctx, token)
	if err != nil {
		return "", err
	}

	if m.State().IsAuthenticated() {
		if user, err := m.api.Me(ctx); err == nil {
			m.UpdateUser(user)
		} else if m.checkAuth(err) != nil {
			m.log.Debug().Err(err).Msg("Failed to refresh profile after verification")
		}
	}
	return msg, nil
}
