// Package session owns the authentication state of a portal client: who is
// logged in, what role they hold and whether their token is still usable.
//
// All state is kept in a Store so that a new process can pick up a session
// left behind by a previous one. The in-memory identity is only ever set by
// reading it back from the Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shoenig/go-conceal"
)

const defaultTimeout = 15 * time.Second

// LoginResult is what the Auth API hands back for valid credentials
type LoginResult struct {
	Identity Identity
	Token    string
}

// AuthAPI is the remote service sessions are obtained from
type AuthAPI interface {
	LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error)
	LoginSponsor(ctx context.Context, email, password string) (*LoginResult, error)
	LookupAdmin(ctx context.Context, token, id string) error
	LookupSponsor(ctx context.Context, token, id string) error
}

// Manager is the single source of truth for the session of this process
type Manager struct {
	store   Store
	api     AuthAPI
	clock   func() time.Time
	timeout time.Duration
	log     zerolog.Logger

	loggingIn atomic.Bool

	mu      sync.Mutex
	current *Identity
	// loggedOut hides whatever the store still holds after a Logout whose
	// Clear failed. Only a successful login lifts it.
	loggedOut bool
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithTimeout bounds every call made to the Auth API
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger used by the Manager
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// Restore creates a Manager over store, loading the persisted identity if the
// stored session is still authenticated.
func Restore(store Store, api AuthAPI, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:   store,
		api:     api,
		clock:   time.Now,
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	// surface storage that cannot be read at all instead of pretending
	// there is no session
	for _, key := range Keys {
		if _, _, err := store.Get(key); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
	}

	if m.IsAuthenticated() {
		if err := m.reload(); err != nil {
			m.log.Warn().Err(err).Msg("Persisted session is inconsistent, starting anonymous")
		}
	}

	return m, nil
}

// LoginAdmin authenticates an admin account
func (m *Manager) LoginAdmin(ctx context.Context, email, password string) (Identity, error) {
	return m.login(ctx, RoleAdmin, email, password, m.api.LoginAdmin)
}

// LoginSponsor authenticates a sponsor account
func (m *Manager) LoginSponsor(ctx context.Context, email, password string) (Identity, error) {
	return m.login(ctx, RoleSponsor, email, password, m.api.LoginSponsor)
}

type loginFunc func(ctx context.Context, email, password string) (*LoginResult, error)

func (m *Manager) login(ctx context.Context, role Role, email, password string, call loginFunc) (Identity, error) {
	if !m.loggingIn.CompareAndSwap(false, true) {
		return Identity{}, ErrLoginInProgress
	}
	defer m.loggingIn.Store(false)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := call(ctx, email, password)
	if err != nil {
		err = classify(ctx, err)
		m.log.Warn().Err(err).Str("role", role.String()).Str("email", email).Msg("Login failed")
		return Identity{}, err
	}
	if res == nil || res.Token == "" || res.Identity.ID == "" {
		return Identity{}, fmt.Errorf("%w: login response is missing identity or token", ErrAuth)
	}

	id := res.Identity
	id.Role = role
	expiresAt := m.clock().Add(TokenLifetime)

	if err := m.persist(id, res.Token, expiresAt); err != nil {
		m.rollback()
		return Identity{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	m.mu.Lock()
	m.loggedOut = false
	m.mu.Unlock()

	// read back what was written so memory never drifts from the store
	if err := m.reload(); err != nil {
		m.rollback()
		return Identity{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	m.log.Info().
		Str("user_id", id.ID).
		Str("role", role.String()).
		Time("expires_at", expiresAt).
		Msg("Logged in")

	current, _ := m.cached()
	return current, nil
}

func (m *Manager) persist(id Identity, token string, expiresAt time.Time) error {
	blob, err := encodeIdentity(id)
	if err != nil {
		return err
	}
	if err := m.store.Set(KeyIdentity, blob); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	if err := m.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := m.store.Set(KeyTokenExpiry, encodeExpiry(expiresAt)); err != nil {
		return fmt.Errorf("failed to save token expiry: %w", err)
	}
	return nil
}

func (m *Manager) rollback() {
	m.mu.Lock()
	m.current = nil
	m.loggedOut = true
	m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("Failed to roll back partially written session")
	}
}

// reload replaces the cached identity with the one in the store
func (m *Manager) reload() error {
	blob, ok, err := m.store.Get(KeyIdentity)
	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}
	if !ok {
		return fmt.Errorf("no identity stored")
	}
	id, err := decodeIdentity(blob)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = &id
	m.mu.Unlock()
	return nil
}

func (m *Manager) cached() (Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Identity{}, false
	}
	return *m.current, true
}

// Logout forgets the session locally. It never talks to the Auth API and
// the session is gone for this Manager even if the store cannot be cleared.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = nil
	m.loggedOut = true
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("Failed to clear session store")
		return
	}
	m.log.Info().Msg("Logged out")
}

// IsAuthenticated reports whether the stored token exists and has not expired
func (m *Manager) IsAuthenticated() bool {
	s, ok := m.load()
	return ok && s.Valid(m.clock())
}

// load reads the full persisted session. Missing or unreadable parts
// report false.
func (m *Manager) load() (Session, bool) {
	m.mu.Lock()
	loggedOut := m.loggedOut
	m.mu.Unlock()
	if loggedOut {
		return Session{}, false
	}

	rawExpiry, ok, err := m.store.Get(KeyTokenExpiry)
	if err != nil || !ok {
		return Session{}, false
	}
	expiresAt, err := decodeExpiry(rawExpiry)
	if err != nil {
		m.log.Debug().Err(err).Msg("Stored token expiry is not a timestamp")
		return Session{}, false
	}
	token, ok, err := m.store.Get(KeyToken)
	if err != nil || !ok {
		return Session{}, false
	}
	blob, ok, err := m.store.Get(KeyIdentity)
	if err != nil || !ok {
		return Session{}, false
	}
	id, err := decodeIdentity(blob)
	if err != nil {
		m.log.Debug().Err(err).Msg("Stored identity cannot be decoded")
		return Session{}, false
	}

	return Session{
		Identity:  id,
		Token:     conceal.New(token),
		IssuedAt:  expiresAt.Add(-TokenLifetime),
		ExpiresAt: expiresAt,
	}, true
}

// CurrentUser returns the logged in identity. An identity is returned for an
// expired session too; use IsAuthenticated to decide whether it may be used.
func (m *Manager) CurrentUser() (Identity, bool) {
	if id, ok := m.cached(); ok {
		return id, true
	}
	if !m.IsAuthenticated() {
		return Identity{}, false
	}
	if err := m.reload(); err != nil {
		m.log.Warn().Err(err).Msg("Failed to reload identity")
		return Identity{}, false
	}
	return m.cached()
}

// IsAdmin reports whether the current identity is an admin
func (m *Manager) IsAdmin() bool {
	id, ok := m.CurrentUser()
	return ok && id.Role == RoleAdmin
}

// Token returns the bearer token while the session is authenticated
func (m *Manager) Token() (string, bool) {
	s, ok := m.load()
	if !ok || !s.Valid(m.clock()) {
		return "", false
	}
	return s.Token.Unveil(), true
}

// Session returns the persisted session, valid or not
func (m *Manager) Session() (Session, bool) {
	return m.load()
}

// State reports where the Manager is in the session lifecycle
func (m *Manager) State() State {
	if m.loggingIn.Load() {
		return StateAuthenticating
	}
	s, ok := m.load()
	switch {
	case !ok:
		return StateAnonymous
	case s.Valid(m.clock()):
		return StateAuthenticated
	default:
		return StateExpired
	}
}

// ValidateUser asks the Auth API whether userID still resolves for the
// current role. Any doubt is answered with false.
func (m *Manager) ValidateUser(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	s, ok := m.load()
	if !ok || s.Token.Unveil() == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var err error
	if m.IsAdmin() {
		err = m.api.LookupAdmin(ctx, s.Token.Unveil(), userID)
	} else {
		err = m.api.LookupSponsor(ctx, s.Token.Unveil(), userID)
	}
	if err != nil {
		m.log.Debug().Err(classify(ctx, err)).Str("user_id", userID).Msg("User validation denied")
		return false
	}
	return true
}

// classify maps transport failures onto the package error kinds
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrAuth), errors.Is(err, ErrNetwork), errors.Is(err, ErrNetworkTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}
