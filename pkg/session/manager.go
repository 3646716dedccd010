package session

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/gin-blog/pkg/client"
	"github.com/d60-Lab/gin-blog/pkg/domain"
	"github.com/d60-Lab/gin-blog/pkg/logger"
)

// Persisted keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// AuthAPI is the part of the API client the manager drives.
type AuthAPI interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// Manager owns the client-side session: the token, the cached user and their
// persisted copies. It is the only writer of either.
type Manager struct {
	store Store
	api   AuthAPI

	mu    sync.RWMutex
	token string
	user  *domain.User
	quiet bool // Initialize/Logout in flight; 401s are expected and not signalled

	expired chan struct{}
}

// NewManager creates a manager. Call Initialize before reading state.
func NewManager(store Store, api AuthAPI) *Manager {
	return &Manager{store: store, api: api, expired: make(chan struct{}, 1)}
}

// Open wires a manager and an API client to each other: the client reads the
// manager's token and reports every 401 back to it.
func Open(baseURL string, store Store, opts ...client.Option) (*Manager, *client.Client) {
	m := &Manager{store: store, expired: make(chan struct{}, 1)}
	opts = append(opts,
		client.WithTokenSource(m),
		client.WithUnauthorizedHandler(m.Invalidate),
	)
	c := client.New(baseURL, opts...)
	m.api = c
	return m, c
}

// Initialize restores a persisted session and verifies it with the server.
// Any failure leaves the manager unauthenticated with the store cleared.
func (m *Manager) Initialize(ctx context.Context) {
	token, okToken := m.store.Get(KeyToken)
	_, okUser := m.store.Get(KeyUser)
	if !okToken || !okUser || token == "" {
		m.clear()
		return
	}

	m.mu.Lock()
	m.token = token
	m.quiet = true
	m.mu.Unlock()

	user, err := m.api.CurrentUser(ctx)
	m.mu.Lock()
	m.quiet = false
	m.mu.Unlock()
	if err != nil {
		logger.Info("stored session rejected", zap.Error(err))
		m.clear()
		return
	}
	m.set(token, user)
}

// Login authenticates and persists the new session. Errors from the API are
// returned unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	m.set(res.Token, &res.User)
	return nil
}

// Register creates an account and persists the new session.
func (m *Manager) Register(ctx context.Context, req domain.RegisterRequest) error {
	res, err := m.api.Register(ctx, req)
	if err != nil {
		return err
	}
	m.set(res.Token, &res.User)
	return nil
}

// Logout revokes the token on the server if it can, then always clears the
// local session.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.quiet = true
	m.mu.Unlock()

	if err := m.api.Logout(ctx); err != nil {
		logger.Warn("logout request failed", zap.Error(err))
	}

	m.clear()
	m.mu.Lock()
	m.quiet = false
	m.mu.Unlock()
}

// Invalidate drops the session after the server rejected the token and
// signals Expired. It only signals once per session.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	active := m.token != "" && !m.quiet
	m.mu.Unlock()
	if !active {
		return
	}
	m.clear()
	select {
	case m.expired <- struct{}{}:
	default:
	}
}

// Expired receives a value each time the server rejects the session.
func (m *Manager) Expired() <-chan struct{} { return m.expired }

// Token returns the current bearer token, or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the cached user, or nil.
func (m *Manager) User() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Authenticated reports whether a token and user are held.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

func (m *Manager) set(token string, user *domain.User) {
	u := *user
	m.mu.Lock()
	m.token = token
	m.user = &u
	m.mu.Unlock()

	raw, err := json.Marshal(u)
	if err == nil {
		err = m.store.Set(KeyUser, string(raw))
	}
	if err == nil {
		err = m.store.Set(KeyToken, token)
	}
	if err != nil {
		logger.Warn("persist session failed", zap.Error(err))
	}
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	if err := m.store.Delete(KeyToken, KeyUser); err != nil {
		logger.Warn("clear session failed", zap.Error(err))
	}
}
