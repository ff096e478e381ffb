package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/campusmarket-client/pkg/auth"
	"github.com/angelmondragon/campusmarket-client/pkg/kv"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

// Storage keys for the identity pair.
const (
	TokenKey   = "auth_token"
	ProfileKey = "auth_user"
)

// Profile is the minimal user record returned by the identity provider.
type Profile struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	Campus      *string `json:"campus,omitempty"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool {
	return strings.EqualFold(p.Role, "admin")
}

// Identity is the token/profile pair issued by the backend.
type Identity struct {
	Token   string
	Profile Profile
}

// Manager holds the current identity and mirrors it to durable storage.
type Manager struct {
	store kv.Store
	logg  *logger.Logger
	now   func() time.Time

	mu       sync.RWMutex
	token    string
	profile  *Profile
	onChange []func(authenticated bool)
}

// NewManager constructs a session manager backed by the durable store.
func NewManager(store kv.Store, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{store: store, logg: logg, now: time.Now}, nil
}

// Load hydrates the identity from storage. Corrupt profiles and expired JWTs are discarded.
func (m *Manager) Load(ctx context.Context) error {
	token, hasToken, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	rawProfile, hasProfile, err := m.store.Get(ctx, ProfileKey)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	var profile *Profile
	if hasProfile {
		var p Profile
		if err := json.Unmarshal([]byte(rawProfile), &p); err != nil {
			m.logg.Warn(ctx, "session.profile.corrupt")
		} else {
			profile = &p
		}
	}

	if hasToken && auth.IsExpired(token, m.now()) {
		m.logg.Info(ctx, "session.token.expired")
		return m.Clear(ctx)
	}

	m.mu.Lock()
	if hasToken {
		m.token = token
	}
	m.profile = profile
	m.mu.Unlock()
	return nil
}

// Set stores a freshly issued identity.
func (m *Manager) Set(ctx context.Context, identity Identity) error {
	if strings.TrimSpace(identity.Token) == "" {
		return fmt.Errorf("token is required")
	}
	payload, err := json.Marshal(identity.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := kv.SetMany(ctx, m.store, map[string]string{
		TokenKey:   identity.Token,
		ProfileKey: string(payload),
	}); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}

	profile := identity.Profile
	m.mu.Lock()
	m.token = identity.Token
	m.profile = &profile
	listeners := append([]func(bool){}, m.onChange...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(true)
	}
	return nil
}

// UpdateProfile replaces the stored profile and keeps the token.
func (m *Manager) UpdateProfile(ctx context.Context, profile Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := m.store.Set(ctx, ProfileKey, string(payload)); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	m.mu.Lock()
	m.profile = &profile
	m.mu.Unlock()
	return nil
}

// Clear drops the token and profile from memory and storage.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.profile = nil
	listeners := append([]func(bool){}, m.onChange...)
	m.mu.Unlock()

	var firstErr error
	for _, key := range []string{TokenKey, ProfileKey} {
		if err := m.store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", key, err)
		}
	}
	for _, fn := range listeners {
		fn(false)
	}
	return firstErr
}

// OnChange registers a callback fired after the identity is set or cleared.
func (m *Manager) OnChange(fn func(authenticated bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Profile returns a copy of the current profile.
func (m *Manager) Profile() (Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return Profile{}, false
	}
	return *m.profile, true
}

func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}
