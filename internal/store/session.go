package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"chatctl/internal/api"
	"chatctl/internal/push"
)

// Dialer opens a push channel for the given user id.
type Dialer func(ctx context.Context, userID string) (*push.Channel, error)

// SessionStore holds the authenticated identity and owns the push channel
// tied to it. All network failures are converted to notifications and never
// propagate to the UI as panics or lost state.
type SessionStore struct {
	api    *api.Client
	dial   Dialer
	notify Notifier
	log    zerolog.Logger

	mu              sync.RWMutex
	authUser        *api.AuthUser
	checkingAuth    bool
	signingUp       bool
	loggingIn       bool
	updatingProfile bool
	onlineUsers     []string
	channel         *push.Channel

	listeners []func()
}

// NewSessionStore creates a session store. CheckingAuth starts true so the
// UI shows the splash until the first session probe resolves.
func NewSessionStore(client *api.Client, dial Dialer, notify Notifier, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		api:          client,
		dial:         dial,
		notify:       notify,
		log:          logger.With().Str("component", "session").Logger(),
		checkingAuth: true,
	}
}

// OnChange registers a hook invoked after every state commit.
func (s *SessionStore) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *SessionStore) changed() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// CheckSession probes for an existing valid session. A failed probe is not
// an error worth a toast; it just means the user has to sign in.
func (s *SessionStore) CheckSession(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.checkingAuth = false
		s.mu.Unlock()
		s.changed()
	}()

	user, err := s.api.Check(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("session check failed")
		s.mu.Lock()
		s.authUser = nil
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.authUser = user
	s.mu.Unlock()
	s.OpenChannel(ctx)
}

// SignUp registers a new account. On success the identity is set and the
// push channel opened; a failed signup leaves no channel behind.
func (s *SessionStore) SignUp(ctx context.Context, req api.SignUpRequest) error {
	s.setFlag(&s.signingUp, true)
	defer s.setFlag(&s.signingUp, false)

	user, err := s.api.SignUp(ctx, req)
	if err != nil {
		s.notify.Error(errMessage(err, "Signup failed"))
		return err
	}

	s.mu.Lock()
	s.authUser = user
	s.mu.Unlock()
	s.notify.Success("Account created successfully")
	s.OpenChannel(ctx)
	s.changed()
	return nil
}

// SignIn authenticates with existing credentials.
func (s *SessionStore) SignIn(ctx context.Context, req api.SignInRequest) error {
	s.setFlag(&s.loggingIn, true)
	defer s.setFlag(&s.loggingIn, false)

	user, err := s.api.SignIn(ctx, req)
	if err != nil {
		s.notify.Error(errMessage(err, "Login failed"))
		return err
	}

	s.mu.Lock()
	s.authUser = user
	s.mu.Unlock()
	s.notify.Success("Logged in successfully")
	s.OpenChannel(ctx)
	s.changed()
	return nil
}

// LogOut invalidates the server session. Local state is cleared and the
// channel closed even when the server call fails, so the UI can never get
// stuck authenticated.
func (s *SessionStore) LogOut(ctx context.Context) {
	err := s.api.LogOut(ctx)

	s.mu.Lock()
	s.authUser = nil
	s.onlineUsers = nil
	s.mu.Unlock()
	s.CloseChannel()

	if err != nil {
		s.notify.Error(errMessage(err, "Logout failed"))
	} else {
		s.notify.Success("Logged out successfully")
	}
	s.changed()
}

// UpdateProfile submits a partial update. The identity is replaced wholesale
// with the server's canonical profile, never merged client-side.
func (s *SessionStore) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) error {
	s.setFlag(&s.updatingProfile, true)
	defer s.setFlag(&s.updatingProfile, false)

	user, err := s.api.UpdateProfile(ctx, upd)
	if err != nil {
		s.notify.Error(errMessage(err, "Profile update failed"))
		return err
	}

	s.mu.Lock()
	s.authUser = user
	s.mu.Unlock()
	s.notify.Success("Profile updated successfully")
	s.changed()
	return nil
}

// OpenChannel opens the push channel for the current identity. A no-op when
// a live channel already exists for that identity.
func (s *SessionStore) OpenChannel(ctx context.Context) {
	s.mu.RLock()
	user := s.authUser
	ch := s.channel
	s.mu.RUnlock()

	if user == nil {
		return
	}
	if ch != nil && ch.IsOpen() && ch.UserID() == user.ID {
		return
	}
	if ch != nil {
		ch.Close()
	}

	channel, err := s.dial(ctx, user.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("push channel dial failed")
		return
	}

	// Online roster is replaced wholesale on each delivery.
	channel.On(push.EventOnlineUsers, func(data json.RawMessage) {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			s.log.Debug().Err(err).Msg("malformed online roster")
			return
		}
		s.mu.Lock()
		s.onlineUsers = ids
		s.mu.Unlock()
		s.changed()
	})

	s.mu.Lock()
	s.channel = channel
	s.mu.Unlock()
}

// CloseChannel closes the push channel if one is open.
func (s *SessionStore) CloseChannel() {
	s.mu.Lock()
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()
	if ch != nil {
		ch.Close()
	}
}

// Dispose releases the store's resources.
func (s *SessionStore) Dispose() {
	s.CloseChannel()
}

// Identity returns the authenticated user, or nil.
func (s *SessionStore) Identity() *api.AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.authUser == nil {
		return nil
	}
	user := *s.authUser
	return &user
}

// Channel returns the open push channel, or nil.
func (s *SessionStore) Channel() *push.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// OnlineUsers returns the ids last broadcast by the server.
func (s *SessionStore) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.onlineUsers))
	copy(ids, s.onlineUsers)
	return ids
}

// IsOnline reports whether the given user id is in the online roster.
func (s *SessionStore) IsOnline(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, online := range s.onlineUsers {
		if online == id {
			return true
		}
	}
	return false
}

func (s *SessionStore) CheckingAuth() bool    { return s.flag(&s.checkingAuth) }
func (s *SessionStore) SigningUp() bool       { return s.flag(&s.signingUp) }
func (s *SessionStore) LoggingIn() bool       { return s.flag(&s.loggingIn) }
func (s *SessionStore) UpdatingProfile() bool { return s.flag(&s.updatingProfile) }

func (s *SessionStore) flag(p *bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *p
}

func (s *SessionStore) setFlag(p *bool, v bool) {
	s.mu.Lock()
	*p = v
	s.mu.Unlock()
	s.changed()
}

// errMessage prefers the server-provided message, falling back to a generic
// one for transport-level failures.
func errMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
