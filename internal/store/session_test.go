package store

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatctl/internal/api"
)

func authOKHandler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.AuthUser{ID: "u1", Email: "u1@example.com", FullName: "User One"})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	return mux
}

func TestSignInSetsIdentityAndOpensChannel(t *testing.T) {
	wsURL, conns := newPushServer(t)
	dialer := &countingDialer{wsURL: wsURL}
	rec := &toastRec{}
	s := NewSessionStore(newAPIClient(t, authOKHandler(t)), dialer.dial, rec, zerolog.Nop())
	defer s.Dispose()

	err := s.SignIn(context.Background(), api.SignInRequest{Email: "u1@example.com", Password: "pw"})
	require.NoError(t, err)

	identity := s.Identity()
	require.NotNil(t, identity)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, 1, dialer.dials())
	assert.Equal(t, 1, rec.successCount())
	require.NotNil(t, s.Channel())
	assert.True(t, s.Channel().IsOpen())

	<-conns // connection reached the server
	assert.False(t, s.LoggingIn())
}

func TestSignInFailureLeavesNoChannel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	})
	dialer := &countingDialer{}
	rec := &toastRec{}
	s := NewSessionStore(newAPIClient(t, handler), dialer.dial, rec, zerolog.Nop())

	err := s.SignIn(context.Background(), api.SignInRequest{Email: "u1@example.com", Password: "bad"})
	require.Error(t, err)

	assert.Nil(t, s.Identity())
	assert.Nil(t, s.Channel())
	assert.Equal(t, 0, dialer.dials())
	assert.Equal(t, "Invalid credentials", rec.lastError())
	assert.False(t, s.LoggingIn())
}

func TestLogOutClearsStateEvenOnServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.AuthUser{ID: "u1"})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
	})

	wsURL, _ := newPushServer(t)
	dialer := &countingDialer{wsURL: wsURL}
	rec := &toastRec{}
	s := NewSessionStore(newAPIClient(t, mux), dialer.dial, rec, zerolog.Nop())
	defer s.Dispose()

	require.NoError(t, s.SignIn(context.Background(), api.SignInRequest{Email: "u1@example.com", Password: "pw"}))
	ch := s.Channel()
	require.NotNil(t, ch)

	s.LogOut(context.Background())

	assert.Nil(t, s.Identity())
	assert.Nil(t, s.Channel())
	assert.False(t, ch.IsOpen())
	assert.Empty(t, s.OnlineUsers())
	assert.Equal(t, "boom", rec.lastError())
}

func TestOpenChannelIsIdempotent(t *testing.T) {
	wsURL, _ := newPushServer(t)
	dialer := &countingDialer{wsURL: wsURL}
	rec := &toastRec{}
	s := NewSessionStore(newAPIClient(t, authOKHandler(t)), dialer.dial, rec, zerolog.Nop())
	defer s.Dispose()

	require.NoError(t, s.SignIn(context.Background(), api.SignInRequest{Email: "u1@example.com", Password: "pw"}))
	require.Equal(t, 1, dialer.dials())

	s.OpenChannel(context.Background())
	s.OpenChannel(context.Background())
	assert.Equal(t, 1, dialer.dials())
}

func TestOnlineRosterReplacedWholesale(t *testing.T) {
	wsURL, conns := newPushServer(t)
	dialer := &countingDialer{wsURL: wsURL}
	rec := &toastRec{}
	s := NewSessionStore(newAPIClient(t, authOKHandler(t)), dialer.dial, rec, zerolog.Nop())
	defer s.Dispose()

	require.NoError(t, s.SignIn(context.Background(), api.SignInRequest{Email: "u1@example.com", Password: "pw"}))
	server := <-conns

	require.NoError(t, server.WriteJSON(event{Event: "getOnlineUsers", Data: []string{"u2", "u3"}}))
	require.Eventually(t, func() bool {
		return s.IsOnline("u2") && s.IsOnline("u3")
	}, 5*time.Second, 10*time.Millisecond)

	// The next delivery replaces the set, it does not merge.
	require.NoError(t, server.WriteJSON(event{Event: "getOnlineUsers", Data: []string{"u4"}}))
	require.Eventually(t, func() bool {
		return s.IsOnline("u4") && !s.IsOnline("u2") && !s.IsOnline("u3")
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"u4"}, s.OnlineUsers())
}

func TestCheckSessionSilentOnFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	dialer := &countingDialer{}
	rec := &toastRec{}
	s := NewSessionStore(newAPIClient(t, handler), dialer.dial, rec, zerolog.Nop())

	require.True(t, s.CheckingAuth())
	s.CheckSession(context.Background())

	assert.Nil(t, s.Identity())
	assert.False(t, s.CheckingAuth())
	assert.Equal(t, 0, rec.errorCount())
	assert.Equal(t, 0, dialer.dials())
}

func TestUpdateProfileReplacesIdentityWholesale(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.AuthUser{ID: "u1", FullName: "Old Name"})
	})
	mux.HandleFunc("/api/auth/update-profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var upd api.ProfileUpdate
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&upd)) {
			return
		}
		if !assert.NotNil(t, upd.FullName) {
			return
		}
		// Server is authoritative: it returns a canonical profile that
		// differs from the client's request.
		json.NewEncoder(w).Encode(api.AuthUser{ID: "u1", FullName: *upd.FullName, ProfilePic: "https://cdn/avatar.png"})
	})

	wsURL, _ := newPushServer(t)
	dialer := &countingDialer{wsURL: wsURL}
	rec := &toastRec{}
	s := NewSessionStore(newAPIClient(t, mux), dialer.dial, rec, zerolog.Nop())
	defer s.Dispose()

	require.NoError(t, s.SignIn(context.Background(), api.SignInRequest{Email: "u1@example.com", Password: "pw"}))

	name := "New Name"
	require.NoError(t, s.UpdateProfile(context.Background(), api.ProfileUpdate{FullName: &name}))

	identity := s.Identity()
	require.NotNil(t, identity)
	assert.Equal(t, "New Name", identity.FullName)
	assert.Equal(t, "https://cdn/avatar.png", identity.ProfilePic)
	assert.False(t, s.UpdatingProfile())
}
