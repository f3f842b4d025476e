package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"chatctl/internal/api"
	"chatctl/internal/push"
)

// toastRec records notifications instead of rendering them.
type toastRec struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (r *toastRec) Success(msg string) {
	r.mu.Lock()
	r.successes = append(r.successes, msg)
	r.mu.Unlock()
}

func (r *toastRec) Error(msg string) {
	r.mu.Lock()
	r.failures = append(r.failures, msg)
	r.mu.Unlock()
}

func (r *toastRec) lastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.failures) == 0 {
		return ""
	}
	return r.failures[len(r.failures)-1]
}

func (r *toastRec) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

func (r *toastRec) successCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes)
}

// event mirrors the push channel's wire envelope for test servers.
type event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// newPushServer runs a websocket endpoint and exposes accepted server-side
// connections so tests can inject events. The test owns all reads on the
// server side.
func newPushServer(t *testing.T) (string, <-chan *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns
}

func newAPIClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return client
}

// countingDialer dials a real push channel and counts how often it ran.
type countingDialer struct {
	mu    sync.Mutex
	wsURL string
	count int
}

func (d *countingDialer) dial(ctx context.Context, userID string) (*push.Channel, error) {
	d.mu.Lock()
	d.count++
	d.mu.Unlock()
	return push.Dial(ctx, d.wsURL, userID, zerolog.Nop())
}

func (d *countingDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}
