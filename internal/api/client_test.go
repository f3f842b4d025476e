package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return client, srv
}

func TestSignInCarriesSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req SignInRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "u1@example.com", req.Email)
		http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "session-token"})
		json.NewEncoder(w).Encode(AuthUser{ID: "u1", Email: req.Email, FullName: "User One"})
	})
	mux.HandleFunc("/api/auth/check", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("jwt")
		if err != nil || cookie.Value != "session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
			return
		}
		json.NewEncoder(w).Encode(AuthUser{ID: "u1", Email: "u1@example.com"})
	})

	client, _ := newTestClient(t, mux)

	user, err := client.SignIn(context.Background(), SignInRequest{Email: "u1@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	// The jar must replay the session cookie on subsequent calls.
	checked, err := client.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", checked.ID)
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Invalid credentials"}`, "Invalid credentials"},
		{"error field", `{"error":"No such user"}`, "No such user"},
		{"undecodable body", `<html>nope</html>`, "request failed with status 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, tt.body)
			}))

			_, err := client.Check(context.Background())
			require.Error(t, err)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Error())
		})
	}
}

func TestHistoryPath(t *testing.T) {
	paths := make(chan string, 1)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		json.NewEncoder(w).Encode([]Message{{ID: "m1", SenderID: "u1", ReceiverID: "u2", Text: "hey"}})
	}))

	messages, err := client.History(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "/api/messages/u2", <-paths)
	require.Len(t, messages, 1)
	assert.Equal(t, "hey", messages[0].Text)
}

func TestSendMessageMultipart(t *testing.T) {
	// Minimal valid PNG header so content sniffing yields image/png.
	pngBytes := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	paths := make(chan string, 1)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "hi", r.FormValue("text"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "pic.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, pngBytes, data)

		json.NewEncoder(w).Encode(Message{ID: "m9", SenderID: "u1", ReceiverID: "u2", Text: "hi", Image: "https://cdn/pic.png"})
	}))

	msg, err := client.SendMessage(context.Background(), "u2", "hi", pngBytes, "pic.png")
	require.NoError(t, err)
	assert.Equal(t, "/api/messages/send/u2", <-paths)
	assert.Equal(t, "m9", msg.ID)
	assert.Equal(t, "https://cdn/pic.png", msg.Image)
}

func TestSendMessageTextOnlyHasNoFilePart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "just text", r.FormValue("text"))
		_, _, err := r.FormFile("file")
		assert.Error(t, err)
		json.NewEncoder(w).Encode(Message{ID: "m1", Text: "just text"})
	}))

	msg, err := client.SendMessage(context.Background(), "u2", "just text", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
}
