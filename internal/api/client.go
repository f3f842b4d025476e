package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Error is a non-2xx response from the API. Message carries the
// server-provided text when the body could be decoded.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client talks to the chat HTTP API. The session cookie set by
// signin/signup lives in the jar and rides every subsequent request.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates an API client for the given base URL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		log: logger.With().Str("component", "api").Logger(),
	}, nil
}

// Check queries the current session.
func (c *Client) Check(ctx context.Context) (*AuthUser, error) {
	var user AuthUser
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/check", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignUp registers a new account and opens a session.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthUser, error) {
	var user AuthUser
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignIn authenticates and opens a session.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*AuthUser, error) {
	var user AuthUser
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LogOut invalidates the server session.
func (c *Client) LogOut(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// UpdateProfile submits a partial profile update and returns the server's
// canonical profile.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*AuthUser, error) {
	var user AuthUser
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/update-profile", upd, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Contacts fetches the list of users available for messaging.
func (c *Client) Contacts(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// History fetches the ordered message list exchanged with a contact.
func (c *Client) History(ctx context.Context, contactID string) ([]Message, error) {
	var messages []Message
	path := "/api/messages/" + url.PathEscape(contactID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage posts a message to a contact as a multipart form. The image,
// if present, is sent as a binary file part.
func (c *Client) SendMessage(ctx context.Context, contactID, text string, image []byte, imageName string) (*Message, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("text", text); err != nil {
		return nil, err
	}

	if len(image) > 0 {
		name := imageName
		if name == "" {
			name = "image"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
		header.Set("Content-Type", http.DetectContentType(image))
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(image); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	path := "/api/messages/send/" + url.PathEscape(contactID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var msg Message
	if err := c.do(req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		c.log.Debug().Int("status", resp.StatusCode).Str("path", req.URL.Path).Str("message", apiErr.Message).Msg("api error")
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError extracts the server-provided message from an error body.
// The backend uses both {"message": ...} and {"error": ...} shapes.
func decodeError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	if body.Message != "" {
		apiErr.Message = body.Message
	} else if body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
