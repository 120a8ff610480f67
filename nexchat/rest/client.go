// Package rest provides the chat server's REST API: authentication,
// room management, message history and user lookups.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nexchat/nexchat-go/nexchat"
)

// Client provides REST API access to the chat server.
type Client struct {
	baseURL    string
	creds      nexchat.Credentials
	httpClient *http.Client
}

// NewClient creates a REST client for the server's base URL,
// e.g. "http://localhost:8080". creds may be nil for unauthenticated use.
func NewClient(baseURL string, creds nexchat.Credentials) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// Authentication endpoints

// Signup creates a new user account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.post(ctx, "/signup", req, nil)
}

// Login authenticates with existing credentials and returns a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the server to mail a reset link if the user exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	q := url.Values{"email": {strings.TrimSpace(email)}}
	return c.post(ctx, "/auth/forgot-password?"+q.Encode(), nil, nil)
}

// ResetPassword sets a new password using a token from the reset email.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.post(ctx, "/auth/reset-password", req, nil)
}

// ChangePassword changes the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return c.post(ctx, "/user/change-password", req, nil)
}

// Room management endpoints

// CreateRoom creates a room with the chosen id.
func (c *Client) CreateRoom(ctx context.Context, roomID string) error {
	return c.post(ctx, "/rooms", CreateRoomRequest{RoomID: roomID}, nil)
}

// JoinRoom joins an existing room.
func (c *Client) JoinRoom(ctx context.Context, roomID string) error {
	return c.get(ctx, "/rooms/"+url.PathEscape(roomID), nil)
}

// CreateOneToOneRoom creates or returns the direct room with another user.
// The call is idempotent on the server side.
func (c *Client) CreateOneToOneRoom(ctx context.Context, username string) (*OneToOneRoomResponse, error) {
	q := url.Values{"username": {username}}
	var resp OneToOneRoomResponse
	if err := c.post(ctx, "/rooms/one-to-one?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.RoomID == "" {
		return nil, nexchat.NewError(nexchat.ErrorSerialization, "one-to-one room response missing roomId")
	}
	return &resp, nil
}

// Message history

// RoomMessages retrieves a room's stored messages. Implements
// nexchat.HistoryFetcher.
func (c *Client) RoomMessages(ctx context.Context, roomID string) ([]nexchat.ChatEvent, error) {
	var resp []nexchat.ChatEvent
	if err := c.get(ctx, "/rooms/"+url.PathEscape(roomID)+"/messages", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// User endpoints

// UserChats lists the rooms for the sidebar. The endpoint answers either a
// bare array or an object wrapping it in a "rooms" field; both are accepted.
func (c *Client) UserChats(ctx context.Context) ([]RoomPreview, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/user/chats", &raw); err != nil {
		return nil, err
	}

	var rooms []RoomPreview
	if err := json.Unmarshal(raw, &rooms); err == nil {
		return rooms, nil
	}
	var wrapped struct {
		Rooms []RoomPreview `json:"rooms"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Rooms, nil
	}
	return nil, nil
}

// SearchUsers looks up users by name or email fragment. Queries shorter
// than two characters return nothing without a network call.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]UserInfo, error) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < 2 {
		return nil, nil
	}

	q := url.Values{"q": {trimmed}}
	var raw json.RawMessage
	if err := c.get(ctx, "/user/search?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	var users []UserInfo
	if err := json.Unmarshal(raw, &users); err == nil {
		return users, nil
	}
	var wrapped struct {
		Users []UserInfo `json:"users"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Users, nil
	}
	return nil, nil
}

// Helper methods

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)
	return c.do(req, dest)
}

func (c *Client) authorize(req *http.Request) {
	if c.creds == nil {
		return
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nexchat.NewAPIError(resp.StatusCode, body)
	}

	if dest != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
