package rest

import "github.com/nexchat/nexchat-go/nexchat"

// Authentication types

// SignupRequest is the request body for user registration. The server
// expects the "userName" spelling.
type SignupRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// TokenResponse contains the bearer token returned after a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// ResetPasswordRequest sets a new password using the token from the reset
// email link.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest is the request body for an authenticated password
// change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Room types

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	RoomID string `json:"roomId"`
}

// OneToOneRoomResponse identifies the direct room shared with another user.
type OneToOneRoomResponse struct {
	RoomID string `json:"roomId"`
}

// RoomPreview is one sidebar entry from the user-chats listing.
type RoomPreview struct {
	ID            string             `json:"id,omitempty"`
	RoomID        string             `json:"roomId"`
	Name          string             `json:"name,omitempty"`
	LastMessage   string             `json:"lastMessage,omitempty"`
	LastMessageAt string             `json:"lastMessageAt,omitempty"`
	UpdatedAt     string             `json:"updatedAt,omitempty"`
	UnreadCount   int                `json:"unreadCount,omitempty"`
	Usernames     []string           `json:"usernames,omitempty"`
	OneToOne      bool               `json:"oneToOneRoom,omitempty"`
	Messages      []nexchat.ChatEvent `json:"messages,omitempty"`
}

// User types

// UserInfo is one user-search result.
type UserInfo struct {
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}
