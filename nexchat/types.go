// Package nexchat implements the client core of a NexChat room session:
// the session lifecycle, message normalization and the per-room
// conversation store, behind injectable transport, history and credential
// contracts.
package nexchat

import "strings"

// MessageType discriminates text messages from file attachments on the wire.
type MessageType string

const (
	MessageText MessageType = "TEXT"
	MessageFile MessageType = "FILE"
)

// SystemSender is the reserved sender name for server-synthesized events.
const SystemSender = "system"

// FileMeta describes an uploaded attachment referenced by a FILE event.
type FileMeta struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	DownloadURL  string `json:"downloadUrl"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

// ChatEvent is the wire shape exchanged on the room topic and returned by the
// message history endpoint. Outgoing messages use the same envelope.
type ChatEvent struct {
	MessageID string      `json:"messageId,omitempty"`
	RoomID    string      `json:"roomId"`
	Sender    string      `json:"sender"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	File      *FileMeta   `json:"file,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

const roomChatPrefix = "room:"

// RoomChatID builds the local conversation id for a server-backed room.
func RoomChatID(roomID string) string {
	return roomChatPrefix + roomID
}

// RoomIDFromChatID extracts the server room id from a conversation id.
// Conversation ids without the room prefix identify purely local chats.
func RoomIDFromChatID(chatID string) (string, bool) {
	if !strings.HasPrefix(chatID, roomChatPrefix) {
		return "", false
	}
	return chatID[len(roomChatPrefix):], true
}

// RoomTopic is the broker topic carrying a room's live events.
func RoomTopic(roomID string) string {
	return "/topic/room/" + roomID
}

// SendDestination is the application destination accepting outgoing messages.
func SendDestination(roomID string) string {
	return "/app/sendMessage/" + roomID
}
