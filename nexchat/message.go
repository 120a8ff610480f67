package nexchat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Origin classifies who a message is rendered as coming from.
type Origin string

const (
	OriginMe     Origin = "me"
	OriginOther  Origin = "other"
	OriginSystem Origin = "system"
)

// IDKind tags the provenance of a message identity.
type IDKind int

const (
	// IDServer wraps a server-assigned message id.
	IDServer IDKind = iota

	// IDSynthesized is derived from room id and timestamp when the server
	// did not assign an id.
	IDSynthesized

	// IDSystem identifies a locally generated system notice.
	IDSystem
)

// MessageID is the deduplication identity of a message. Construct it with
// ServerID, SynthesizedID or SystemID; the zero value is not a valid id.
type MessageID struct {
	kind   IDKind
	server string
	room   string
	ts     int64
	nonce  string
}

// ServerID wraps a server-assigned message identifier.
func ServerID(id string) MessageID {
	return MessageID{kind: IDServer, server: id}
}

// SynthesizedID derives an identity for events the server left unidentified.
// Distinct events in the same room with the same millisecond timestamp
// collide; that matches the upstream contract and is accepted.
func SynthesizedID(roomID string, createdAt int64) MessageID {
	return MessageID{kind: IDSynthesized, room: roomID, ts: createdAt}
}

// SystemID mints a unique identity for a locally synthesized system message.
func SystemID() MessageID {
	return MessageID{kind: IDSystem, nonce: uuid.NewString()}
}

// Kind reports the identity's provenance.
func (id MessageID) Kind() IDKind { return id.kind }

// Key renders the identity as the string used for deduplication.
func (id MessageID) Key() string {
	switch id.kind {
	case IDSynthesized:
		return fmt.Sprintf("srv:%s:%d", id.room, id.ts)
	case IDSystem:
		return "sys:" + id.nonce
	default:
		return "srv:" + id.server
	}
}

// IsZero reports whether the id was never assigned.
func (id MessageID) IsZero() bool {
	return id == MessageID{}
}

// Attachment is the display-ready view of a file event.
type Attachment struct {
	Name        string
	Size        int64
	DownloadURL string
	MimeType    string
}

// Message is the normalized, display-ready form of a chat event.
type Message struct {
	ID         MessageID
	ChatID     string
	From       Origin
	Sender     string
	Text       string
	Attachment *Attachment
	CreatedAt  int64 // epoch milliseconds
}

// NewSystemMessage builds a locally synthesized system notice for a chat.
func NewSystemMessage(chatID, text string, at time.Time) Message {
	return Message{
		ID:        SystemID(),
		ChatID:    chatID,
		From:      OriginSystem,
		Text:      text,
		CreatedAt: at.UnixMilli(),
	}
}
