package nexchat

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Normalizer converts wire-format chat events into display-ready messages.
// It is safe for concurrent use; all methods are read-only on the receiver.
type Normalizer struct {
	currentUser string
	now         func() time.Time
}

// NormalizerOption customizes a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock overrides the time source used for missing timestamps.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNormalizer constructs a normalizer resolving senders against currentUser.
// An empty currentUser classifies every non-system sender as "other".
func NewNormalizer(currentUser string, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{currentUser: currentUser, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps events into messages for chatID, sorted ascending by
// CreatedAt. The sort is stable: ties keep input order.
func (n *Normalizer) Normalize(chatID, roomID string, events []ChatEvent) []Message {
	out := make([]Message, 0, len(events))
	for _, ev := range events {
		out = append(out, n.normalizeOne(chatID, roomID, ev))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

// NormalizeWire parses one raw topic frame body and normalizes it. A body
// that is not a JSON object yields a single system message instead of an
// error; the live-event path must never fail on a bad frame.
func (n *Normalizer) NormalizeWire(chatID, roomID string, body []byte) []Message {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return []Message{NewSystemMessage(chatID, "Received an invalid message payload.", n.now())}
	}
	var ev ChatEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return []Message{NewSystemMessage(chatID, "Received an invalid message payload.", n.now())}
	}
	return n.Normalize(chatID, roomID, []ChatEvent{ev})
}

func (n *Normalizer) normalizeOne(chatID, roomID string, ev ChatEvent) Message {
	createdAt := n.parseTimestamp(ev.Timestamp)

	var id MessageID
	if ev.MessageID != "" {
		id = ServerID(ev.MessageID)
	} else {
		id = SynthesizedID(roomID, createdAt)
	}

	msg := Message{
		ID:        id,
		ChatID:    chatID,
		From:      n.resolveOrigin(ev.Sender),
		Sender:    ev.Sender,
		CreatedAt: createdAt,
	}
	if text := strings.TrimSpace(ev.Content); text != "" {
		msg.Text = ev.Content
	}
	if ev.Type == MessageFile && ev.File != nil {
		name := ev.File.OriginalName
		if name == "" {
			name = ev.File.StoredName
		}
		if name == "" {
			name = "Attachment"
		}
		msg.Attachment = &Attachment{
			Name:        name,
			Size:        ev.File.Size,
			DownloadURL: ev.File.DownloadURL,
			MimeType:    ev.File.MimeType,
		}
	}
	return msg
}

func (n *Normalizer) resolveOrigin(sender string) Origin {
	if sender == "" {
		return OriginOther
	}
	normalized := strings.ToLower(strings.TrimSpace(sender))
	if normalized == SystemSender {
		return OriginSystem
	}
	current := strings.ToLower(strings.TrimSpace(n.currentUser))
	if current != "" && normalized == current {
		return OriginMe
	}
	return OriginOther
}

// parseTimestamp accepts RFC 3339 as well as zone-less local date-times as
// emitted by the backend. Unparseable or missing values fall back to the
// normalizer's clock; availability wins over fidelity here.
func (n *Normalizer) parseTimestamp(s string) int64 {
	if s == "" {
		return n.now().UnixMilli()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli()
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local); err == nil {
		return t.UnixMilli()
	}
	return n.now().UnixMilli()
}
