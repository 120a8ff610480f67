package nexchat

import (
	"context"
	"strings"
	"sync"
	"time"
)

// SessionState tracks the lifecycle of the selected room's session.
type SessionState int

const (
	// StateIdle means no room is selected.
	StateIdle SessionState = iota

	// StateConnecting means a transport connection is being negotiated.
	StateConnecting

	// StateOpen means the session is connected and subscribed.
	StateOpen

	// StateClosed means the session ended; selecting a room leaves it.
	StateClosed
)

// String returns the string representation of a SessionState.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionManager owns the at-most-one-open-session invariant. A single
// current-transport slot holds the active room connection; selecting a room
// always releases the previous slot before dialing the next. History fetch
// results and transport callbacks are tagged with the selection epoch they
// were issued under and discarded when the selection has moved on.
type SessionManager struct {
	dialer  RoomDialer
	history HistoryFetcher
	creds   Credentials
	store   *Store
	logger  Logger
	now     func() time.Time

	mu        sync.Mutex
	epoch     uint64
	state     SessionState
	chatID    string
	roomID    string
	transport RoomTransport
}

// SessionOption customizes a SessionManager.
type SessionOption func(*SessionManager)

// WithLogger installs a logger.
func WithLogger(l Logger) SessionOption {
	return func(m *SessionManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSessionClock overrides the time source for system messages and
// outgoing timestamps.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewSessionManager wires a session manager. history may be nil when no
// backlog should be loaded on selection.
func NewSessionManager(dialer RoomDialer, history HistoryFetcher, creds Credentials, store *Store, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		dialer:  dialer,
		history: history,
		creds:   creds,
		store:   store,
		logger:  noopLogger{},
		now:     time.Now,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State reports the current session state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentRoom returns the room id of the selected session, if any.
func (m *SessionManager) CurrentRoom() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID, m.roomID != ""
}

// Select switches the active conversation. Any prior session is closed
// first, then, if chatID maps to a server-backed room, a new transport is
// dialed and the room's history is loaded in the background. Conversation
// ids without a room mapping simply leave the manager idle.
func (m *SessionManager) Select(ctx context.Context, chatID string) {
	m.mu.Lock()
	m.releaseLocked()
	m.epoch++
	epoch := m.epoch
	m.chatID = chatID

	roomID, isRoom := RoomIDFromChatID(chatID)
	if !isRoom || roomID == "" {
		m.roomID = ""
		m.state = StateIdle
		m.mu.Unlock()
		return
	}
	m.roomID = roomID
	m.state = StateConnecting
	token := m.creds.Token()
	m.mu.Unlock()

	m.logger.Debug("session selecting room", map[string]any{"room": roomID})

	if m.history != nil {
		go m.loadHistory(ctx, epoch, chatID, roomID)
	}

	transport, err := m.dialer.DialRoom(ctx, RoomDialArgs{
		RoomID: roomID,
		Token:  token,
		OnConnect: func() {
			m.handleConnect(epoch, roomID)
		},
		OnEvent: func(body []byte) {
			m.handleEvent(epoch, chatID, roomID, body)
		},
		OnError: func(err error) {
			m.handleTransportError(epoch, chatID, err)
		},
	})
	if err != nil {
		m.handleTransportError(epoch, chatID, err)
		return
	}

	m.mu.Lock()
	if m.epoch != epoch || m.state == StateClosed {
		// The selection moved on, or the transport already failed before
		// the handle could be stored; either way it must not survive.
		m.mu.Unlock()
		_ = transport.Close()
		return
	}
	m.transport = transport
	m.mu.Unlock()
}

// Deselect closes the current session and returns to idle.
func (m *SessionManager) Deselect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
	m.epoch++
	m.chatID = ""
	m.roomID = ""
	m.state = StateIdle
}

// Close tears the manager down. Idempotent and safe mid-connect; the owning
// caller must always invoke it when disposing the view.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
	m.epoch++
	m.state = StateClosed
}

// Send publishes text to the selected room. Outside the open state the
// content is dropped and a local system notice is appended instead; nothing
// is queued. Blank input is ignored.
func (m *SessionManager) Send(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	m.mu.Lock()
	state := m.state
	chatID := m.chatID
	roomID := m.roomID
	transport := m.transport
	m.mu.Unlock()

	if chatID == "" || roomID == "" {
		return
	}
	if state != StateOpen || transport == nil || !transport.IsOpen() {
		m.store.Append(chatID, NewSystemMessage(chatID,
			"Not connected to the room yet. Please wait a moment and try again.", m.now()))
		return
	}

	sender := m.creds.Username()
	if sender == "" {
		sender = "anonymous"
	}
	ev := ChatEvent{
		RoomID:    roomID,
		Sender:    sender,
		Content:   text,
		Type:      MessageText,
		Timestamp: m.now().UTC().Format(time.RFC3339),
	}
	if err := transport.Send(ctx, SendDestination(roomID), ev); err != nil {
		m.logger.Warn("send failed", map[string]any{"room": roomID, "error": err.Error()})
		m.store.Append(chatID, NewSystemMessage(chatID, "Failed to send message: "+UserMessage(err), m.now()))
	}
}

// releaseLocked empties the current-transport slot. Closing is idempotent
// at the transport layer, so this is safe whatever state the handle is in.
func (m *SessionManager) releaseLocked() {
	if m.transport != nil {
		_ = m.transport.Close()
		m.transport = nil
	}
	if m.state == StateConnecting || m.state == StateOpen {
		m.state = StateClosed
	}
}

func (m *SessionManager) loadHistory(ctx context.Context, epoch uint64, chatID, roomID string) {
	events, err := m.history.RoomMessages(ctx, roomID)
	if m.stale(epoch) {
		return
	}
	if err != nil {
		m.store.Append(chatID, NewSystemMessage(chatID, "Failed to load messages: "+UserMessage(err), m.now()))
		return
	}
	msgs := m.normalizer().Normalize(chatID, roomID, events)
	m.store.Append(chatID, msgs...)
}

func (m *SessionManager) handleConnect(epoch uint64, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.state != StateConnecting {
		return
	}
	m.state = StateOpen
	m.logger.Debug("session open", map[string]any{"room": roomID})
}

func (m *SessionManager) handleEvent(epoch uint64, chatID, roomID string, body []byte) {
	if m.stale(epoch) {
		return
	}
	msgs := m.normalizer().NormalizeWire(chatID, roomID, body)
	m.store.Append(chatID, msgs...)
}

func (m *SessionManager) handleTransportError(epoch uint64, chatID string, err error) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.releaseLocked()
	m.state = StateClosed
	m.mu.Unlock()

	m.logger.Warn("session transport error", map[string]any{"chat": chatID, "error": err.Error()})
	m.store.Append(chatID, NewSystemMessage(chatID, "WebSocket error: "+UserMessage(err), m.now()))
}

func (m *SessionManager) stale(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch != epoch
}

func (m *SessionManager) normalizer() *Normalizer {
	return NewNormalizer(m.creds.Username(), WithClock(m.now))
}
