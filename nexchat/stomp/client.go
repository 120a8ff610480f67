package stomp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/nexchat/nexchat-go/nexchat"
)

// Config controls how the dialer connects.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "ws://localhost:8080/chat".
	URL string

	// Host overrides the STOMP host header. Empty means the URL's host.
	Host string

	// HandshakeTimeout bounds the WebSocket dial. 0 disables it.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each frame write. 0 disables it.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Dialer opens STOMP-over-WebSocket room transports. It implements
// nexchat.RoomDialer.
type Dialer struct {
	cfg    Config
	logger nexchat.Logger
}

// NewDialer constructs a dialer with the provided config.
// Use DefaultConfig() as a starting point and modify as needed.
func NewDialer(cfg Config) *Dialer {
	return &Dialer{cfg: cfg, logger: nexchat.NopLogger()}
}

// SetLogger overrides the logger (optional).
func (d *Dialer) SetLogger(l nexchat.Logger) {
	if l != nil {
		d.logger = l
	}
}

// DialRoom opens one connection for the room and returns its handle
// immediately. Negotiation continues in the background: OnConnect fires once
// the CONNECTED frame arrives and the topic subscription is placed, OnError
// at most once with whatever ended the connection.
func (d *Dialer) DialRoom(ctx context.Context, args nexchat.RoomDialArgs) (nexchat.RoomTransport, error) {
	if d.cfg.URL == "" {
		return nil, nexchat.NewError(nexchat.ErrorInvalidConfig, "empty socket URL")
	}
	u, err := url.Parse(d.cfg.URL)
	if err != nil {
		return nil, nexchat.WrapError(nexchat.ErrorInvalidConfig, "invalid socket URL", err)
	}
	topic := args.Topic
	if topic == "" {
		topic = nexchat.RoomTopic(args.RoomID)
	}
	host := d.cfg.Host
	if host == "" {
		host = u.Host
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &roomConn{
		cfg:    d.cfg,
		args:   args,
		url:    u.String(),
		topic:  topic,
		host:   host,
		logger: d.logger,
		cancel: cancel,
	}
	go c.run(runCtx)
	return c, nil
}

// roomConn is one room-scoped STOMP connection. A single reader goroutine
// owns all inbound frames, so event callbacks are never re-entered.
type roomConn struct {
	cfg    Config
	args   nexchat.RoomDialArgs
	url    string
	topic  string
	host   string
	logger nexchat.Logger
	cancel context.CancelFunc

	writeMu sync.Mutex

	mu     sync.Mutex
	ws     *websocket.Conn
	open   bool
	closed bool

	errOnce sync.Once
}

func (c *roomConn) run(ctx context.Context) {
	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		c.fail(nexchat.WrapError(nexchat.ErrorConnection, "websocket dial failed", err))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ws.Close(websocket.StatusNormalClosure, "superseded")
		return
	}
	c.ws = ws
	c.mu.Unlock()

	connect := NewFrame(CommandConnect,
		HeaderAcceptVersion, "1.2",
		HeaderHost, c.host,
		HeaderHeartBeat, "0,0",
	)
	if c.args.Token != "" {
		connect.Header[HeaderAuthorization] = "Bearer " + c.args.Token
	}
	if err := c.write(ctx, connect); err != nil {
		c.fail(nexchat.WrapError(nexchat.ErrorConnection, "connect frame write failed", err))
		c.teardown(websocket.StatusInternalError, "handshake error")
		return
	}

	c.readLoop(ctx, ws)
}

func (c *roomConn) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if c.isExpectedDisconnect(ctx, err) {
				return
			}
			c.logger.Warn("read loop exit", map[string]any{"room": c.args.RoomID, "error": err.Error()})
			c.fail(nexchat.WrapError(nexchat.ErrorDisconnected, "connection lost", err))
			return
		}

		frame, err := Unmarshal(data)
		if errors.Is(err, ErrHeartBeat) {
			continue
		}
		if err != nil {
			c.logger.Warn("dropping malformed frame", map[string]any{"error": err.Error()})
			continue
		}

		switch frame.Command {
		case CommandConnected:
			sub := NewFrame(CommandSubscribe,
				HeaderID, "sub-0",
				HeaderDestination, c.topic,
				HeaderAck, "auto",
			)
			if err := c.write(ctx, sub); err != nil {
				c.fail(nexchat.WrapError(nexchat.ErrorConnection, "subscribe failed", err))
				c.teardown(websocket.StatusInternalError, "subscribe error")
				return
			}
			c.mu.Lock()
			c.open = true
			c.mu.Unlock()
			c.logger.Debug("stomp connected", map[string]any{"room": c.args.RoomID, "topic": c.topic})
			if c.args.OnConnect != nil {
				c.args.OnConnect()
			}
		case CommandMessage:
			if c.args.OnEvent != nil {
				c.args.OnEvent(frame.Body)
			}
		case CommandError:
			msg := frame.Header[HeaderMessage]
			if msg == "" {
				msg = string(frame.Body)
			}
			c.fail(nexchat.NewError(nexchat.ErrorProtocol, msg))
			c.teardown(websocket.StatusNormalClosure, "server error")
			return
		case CommandReceipt:
			// No receipts are requested; tolerate brokers sending them.
		default:
			c.logger.Debug("ignoring frame", map[string]any{"command": frame.Command})
		}
	}
}

// Send publishes a JSON payload to a destination. Fire-and-forget: no
// receipt is requested and none is awaited.
func (c *roomConn) Send(ctx context.Context, destination string, payload any) error {
	c.mu.Lock()
	ready := c.open && !c.closed && c.ws != nil
	c.mu.Unlock()
	if !ready {
		return nexchat.NewError(nexchat.ErrorNotConnected, "room connection is not open")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nexchat.WrapError(nexchat.ErrorSerialization, "marshal payload", err)
	}
	f := NewFrame(CommandSend,
		HeaderDestination, destination,
		HeaderContentType, "application/json",
		HeaderContentLength, strconv.Itoa(len(body)),
	)
	f.Body = body
	return c.write(ctx, f)
}

// IsOpen reports whether negotiation completed and Close was not called.
func (c *roomConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open && !c.closed
}

// Close sends DISCONNECT when possible and releases the socket. Idempotent;
// closing a handle that never finished connecting is a no-op beyond
// cancelling the attempt.
func (c *roomConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	wasOpen := c.open
	c.open = false
	ws := c.ws
	c.mu.Unlock()

	if ws != nil && wasOpen {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = c.write(ctx, NewFrame(CommandDisconnect))
		cancel()
	}
	c.cancel()
	if ws != nil {
		_ = ws.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

func (c *roomConn) write(ctx context.Context, f *Frame) error {
	if c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return nexchat.NewError(nexchat.ErrorNotConnected, "no socket")
	}
	return ws.Write(ctx, websocket.MessageText, f.Marshal())
}

// fail reports the connection's terminal error, at most once per attempt.
func (c *roomConn) fail(err error) {
	c.mu.Lock()
	c.open = false
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.errOnce.Do(func() {
		if c.args.OnError != nil {
			c.args.OnError(err)
		}
	})
}

func (c *roomConn) teardown(code websocket.StatusCode, reason string) {
	c.mu.Lock()
	c.open = false
	ws := c.ws
	c.mu.Unlock()
	if ws != nil {
		_ = ws.Close(code, reason)
	}
}

func (c *roomConn) isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return true
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
