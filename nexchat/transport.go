package nexchat

import "context"

// RoomDialArgs carries everything needed to open a room-scoped connection.
type RoomDialArgs struct {
	// RoomID selects the room; the transport subscribes its topic after
	// the connection is negotiated.
	RoomID string

	// Topic overrides the subscribed topic. Empty means RoomTopic(RoomID).
	Topic string

	// Token is the bearer credential sent as a connection header. Empty
	// means connect unauthenticated; the server decides authorization.
	Token string

	// OnConnect fires once when negotiation and subscription complete.
	OnConnect func()

	// OnEvent receives each inbound frame body in arrival order. A
	// transport never invokes OnEvent concurrently for the same handle.
	OnEvent func(body []byte)

	// OnError fires at most once per connection with the failure that
	// ended it. Transports do not retry; policy belongs to the caller.
	OnError func(err error)
}

// RoomTransport is an open (or opening) connection bound to one room.
type RoomTransport interface {
	// Send serializes payload and forwards it to destination. It is
	// fire-and-forget: no acknowledgment is awaited.
	Send(ctx context.Context, destination string, payload any) error

	// IsOpen reports whether negotiation completed and the connection
	// has not been closed.
	IsOpen() bool

	// Close releases the connection. It is idempotent and safe to call
	// on a handle that never finished connecting.
	Close() error
}

// RoomDialer opens room-scoped transport connections. Negotiation is
// asynchronous: DialRoom returns a handle immediately and the outcome is
// reported through the args callbacks. When DialRoom itself returns an
// error, no callback fires for that attempt.
type RoomDialer interface {
	DialRoom(ctx context.Context, args RoomDialArgs) (RoomTransport, error)
}

// HistoryFetcher retrieves a room's stored messages. Implemented by the
// REST client; injected into the session manager.
type HistoryFetcher interface {
	RoomMessages(ctx context.Context, roomID string) ([]ChatEvent, error)
}

// Credentials is a synchronous, side-effect-free source of the bearer token
// and current username. Injected rather than read from ambient state so
// tests can simulate multiple users.
type Credentials interface {
	Token() string
	Username() string
}

// StaticCredentials is a fixed Credentials value.
type StaticCredentials struct {
	AuthToken string
	User      string
}

func (c StaticCredentials) Token() string    { return c.AuthToken }
func (c StaticCredentials) Username() string { return c.User }
