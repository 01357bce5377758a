package hub

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Sink delivers serialized payloads to one client. Implementations must be
// bounded: a Send that can hang forever stalls every broadcast pass.
type Sink interface {
	Send(payload []byte) error
	Close() error
}

// Conn is the handle for one live client connection. It owns the transport
// sink and a close guard; subscription bookkeeping lives in the Registry so
// removal during broadcast iteration never touches transport state.
type Conn struct {
	id     string
	sink   Sink
	closed atomic.Bool
}

// NewConn wraps a transport sink in a connection handle.
func NewConn(sink Sink) *Conn {
	return &Conn{id: uuid.NewString(), sink: sink}
}

// ID returns the handle's opaque identifier, used for logging only.
func (c *Conn) ID() string { return c.id }

// markClosed flips the connection to closed. Returns true only for the
// first caller, guarding the close path against concurrent triggers.
func (c *Conn) markClosed() bool {
	return c.closed.CompareAndSwap(false, true)
}
