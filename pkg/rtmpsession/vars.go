// Package rtmpsession drives the RTMP session state machine: handshake,
// connect/createStream/publish, protocol-control dispatch and the
// ConnectionState transitions spec.md §4.4 describes. Grounded on lal's
// pkg/rtmp/client_push_session.go and pkg/rtmp/client_session.go, adapted
// from lal's event-driven multi-session design down to a single
// publish-only client session.
package rtmpsession

import (
	"sync"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

// Vars is the mutable protocol state a session owns exclusively for its
// lifetime, per spec.md §3's SessionVars.
type Vars struct {
	OutChunkSize      uint32
	InChunkSize       uint32
	WindowAckSize     uint32
	BytesReadSinceAck uint64
	ServerStreamId    uint32
	NextTransactionId float64
}

func NewVars() *Vars {
	return &Vars{
		OutChunkSize:      rtmpbase.InitialChunkSize,
		InChunkSize:       rtmpbase.InitialChunkSize,
		WindowAckSize:     rtmpbase.InitialWindowAckSize,
		NextTransactionId: 1,
	}
}

// stateBox serializes ConnectionState transitions and the last-error
// string behind one lock, never held across I/O (spec.md §5).
type stateBox struct {
	mu        sync.Mutex
	state     rtmpbase.ConnectionState
	lastError string
}

func (b *stateBox) set(s rtmpbase.ConnectionState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *stateBox) setError(err error) {
	b.mu.Lock()
	b.state = rtmpbase.StateError
	if err != nil {
		b.lastError = err.Error()
	}
	b.mu.Unlock()
}

func (b *stateBox) get() rtmpbase.ConnectionState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *stateBox) getLastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastError
}
