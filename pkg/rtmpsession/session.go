package rtmpsession

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/q191201771/naza/pkg/connection"
	"github.com/q191201771/naza/pkg/unique"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
	"github.com/mediapush/rtmppublisher/pkg/rtmpchunk"
	"github.com/mediapush/rtmppublisher/pkg/rtmplog"
)

// uniqueKeyGen mints one short correlation id per session, for log lines
// — mirrors lal's pkg/base SingleGenerator-per-session-type pattern,
// collapsed to a single generator since this client has one session kind.
var uniqueKeyGen = unique.NewSingleGenerator("RTMPPUB")

// Timeouts bundles the connection/read/write deadlines from the
// [connection] config section (spec.md §6).
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect: 10 * time.Second,
		Read:    3 * time.Second,
		Write:   3 * time.Second,
	}
}

// Session owns the socket and SessionVars for one connect-attempt's
// lifetime (spec.md §3 Lifecycle). It is disposable: on Error, build a
// fresh Session rather than attempting partial recovery.
type Session struct {
	conn      net.Conn
	uniqueKey string
	url       rtmpbase.Url

	vars  *Vars
	state stateBox

	re         *rtmpchunk.Reassembler
	ackTracker rtmpchunk.AckTracker

	timeouts Timeouts
	log      rtmplog.Logger

	// writeMu serializes socket writes between the main task and the
	// heartbeat task, per spec.md §5's send-mutex option.
	writeMu sync.Mutex
}

func New(log rtmplog.Logger, timeouts Timeouts) *Session {
	if log == nil {
		log = rtmplog.Nop()
	}
	s := &Session{
		uniqueKey: uniqueKeyGen.GenUniqueKey(),
		vars:      NewVars(),
		re:        rtmpchunk.NewReassembler(),
		timeouts:  timeouts,
		log:       log,
	}
	s.state.set(rtmpbase.StateDisconnected)
	s.ackTracker.WindowAckSize = s.vars.WindowAckSize
	return s
}

// UniqueKey returns this session's short log-correlation id.
func (s *Session) UniqueKey() string { return s.uniqueKey }

// Fail transitions the session to StateError, recording err as the
// last-error string. Used by collaborators (the heartbeat task) that
// detect a fatal condition on the session's behalf.
func (s *Session) Fail(err error) {
	s.state.setError(err)
}

func (s *Session) State() rtmpbase.ConnectionState { return s.state.get() }
func (s *Session) LastError() string               { return s.state.getLastError() }
func (s *Session) ServerStreamId() uint32           { return s.vars.ServerStreamId }

// Connect performs the whole handshake + connect/createStream/publish
// sequence against url, leaving the session in StatePublishing on
// success or StateError on any failure.
func (s *Session) Connect(url rtmpbase.Url) error {
	s.url = url
	s.state.set(rtmpbase.StateConnecting)

	raw, err := net.DialTimeout("tcp", url.HostWithPort, s.timeouts.Connect)
	if err != nil {
		err = fmt.Errorf("%w: dial: %v", rtmpbase.ErrIo, err)
		s.state.setError(err)
		return err
	}
	// wrap with naza's buffered, timeout-aware net.Conn, the same
	// wrapper lal's ClientSession dials through (pkg/rtmp/client_session.go).
	s.conn = connection.New(raw, func(option *connection.Option) {
		option.ReadBufSize = 4096
		option.WriteChanFullBehavior = connection.WriteChanFullBehaviorBlock
	})

	s.state.set(rtmpbase.StateHandshaking)
	s.conn.SetDeadline(time.Now().Add(s.timeouts.Connect))
	if err := simpleHandshake(s.conn); err != nil {
		s.teardown()
		s.state.setError(err)
		return err
	}
	s.conn.SetDeadline(time.Time{})
	s.state.set(rtmpbase.StateConnected)
	s.log.Infof("[%s] rtmp handshake complete, host=%s", s.uniqueKey, url.HostWithPort)

	if err := s.runPublishSequence(); err != nil {
		s.teardown()
		s.state.setError(err)
		return err
	}
	return nil
}

// ConnectWithRetry calls Connect up to maxRetries+1 times total, fully
// releasing the socket and resetting SessionVars between failed attempts
// (spec.md §4.7). It reuses s across attempts: before each retry it
// replaces s's Vars, Reassembler and ack tracker with fresh ones.
func (s *Session) ConnectWithRetry(url rtmpbase.Url, maxRetries int, retryInterval time.Duration) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			s.vars = NewVars()
			s.re = rtmpchunk.NewReassembler()
			s.ackTracker = rtmpchunk.AckTracker{WindowAckSize: s.vars.WindowAckSize}
			time.Sleep(retryInterval)
		}
		lastErr = s.Connect(url)
		if lastErr == nil {
			return nil
		}
		s.log.Warnf("connect attempt %d/%d failed: %v", attempt+1, maxRetries+1, lastErr)
	}
	return lastErr
}

// teardown releases the socket. Safe to call more than once.
func (s *Session) teardown() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// Close releases the socket. Safe to call more than once.
func (s *Session) Close() {
	s.teardown()
}

// SendRaw writes already-chunked wire bytes to the socket under the
// write mutex, serializing against heartbeat sends.
func (s *Session) SendRaw(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return rtmpbase.ErrIo
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.timeouts.Write))
	_, err := s.conn.Write(b)
	if err != nil {
		return fmt.Errorf("%w: write: %v", rtmpbase.ErrIo, err)
	}
	return nil
}

// OutChunkSize exposes the negotiated outbound chunk size, in case a
// collaborator needs to size its own Split calls independently.
func (s *Session) OutChunkSize() uint32 { return s.vars.OutChunkSize }
