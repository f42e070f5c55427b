// Package rtmpbase holds the types shared across the RTMP publish engine:
// error kinds, connection-state, URL parsing and the wire-level constants
// every other package dispatches on.
package rtmpbase

import (
	"errors"
	"fmt"
)

// ----- url / setup ----------------------------------------------------------------------------------------------

var ErrUrlParse = errors.New("rtmppublisher: invalid rtmp url")

// ----- transport -------------------------------------------------------------------------------------------------

var ErrIo = errors.New("rtmppublisher: io error")

// ----- handshake -------------------------------------------------------------------------------------------------

var ErrHandshake = errors.New("rtmppublisher: handshake failed")

// ----- chunk / amf / command dispatch -----------------------------------------------------------------------------

var (
	ErrProtocol     = errors.New("rtmppublisher: protocol error")
	ErrShortBuffer  = errors.New("rtmppublisher: buffer too short")
	ErrUnexpectedMsg = errors.New("rtmppublisher: unexpected message")
)

// ----- publish sequence --------------------------------------------------------------------------------------------

var ErrPublish = errors.New("rtmppublisher: server rejected publish")

// ----- flv -----------------------------------------------------------------------------------------------------

var ErrFlvFormat = errors.New("rtmppublisher: malformed flv")

// ----- internal --------------------------------------------------------------------------------------------------

var ErrInternal = errors.New("rtmppublisher: internal error")

func NewErrShortBuffer(need, actual int, where string) error {
	return fmt.Errorf("%w: need=%d actual=%d at=%s", ErrShortBuffer, need, actual, where)
}

func NewErrHandshake(reason string) error {
	return fmt.Errorf("%w: %s", ErrHandshake, reason)
}

func NewErrPublish(code string) error {
	return fmt.Errorf("%w: code=%s", ErrPublish, code)
}

func NewErrFlvFormat(reason string) error {
	return fmt.Errorf("%w: %s", ErrFlvFormat, reason)
}
