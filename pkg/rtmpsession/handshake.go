package rtmpsession

import (
	"crypto/rand"
	"io"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

const handshakeBodySize = 1536

// simpleHandshake performs the RTMP 1.0 simple client handshake (digest
// handshake is not required per spec.md §4.4): send C0+C1, receive
// S0+S1, echo S1 back as C2, receive and discard S2.
func simpleHandshake(rw io.ReadWriter) error {
	c1 := make([]byte, handshakeBodySize)
	if _, err := rand.Read(c1); err != nil {
		return rtmpbase.NewErrHandshake("failed to generate C1: " + err.Error())
	}

	c0c1 := make([]byte, 1+handshakeBodySize)
	c0c1[0] = 0x03
	copy(c0c1[1:], c1)
	if _, err := rw.Write(c0c1); err != nil {
		return rtmpbase.NewErrHandshake("write C0/C1: " + err.Error())
	}

	s0 := make([]byte, 1)
	if _, err := io.ReadFull(rw, s0); err != nil {
		return rtmpbase.NewErrHandshake("read S0: " + err.Error())
	}
	if s0[0] != 0x03 {
		return rtmpbase.NewErrHandshake("unexpected S0 version byte")
	}

	s1 := make([]byte, handshakeBodySize)
	if _, err := io.ReadFull(rw, s1); err != nil {
		return rtmpbase.NewErrHandshake("read S1: " + err.Error())
	}

	// C2 echoes S1 verbatim.
	if _, err := rw.Write(s1); err != nil {
		return rtmpbase.NewErrHandshake("write C2: " + err.Error())
	}

	s2 := make([]byte, handshakeBodySize)
	if _, err := io.ReadFull(rw, s2); err != nil {
		return rtmpbase.NewErrHandshake("read S2: " + err.Error())
	}
	// S2's content is never validated per spec.md §4.4.

	return nil
}
