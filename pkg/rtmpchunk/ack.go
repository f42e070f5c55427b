package rtmpchunk

import "github.com/mediapush/rtmppublisher/pkg/rtmpbase"

// AckTracker decides when the window-acknowledgement threshold has been
// crossed on the inbound byte stream, per spec.md §4.3 / testable
// property #6.
type AckTracker struct {
	WindowAckSize      uint32
	bytesSinceLastAck  uint32
	totalBytesReceived uint32
}

// Observe records n freshly-received bytes and reports whether an
// Acknowledgement message is now due, along with the cumulative
// bytes-received count to carry in it.
func (a *AckTracker) Observe(n uint32) (due bool, total uint32) {
	a.bytesSinceLastAck += n
	a.totalBytesReceived += n
	if a.WindowAckSize > 0 && a.bytesSinceLastAck >= a.WindowAckSize {
		a.bytesSinceLastAck = 0
		return true, a.totalBytesReceived
	}
	return false, a.totalBytesReceived
}

// EncodeAck builds the wire bytes for a Type-3 Acknowledgement message
// (message type 3) carrying bytesReceived, sent on cs_id 2 / stream id 0.
func EncodeAck(bytesReceived uint32) []byte {
	var payload [4]byte
	payload[0] = byte(bytesReceived >> 24)
	payload[1] = byte(bytesReceived >> 16)
	payload[2] = byte(bytesReceived >> 8)
	payload[3] = byte(bytesReceived)
	return Split(rtmpbase.CsidProtocolControl, rtmpbase.MsgTypeIdAck, 0, 0, payload[:], rtmpbase.InitialChunkSize)
}
