package rtmpsession

import (
	"fmt"
	"time"

	"github.com/q191201771/naza/pkg/bele"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
	"github.com/mediapush/rtmppublisher/pkg/rtmpchunk"
)

// readMessage reads one reassembled message, applying the configured
// read deadline and window-acknowledgement accounting.
func (s *Session) readMessage() (rtmpbase.Message, error) {
	s.conn.SetReadDeadline(time.Now().Add(s.timeouts.Read))
	msg, err := s.re.ReadMessage(s.conn)
	if err != nil {
		return rtmpbase.Message{}, fmt.Errorf("%w: read: %v", rtmpbase.ErrIo, err)
	}
	s.vars.InChunkSize = s.re.InChunkSize

	if due, total := s.ackTracker.Observe(uint32(11 + len(msg.Payload))); due {
		ack := rtmpchunk.EncodeAck(total)
		if err := s.SendRaw(ack); err != nil {
			s.log.Warnf("failed to send ack: %v", err)
		}
	}
	return msg, nil
}

// handleProtocolControl dispatches the five protocol-control message
// types per spec.md §4.4's table.
func (s *Session) handleProtocolControl(msg rtmpbase.Message) error {
	switch msg.Header.MsgTypeId {
	case rtmpbase.MsgTypeIdSetChunkSize:
		if len(msg.Payload) < 4 {
			return rtmpbase.NewErrShortBuffer(4, len(msg.Payload), "SetChunkSize")
		}
		v := bele.BeUint32(msg.Payload)
		if v < 1 || v > rtmpbase.MaxTimestampInHeader {
			return nil // malformed value, ignore per a tolerant inbound dispatcher
		}
		s.re.InChunkSize = v
		s.vars.InChunkSize = v

	case rtmpbase.MsgTypeIdAck:
		// informational only; no action required.

	case rtmpbase.MsgTypeIdUserControl:
		if len(msg.Payload) < 2 {
			return nil
		}
		eventType := bele.BeUint16(msg.Payload)
		switch eventType {
		case rtmpbase.UserControlStreamBegin:
			s.log.Debugf("user control: StreamBegin")
		case rtmpbase.UserControlStreamEof:
			s.log.Debugf("user control: StreamEOF")
		case rtmpbase.UserControlStreamDry:
			s.log.Debugf("user control: StreamDry")
		case rtmpbase.UserControlPingRequest:
			if len(msg.Payload) >= 6 {
				ts := msg.Payload[2:6]
				s.replyPingResponse(ts)
			}
		}

	case rtmpbase.MsgTypeIdWinAckSize:
		if len(msg.Payload) < 4 {
			return nil
		}
		s.vars.WindowAckSize = bele.BeUint32(msg.Payload)
		s.ackTracker.WindowAckSize = s.vars.WindowAckSize

	case rtmpbase.MsgTypeIdBandwidth:
		// u32 window size + u8 limit type; the message is ignored and no
		// Window Acknowledgement Size message is sent in reply.
	}
	return nil
}

func (s *Session) replyPingResponse(timestamp []byte) {
	payload := make([]byte, 0, 6)
	payload = append(payload, byte(rtmpbase.UserControlPingResponse>>8), byte(rtmpbase.UserControlPingResponse))
	payload = append(payload, timestamp...)
	wire := rtmpchunk.Split(rtmpbase.CsidProtocolControl, rtmpbase.MsgTypeIdUserControl, 0, 0, payload, s.vars.OutChunkSize)
	if err := s.SendRaw(wire); err != nil {
		s.log.Warnf("failed to send ping response: %v", err)
	}
}

// SendHeartbeatPing emits a UserControl PingRequest with the current
// unix time (seconds, mod 2^32) per spec.md §4.6.
func (s *Session) SendHeartbeatPing(nowUnix uint32) error {
	payload := make([]byte, 0, 6)
	payload = append(payload, byte(rtmpbase.UserControlPingRequest>>8), byte(rtmpbase.UserControlPingRequest))
	payload = append(payload, byte(nowUnix>>24), byte(nowUnix>>16), byte(nowUnix>>8), byte(nowUnix))
	wire := rtmpchunk.Split(rtmpbase.CsidProtocolControl, rtmpbase.MsgTypeIdUserControl, 0, 0, payload, s.vars.OutChunkSize)
	return s.SendRaw(wire)
}

// SendMediaMessage forwards one FLV-tag payload as an RTMP message on
// csid, used by the publish loop (C6).
func (s *Session) SendMediaMessage(csid int, msgTypeId uint8, timestamp uint32, payload []byte) error {
	wire := rtmpchunk.Split(csid, msgTypeId, s.vars.ServerStreamId, timestamp, payload, s.vars.OutChunkSize)
	return s.SendRaw(wire)
}
