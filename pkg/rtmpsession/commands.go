package rtmpsession

import (
	"strconv"
	"strings"
	"time"

	"github.com/mediapush/rtmppublisher/pkg/amf"
	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
	"github.com/mediapush/rtmppublisher/pkg/rtmpchunk"
)

const commandDeadline = 5 * time.Second

// sendCommand AMF0-encodes name, transactionId and the variadic trailing
// values, splits the result by out_chunk_size and writes it to the wire
// on cs_id 3, per spec.md §4.4's publish-sequence table.
func (s *Session) sendCommand(msgStreamId uint32, name string, transactionId float64, trailing ...amf.Value) error {
	var body []byte
	body = amf.EncodeAmf0(body, amf.String(name))
	body = amf.EncodeAmf0(body, amf.Number(transactionId))
	for _, v := range trailing {
		body = amf.EncodeAmf0(body, v)
	}
	wire := rtmpchunk.Split(rtmpbase.CsidCommand, rtmpbase.MsgTypeIdCommandMessageAmf0, msgStreamId, 0, body, s.vars.OutChunkSize)
	return s.SendRaw(wire)
}

// runPublishSequence drives connect -> createStream -> publish per
// spec.md §4.4's table, advancing state only after the server confirms
// each step.
func (s *Session) runPublishSequence() error {
	connectObj := amf.NewObject()
	o := connectObj.AsObject()
	o.Set("app", amf.String(s.url.App))
	o.Set("type", amf.String("nonprivate"))
	o.Set("flashVer", amf.String("FMLE/3.0 (compatible; FMSc/1.0)"))
	o.Set("tcUrl", amf.String(s.url.TcUrl()))

	if err := s.sendCommand(0, "connect", 1.0, connectObj); err != nil {
		return err
	}
	if _, err := s.waitForResult(1.0); err != nil {
		return err
	}

	if err := s.sendCommand(0, "createStream", 2.0, amf.Null()); err != nil {
		return err
	}
	values, err := s.waitForResult(2.0)
	if err != nil {
		return err
	}
	// _result for createStream: Null followed by a Number -> server_stream_id.
	for _, v := range values {
		if v.Kind == amf.KindNumber {
			s.vars.ServerStreamId = uint32(v.AsNumber())
			break
		}
	}

	streamId := s.vars.ServerStreamId
	if err := s.sendCommand(streamId, "publish", 3.0, amf.Null(), amf.String(s.url.StreamKey), amf.String("live")); err != nil {
		return err
	}
	if err := s.waitForPublishStart(); err != nil {
		return err
	}

	s.state.set(rtmpbase.StatePublishing)
	s.log.Infof("publish started, stream_id=%d", streamId)
	return nil
}

// waitForResult reads and dispatches inbound messages until a `_result`
// (or `_error`) for wantTxId arrives, handling protocol-control messages
// along the way.
func (s *Session) waitForResult(wantTxId float64) ([]amf.Value, error) {
	deadline := time.Now().Add(commandDeadline)
	for time.Now().Before(deadline) {
		msg, err := s.readMessage()
		if err != nil {
			return nil, err
		}
		if isProtocolControl(msg.Header.MsgTypeId) {
			if err := s.handleProtocolControl(msg); err != nil {
				return nil, err
			}
			continue
		}
		if !isCommandMessage(msg.Header.MsgTypeId) {
			continue
		}
		name, txId, values, err := decodeAmf0Command(msg.Payload)
		if err != nil {
			continue
		}
		if txId != wantTxId {
			continue
		}
		if name == "_error" {
			return nil, rtmpbase.NewErrPublish("_error on transaction " + strconv.FormatFloat(txId, 'f', -1, 64))
		}
		if name == "_result" {
			return values, nil
		}
	}
	return nil, rtmpbase.NewErrPublish("timed out waiting for _result")
}

// waitForPublishStart reads inbound messages until an onStatus command
// carries code == NetStream.Publish.Start, or an Error-bearing code,
// per spec.md §4.4.
func (s *Session) waitForPublishStart() error {
	deadline := time.Now().Add(commandDeadline)
	for time.Now().Before(deadline) {
		msg, err := s.readMessage()
		if err != nil {
			return err
		}
		if isProtocolControl(msg.Header.MsgTypeId) {
			if err := s.handleProtocolControl(msg); err != nil {
				return err
			}
			continue
		}
		if !isCommandMessage(msg.Header.MsgTypeId) {
			continue
		}
		name, _, values, err := decodeAmf0Command(msg.Payload)
		if err != nil || name != "onStatus" {
			continue
		}
		code := statusCode(values)
		if code == "" {
			continue
		}
		if strings.Contains(code, "Error") {
			return rtmpbase.NewErrPublish(code)
		}
		if code == "NetStream.Publish.Start" {
			return nil
		}
	}
	return rtmpbase.NewErrPublish("timed out waiting for onStatus Publish.Start")
}

func statusCode(values []amf.Value) string {
	for _, v := range values {
		if v.IsObjectLike() {
			if codeVal, ok := v.AsObject().Get("code"); ok {
				return codeVal.AsString()
			}
		}
	}
	return ""
}

func isCommandMessage(msgTypeId uint8) bool {
	return msgTypeId == rtmpbase.MsgTypeIdCommandMessageAmf0 || msgTypeId == rtmpbase.MsgTypeIdCommandMessageAmf3
}

func isProtocolControl(msgTypeId uint8) bool {
	switch msgTypeId {
	case rtmpbase.MsgTypeIdSetChunkSize, rtmpbase.MsgTypeIdAck, rtmpbase.MsgTypeIdUserControl,
		rtmpbase.MsgTypeIdWinAckSize, rtmpbase.MsgTypeIdBandwidth:
		return true
	}
	return false
}

// decodeAmf0Command parses a command-message payload into its name,
// transaction id, and any trailing values.
func decodeAmf0Command(payload []byte) (name string, txId float64, values []amf.Value, err error) {
	cursor := payload
	nameVal, n, err := amf.DecodeAmf0(cursor)
	if err != nil {
		return "", 0, nil, err
	}
	cursor = cursor[n:]
	txVal, n, err := amf.DecodeAmf0(cursor)
	if err != nil {
		return "", 0, nil, err
	}
	cursor = cursor[n:]

	for len(cursor) > 0 {
		v, n, err := amf.DecodeAmf0(cursor)
		if err != nil || n == 0 {
			break
		}
		values = append(values, v)
		cursor = cursor[n:]
	}
	return nameVal.AsString(), txVal.AsNumber(), values, nil
}
