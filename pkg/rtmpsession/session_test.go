package rtmpsession

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/mediapush/rtmppublisher/pkg/amf"
	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
	"github.com/mediapush/rtmppublisher/pkg/rtmpchunk"
	"github.com/mediapush/rtmppublisher/pkg/rtmplog"
)

// TestConnectPublishSuccess is S5 from spec.md: a mock server that
// completes the handshake, replies _result/_result/onStatus across
// connect/createStream/publish. Expected final state is Publishing with
// server_stream_id == 1.
func TestConnectPublishSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverDone := make(chan error, 1)
	go func() { serverDone <- runMockServer(ln) }()

	url, err := rtmpbase.ParseUrl("rtmp://" + ln.Addr().String() + "/live/s1")
	if err != nil {
		t.Fatalf("ParseUrl: %v", err)
	}

	s := New(rtmplog.Nop(), Timeouts{Connect: 2 * time.Second, Read: 2 * time.Second, Write: 2 * time.Second})
	if err := s.Connect(url); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	if s.State() != rtmpbase.StatePublishing {
		t.Fatalf("state = %v, want Publishing", s.State())
	}
	if s.ServerStreamId() != 1 {
		t.Fatalf("server_stream_id = %d, want 1", s.ServerStreamId())
	}

	if err := <-serverDone; err != nil {
		t.Fatalf("mock server: %v", err)
	}
}

func runMockServer(ln net.Listener) error {
	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	// handshake: act as server.
	c0c1 := make([]byte, 1+handshakeBodySize)
	if _, err := io_ReadFull(conn, c0c1); err != nil {
		return err
	}
	s1 := bytes.Repeat([]byte{0x11}, handshakeBodySize)
	if _, err := conn.Write(append([]byte{0x03}, s1...)); err != nil {
		return err
	}
	c2 := make([]byte, handshakeBodySize)
	if _, err := io_ReadFull(conn, c2); err != nil {
		return err
	}
	if _, err := conn.Write(bytes.Repeat([]byte{0x00}, handshakeBodySize)); err != nil {
		return err
	}

	re := rtmpchunk.NewReassembler()

	// connect
	if _, _, _, err := readCommand(re, conn); err != nil {
		return err
	}
	connectResult := amf.NewObject()
	connectResult.AsObject().Set("code", amf.String("NetConnection.Connect.Success"))
	if err := writeCommand(conn, 0, "_result", 1.0, connectResult); err != nil {
		return err
	}

	// createStream
	if _, _, _, err := readCommand(re, conn); err != nil {
		return err
	}
	if err := writeCommand(conn, 0, "_result", 2.0, amf.Null(), amf.Number(1)); err != nil {
		return err
	}

	// publish
	if _, _, _, err := readCommand(re, conn); err != nil {
		return err
	}
	status := amf.NewObject()
	status.AsObject().Set("code", amf.String("NetStream.Publish.Start"))
	return writeCommand(conn, 1, "onStatus", 0, status)
}

func readCommand(re *rtmpchunk.Reassembler, conn net.Conn) (string, float64, []amf.Value, error) {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := re.ReadMessage(conn)
	if err != nil {
		return "", 0, nil, err
	}
	return decodeAmf0Command(msg.Payload)
}

func writeCommand(conn net.Conn, msgStreamId uint32, name string, txId float64, trailing ...amf.Value) error {
	var body []byte
	body = amf.EncodeAmf0(body, amf.String(name))
	body = amf.EncodeAmf0(body, amf.Number(txId))
	for _, v := range trailing {
		body = amf.EncodeAmf0(body, v)
	}
	wire := rtmpchunk.Split(rtmpbase.CsidCommand, rtmpbase.MsgTypeIdCommandMessageAmf0, msgStreamId, 0, body, rtmpbase.InitialChunkSize)
	_, err := conn.Write(wire)
	return err
}

func io_ReadFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
