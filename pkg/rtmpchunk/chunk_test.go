package rtmpchunk

import (
	"bytes"
	"testing"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

// TestSplitS3 is S3 from spec.md verbatim.
func TestSplitS3(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 200)
	out := Split(5, rtmpbase.MsgTypeIdVideo, 1, 40, payload, 128)

	if out[0] != 0x05 {
		t.Fatalf("first basic header byte = %#x, want 0x05 (fmt0|csid5)", out[0])
	}
	// fmt-0 header: basic(1) + ts(3) + len(3) + type(1) + streamid(4) = 12
	streamIdOffset := 1 + 3 + 3 + 1
	gotStreamId := out[streamIdOffset : streamIdOffset+4]
	wantStreamId := []byte{0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(gotStreamId, wantStreamId) {
		t.Fatalf("stream id field = % x, want % x (little-endian)", gotStreamId, wantStreamId)
	}

	firstChunkHeaderLen := 12
	firstPayload := out[firstChunkHeaderLen : firstChunkHeaderLen+128]
	if !bytes.Equal(firstPayload, payload[:128]) {
		t.Fatalf("first chunk payload mismatch")
	}

	secondBasicOffset := firstChunkHeaderLen + 128
	if out[secondBasicOffset] != 0xC5 {
		t.Fatalf("second basic header = %#x, want 0xC5 (fmt3|csid5)", out[secondBasicOffset])
	}
	secondPayload := out[secondBasicOffset+1:]
	if !bytes.Equal(secondPayload, payload[128:]) {
		t.Fatalf("second chunk payload mismatch: got %d bytes, want %d", len(secondPayload), len(payload)-128)
	}
	if len(secondPayload) != 72 {
		t.Fatalf("second chunk payload length = %d, want 72", len(secondPayload))
	}
}

// TestSplitReassembleRoundTrip covers the reassembly half of testable
// property #3: for several L and C, reassembling Split's output recovers
// the exact payload, length, stream id and timestamp. The chunk count is
// not asserted here.
func TestSplitReassembleRoundTrip(t *testing.T) {
	cases := []struct{ length, chunkSize int }{
		{0, 128}, {1, 128}, {128, 128}, {129, 128}, {200, 128}, {1000, 333},
	}
	for _, c := range cases {
		payload := make([]byte, c.length)
		for i := range payload {
			payload[i] = byte(i)
		}
		wire := Split(5, rtmpbase.MsgTypeIdVideo, 7, 1234, payload, uint32(c.chunkSize))

		re := NewReassembler()
		re.InChunkSize = uint32(c.chunkSize)
		msg, err := re.ReadMessage(bytes.NewReader(wire))
		if err != nil {
			t.Fatalf("L=%d C=%d: ReadMessage: %v", c.length, c.chunkSize, err)
		}
		if msg.Header.MsgLen != uint32(c.length) {
			t.Fatalf("L=%d C=%d: MsgLen = %d", c.length, c.chunkSize, msg.Header.MsgLen)
		}
		if !bytes.Equal(msg.Payload, payload) {
			t.Fatalf("L=%d C=%d: payload mismatch", c.length, c.chunkSize)
		}
		if msg.Header.MsgStreamId != 7 || msg.Header.Timestamp != 1234 {
			t.Fatalf("L=%d C=%d: header fields wrong: %+v", c.length, c.chunkSize, msg.Header)
		}
	}
}

// TestExtendedTimestamp is testable property #4.
func TestExtendedTimestamp(t *testing.T) {
	ts := uint32(0x01020304)
	wire := Split(3, rtmpbase.MsgTypeIdCommandMessageAmf0, 0, ts, []byte("hello"), 128)

	re := NewReassembler()
	msg, err := re.ReadMessage(bytes.NewReader(wire))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.Header.Timestamp != ts {
		t.Fatalf("Timestamp = %#x, want %#x", msg.Header.Timestamp, ts)
	}

	// the u24 slot itself must carry the 0xFFFFFF sentinel.
	tsField := uint32(wire[1])<<16 | uint32(wire[2])<<8 | uint32(wire[3])
	if tsField != rtmpbase.MaxTimestampInHeader {
		t.Fatalf("u24 timestamp slot = %#x, want 0xFFFFFF sentinel", tsField)
	}
}

func TestAckTrackerFiresAtThreshold(t *testing.T) {
	tr := AckTracker{WindowAckSize: 1000}
	if due, _ := tr.Observe(500); due {
		t.Fatalf("should not be due yet")
	}
	due, total := tr.Observe(600)
	if !due {
		t.Fatalf("should be due after crossing window")
	}
	if total != 1100 {
		t.Fatalf("total = %d, want 1100", total)
	}
}

func TestEncodeAckCarriesBytesReceived(t *testing.T) {
	wire := EncodeAck(0x01020304)
	re := NewReassembler()
	msg, err := re.ReadMessage(bytes.NewReader(wire))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.Header.MsgTypeId != rtmpbase.MsgTypeIdAck {
		t.Fatalf("MsgTypeId = %d, want %d", msg.Header.MsgTypeId, rtmpbase.MsgTypeIdAck)
	}
	got := uint32(msg.Payload[0])<<24 | uint32(msg.Payload[1])<<16 | uint32(msg.Payload[2])<<8 | uint32(msg.Payload[3])
	if got != 0x01020304 {
		t.Fatalf("payload = %#x, want 0x01020304", got)
	}
}
