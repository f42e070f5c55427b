package flv

import (
	"bytes"
	"io"
	"testing"
)

func buildFlv(tags []Tag) []byte {
	var buf bytes.Buffer
	buf.WriteString("FLV")
	buf.WriteByte(1)    // version
	buf.WriteByte(0x05) // type flags: audio+video present
	buf.Write([]byte{0, 0, 0, 9})
	buf.Write([]byte{0, 0, 0, 0}) // PreviousTagSize0

	for _, tag := range tags {
		header := make([]byte, 11)
		header[0] = tag.Type
		dataSize := len(tag.Payload)
		header[1] = byte(dataSize >> 16)
		header[2] = byte(dataSize >> 8)
		header[3] = byte(dataSize)
		ts := tag.Timestamp
		header[4] = byte(ts >> 16)
		header[5] = byte(ts >> 8)
		header[6] = byte(ts)
		header[7] = byte(ts >> 24)
		buf.Write(header)
		buf.Write(tag.Payload)

		prevSize := 11 + dataSize
		buf.Write([]byte{byte(prevSize >> 24), byte(prevSize >> 16), byte(prevSize >> 8), byte(prevSize)})
	}
	return buf.Bytes()
}

func TestReaderYieldsTagsInOrder(t *testing.T) {
	want := []Tag{
		{Type: TagTypeScript, Timestamp: 0, Payload: []byte("meta")},
		{Type: TagTypeVideo, Timestamp: 40, Payload: []byte("video-frame-1")},
		{Type: TagTypeAudio, Timestamp: 50, Payload: []byte("audio-frame-1")},
	}
	raw := buildFlv(want)

	r, err := NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	var got []Tag
	for {
		tag, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, tag)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d tags, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Type != want[i].Type || got[i].Timestamp != want[i].Timestamp || !bytes.Equal(got[i].Payload, want[i].Payload) {
			t.Fatalf("tag %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReaderRejectsBadSignature(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("NOTFLV...")))
	if err == nil {
		t.Fatalf("expected error for bad signature")
	}
}

func TestReaderExtendedTimestamp(t *testing.T) {
	want := []Tag{{Type: TagTypeVideo, Timestamp: 0x01020304, Payload: []byte("x")}}
	raw := buildFlv(want)
	r, err := NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	tag, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tag.Timestamp != 0x01020304 {
		t.Fatalf("timestamp = %#x, want %#x", tag.Timestamp, 0x01020304)
	}
}

func TestReaderStopsOnShortTrailingTag(t *testing.T) {
	raw := buildFlv([]Tag{{Type: TagTypeVideo, Timestamp: 0, Payload: []byte("ok")}})
	raw = append(raw, []byte{9, 0, 0}...) // truncated next tag header
	r, err := NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("second Next err = %v, want io.EOF", err)
	}
}
