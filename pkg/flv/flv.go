// Package flv reads a pre-recorded FLV container and yields its tags in
// order. Grounded on lal's pkg/httpflv/flv_file_reader.go and
// pkg/httpflv/tag.go, adapted from lal's push-to-channel reader goroutine
// to a synchronous iterator matching this client's single-threaded
// publish loop.
package flv

import (
	"encoding/binary"
	"io"

	"github.com/q191201771/naza/pkg/bele"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

// Tag types, matching the RTMP message type ids they map onto 1:1 for
// audio/video; script data uses the AMF0-data message type (18).
const (
	TagTypeAudio  uint8 = 8
	TagTypeVideo  uint8 = 9
	TagTypeScript uint8 = 18
)

const fileHeaderSize = 9

// Tag is one decoded FLV tag: type, millisecond timestamp (24 low bits
// plus the 8-bit extension), and raw payload. StreamId is the tag header's
// stream-id field as read from the file, carried only for completeness; it
// is ignored everywhere downstream.
type Tag struct {
	Type      uint8
	Timestamp uint32
	StreamId  uint32
	Payload   []byte
}

// Reader iterates the tags of one FLV file, lazily and once.
type Reader struct {
	r        io.Reader
	done     bool
}

// NewReader validates the 9-byte FLV file header (signature "FLV",
// version and type-flags ignored) and the leading PreviousTagSize0, then
// returns a Reader ready to yield tags.
func NewReader(r io.Reader) (*Reader, error) {
	header := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, rtmpbase.NewErrFlvFormat("short file header: " + err.Error())
	}
	if header[0] != 'F' || header[1] != 'L' || header[2] != 'V' {
		return nil, rtmpbase.NewErrFlvFormat("missing FLV signature")
	}
	dataOffset := binary.BigEndian.Uint32(header[5:9])
	if dataOffset > fileHeaderSize {
		if _, err := io.CopyN(io.Discard, r, int64(dataOffset-fileHeaderSize)); err != nil {
			return nil, rtmpbase.NewErrFlvFormat("short skip to data offset: " + err.Error())
		}
	}

	prevTagSize := make([]byte, 4)
	if _, err := io.ReadFull(r, prevTagSize); err != nil {
		return nil, rtmpbase.NewErrFlvFormat("short PreviousTagSize0: " + err.Error())
	}

	return &Reader{r: r}, nil
}

// Next yields the next tag, or io.EOF once the stream is exhausted. Any
// short read mid-tag is reported as io.EOF per spec.md §4.5 ("stop at
// EOF or on short read").
func (r *Reader) Next() (Tag, error) {
	if r.done {
		return Tag{}, io.EOF
	}

	header := make([]byte, 11)
	if _, err := io.ReadFull(r.r, header); err != nil {
		r.done = true
		return Tag{}, io.EOF
	}

	tagType := header[0]
	dataSize := bele.BeUint24(header[1:])
	timestampLow := bele.BeUint24(header[4:])
	timestampExt := header[7]
	timestamp := uint32(timestampExt)<<24 | timestampLow
	streamId := bele.BeUint24(header[8:])

	payload := make([]byte, dataSize)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		r.done = true
		return Tag{}, io.EOF
	}

	prevTagSize := make([]byte, 4)
	if _, err := io.ReadFull(r.r, prevTagSize); err != nil {
		r.done = true
		return Tag{}, io.EOF
	}

	return Tag{Type: tagType, Timestamp: timestamp, StreamId: streamId, Payload: payload}, nil
}
