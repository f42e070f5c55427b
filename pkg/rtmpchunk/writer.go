// Package rtmpchunk implements the RTMP chunk stream layer: splitting
// outbound messages into fmt-0/fmt-3 chunks by out_chunk_size, and
// reassembling inbound chunks honoring fmt-0/1/2/3 headers, extended
// timestamps and window-acknowledgement accounting. Grounded on lal's
// pkg/rtmp/chunk_divider.go (split) and pkg/rtmp/chunk_composer.go
// (reassembly).
package rtmpchunk

import (
	"github.com/q191201771/naza/pkg/bele"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

const extendedTimestampSentinel = rtmpbase.MaxTimestampInHeader

// Split fragments payload into wire-ready chunks for one RTMP message,
// per spec.md §4.3. The first fragment carries a full fmt-0 (type-0)
// header; every subsequent fragment is a bare fmt-3 continuation. The
// returned slice is the full wire byte sequence (basic header + message
// header + payload, chunk after chunk, concatenated).
func Split(csid int, msgTypeId uint8, msgStreamId uint32, timestamp uint32, payload []byte, outChunkSize uint32) []byte {
	if outChunkSize == 0 {
		outChunkSize = rtmpbase.InitialChunkSize
	}
	out := make([]byte, 0, len(payload)+32)

	extended := timestamp >= extendedTimestampSentinel
	tsField := timestamp
	if extended {
		tsField = extendedTimestampSentinel
	}

	out = appendBasicHeader(out, 0, csid)
	out = append3(out, tsField)
	out = append3(out, uint32(len(payload)))
	out = append(out, msgTypeId)
	out = appendLE4(out, msgStreamId)
	if extended {
		out = append4(out, timestamp)
	}

	first := true
	for offset := 0; offset < len(payload) || (len(payload) == 0 && first); offset += int(outChunkSize) {
		if !first {
			out = appendBasicHeader(out, 3, csid)
			if extended {
				// Open question in spec.md §9: whether fmt-3 continuations
				// repeat the extended timestamp is ambiguous; this
				// implementation does it symmetrically (present whenever
				// the originating non-fmt-3 header had one).
				out = append4(out, timestamp)
			}
		}
		end := offset + int(outChunkSize)
		if end > len(payload) {
			end = len(payload)
		}
		out = append(out, payload[offset:end]...)
		first = false
		if len(payload) == 0 {
			break
		}
	}
	return out
}

// appendBasicHeader writes the 1- or 2-byte basic header for fmt/csid.
// csid in [3,63] fits one byte; [64,319] needs the 2-byte extended form
// (basic byte = fmt<<6, next byte = csid-64) per spec.md §4.3.
func appendBasicHeader(out []byte, fmtBits byte, csid int) []byte {
	if csid < 64 {
		return append(out, fmtBits<<6|byte(csid))
	}
	return append(out, fmtBits<<6, byte(csid-64))
}

func append3(out []byte, v uint32) []byte {
	var tmp [3]byte
	bele.BePutUint24(tmp[:], v)
	return append(out, tmp[:]...)
}

func append4(out []byte, v uint32) []byte {
	var tmp [4]byte
	bele.BePutUint32(tmp[:], v)
	return append(out, tmp[:]...)
}

// appendLE4 writes v little-endian: the one deliberate little-endian
// field in the protocol, the fmt-0 message_stream_id (spec.md §4.3, §9).
func appendLE4(out []byte, v uint32) []byte {
	return append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
