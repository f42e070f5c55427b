package rtmpchunk

import (
	"io"

	"github.com/q191201771/naza/pkg/bele"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

// byteReader is the minimal surface the reassembler needs from the
// socket; satisfied by bufio.Reader and naza/pkg/connection alike.
type byteReader interface {
	io.Reader
}

func readFull(r byteReader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadMessage blocks until one complete RTMP message has been reassembled
// from r, honoring fmt-0/1/2/3 chunk headers and extended timestamps per
// spec.md §4.3. It may read any number of physical chunks internally.
func (re *Reassembler) ReadMessage(r byteReader) (rtmpbase.Message, error) {
	for {
		csid, fmtBits, err := readBasicHeader(r)
		if err != nil {
			return rtmpbase.Message{}, err
		}
		st := re.stateFor(csid)

		switch fmtBits {
		case 0:
			hdr, err := readFull(r, 11)
			if err != nil {
				return rtmpbase.Message{}, err
			}
			ts := bele.BeUint24(hdr)
			st.lastMessageLength = bele.BeUint24(hdr[3:])
			st.lastMessageType = hdr[6]
			st.lastStreamId = uint32(hdr[7]) | uint32(hdr[8])<<8 | uint32(hdr[9])<<16 | uint32(hdr[10])<<24

			extended := ts == rtmpbase.MaxTimestampInHeader
			if extended {
				ext, err := readFull(r, 4)
				if err != nil {
					return rtmpbase.Message{}, err
				}
				ts = bele.BeUint32(ext)
			}
			st.lastTimestamp = ts
			st.lastTimestampDelta = 0
			st.lastHadExtended = extended
			st.have = 0
			st.partial.Reset()

		case 1:
			hdr, err := readFull(r, 7)
			if err != nil {
				return rtmpbase.Message{}, err
			}
			delta := bele.BeUint24(hdr)
			st.lastMessageLength = bele.BeUint24(hdr[3:])
			st.lastMessageType = hdr[6]

			extended := delta == rtmpbase.MaxTimestampInHeader
			if extended {
				ext, err := readFull(r, 4)
				if err != nil {
					return rtmpbase.Message{}, err
				}
				delta = bele.BeUint32(ext)
			}
			st.lastTimestamp += delta
			st.lastTimestampDelta = delta
			st.lastHadExtended = extended
			st.have = 0
			st.partial.Reset()

		case 2:
			hdr, err := readFull(r, 3)
			if err != nil {
				return rtmpbase.Message{}, err
			}
			delta := bele.BeUint24(hdr)
			extended := delta == rtmpbase.MaxTimestampInHeader
			if extended {
				ext, err := readFull(r, 4)
				if err != nil {
					return rtmpbase.Message{}, err
				}
				delta = bele.BeUint32(ext)
			}
			st.lastTimestamp += delta
			st.lastTimestampDelta = delta
			st.lastHadExtended = extended
			st.have = 0
			st.partial.Reset()

		case 3:
			// fmt-3 inherits everything from state. If the message this
			// continuation belongs to is mid-flight (st.have > 0), no new
			// timestamp applies. Starting a brand new message on a bare
			// fmt-3 (rare, but legal after fmt-1/2) repeats the last delta.
			if st.have == 0 {
				st.lastTimestamp += st.lastTimestampDelta
			}
			if st.lastHadExtended {
				// spec.md §9 open question resolved symmetrically: a
				// fmt-3 continuation repeats the extended timestamp
				// whenever the owning non-fmt-3 header had one.
				if _, err := readFull(r, 4); err != nil {
					return rtmpbase.Message{}, err
				}
			}
		}

		need := st.lastMessageLength - st.have
		chunkPayload := re.InChunkSize
		if need < chunkPayload {
			chunkPayload = need
		}
		if chunkPayload > 0 {
			buf, err := readFull(r, int(chunkPayload))
			if err != nil {
				return rtmpbase.Message{}, err
			}
			st.partial.Write(buf)
			st.have += chunkPayload
		}

		if st.have >= st.lastMessageLength {
			payload := append([]byte(nil), st.partial.Bytes()...)
			st.partial.Reset()
			st.have = 0
			return rtmpbase.Message{
				Header: rtmpbase.Header{
					Csid:        csid,
					MsgLen:      st.lastMessageLength,
					MsgTypeId:   st.lastMessageType,
					MsgStreamId: st.lastStreamId,
					Timestamp:   st.lastTimestamp,
				},
				Payload: payload,
			}, nil
		}
		// message spans more chunks; loop around for the next one.
	}
}

func readBasicHeader(r byteReader) (csid int, fmtBits byte, err error) {
	b, err := readFull(r, 1)
	if err != nil {
		return 0, 0, err
	}
	fmtBits = b[0] >> 6
	low := b[0] & 0x3f
	switch low {
	case 0:
		next, err := readFull(r, 1)
		if err != nil {
			return 0, 0, err
		}
		return int(next[0]) + 64, fmtBits, nil
	case 1:
		next, err := readFull(r, 2)
		if err != nil {
			return 0, 0, err
		}
		return int(next[0]) + int(next[1])*256 + 64, fmtBits, nil
	default:
		return int(low), fmtBits, nil
	}
}
