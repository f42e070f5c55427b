package rtmpchunk

import (
	"bytes"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
)

// streamState is the per-chunk-stream-id bookkeeping the inbound
// reassembler carries between chunks, per spec.md §3's ChunkState.
type streamState struct {
	lastTimestamp      uint32
	lastTimestampDelta uint32
	lastMessageLength  uint32
	lastMessageType    uint8
	lastStreamId       uint32
	lastHadExtended    bool // whether the most recent non-fmt-3 header carried an extended timestamp

	partial bytes.Buffer
	have    uint32 // bytes already accumulated into partial for the in-flight message
}

// Reassembler holds per-csid inbound state and the shared in_chunk_size.
// One Reassembler serves one direction of one connection; construct a
// fresh instance per session.
type Reassembler struct {
	InChunkSize uint32
	streams     map[int]*streamState
}

func NewReassembler() *Reassembler {
	return &Reassembler{
		InChunkSize: rtmpbase.InitialChunkSize,
		streams:     make(map[int]*streamState),
	}
}

func (r *Reassembler) stateFor(csid int) *streamState {
	s, ok := r.streams[csid]
	if !ok {
		s = &streamState{}
		r.streams[csid] = s
	}
	return s
}
