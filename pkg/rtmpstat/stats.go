// Package rtmpstat tracks thread-safe publish counters and the session's
// last-error string, per spec.md §3/§4.7/§7. Grounded on
// app/demo/pushrtmp/pushrtmp.go's use of naza/pkg/bitrate for rolling
// bitrate, generalized from that demo's single global `br` into a
// per-session sidecar.
package rtmpstat

import (
	"sync"
	"time"

	"github.com/q191201771/naza/pkg/bitrate"
)

// Snapshot is an atomic, consistent read of all counters at one instant.
type Snapshot struct {
	BytesSent       uint64
	BytesReceived   uint64
	PacketsSent     uint64
	PacketsReceived uint64
	AudioFrames     uint64
	VideoFrames     uint64
	DroppedFrames   uint64
	CurrentBitrate  uint32 // bits/sec
	AvgBitrate      uint32 // bits/sec
	LastError       string
}

// Stats is the shared sidecar C7 describes, always mutated under mu. Only
// the publish loop records into it; the session's receive path does not
// call RecordReceived, so BytesReceived and PacketsReceived stay at zero
// during a publish.
type Stats struct {
	mu sync.Mutex

	bytesSent       uint64
	bytesReceived   uint64
	packetsSent     uint64
	packetsReceived uint64
	audioFrames     uint64
	videoFrames     uint64
	droppedFrames   uint64

	br        bitrate.Bitrate
	startTime time.Time
	lastError string

	enabled bool
}

// New constructs a Stats sidecar. enabled gates whether counters are
// updated at all, matching the [statistics] enable_statistics config key.
func New(enabled bool) *Stats {
	return &Stats{
		br:        bitrate.New(),
		startTime: time.Now(),
		enabled:   enabled,
	}
}

func (s *Stats) RecordSent(msgType uint8, n int) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytesSent += uint64(n)
	s.packetsSent++
	s.br.Add(n)
	switch msgType {
	case 8:
		s.audioFrames++
	case 9:
		s.videoFrames++
	}
}

func (s *Stats) RecordReceived(n int) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytesReceived += uint64(n)
	s.packetsReceived++
}

func (s *Stats) RecordDropped() {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.droppedFrames++
}

func (s *Stats) SetLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// Get returns an atomic snapshot of every counter.
func (s *Stats) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	runSeconds := time.Since(s.startTime).Seconds()
	var avg uint32
	if runSeconds > 0 {
		avg = uint32(float64(s.bytesSent) * 8 / runSeconds)
	}
	return Snapshot{
		BytesSent:       s.bytesSent,
		BytesReceived:   s.bytesReceived,
		PacketsSent:     s.packetsSent,
		PacketsReceived: s.packetsReceived,
		AudioFrames:     s.audioFrames,
		VideoFrames:     s.videoFrames,
		DroppedFrames:   s.droppedFrames,
		CurrentBitrate:  uint32(s.br.Rate() * 1000), // naza's Rate() is kbit/s
		AvgBitrate:      avg,
		LastError:       s.lastError,
	}
}
