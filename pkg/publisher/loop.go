// Package publisher drives the FLV-to-RTMP timed dispatch loop and its
// cooperating heartbeat task, per spec.md §4.6. The pacing algorithm is
// grounded on lal's pkg/httpflv/flv_file_pump.go PumpWithTags, adapted
// from lal's recursive multi-round pump into this client's single-pass
// publish-to-EOF loop (spec.md has no looping requirement) and from its
// tag-shaped callback into directly driving an rtmpsession.Session.
package publisher

import (
	"time"

	"github.com/q191201771/naza/pkg/mock"

	"github.com/mediapush/rtmppublisher/pkg/flv"
	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
	"github.com/mediapush/rtmppublisher/pkg/rtmplog"
	"github.com/mediapush/rtmppublisher/pkg/rtmpsession"
	"github.com/mediapush/rtmppublisher/pkg/rtmpstat"
)

// Clock is swappable for deterministic pacing tests, mirroring
// flv_file_pump.go's package-level `var Clock = mock.NewStdClock()`.
var Clock mock.Clock = mock.NewStdClock()

const maxPacingSleep = 5 * time.Second

// csidForTag maps an FLV tag type onto its RTMP message type and
// chunk-stream-id, per spec.md §4.6's table.
func csidForTag(tagType uint8) (msgTypeId uint8, csid int, ok bool) {
	switch tagType {
	case flv.TagTypeAudio:
		return rtmpbase.MsgTypeIdAudio, rtmpbase.CsidAudio, true
	case flv.TagTypeVideo:
		return rtmpbase.MsgTypeIdVideo, rtmpbase.CsidVideo, true
	case flv.TagTypeScript:
		return rtmpbase.MsgTypeIdMetadata, rtmpbase.CsidMetadata, true
	default:
		return 0, 0, false
	}
}

// Run paces tags from r across the session's publish connection until
// r is exhausted or sess transitions to Error. The first tag's timestamp
// establishes t0; subsequent tags are paced by their offset from it
// against wall-clock elapsed time, never sleeping past maxPacingSleep in
// one call (guards against corrupt timestamps, per spec.md §4.6).
func Run(sess *rtmpsession.Session, r *flv.Reader, stats *rtmpstat.Stats, log rtmplog.Logger) error {
	if log == nil {
		log = rtmplog.Nop()
	}

	var haveBase bool
	var baseTag, baseWall int64

	for {
		tag, err := r.Next()
		if err != nil {
			return nil // io.EOF: clean end of file, not a failure
		}

		msgTypeId, csid, ok := csidForTag(tag.Type)
		if !ok {
			stats.RecordDropped()
			continue
		}

		if !haveBase {
			baseTag = int64(tag.Timestamp)
			baseWall = Clock.Now().UnixNano() / 1e6
			haveBase = true
		} else {
			wantElapsed := int64(tag.Timestamp) - baseTag
			gotElapsed := Clock.Now().UnixNano()/1e6 - baseWall
			if diff := wantElapsed - gotElapsed; diff > 0 {
				sleep := time.Duration(diff) * time.Millisecond
				if sleep > maxPacingSleep {
					sleep = maxPacingSleep
				}
				Clock.Sleep(sleep)
			}
		}

		if sess.State() != rtmpbase.StatePublishing && sess.State() != rtmpbase.StateConnected {
			return rtmpbase.NewErrPublish("session left publishing state mid-stream")
		}

		if err := sess.SendMediaMessage(csid, msgTypeId, tag.Timestamp, tag.Payload); err != nil {
			log.Errorf("send media message failed: %v", err)
			return err
		}
		stats.RecordSent(msgTypeId, len(tag.Payload)+11)
	}
}
