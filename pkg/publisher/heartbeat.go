package publisher

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
	"github.com/mediapush/rtmppublisher/pkg/rtmplog"
	"github.com/mediapush/rtmppublisher/pkg/rtmpsession"
)

// pollInterval bounds how often the heartbeat loop checks the stop
// flag; spec.md §4.6 requires observing cancellation within 100ms.
const pollInterval = 100 * time.Millisecond

// Heartbeat runs the periodic UserControl PingRequest task described in
// spec.md §4.6, grounded on original_source/rtmp_client_extended.cpp's
// sendHeartbeat/startHeartbeatThread/stopHeartbeatThread: a cooperative
// stop flag, and three consecutive send failures transition the session
// to Error.
type Heartbeat struct {
	sess     *rtmpsession.Session
	interval time.Duration
	log      rtmplog.Logger

	stop atomic.Bool
	done chan struct{}
}

func NewHeartbeat(sess *rtmpsession.Session, interval time.Duration, log rtmplog.Logger) *Heartbeat {
	if log == nil {
		log = rtmplog.Nop()
	}
	return &Heartbeat{sess: sess, interval: interval, log: log, done: make(chan struct{})}
}

// Start launches the heartbeat goroutine. Call Stop to join it.
func (h *Heartbeat) Start() {
	go h.run()
}

// Stop requests cancellation and blocks until the goroutine exits: within
// pollInterval while the loop is waiting, later if a ping send is still in
// progress (a send can block up to the session's write timeout).
func (h *Heartbeat) Stop() {
	h.stop.Store(true)
	<-h.done
}

func (h *Heartbeat) run() {
	defer close(h.done)

	failures := 0
	var nextFire time.Time

	for {
		if h.stop.Load() {
			return
		}
		now := time.Now()
		if nextFire.IsZero() {
			nextFire = now.Add(h.interval)
		}
		if now.Before(nextFire) {
			time.Sleep(pollInterval)
			continue
		}
		nextFire = now.Add(h.interval)

		state := h.sess.State()
		if state != rtmpbase.StateConnected && state != rtmpbase.StatePublishing {
			continue
		}

		if err := h.sess.SendHeartbeatPing(uint32(now.Unix())); err != nil {
			failures++
			h.log.Warnf("[%s] heartbeat send failed (%d/3): %v", h.sess.UniqueKey(), failures, err)
			if failures >= 3 {
				h.log.Errorf("[%s] heartbeat failed 3 times in a row, tearing down session", h.sess.UniqueKey())
				h.sess.Fail(fmt.Errorf("%w: heartbeat failed 3 times in a row", rtmpbase.ErrIo))
				return
			}
			continue
		}
		failures = 0
	}
}
