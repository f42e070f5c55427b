// Command rtmppublisher pushes a pre-recorded FLV file to an RTMP server
// in real time. Usage: rtmp_publisher <rtmp_url> <flv_file> [config_file].
package main

import (
	"os"
	"time"

	"github.com/mediapush/rtmppublisher/internal/config"
	"github.com/mediapush/rtmppublisher/pkg/flv"
	"github.com/mediapush/rtmppublisher/pkg/publisher"
	"github.com/mediapush/rtmppublisher/pkg/rtmpbase"
	"github.com/mediapush/rtmppublisher/pkg/rtmplog"
	"github.com/mediapush/rtmppublisher/pkg/rtmpsession"
	"github.com/mediapush/rtmppublisher/pkg/rtmpstat"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run implements the documented exit-code contract: 0 on successful
// push-to-EOF, 1 on any failure (spec.md §6).
func run(args []string) int {
	if len(args) < 2 {
		os.Stderr.WriteString("usage: rtmp_publisher <rtmp_url> <flv_file> [config_file]\n")
		return 1
	}
	rawURL, flvPath := args[0], args[1]

	var provider config.Provider = config.Defaults{}
	if len(args) >= 3 {
		f, err := os.Open(args[2])
		if err != nil {
			os.Stderr.WriteString("failed to open config file: " + err.Error() + "\n")
			return 1
		}
		defer f.Close()
		provider, err = config.Load(f)
		if err != nil {
			os.Stderr.WriteString("failed to parse config file: " + err.Error() + "\n")
			return 1
		}
	}

	level := rtmplog.ParseLevel(provider.String("logging", "log_level", "info"))
	log, err := rtmplog.New(level, "")
	if err != nil {
		os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		return 1
	}
	defer log.Flush()

	stats := rtmpstat.New(provider.Bool("statistics", "enable_statistics", true))

	url, err := rtmpbase.ParseUrl(rawURL)
	if err != nil {
		log.Errorf("invalid rtmp url: %v", err)
		return flushAndFail(stats, log)
	}

	flvFile, err := os.Open(flvPath)
	if err != nil {
		log.Errorf("failed to open flv file: %v", err)
		return flushAndFail(stats, log)
	}
	defer flvFile.Close()

	reader, err := flv.NewReader(flvFile)
	if err != nil {
		log.Errorf("invalid flv file: %v", err)
		return flushAndFail(stats, log)
	}

	timeouts := rtmpsession.Timeouts{
		Connect: durationMs(provider.Int("connection", "connect_timeout_ms", 10000)),
		Read:    durationMs(provider.Int("connection", "read_timeout_ms", 3000)),
		Write:   durationMs(provider.Int("connection", "write_timeout_ms", 3000)),
	}
	sess := rtmpsession.New(log, timeouts)

	maxRetries := provider.Int("connection", "max_retry_count", 3)
	retryInterval := durationMs(provider.Int("connection", "retry_interval_ms", 1000))
	if err := sess.ConnectWithRetry(url, maxRetries, retryInterval); err != nil {
		log.Errorf("connect failed: %v", err)
		return flushAndFail(stats, log)
	}
	defer sess.Close()

	var hb *publisher.Heartbeat
	if provider.Bool("rtmp", "enable_heartbeat", true) {
		interval := durationMs(provider.Int("rtmp", "heartbeat_interval_ms", 30000))
		hb = publisher.NewHeartbeat(sess, interval, log)
		hb.Start()
		defer hb.Stop()
	}

	if err := publisher.Run(sess, reader, stats, log); err != nil {
		stats.SetLastError(err.Error())
		log.Errorf("publish loop failed: %v", err)
		return flushAndFail(stats, log)
	}

	snap := stats.Get()
	log.Infof("publish complete: bytes_sent=%d packets_sent=%d audio_frames=%d video_frames=%d",
		snap.BytesSent, snap.PacketsSent, snap.AudioFrames, snap.VideoFrames)
	return 0
}

func flushAndFail(stats *rtmpstat.Stats, log rtmplog.Logger) int {
	snap := stats.Get()
	log.Errorf("statistics at failure: bytes_sent=%d packets_sent=%d last_error=%q",
		snap.BytesSent, snap.PacketsSent, snap.LastError)
	return 1
}

func durationMs(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
