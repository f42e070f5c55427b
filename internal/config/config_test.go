package config

import (
	"strings"
	"testing"
)

const sample = `
; comment
[connection]
connect_timeout_ms=5000
max_retry_count=5

[rtmp]
enable_heartbeat=yes
heartbeat_interval_ms=15000

# another comment
[logging]
log_level=debug
`

func TestLoadParsesSections(t *testing.T) {
	p, err := Load(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := p.Int("connection", "connect_timeout_ms", 10000); got != 5000 {
		t.Fatalf("connect_timeout_ms = %d, want 5000", got)
	}
	if got := p.Int("connection", "max_retry_count", 3); got != 5 {
		t.Fatalf("max_retry_count = %d, want 5", got)
	}
	if got := p.Bool("rtmp", "enable_heartbeat", false); !got {
		t.Fatalf("enable_heartbeat = false, want true")
	}
	if got := p.String("logging", "log_level", "info"); got != "debug" {
		t.Fatalf("log_level = %q, want debug", got)
	}
}

func TestLoadUnknownKeyUsesDefault(t *testing.T) {
	p, err := Load(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := p.Int("performance", "max_queue_size", 1000); got != 1000 {
		t.Fatalf("max_queue_size = %d, want default 1000", got)
	}
}

func TestBoolTruthyTokens(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"true", true}, {"1", true}, {"yes", true}, {"on", true},
		{"TRUE", true}, {"false", false}, {"0", false}, {"nope", false},
	}
	for _, c := range cases {
		p, err := Load(strings.NewReader("[s]\nk=" + c.raw + "\n"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got := p.Bool("s", "k", false); got != c.want {
			t.Fatalf("Bool(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}
