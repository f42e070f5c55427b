package rtmpbase

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultRtmpPort is used whenever the url omits an explicit port.
const DefaultRtmpPort = 1935

// Url is a parsed `rtmp://host[:port]/app/stream_key` publish target.
//
// Paths with more than two segments concatenate all but the last into App,
// e.g. rtmp://h/a/b/c has App == "a/b" and StreamKey == "c".
type Url struct {
	Raw        string
	Host       string
	Port       int
	HostWithPort string
	App        string
	StreamKey  string
}

// TcUrl is the value the connect() command advertises to the server.
func (u Url) TcUrl() string {
	return fmt.Sprintf("rtmp://%s/%s", u.HostWithPort, u.App)
}

// ParseUrl parses a publish target per spec.md §6. It never consults net.Dial
// or DNS; HostWithPort is only used later when the session opens the socket.
func ParseUrl(raw string) (Url, error) {
	var u Url
	u.Raw = raw

	const scheme = "rtmp://"
	if !strings.HasPrefix(raw, scheme) {
		return u, NewErrUrlParse(raw, "missing rtmp:// scheme")
	}
	rest := raw[len(scheme):]

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return u, NewErrUrlParse(raw, "missing path")
	}
	hostport := rest[:slash]
	path := rest[slash+1:]
	if path == "" {
		return u, NewErrUrlParse(raw, "missing app/stream path")
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port present
		u.Host = hostport
		u.Port = DefaultRtmpPort
	} else {
		u.Host = host
		u.Port, err = strconv.Atoi(portStr)
		if err != nil {
			return u, NewErrUrlParse(raw, "invalid port")
		}
	}
	u.HostWithPort = net.JoinHostPort(u.Host, strconv.Itoa(u.Port))

	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 {
		return u, NewErrUrlParse(raw, "path needs at least app and stream segments")
	}
	u.App = strings.Join(segs[:len(segs)-1], "/")
	u.StreamKey = segs[len(segs)-1]
	if u.App == "" || u.StreamKey == "" {
		return u, NewErrUrlParse(raw, "empty app or stream segment")
	}

	return u, nil
}

func NewErrUrlParse(raw, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrUrlParse, reason, raw)
}
