package netscan

import (
	"bytes"
	"net"
	"strings"
	"time"
)

// bannerBufferSize bounds the single read BannerProbe performs.
const bannerBufferSize = 4096

// ReadBanner performs one bounded read on conn and extracts the first line
// of whatever arrived before timeout. A read timeout with no bytes is not
// an error: it means the peer is silent, and the caller keeps the port's
// TCP-derived host state (section 4.3).
func ReadBanner(conn net.Conn, timeout time.Duration) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, bannerBufferSize)
	n, readErr := conn.Read(buf)
	if n == 0 {
		// Timeout or EOF with nothing sent: a silent peer, not a failure.
		return "", nil
	}
	_ = readErr // a partial read followed by EOF/timeout still yields a usable banner

	return firstLine(buf[:n]), nil
}

// firstLine extracts the content up to the first CR-LF, falling back to a
// bare LF, or returns the whole slice if no terminator arrived within the
// bounded read.
func firstLine(data []byte) string {
	if i := bytes.Index(data, []byte("\r\n")); i >= 0 {
		return string(data[:i])
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return strings.TrimSuffix(string(data[:i]), "\r")
	}
	return string(data)
}
