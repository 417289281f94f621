package common

import (
	"fmt"
	"net"
)

// Substr returns a substring of s addressed by rune, not by byte, so
// multi-byte UTF-8 text is not split in the middle of a code point.
// A negative start is clamped to 0; a size beyond the string length is
// clamped to the remaining runes.
func Substr(s string, start, size int) string {
	runes := []rune(s)

	if start < 0 {
		start = 0
	}

	if start >= len(runes) {
		return ""
	}

	end := start + size
	if end > len(runes) || end < 0 {
		end = len(runes)
	}

	return string(runes[start:end])
}

// ClampInt64ToInt clamps a int64 value into the platform int range so it
// can be safely narrowed without silently wrapping.
func ClampInt64ToInt(v int64) int {
	const maxInt = int64(^uint(0) >> 1)

	if v > maxInt {
		return int(maxInt)
	}

	if v < -maxInt-1 {
		return int(-maxInt - 1)
	}

	return int(v)
}

// GetOutboundIP returns the local IP address that would be used to reach
// the internet. It is used as a fallback hostname label for tracing
// resources when the OS hostname is unavailable.
func GetOutboundIP() (net.IP, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil, fmt.Errorf("dial outbound probe: %w", err)
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local addr type %T", conn.LocalAddr())
	}

	return localAddr.IP, nil
}
