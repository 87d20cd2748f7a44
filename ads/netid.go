// Package ads implements the Beckhoff ADS (Automation Device Specification)
// protocol over AMS/TCP for communicating with TwinCAT runtimes.
package ads

import (
	"fmt"
	"strconv"
	"strings"
)

// AmsNetId is a 6-byte AMS network identifier, conventionally printed as
// "x.x.x.x.x.x" (e.g. "192.168.1.100.1.1").
type AmsNetId [6]byte

// ParseAmsNetId parses a dotted 6-octet AMS Net ID string.
func ParseAmsNetId(s string) (AmsNetId, error) {
	var id AmsNetId

	if s == "" {
		return id, fmt.Errorf("ads: empty AMS Net ID")
	}

	parts := strings.Split(s, ".")
	if len(parts) != 6 {
		return id, fmt.Errorf("ads: invalid AMS Net ID %q, expected x.x.x.x.x.x", s)
	}

	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return id, fmt.Errorf("ads: invalid AMS Net ID component %q: %w", part, err)
		}
		id[i] = byte(v)
	}

	return id, nil
}

// String returns the dotted representation of the Net ID.
func (n AmsNetId) String() string {
	return fmt.Sprintf("%d.%d.%d.%d.%d.%d", n[0], n[1], n[2], n[3], n[4], n[5])
}

// IsZero reports whether the Net ID is all zeros.
func (n AmsNetId) IsZero() bool {
	return n == AmsNetId{}
}

// AmsAddress identifies an AMS endpoint: a Net ID plus a port within it.
type AmsAddress struct {
	NetId AmsNetId
	Port  uint16
}

// String renders the address as "net.id:port", suitable for log messages.
func (a AmsAddress) String() string {
	return fmt.Sprintf("%s:%d", a.NetId, a.Port)
}
