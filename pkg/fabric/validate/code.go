package validate

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrInvalidCode = errors.New("code must be alphanumeric")
	ErrInvalidCIDR = errors.New("invalid CIDR")
)

// Code canonicalizes an entity code per I4: lower-cased, and validated
// against the alphanumeric + `_-:` grammar the teacher's CLI enforces.
func Code(val string) (string, error) {
	for _, c := range val {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '_' || c == '-' || c == ':') {
			return "", fmt.Errorf("%w: %q", ErrInvalidCode, val)
		}
	}
	return strings.ToLower(val), nil
}

// CIDR parses a "a.b.c.d/n" string into the wire NetworkV4 representation
// (4 bytes IP + 1 byte prefix length).
func CIDR(s string) ([5]byte, error) {
	ip, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return [5]byte{}, fmt.Errorf("%w: %q: %w", ErrInvalidCIDR, s, err)
	}
	v4 := ip.To4()
	if v4 == nil {
		return [5]byte{}, fmt.Errorf("%w: %q: not IPv4", ErrInvalidCIDR, s)
	}
	ones, _ := ipnet.Mask.Size()
	var out [5]byte
	copy(out[:4], v4)
	out[4] = byte(ones)
	return out, nil
}

// CIDRToString is the inverse of CIDR.
func CIDRToString(n [5]byte) string {
	return fmt.Sprintf("%d.%d.%d.%d/%d", n[0], n[1], n[2], n[3], n[4])
}
