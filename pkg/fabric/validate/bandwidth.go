package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidBandwidth = errors.New("invalid bandwidth format")

// ParseBandwidth parses strings like "1Gbps", "100Mbps", "250kbps", "500bps"
// into bits per second. Grounded on bandwidth_parse in the original
// serviceability program's types.rs.
func ParseBandwidth(s string) (uint64, error) {
	orig := s
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	s = strings.ReplaceAll(s, "gbps", "g")
	s = strings.ReplaceAll(s, "mbps", "m")
	s = strings.ReplaceAll(s, "kbps", "k")
	s = strings.ReplaceAll(s, "bps", "b")

	unit := byte('k')
	if len(s) > 0 {
		last := s[len(s)-1]
		if last >= 'a' && last <= 'z' {
			unit = last
			s = s[:len(s)-1]
		}
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBandwidth, orig)
	}

	switch unit {
	case 'b':
		return uint64(val), nil
	case 'k':
		return uint64(val * 1000), nil
	case 'm':
		return uint64(val * 1_000_000), nil
	case 'g':
		return uint64(val * 1_000_000_000), nil
	default:
		return uint64(val * 1000), nil
	}
}

// FormatBandwidth renders bps back to its canonical form, matching
// bandwidth_to_string. ParseBandwidth(FormatBandwidth(x)) == x is P9.
func FormatBandwidth(bps uint64) string {
	switch {
	case bps < 1_000:
		return fmt.Sprintf("%dbps", bps)
	case bps < 1_000_000:
		if bps%1_000 == 0 {
			return fmt.Sprintf("%dKbps", bps/1_000)
		}
		return fmt.Sprintf("%.2fKbps", float64(bps)/1_000)
	case bps < 1_000_000_000:
		if bps%1_000_000 == 0 {
			return fmt.Sprintf("%dMbps", bps/1_000_000)
		}
		return fmt.Sprintf("%.2fMbps", float64(bps)/1_000_000)
	default:
		if bps%1_000_000_000 == 0 {
			return fmt.Sprintf("%dGbps", bps/1_000_000_000)
		}
		return fmt.Sprintf("%.2fGbps", float64(bps)/1_000_000_000)
	}
}
