package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBandwidth(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"1Gbps", 1_000_000_000},
		{"100Mbps", 100_000_000},
		{"250kbps", 250_000},
		{"500bps", 500},
	}
	for _, tc := range cases {
		got, err := ParseBandwidth(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

// Round-trip law: format(parse(s)) == s for canonical strings (P9).
func TestFormatBandwidthRoundTrip(t *testing.T) {
	for _, s := range []string{"1bps", "500bps", "1Kbps", "250Mbps", "3Gbps"} {
		v, err := ParseBandwidth(s)
		require.NoError(t, err)
		require.Equal(t, s, FormatBandwidth(v))
	}
}

func TestParseBandwidthInvalid(t *testing.T) {
	_, err := ParseBandwidth("not-a-bandwidth")
	require.Error(t, err)
}
