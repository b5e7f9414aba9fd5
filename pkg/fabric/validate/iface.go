// Package validate implements the canonicalization grammars the
// serviceability program enforces at its boundary: interface names (I5),
// bandwidth strings, CIDR blocks, and entity codes (I4).
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidInterfaceName = errors.New("invalid interface name")

var ifaceShorthand = map[string]string{
	"et": "Ethernet",
	"sw": "Switch",
	"lo": "Loopback",
	"po": "Port-channel",
	"vl": "Vlan",
}

// InterfaceName canonicalizes val per I5: short forms et/sw/lo/po/vl expand
// to their long form, and the result must match a strict per-kind grammar.
// It is idempotent: InterfaceName(InterfaceName(x)) == InterfaceName(x) for
// every x that succeeds once (P8).
func InterfaceName(val string) (string, error) {
	if isValidInterfaceName(val) {
		return capitalize(val), nil
	}
	if len(val) >= 2 {
		if long, ok := ifaceShorthand[strings.ToLower(val[:2])]; ok {
			alt := long + val[2:]
			if isValidInterfaceName(alt) {
				return capitalize(alt), nil
			}
		}
	}
	return "", fmt.Errorf("%w: must match EthernetX[/X], SwitchX/X/X, LoopbackX, Port-channelX, or VlanX", ErrInvalidInterfaceName)
}

func capitalize(s string) string {
	ls := strings.ToLower(s)
	if ls == "" {
		return ls
	}
	return strings.ToUpper(ls[:1]) + ls[1:]
}

func isValidInterfaceName(s string) bool {
	lower := strings.ToLower(s)
	main, sub, hasSub := strings.Cut(lower, ".")

	var ok bool
	switch {
	case strings.HasPrefix(main, "ethernet"):
		ok = isEthernet(strings.TrimPrefix(main, "ethernet"))
	case strings.HasPrefix(main, "switch"):
		ok = isSwitch(strings.TrimPrefix(main, "switch"))
	case strings.HasPrefix(main, "loopback"):
		ok = isUint(strings.TrimPrefix(main, "loopback"))
	case strings.HasPrefix(main, "port-channel"):
		ok = isUint(strings.TrimPrefix(main, "port-channel"))
	case strings.HasPrefix(main, "vlan"):
		ok = isUint(strings.TrimPrefix(main, "vlan"))
	}
	if !ok {
		return false
	}
	if hasSub {
		return isUint(sub)
	}
	return true
}

// isEthernet checks for "\d+" or "\d+/\d+".
func isEthernet(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) == 0 || len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !isUint(p) {
			return false
		}
	}
	return true
}

// isSwitch checks for "\d+/\d+/\d+".
func isSwitch(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if !isUint(p) {
			return false
		}
	}
	return true
}

func isUint(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 32)
	return err == nil
}
