// Package alloc implements the two allocator flavors shared by on-chain
// ResourceExtension accounts and the activator's in-memory mirrors: a
// bit-vector IP-block allocator and a monotonic ID allocator. Both expose the
// same contract — allocate one unit from a finite universe, release by key,
// deterministic iteration order — grounded on
// activator/src/ipblockallocator.rs from the original implementation.
package alloc

import (
	"fmt"
	"log/slog"
	"math"
	"net"
)

// CIDR is an IPv4 network in network byte order: 4 octets (most significant
// first) plus a prefix length,
// matching the on-chain NetworkV4 wire layout ([5]byte: ip[4] + prefix).
type CIDR struct {
	IP     [4]byte
	Prefix uint8
}

func (c CIDR) String() string {
	return fmt.Sprintf("%s/%d", net.IP(c.IP[:]).String(), c.Prefix)
}

func (c CIDR) asU32() uint32 {
	return uint32(c.IP[0])<<24 | uint32(c.IP[1])<<16 | uint32(c.IP[2])<<8 | uint32(c.IP[3])
}

func fromU32(v uint32) [4]byte {
	return [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// ParseCIDR parses the canonical "A.B.C.D/prefix" form.
func ParseCIDR(s string) (CIDR, error) {
	ip, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return CIDR{}, fmt.Errorf("invalid CIDR %q: %w", s, err)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return CIDR{}, fmt.Errorf("invalid CIDR %q: not IPv4", s)
	}
	prefix, _ := ipnet.Mask.Size()
	var out CIDR
	copy(out.IP[:], ip4)
	out.Prefix = uint8(prefix)
	return out, nil
}

// IPBlockAllocator tracks which addresses of a base CIDR block are currently
// assigned, one bit per address. Grounded on IPBlockAllocator in
// ipblockallocator.rs.
type IPBlockAllocator struct {
	base     CIDR
	assigned []bool // one entry per address in the block; len == totalIPs
	totalIPs int
	log      *slog.Logger
}

// NewIPBlockAllocator creates an allocator over the given base block. base
// is masked down to its network address first — mirroring network() in
// ipblockallocator.rs — so offsets in index_to_ip/ip_to_index are always
// computed from the block's network address, not whatever host address the
// caller happened to pass as base.
func NewIPBlockAllocator(base CIDR) *IPBlockAllocator {
	total := 1
	if base.Prefix <= 32 {
		total = 1 << (32 - base.Prefix)
	}
	if base.Prefix < 32 {
		mask := uint32(0xFFFFFFFF) << (32 - base.Prefix)
		base.IP = fromU32(base.asU32() & mask)
	}
	return &IPBlockAllocator{
		base:     base,
		assigned: make([]bool, total),
		totalIPs: total,
		log:      slog.Default(),
	}
}

// SetLogger overrides the logger used for out-of-range warnings.
func (a *IPBlockAllocator) SetLogger(l *slog.Logger) { a.log = l }

func (a *IPBlockAllocator) Base() CIDR { return a.base }

// Contains reports whether ip falls within the base block (both bounds).
func (a *IPBlockAllocator) Contains(ip [4]byte) bool {
	base := a.base.asU32()
	v := CIDR{IP: ip}.asU32()
	return v >= base && v < base+uint32(a.totalIPs)
}

func (a *IPBlockAllocator) ipToIndex(ip [4]byte) (int, error) {
	if !a.Contains(ip) {
		return 0, fmt.Errorf("ip address %s is not in base block %s", net.IP(ip[:]), a.base)
	}
	return int(CIDR{IP: ip}.asU32() - a.base.asU32()), nil
}

func (a *IPBlockAllocator) indexToIP(i int) [4]byte {
	return fromU32(a.base.asU32() + uint32(i))
}

// AssignBlock marks the given block as assigned. Out-of-range input is a
// logged no-op, not an error — the spec's fix for the original implementation's
// panic-on-out-of-range bug.
func (a *IPBlockAllocator) AssignBlock(block CIDR) {
	a.setBlock(block, true)
}

// UnassignBlock marks the given block as unassigned. Idempotent: clearing an
// already-clear bit is a successful no-op. Out-of-range input is a logged
// no-op.
func (a *IPBlockAllocator) UnassignBlock(block CIDR) {
	a.setBlock(block, false)
}

func (a *IPBlockAllocator) setBlock(block CIDR, value bool) {
	start, err := a.ipToIndex(block.IP)
	if err != nil {
		a.log.Warn("ip block out of range, ignoring", "block", block, "base", a.base, "error", err)
		return
	}
	if block.Prefix > 32 {
		a.log.Warn("invalid block prefix, ignoring", "block", block)
		return
	}
	size := 1
	if block.Prefix <= 32 {
		size = 1 << (32 - block.Prefix)
	}
	if start+size > a.totalIPs {
		a.log.Warn("ip block exceeds pool bound, ignoring", "block", block, "base", a.base)
		return
	}
	for i := start; i < start+size; i++ {
		a.assigned[i] = value
	}
}

// NextAvailableBlock scans for the first free window of ip_count consecutive
// addresses starting at reserve, reserving it. Returns false if the pool is
// exhausted. Grounded on next_available_block in ipblockallocator.rs.
func (a *IPBlockAllocator) NextAvailableBlock(reserve, ipCount int) (CIDR, bool) {
	if ipCount <= 0 {
		return CIDR{}, false
	}
	blockPrefix := int(32 - uint(math.Ceil(math.Log2(float64(ipCount)))))
	if blockPrefix < int(a.base.Prefix) {
		blockPrefix = int(a.base.Prefix)
	}
	blockSize := 1 << (32 - blockPrefix)

	start := reserve
	if a.base.Prefix == 32 {
		start = 0
	}

	for start+blockSize <= a.totalIPs {
		if !anySet(a.assigned[start : start+blockSize]) {
			for i := start; i < start+blockSize; i++ {
				a.assigned[i] = true
			}
			return CIDR{IP: a.indexToIP(start), Prefix: uint8(blockPrefix)}, true
		}
		start += blockSize
	}
	return CIDR{}, false
}

func anySet(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

// AssignedCount returns the number of currently assigned addresses.
func (a *IPBlockAllocator) AssignedCount() int {
	n := 0
	for _, b := range a.assigned {
		if b {
			n++
		}
	}
	return n
}

func (a *IPBlockAllocator) TotalIPs() int { return a.totalIPs }

// Bitmap packs the assigned bits into a byte slice (LSB-first within each
// byte), the on-disk layout of a ResourceExtension's Storage field.
func (a *IPBlockAllocator) Bitmap() []byte {
	out := make([]byte, (a.totalIPs+7)/8)
	for i, set := range a.assigned {
		if set {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// LoadBitmap replaces the allocator's assigned set from a packed bitmap,
// used to rebuild the activator's mirror from the ledger at boot (I8).
func (a *IPBlockAllocator) LoadBitmap(bitmap []byte) {
	for i := range a.assigned {
		byteIdx, bitIdx := i/8, uint(i%8)
		a.assigned[i] = byteIdx < len(bitmap) && bitmap[byteIdx]&(1<<bitIdx) != 0
	}
}
