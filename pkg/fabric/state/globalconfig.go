package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

// GlobalConfig is the singleton account holding fabric-wide tunnel/multicast
// CIDR blocks and BGP numbering, grounded on the Config struct in the
// teacher's serviceability state.go.
type GlobalConfig struct {
	LocalASN                uint32
	RemoteASN                uint32
	DeviceTunnelBlock        [5]byte
	UserTunnelBlock          [5]byte
	MulticastGroupBlock      [5]byte
	MulticastPublisherBlock  [5]byte
	NextBGPCommunity         uint16
	BumpSeed                 uint8
}

func (c *GlobalConfig) Discriminant() AccountType { return GlobalConfigType }

func (c *GlobalConfig) Size() int {
	return 1 + 4 + 4 + 5 + 5 + 5 + 5 + 2 + 1
}

func (c *GlobalConfig) Encode() []byte {
	w := codec.NewWriter(c.Size())
	w.WriteU8(uint8(GlobalConfigType))
	w.WriteU32(c.LocalASN)
	w.WriteU32(c.RemoteASN)
	w.WriteNetworkV4(c.DeviceTunnelBlock)
	w.WriteNetworkV4(c.UserTunnelBlock)
	w.WriteNetworkV4(c.MulticastGroupBlock)
	w.WriteNetworkV4(c.MulticastPublisherBlock)
	w.WriteU16(c.NextBGPCommunity)
	w.WriteU8(c.BumpSeed)
	return w.Bytes()
}

func (c *GlobalConfig) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(GlobalConfigType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	c.LocalASN = r.ReadU32()
	c.RemoteASN = r.ReadU32()
	c.DeviceTunnelBlock = r.ReadNetworkV4()
	c.UserTunnelBlock = r.ReadNetworkV4()
	c.MulticastGroupBlock = r.ReadNetworkV4()
	c.MulticastPublisherBlock = r.ReadNetworkV4()
	c.NextBGPCommunity = r.ReadU16()
	c.BumpSeed = r.ReadU8()
	return nil
}

// NextBGPCommunityValue returns the community to assign to an Exchange being
// created and advances the counter (§4.4: "fetching next_bgp_community,
// using it, then incrementing").
func (c *GlobalConfig) NextBGPCommunityValue() uint16 {
	v := c.NextBGPCommunity
	c.NextBGPCommunity++
	return v
}

// ProgramConfig is the singleton account carrying the program's own semantic
// version, used by CLI version checks (out of scope here beyond storage).
type ProgramConfig struct {
	Major, Minor, Patch uint32
	BumpSeed            uint8
}

func (p *ProgramConfig) Discriminant() AccountType { return ProgramConfigType }
func (p *ProgramConfig) Size() int                 { return 1 + 4 + 4 + 4 + 1 }

func (p *ProgramConfig) Encode() []byte {
	w := codec.NewWriter(p.Size())
	w.WriteU8(uint8(ProgramConfigType))
	w.WriteU32(p.Major)
	w.WriteU32(p.Minor)
	w.WriteU32(p.Patch)
	w.WriteU8(p.BumpSeed)
	return w.Bytes()
}

func (p *ProgramConfig) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(ProgramConfigType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	p.Major = r.ReadU32()
	p.Minor = r.ReadU32()
	p.Patch = r.ReadU32()
	p.BumpSeed = r.ReadU8()
	return nil
}
