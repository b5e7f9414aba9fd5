package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

// DeviceKind is the device's physical role (hybrid/transit/edge), distinct
// from the AccountType discriminant.
type DeviceKind uint8

const (
	DeviceKindHybrid DeviceKind = iota
	DeviceKindTransit
	DeviceKindEdge
)

type DeviceHealth uint8

const (
	DeviceHealthUnknown DeviceHealth = iota
	DeviceHealthPending
	DeviceHealthReadyForLinks
	DeviceHealthReadyForUsers
	DeviceHealthImpaired
)

type InterfaceType uint8

const (
	InterfaceTypeInvalid InterfaceType = iota
	InterfaceTypeLoopback
	InterfaceTypePhysical
)

type LoopbackType uint8

const (
	LoopbackTypeNone LoopbackType = iota
	LoopbackTypeVpnv4
	LoopbackTypeIpv4
	LoopbackTypePimRpAddr
	LoopbackTypeReserved
)

type InterfaceCYOA uint8

const (
	InterfaceCYOANone InterfaceCYOA = iota
	InterfaceCYOAGREOverDIA
	InterfaceCYOAGREOverFabric
	InterfaceCYOAGREOverPrivatePeering
	InterfaceCYOAGREOverPublicPeering
	InterfaceCYOAGREOverCable
)

type InterfaceDIA uint8

const (
	InterfaceDIANone InterfaceDIA = iota
	InterfaceDIADIA
)

type RoutingMode uint8

const (
	RoutingModeStatic RoutingMode = iota
	RoutingModeBGP
)

// Interface is embedded in Device rather than FK'd, avoiding a Device<->
// Interface reference cycle (§9 "Cyclic references").
type Interface struct {
	Name               string
	InterfaceType      InterfaceType
	LoopbackType       LoopbackType
	VlanID             uint16
	IPNet              [5]byte
	NodeSegmentIdx     uint16
	Status             Status
	CYOA               InterfaceCYOA
	DIA                InterfaceDIA
	Bandwidth          uint64
	CIR                uint64
	MTU                uint16
	RoutingMode        RoutingMode
	UserTunnelEndpoint bool
}

func (i *Interface) size() int {
	return codec.StringSize(i.Name) + 1 + 1 + 2 + 5 + 2 + 1 + 1 + 1 + 8 + 8 + 2 + 1 + 1
}

func (i *Interface) encode(w *codec.Writer) {
	w.WriteString(i.Name)
	w.WriteU8(uint8(i.InterfaceType))
	w.WriteU8(uint8(i.LoopbackType))
	w.WriteU16(i.VlanID)
	w.WriteNetworkV4(i.IPNet)
	w.WriteU16(i.NodeSegmentIdx)
	w.WriteU8(uint8(i.Status))
	w.WriteU8(uint8(i.CYOA))
	w.WriteU8(uint8(i.DIA))
	w.WriteU64(i.Bandwidth)
	w.WriteU64(i.CIR)
	w.WriteU16(i.MTU)
	w.WriteU8(uint8(i.RoutingMode))
	w.WriteBool(i.UserTunnelEndpoint)
}

func decodeInterface(r *codec.Reader) Interface {
	var i Interface
	i.Name = r.ReadString()
	i.InterfaceType = InterfaceType(r.ReadU8())
	i.LoopbackType = LoopbackType(r.ReadU8())
	i.VlanID = r.ReadU16()
	i.IPNet = r.ReadNetworkV4()
	i.NodeSegmentIdx = r.ReadU16()
	i.Status = Status(r.ReadU8())
	i.CYOA = InterfaceCYOA(r.ReadU8())
	i.DIA = InterfaceDIA(r.ReadU8())
	i.Bandwidth = r.ReadU64()
	i.CIR = r.ReadU64()
	i.MTU = r.ReadU16()
	i.RoutingMode = RoutingMode(r.ReadU8())
	i.UserTunnelEndpoint = r.ReadBool()
	return i
}

// Device is a piece of fabric infrastructure owned by a Contributor and
// attached to a Location and an Exchange.
type Device struct {
	Owner             [32]byte
	Index             codec.Uint128
	BumpSeed          uint8
	ContributorPubKey [32]byte
	LocationPubKey    [32]byte
	ExchangePubKey    [32]byte
	DeviceKind        DeviceKind
	Code              string
	PublicIP          [4]byte
	DzPrefixes        [][5]byte
	MgmtVrf           string
	Interfaces        []Interface
	Status            Status
	DesiredStatus     Status
	Health            DeviceHealth
	MaxUsers          uint16
	UsersCount        uint16
	MaxUnicastUsers   uint16
	MaxMulticastUsers uint16
	UnicastUsers      uint16
	MulticastUsers    uint16
	ReferenceCount    uint32
}

func (d *Device) Discriminant() AccountType { return DeviceType }

func (d *Device) interfacesSize() int {
	n := 4
	for _, i := range d.Interfaces {
		n += i.size()
	}
	return n
}

func (d *Device) Size() int {
	return 1 + 32 + 16 + 1 + 32 + 32 + 32 + 1 +
		codec.StringSize(d.Code) + 4 +
		codec.NetworkV4SliceSize(d.DzPrefixes) +
		codec.StringSize(d.MgmtVrf) +
		d.interfacesSize() +
		1 + 1 + 1 + 2 + 2 + 2 + 2 + 2 + 2 + 4
}

func (d *Device) Encode() []byte {
	w := codec.NewWriter(d.Size())
	w.WriteU8(uint8(DeviceType))
	w.WritePubkey(d.Owner)
	w.WriteU128(d.Index)
	w.WriteU8(d.BumpSeed)
	w.WritePubkey(d.ContributorPubKey)
	w.WritePubkey(d.LocationPubKey)
	w.WritePubkey(d.ExchangePubKey)
	w.WriteU8(uint8(d.DeviceKind))
	w.WriteString(d.Code)
	w.WriteIPv4(d.PublicIP)
	w.WriteNetworkV4Slice(d.DzPrefixes)
	w.WriteString(d.MgmtVrf)
	w.WriteU32(uint32(len(d.Interfaces)))
	for i := range d.Interfaces {
		d.Interfaces[i].encode(w)
	}
	w.WriteU8(uint8(d.Status))
	w.WriteU8(uint8(d.DesiredStatus))
	w.WriteU8(uint8(d.Health))
	w.WriteU16(d.MaxUsers)
	w.WriteU16(d.UsersCount)
	w.WriteU16(d.MaxUnicastUsers)
	w.WriteU16(d.MaxMulticastUsers)
	w.WriteU16(d.UnicastUsers)
	w.WriteU16(d.MulticastUsers)
	w.WriteU32(d.ReferenceCount)
	return w.Bytes()
}

func (d *Device) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(DeviceType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	d.Owner = r.ReadPubkey()
	d.Index = r.ReadU128()
	d.BumpSeed = r.ReadU8()
	d.ContributorPubKey = r.ReadPubkey()
	d.LocationPubKey = r.ReadPubkey()
	d.ExchangePubKey = r.ReadPubkey()
	d.DeviceKind = DeviceKind(r.ReadU8())
	d.Code = r.ReadString()
	d.PublicIP = r.ReadIPv4()
	d.DzPrefixes = r.ReadNetworkV4Slice()
	d.MgmtVrf = r.ReadString()
	n := r.ReadU32()
	d.Interfaces = make([]Interface, n)
	for i := range d.Interfaces {
		d.Interfaces[i] = decodeInterface(r)
	}
	d.Status = Status(r.ReadU8())
	d.DesiredStatus = Status(r.ReadU8())
	d.Health = DeviceHealth(r.ReadU8())
	d.MaxUsers = r.ReadU16()
	d.UsersCount = r.ReadU16()
	d.MaxUnicastUsers = r.ReadU16()
	d.MaxMulticastUsers = r.ReadU16()
	d.UnicastUsers = r.ReadU16()
	d.MulticastUsers = r.ReadU16()
	d.ReferenceCount = r.ReadU32()
	return nil
}

// FindInterface returns a pointer to the named interface, or nil.
func (d *Device) FindInterface(name string) *Interface {
	for i := range d.Interfaces {
		if d.Interfaces[i].Name == name {
			return &d.Interfaces[i]
		}
	}
	return nil
}
