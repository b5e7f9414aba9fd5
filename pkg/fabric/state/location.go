package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

// Location is a physical point of presence, grounded on the Location struct
// in the teacher's serviceability state.go.
type Location struct {
	Owner          [32]byte
	Index          codec.Uint128
	BumpSeed       uint8
	Code           string
	Name           string
	Country        string
	Lat            float64
	Lng            float64
	LocID          uint32
	Status         Status
	ReferenceCount uint32
}

func (l *Location) Discriminant() AccountType { return LocationType }

func (l *Location) Size() int {
	return 1 + 32 + 16 + 1 +
		codec.StringSize(l.Code) + codec.StringSize(l.Name) + codec.StringSize(l.Country) +
		8 + 8 + 4 + 1 + 4
}

func (l *Location) Encode() []byte {
	w := codec.NewWriter(l.Size())
	w.WriteU8(uint8(LocationType))
	w.WritePubkey(l.Owner)
	w.WriteU128(l.Index)
	w.WriteU8(l.BumpSeed)
	w.WriteString(l.Code)
	w.WriteString(l.Name)
	w.WriteString(l.Country)
	w.WriteF64(l.Lat)
	w.WriteF64(l.Lng)
	w.WriteU32(l.LocID)
	w.WriteU8(uint8(l.Status))
	w.WriteU32(l.ReferenceCount)
	return w.Bytes()
}

func (l *Location) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(LocationType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	l.Owner = r.ReadPubkey()
	l.Index = r.ReadU128()
	l.BumpSeed = r.ReadU8()
	l.Code = r.ReadString()
	l.Name = r.ReadString()
	l.Country = r.ReadString()
	l.Lat = r.ReadF64()
	l.Lng = r.ReadF64()
	l.LocID = r.ReadU32()
	l.Status = Status(r.ReadU8())
	l.ReferenceCount = r.ReadU32()
	return nil
}

// Exchange is a peering point, like Location plus BGP numbering and up to two
// attached device slots.
type Exchange struct {
	Owner          [32]byte
	Index          codec.Uint128
	BumpSeed       uint8
	Code           string
	Name           string
	Lat            float64
	Lng            float64
	BGPCommunity   uint16
	Device1        [32]byte
	Device2        [32]byte
	Status         Status
	ReferenceCount uint32
}

func (e *Exchange) Discriminant() AccountType { return ExchangeType }

func (e *Exchange) Size() int {
	return 1 + 32 + 16 + 1 +
		codec.StringSize(e.Code) + codec.StringSize(e.Name) +
		8 + 8 + 2 + 32 + 32 + 1 + 4
}

func (e *Exchange) Encode() []byte {
	w := codec.NewWriter(e.Size())
	w.WriteU8(uint8(ExchangeType))
	w.WritePubkey(e.Owner)
	w.WriteU128(e.Index)
	w.WriteU8(e.BumpSeed)
	w.WriteString(e.Code)
	w.WriteString(e.Name)
	w.WriteF64(e.Lat)
	w.WriteF64(e.Lng)
	w.WriteU16(e.BGPCommunity)
	w.WritePubkey(e.Device1)
	w.WritePubkey(e.Device2)
	w.WriteU8(uint8(e.Status))
	w.WriteU32(e.ReferenceCount)
	return w.Bytes()
}

func (e *Exchange) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(ExchangeType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	e.Owner = r.ReadPubkey()
	e.Index = r.ReadU128()
	e.BumpSeed = r.ReadU8()
	e.Code = r.ReadString()
	e.Name = r.ReadString()
	e.Lat = r.ReadF64()
	e.Lng = r.ReadF64()
	e.BGPCommunity = r.ReadU16()
	e.Device1 = r.ReadPubkey()
	e.Device2 = r.ReadPubkey()
	e.Status = Status(r.ReadU8())
	e.ReferenceCount = r.ReadU32()
	return nil
}

// Contributor owns devices and links in the fabric.
type Contributor struct {
	Owner          [32]byte
	OpsManager     [32]byte
	Index          codec.Uint128
	BumpSeed       uint8
	Code           string
	Status         Status
	ReferenceCount uint32
}

func (c *Contributor) Discriminant() AccountType { return ContributorType }

func (c *Contributor) Size() int {
	return 1 + 32 + 32 + 16 + 1 + codec.StringSize(c.Code) + 1 + 4
}

func (c *Contributor) Encode() []byte {
	w := codec.NewWriter(c.Size())
	w.WriteU8(uint8(ContributorType))
	w.WritePubkey(c.Owner)
	w.WritePubkey(c.OpsManager)
	w.WriteU128(c.Index)
	w.WriteU8(c.BumpSeed)
	w.WriteString(c.Code)
	w.WriteU8(uint8(c.Status))
	w.WriteU32(c.ReferenceCount)
	return w.Bytes()
}

func (c *Contributor) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(ContributorType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	c.Owner = r.ReadPubkey()
	c.OpsManager = r.ReadPubkey()
	c.Index = r.ReadU128()
	c.BumpSeed = r.ReadU8()
	c.Code = r.ReadString()
	c.Status = Status(r.ReadU8())
	c.ReferenceCount = r.ReadU32()
	return nil
}
