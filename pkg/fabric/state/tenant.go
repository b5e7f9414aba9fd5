package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

type TenantPaymentStatus uint8

const (
	TenantPaymentStatusDelinquent TenantPaymentStatus = iota
	TenantPaymentStatusPaid
)

// Tenant groups users under shared billing and routing policy, grounded on
// the Tenant struct in the teacher's serviceability state.go.
type Tenant struct {
	Owner          [32]byte
	BumpSeed       uint8
	Code           string
	VrfID          uint16
	ReferenceCount uint32
	Administrators [][32]byte
	PaymentStatus  TenantPaymentStatus
	TokenAccount   [32]byte
	MetroRouting   bool
	RouteLiveness  bool
}

func (t *Tenant) Discriminant() AccountType { return TenantType }

func (t *Tenant) Size() int {
	return 1 + 32 + 1 + codec.StringSize(t.Code) + 2 + 4 +
		codec.PubkeySliceSize(t.Administrators) + 1 + 32 + 1 + 1
}

func (t *Tenant) Encode() []byte {
	w := codec.NewWriter(t.Size())
	w.WriteU8(uint8(TenantType))
	w.WritePubkey(t.Owner)
	w.WriteU8(t.BumpSeed)
	w.WriteString(t.Code)
	w.WriteU16(t.VrfID)
	w.WriteU32(t.ReferenceCount)
	w.WritePubkeySlice(t.Administrators)
	w.WriteU8(uint8(t.PaymentStatus))
	w.WritePubkey(t.TokenAccount)
	w.WriteBool(t.MetroRouting)
	w.WriteBool(t.RouteLiveness)
	return w.Bytes()
}

func (t *Tenant) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(TenantType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	t.Owner = r.ReadPubkey()
	t.BumpSeed = r.ReadU8()
	t.Code = r.ReadString()
	t.VrfID = r.ReadU16()
	t.ReferenceCount = r.ReadU32()
	t.Administrators = r.ReadPubkeySlice()
	t.PaymentStatus = TenantPaymentStatus(r.ReadU8())
	t.TokenAccount = r.ReadPubkey()
	t.MetroRouting = r.ReadBool()
	t.RouteLiveness = r.ReadBool()
	return nil
}
