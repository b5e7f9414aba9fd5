package state

import "github.com/malbeclabs/doublezero-sub004/pkg/codec"

// ExecutionRecord is the persisted side effect referenced by §9
// "Scheduler-vs-core seam": written exactly once per successful scheduled
// job execution, keyed by (job_id, seeds), carrying the SHA-256 of the
// produced payload so a retried run can detect it already completed.
type ExecutionRecord struct {
	JobID        string
	Seeds        []byte
	PayloadSHA256 [32]byte
	ExecutedAtUnixMs uint64
	BumpSeed     uint8
}

func (e *ExecutionRecord) Discriminant() AccountType { return ExecutionRecordType }

func (e *ExecutionRecord) Size() int {
	return 1 + codec.StringSize(e.JobID) + codec.VarBytesSize(e.Seeds) + 32 + 8 + 1
}

func (e *ExecutionRecord) Encode() []byte {
	w := codec.NewWriter(e.Size())
	w.WriteU8(uint8(ExecutionRecordType))
	w.WriteString(e.JobID)
	w.WriteVarBytes(e.Seeds)
	w.WriteBytes(e.PayloadSHA256[:])
	w.WriteU64(e.ExecutedAtUnixMs)
	w.WriteU8(e.BumpSeed)
	return w.Bytes()
}

func (e *ExecutionRecord) Decode(data []byte) error {
	if err := codec.ExpectDiscriminant(data, uint8(ExecutionRecordType)); err != nil {
		return err
	}
	r := codec.NewReader(data[1:])
	e.JobID = r.ReadString()
	e.Seeds = r.ReadVarBytes()
	copy(e.PayloadSHA256[:], r.ReadBytes(32))
	e.ExecutedAtUnixMs = r.ReadU64()
	e.BumpSeed = r.ReadU8()
	return nil
}
