package alloc

import "fmt"

// IDAllocator hands out unique integers from [min, max), tracking the next
// unused value and a sparse free-set of explicitly returned IDs. Grounded on
// the IdAllocator wire struct (RangeStart/RangeEnd/FirstFreeIndex) in
// smartcontract/sdk/go/serviceability/state.go, generalized with an explicit
// free-set so release/reuse is O(1) instead of only ever advancing forward.
type IDAllocator struct {
	min, max uint32 // [min, max), matching the source's RangeStart/RangeEnd
	next     uint32
	assigned map[uint32]bool
	free     map[uint32]bool
}

// NewIDAllocator creates an allocator over [min, max).
func NewIDAllocator(min, max uint32) *IDAllocator {
	return &IDAllocator{
		min:      min,
		max:      max,
		next:     min,
		assigned: make(map[uint32]bool),
		free:     make(map[uint32]bool),
	}
}

func (a *IDAllocator) Min() uint32 { return a.min }
func (a *IDAllocator) Max() uint32 { return a.max }

// NextAvailable returns the smallest free ID, preferring previously-released
// IDs over advancing the monotonic pointer.
func (a *IDAllocator) NextAvailable() (uint32, bool) {
	if len(a.free) > 0 {
		var best uint32
		found := false
		for id := range a.free {
			if !found || id < best {
				best, found = id, true
			}
		}
		delete(a.free, best)
		a.assigned[best] = true
		return best, true
	}
	for a.next < a.max {
		id := a.next
		a.next++
		if a.assigned[id] {
			continue
		}
		a.assigned[id] = true
		return id, true
	}
	return 0, false
}

// Assign marks id as in-use, e.g. when rebuilding the mirror from the ledger.
// Out-of-range input returns an error and leaves the allocator unchanged.
func (a *IDAllocator) Assign(id uint32) error {
	if id < a.min || id >= a.max {
		return fmt.Errorf("id %d out of range [%d, %d)", id, a.min, a.max)
	}
	a.assigned[id] = true
	delete(a.free, id)
	return nil
}

// Unassign releases id back to the free-set. Idempotent: releasing an
// already-free or never-assigned id is a successful no-op.
func (a *IDAllocator) Unassign(id uint32) {
	if id < a.min || id >= a.max {
		return
	}
	if !a.assigned[id] {
		return
	}
	delete(a.assigned, id)
	a.free[id] = true
}

func (a *IDAllocator) AssignedCount() int { return len(a.assigned) }

func (a *IDAllocator) IsAssigned(id uint32) bool { return a.assigned[id] }
