package tomasulo

import "fmt"

// CommitKind classifies how a reorder buffer entry retires.
type CommitKind int

// Commit kinds.
const (
	KindALU CommitKind = iota
	KindLoad
	KindStore
	KindBranch
)

var commitKindNames = map[CommitKind]string{
	KindALU:    "alu",
	KindLoad:   "load",
	KindStore:  "store",
	KindBranch: "branch",
}

func (k CommitKind) String() string {
	if name, ok := commitKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CommitKind(%d)", int(k))
}

// ROBEntry is one slot of the reorder buffer.
type ROBEntry struct {
	Busy   bool
	InstID int
	Kind   CommitKind
	// Dest is the destination register (empty for stores and branches).
	Dest  string
	Value int64
	Ready bool
	// Speculative entries cannot retire until their owning checkpoint
	// resolves.
	Speculative  bool
	CheckpointID int
	// Addr is the memory address frozen at issue (loads and stores).
	// Signed so a malformed negative address survives to the execute
	// stage fault check instead of wrapping.
	Addr int64
}

func (e *ROBEntry) clear() {
	*e = ROBEntry{CheckpointID: -1}
}

// ROB is the reorder buffer: a fixed-capacity circular queue that
// enforces in-order commit over out-of-order completion. Entries are
// allocated at the tail during issue and freed at the head during
// commit; nothing else moves the indices.
type ROB struct {
	entries []ROBEntry
	head    int
	tail    int
}

// NewROB creates a reorder buffer with the given capacity.
func NewROB(capacity int) *ROB {
	r := &ROB{entries: make([]ROBEntry, capacity)}
	for i := range r.entries {
		r.entries[i].clear()
	}
	return r
}

// Capacity returns the number of slots.
func (r *ROB) Capacity() int {
	return len(r.entries)
}

// Head returns the head index.
func (r *ROB) Head() int {
	return r.head
}

// Tail returns the tail index.
func (r *ROB) Tail() int {
	return r.tail
}

// Full reports whether no slot is free. The tail slot being busy means
// the ring has wrapped all the way to the head.
func (r *ROB) Full() bool {
	return r.entries[r.tail].Busy
}

// Empty reports whether no entry is in flight.
func (r *ROB) Empty() bool {
	return !r.entries[r.head].Busy
}

// Occupancy returns the number of busy entries.
func (r *ROB) Occupancy() int {
	n := 0
	for i := range r.entries {
		if r.entries[i].Busy {
			n++
		}
	}
	return n
}

// Entry returns a pointer to the slot at index i.
func (r *ROB) Entry(i int) *ROBEntry {
	return &r.entries[i]
}

// HeadEntry returns a pointer to the head slot.
func (r *ROB) HeadEntry() *ROBEntry {
	return &r.entries[r.head]
}

// Alloc claims the tail slot and advances the tail. Returns the claimed
// index, or -1 when the buffer is full.
func (r *ROB) Alloc(entry ROBEntry) int {
	if r.Full() {
		return -1
	}
	idx := r.tail
	entry.Busy = true
	r.entries[idx] = entry
	r.tail = (r.tail + 1) % len(r.entries)
	return idx
}

// FreeHead clears the head slot and advances the head.
func (r *ROB) FreeHead() {
	r.entries[r.head].clear()
	r.head = (r.head + 1) % len(r.entries)
}

// ResetTail rewinds the tail to a snapshot taken earlier, clearing
// every entry between the restored tail and the current tail. Used only
// by misprediction recovery.
func (r *ROB) ResetTail(tail int) {
	for i := tail; i != r.tail; i = (i + 1) % len(r.entries) {
		r.entries[i].clear()
	}
	r.tail = tail
}

// Snapshot returns a copy of all slots in storage order.
func (r *ROB) Snapshot() []ROBEntry {
	out := make([]ROBEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Clone returns an independent copy of the buffer.
func (r *ROB) Clone() *ROB {
	return &ROB{entries: r.Snapshot(), head: r.head, tail: r.tail}
}
