package session

// Flag values for a Slot (§3).
const (
	FlagEmpty = 0 // empty, ready for a producer
	FlagFull  = 1 // full, ready for a consumer
)

// Slot is a single-element mailbox: one producer, one consumer, gated by a
// readiness flag (§4.4). It is not itself safe for concurrent use; callers
// hold the owning Registry's single mutual-exclusion discipline (§5) around
// every Put/Take/Clear.
type Slot struct {
	declaredSize int
	value        []float64
	flag         int
}

// NewSlot constructs an empty slot advertising declaredSize (§4.1's "declared
// size is advisory").
func NewSlot(declaredSize int) *Slot {
	return &Slot{declaredSize: declaredSize}
}

// Put stores value and flips the flag 0->1. It fails if the slot is already
// full; the caller maps that to a conflict error.
func (s *Slot) Put(value []float64) bool {
	if s.flag == FlagFull {
		return false
	}
	s.value = value
	s.flag = FlagFull
	return true
}

// Take returns the stored value and flips the flag 1->0. It fails if the
// slot is empty; the caller maps that to a not-found error. After a
// successful Take, value is cleared so a repeated Take without an
// intervening Put observes nothing.
func (s *Slot) Take() ([]float64, bool) {
	if s.flag == FlagEmpty {
		return nil, false
	}
	v := s.value
	s.value = nil
	s.flag = FlagEmpty
	return v, true
}

// PeekFlag reads the flag without modifying the slot.
func (s *Slot) PeekFlag() int { return s.flag }

// PeekSize reads the declared size without modifying the slot.
func (s *Slot) PeekSize() int { return s.declaredSize }

// Clear forces the slot back to empty regardless of prior state, used when
// a participant partial-ends and its owned slots are drained (§4.3).
func (s *Slot) Clear() {
	s.value = nil
	s.flag = FlagEmpty
}
