package session

// Status is the session lifecycle state (§3).
type Status int

const (
	StatusError      Status = -1
	StatusUnknown    Status = 0
	StatusCreated    Status = 1
	StatusActive     Status = 2
	StatusPartialEnd Status = 3
	StatusEnd        Status = 4
)

// CreateParams is the validated input to create a session (§6 SessionData).
type CreateParams struct {
	SourceModelID      int
	DestinationModelID int
	InitiatorID        int
	InviteeID          int
	InputVariablesID    []int
	InputVariablesSize  []int
	OutputVariablesID   []int
	OutputVariablesSize []int
}

// Validate reports the invalid-input conditions create_session must reject.
func (p CreateParams) Validate() error {
	if len(p.InputVariablesID) != len(p.InputVariablesSize) {
		return ErrInvalidInput
	}
	if len(p.OutputVariablesID) != len(p.OutputVariablesSize) {
		return ErrInvalidInput
	}
	for _, sz := range p.InputVariablesSize {
		if sz < 0 {
			return ErrInvalidInput
		}
	}
	for _, sz := range p.OutputVariablesSize {
		if sz < 0 {
			return ErrInvalidInput
		}
	}
	return nil
}

// Session is the broker's per-coupling record (§3). Every mutating method
// assumes the caller already holds the owning Registry's single
// mutual-exclusion discipline (§5); Session itself does no locking.
type Session struct {
	ID          ID
	Status      Status
	Slots       map[int]*Slot
	ClientVars  map[int][]int
	joined      bool
	EndRequests map[int]bool
}

// New builds the empty Session per §3/§4.3's create_session row: slots are
// the union of input and output variable ids, and the initiator is recorded
// as the sole entry in ClientVars, owning exactly its declared input
// variables.
func New(id ID, p CreateParams) *Session {
	s := &Session{
		ID:          id,
		Status:      StatusCreated,
		Slots:       make(map[int]*Slot, len(p.InputVariablesID)+len(p.OutputVariablesID)),
		ClientVars:  make(map[int][]int, 2),
		EndRequests: make(map[int]bool, 2),
	}

	for i, varID := range p.InputVariablesID {
		s.Slots[varID] = NewSlot(p.InputVariablesSize[i])
	}
	for i, varID := range p.OutputVariablesID {
		if _, exists := s.Slots[varID]; !exists {
			s.Slots[varID] = NewSlot(p.OutputVariablesSize[i])
		}
	}

	owned := make([]int, len(p.InputVariablesID))
	copy(owned, p.InputVariablesID)
	s.ClientVars[p.InitiatorID] = owned

	return s
}

// Join applies join_session (§4.3). inviteeID must equal the creation-time
// invitee id; the session must not already be ACTIVE.
func (s *Session) Join(inviteeID int) error {
	if inviteeID != s.ID.InviteeID {
		return ErrForbidden
	}
	if s.Status == StatusActive {
		return ErrConflict
	}

	owned := make([]int, 0, len(s.Slots))
	initiatorOwned := s.ClientVars[s.ID.InitiatorID]
	for varID := range s.Slots {
		if !containsInt(initiatorOwned, varID) {
			owned = append(owned, varID)
		}
	}
	s.ClientVars[inviteeID] = owned
	s.joined = true
	s.Status = StatusActive
	return nil
}

// Send applies send_data (§4.3): stores value in the named slot and flips
// its flag 0->1.
func (s *Session) Send(varID int, value []float64) error {
	slot, ok := s.Slots[varID]
	if !ok {
		return ErrNotFound
	}
	if !slot.Put(value) {
		return ErrConflict
	}
	return nil
}

// Receive applies receive_data (§4.3): drains the named slot and flips its
// flag 1->0.
func (s *Session) Receive(varID int) ([]float64, error) {
	slot, ok := s.Slots[varID]
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := slot.Take()
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Flag reads a slot's flag (get_variable_flag, §4.5).
func (s *Session) Flag(varID int) (int, error) {
	slot, ok := s.Slots[varID]
	if !ok {
		return 0, ErrNotFound
	}
	return slot.PeekFlag(), nil
}

// Size reads a slot's declared size (get_variable_size, §4.5).
func (s *Session) Size(varID int) (int, error) {
	slot, ok := s.Slots[varID]
	if !ok {
		return 0, ErrNotFound
	}
	return slot.PeekSize(), nil
}

// IsParticipant reports whether clientID is the initiator or (once joined)
// the invitee of this session.
func (s *Session) IsParticipant(clientID int) bool {
	if clientID == s.ID.InitiatorID {
		return true
	}
	return s.joined && clientID == s.ID.InviteeID
}

// End applies end_session (§4.3). It returns done=true when the caller must
// delete the record. Transition is purely status-driven, matching the
// original server (original_source/src/server/exchange_server.py's
// end_session: the first call for a still-open session moves it to
// PARTIAL_END and clears the caller's owned slots; any further call — the
// other participant's end, or a repeat from the same one — closes it. A
// repeat and the genuine second participant's end are indistinguishable at
// this layer, so both close the session rather than silently no-op.
func (s *Session) End(clientID int) (done bool, err error) {
	if !s.IsParticipant(clientID) {
		return false, ErrForbidden
	}

	if s.Status == StatusPartialEnd {
		s.EndRequests[clientID] = true
		s.Status = StatusEnd
		return true, nil
	}

	s.EndRequests[clientID] = true
	s.Status = StatusPartialEnd
	for _, varID := range s.ClientVars[clientID] {
		if slot, ok := s.Slots[varID]; ok {
			slot.Clear()
		}
	}
	return false, nil
}

// Snapshot is a read-only view of a session's live flags, used by the
// housekeeper (§4.6).
type Snapshot struct {
	ID     ID
	Status Status
	Flags  map[int]int
}

// Snapshot captures the session's current id, status and per-variable flags.
func (s *Session) Snapshot() Snapshot {
	flags := make(map[int]int, len(s.Slots))
	for varID, slot := range s.Slots {
		flags[varID] = slot.PeekFlag()
	}
	return Snapshot{ID: s.ID, Status: s.Status, Flags: flags}
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
