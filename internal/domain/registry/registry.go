// Package registry implements the Session Registry (§4.2): a process-wide
// mapping from session.ID to *session.Session, serialized by a single
// mutual-exclusion discipline. The single-mutex-around-the-whole-map shape
// is the same concurrency idiom the teacher uses in its Hub (a sync.Map of
// per-user actors guarded by per-cell sync.RWMutex); here the spec mandates
// one discipline shared by the whole table rather than sharding per key, so
// Registry uses a single sync.Mutex instead of sync.Map + per-entry locks.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

// Registry stores live sessions and enforces identity uniqueness (§4.2). Each
// exported method is one atomic critical section: lookup, state transition
// and (where relevant) deletion all happen under a single lock acquisition,
// so no other handler can observe a half-applied transition (§5).
type Registry struct {
	mu       sync.Mutex
	sessions map[session.ID]*session.Session
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[session.ID]*session.Session)}
}

// idGenerator is overridable in tests to make collisions exercisable.
var idGenerator = uuid.NewString

// Create mints a fresh session.ID for params and inserts the resulting
// Session. Collisions (practically impossible with a UUIDv4 client_id) are
// retried with a fresh client_id, per §4.2.
func (r *Registry) Create(params session.CreateParams) session.ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		id := session.ID{
			SourceModelID:      params.SourceModelID,
			DestinationModelID: params.DestinationModelID,
			InitiatorID:        params.InitiatorID,
			InviteeID:          params.InviteeID,
			ClientID:           idGenerator(),
		}
		if _, exists := r.sessions[id]; exists {
			continue
		}
		r.sessions[id] = session.New(id, params)
		return id
	}
}

// Status returns a session's status (get_session_status, §4.5).
func (r *Registry) Status(id session.ID) (session.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return session.StatusUnknown, session.ErrNotFound
	}
	return s.Status, nil
}

// Join applies join_session (§4.3).
func (r *Registry) Join(id session.ID, inviteeID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	return s.Join(inviteeID)
}

// Send applies send_data (§4.3).
func (r *Registry) Send(id session.ID, varID int, value []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	return s.Send(varID, value)
}

// Receive applies receive_data (§4.3).
func (r *Registry) Receive(id session.ID, varID int) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s.Receive(varID)
}

// Flag reads a slot's flag (get_variable_flag, §4.5).
func (r *Registry) Flag(id session.ID, varID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return 0, session.ErrNotFound
	}
	return s.Flag(varID)
}

// Size reads a slot's declared size (get_variable_size, §4.5).
func (r *Registry) Size(id session.ID, varID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return 0, session.ErrNotFound
	}
	return s.Size(varID)
}

// End applies end_session (§4.3), deleting the record in the same critical
// section once a second end call (from either participant) closes it.
func (r *Registry) End(id session.ID, clientID int) (session.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return session.StatusUnknown, session.ErrNotFound
	}

	done, err := s.End(clientID)
	if err != nil {
		return session.StatusUnknown, err
	}
	status := s.Status
	if done {
		delete(r.sessions, id)
	}
	return status, nil
}

// Snapshot returns a read-only view of every live session's id and flags,
// used by the housekeeper (§4.6). It holds the discipline for the full
// enumeration so it observes one consistent point in time.
func (r *Registry) Snapshot() []session.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]session.Snapshot, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}
