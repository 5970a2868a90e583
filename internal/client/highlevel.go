package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

// HighLevel layers the retry/poll protocol (§4.7) over a LowLevel client,
// grounded on src/clients/cyberwater/high_level_api.py.
type HighLevel struct {
	low       *LowLevel
	sessionID session.ID
}

// NewHighLevel binds a HighLevel client to an already-created session.
func NewHighLevel(low *LowLevel, sessionID session.ID) *HighLevel {
	return &HighLevel{low: low, sessionID: sessionID}
}

// isAlreadyActive reports whether err is the broker's "session already
// active" conflict, the one error join-with-retries treats as terminal
// instead of retriable (§4.7, §7).
func isAlreadyActive(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == 409 || se.StatusCode == 400
}

// JoinWithRetries repeatedly calls join_session. On success it returns
// StatusCreated (matching the Python original's odd-but-specified return
// value); on "already active" it returns StatusError immediately; any other
// error is treated as retriable until maxRetries is exhausted, at which
// point it returns StatusUnknown.
func (h *HighLevel) JoinWithRetries(ctx context.Context, inviteeID, maxRetries int, delay time.Duration) session.Status {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := h.low.JoinSession(ctx, h.sessionID, inviteeID)
		if err == nil {
			return session.StatusCreated
		}
		if isAlreadyActive(err) {
			return session.StatusError
		}
		sleep(ctx, delay)
	}
	return session.StatusUnknown
}

// SendWithRetries polls get_variable_flag; while the slot is full (the
// consumer has not yet drained it) it sleeps and retries. Once the slot is
// empty it posts send_data. Returns 1 on success, 0 on exhaustion or on any
// error (transport or broker status) from the send itself (§4.7).
func (h *HighLevel) SendWithRetries(ctx context.Context, varID int, payload []float64, maxRetries int, delay time.Duration) int {
	for attempt := 0; attempt < maxRetries; attempt++ {
		flag, err := h.low.GetVariableFlag(ctx, h.sessionID, varID)
		if err == nil && flag == session.FlagEmpty {
			if sendErr := h.low.SendData(ctx, h.sessionID, varID, payload); sendErr == nil {
				return 1
			}
			return 0
		}
		sleep(ctx, delay)
	}
	return 0
}

// AvailabilityWithRetries polls get_variable_flag until it observes
// FlagFull. Returns 1 on success, 0 on exhaustion (§4.7).
func (h *HighLevel) AvailabilityWithRetries(ctx context.Context, varID, maxRetries int, delay time.Duration) int {
	for attempt := 0; attempt < maxRetries; attempt++ {
		flag, err := h.low.GetVariableFlag(ctx, h.sessionID, varID)
		if err == nil && flag == session.FlagFull {
			return 1
		}
		sleep(ctx, delay)
	}
	return 0
}

// ReceiveWithRetries polls for FlagFull, then calls receive_data. Returns
// (1, sequence) on success, (0, nil) on exhaustion (§4.7).
func (h *HighLevel) ReceiveWithRetries(ctx context.Context, varID, maxRetries int, delay time.Duration) (int, []float64) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		flag, err := h.low.GetVariableFlag(ctx, h.sessionID, varID)
		if err == nil && flag == session.FlagFull {
			xs, recvErr := h.low.ReceiveData(ctx, h.sessionID, varID)
			if recvErr == nil {
				return 1, xs
			}
			return 0, nil
		}
		sleep(ctx, delay)
	}
	return 0, nil
}

// ExchangeBatch is a convenience layered over the four primitives above: it
// sends each (varID, payload) entry of the sends map, in Go's unspecified
// map iteration order, and then receives each varID of the receives list in
// list order, in one call. It supplements
// the distilled spec with the same "register-variables-then-run" shape
// cyberwater_library.py exposes via its domain-specific variable-index
// table (§"Supplemented features" in SPEC_FULL.md); the broker itself stays
// index-agnostic, this is purely a client-side convenience.
func (h *HighLevel) ExchangeBatch(ctx context.Context, sends map[int][]float64, receives []int, maxRetries int, delay time.Duration) (map[int][]float64, error) {
	for varID, payload := range sends {
		if ok := h.SendWithRetries(ctx, varID, payload, maxRetries, delay); ok == 0 {
			return nil, fmt.Errorf("exchange batch: failed to send var %d", varID)
		}
	}

	out := make(map[int][]float64, len(receives))
	for _, varID := range receives {
		ok, xs := h.ReceiveWithRetries(ctx, varID, maxRetries, delay)
		if ok == 0 {
			return nil, fmt.Errorf("exchange batch: failed to receive var %d", varID)
		}
		out[varID] = xs
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
