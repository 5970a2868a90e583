package session

import "errors"

// Error taxonomy for RPC handlers (§7 of the spec): invalid-input, not-found,
// conflict, forbidden. None are retried server-side; the client-side retry
// wrappers in internal/client decide what to do with each kind.
var (
	ErrInvalidInput = errors.New("session: invalid input")
	ErrNotFound     = errors.New("session: not found")
	ErrConflict     = errors.New("session: conflict")
	ErrForbidden    = errors.New("session: forbidden")
)
