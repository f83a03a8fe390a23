package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain error codes.
//
//   - ErrNotFound: row does not exist for the tenant
//   - ErrAlreadyUsed: unique key already taken (registration code)
//   - ErrStateChanged: a guarded update matched no row because state moved on
//   - ErrUnavailable: backing service unreachable
//   - ErrInUse: row is still referenced and cannot be removed
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrStateChanged = errors.New("state changed")
	ErrUnavailable  = errors.New("unavailable")
	ErrInUse        = errors.New("in use")
)
