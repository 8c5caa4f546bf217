package dbt

import "errors"

// Sentinel errors for programmer-error conditions (spec.md §7, kind 1):
// invalid parameters and state-machine violations. These are wrapped
// with context via fmt.Errorf("%w", ...) at each call site, matching the
// teacher's errors.New("not implemented")-style flat sentinel in
// device.go (removed; superseded by these more specific sentinels).
var (
	errInvalidParams          = errors.New("invalid parameters")
	errAlreadyServing         = errors.New("already serving")
	errNotServing             = errors.New("not serving")
	errConnectionAlreadyExists = errors.New("connection already exists")
	errWrongPairingState      = errors.New("operation not valid in current pairing state")
	errAdapterPowered         = errors.New("adapter is powered on")
	errRoleConflict           = errors.New("conflicting role already active")
	errDoubleAttach           = errors.New("listener already attached")
)
