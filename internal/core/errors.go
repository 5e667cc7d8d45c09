// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors shared by the buffer, packet buffer and layer chain packages.
// Call sites wrap them with fmt.Errorf("...: %w") and callers test with errors.Is.
var (
	// Allocation errors
	ErrAllocFailed   = errors.New("pktforge: allocation failed")
	ErrReleaseFailed = errors.New("pktforge: release of owned memory failed")

	// Argument errors
	ErrInvalidLength   = errors.New("pktforge: invalid length")
	ErrIndexOutOfRange = errors.New("pktforge: index out of range")
	ErrInvalidData     = errors.New("pktforge: invalid data")

	// Layer chain errors
	ErrNotInChain = errors.New("pktforge: layer is not a member of this packet")
	ErrStaleLayer = errors.New("pktforge: stale layer handle")

	// Configuration errors
	ErrConfigInvalid = errors.New("pktforge: invalid configuration")
)
