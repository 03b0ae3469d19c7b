// Package wiperrors defines the error kinds surfaced by the WIP protocol
// core. Every fallible operation in this module returns one of these
// wrapped with errors.New/fmt.Errorf so callers can still errors.Is against
// the sentinels; the core never uses panics or exceptions for protocol-level
// failure.
package wiperrors

import (
	"errors"
	"strconv"
)

var (
	// ErrInvalidPacket means bytes could not be parsed: a short buffer, an
	// extension whose declared length overflows what remains, a 10-bit
	// length overflow on encode, or missing required inputs at the facade.
	ErrInvalidPacket = errors.New("wip: invalid packet")

	// ErrChecksumMismatch means the stored 12-bit checksum does not match
	// the checksum recomputed over the received buffer.
	ErrChecksumMismatch = errors.New("wip: checksum mismatch")

	// ErrTimeout means the overall transaction deadline elapsed without a
	// packet_id match.
	ErrTimeout = errors.New("wip: timeout")

	// ErrIO covers socket creation, send, receive, and resolution failure.
	ErrIO = errors.New("wip: io error")

	// ErrAuthFailure means response-auth verification failed, or a
	// required MAC was absent.
	ErrAuthFailure = errors.New("wip: auth failure")

	// ErrNotImplemented marks an optional feature that was not built.
	ErrNotImplemented = errors.New("wip: not implemented")
)

// ServerError represents a decoded type=7 (Error) response: the server
// rejected the request and returned a code plus, optionally, a human
// readable message carried in a CustomData extension.
type ServerError struct {
	Code    uint16
	Message string
}

func (e *ServerError) Error() string {
	code := strconv.FormatUint(uint64(e.Code), 10)
	if e.Message != "" {
		return "wip: server error " + code + ": " + e.Message
	}
	return "wip: server error " + code
}
