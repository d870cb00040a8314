package fsctcore

import "fmt"

// ProtocolError reports a malformed or unsupported descriptor: wrong
// descriptor type, short buffer, capability-type out of range, version
// mismatch, or an unsupported interface protocol. Fatal for initialization
// of the one device that produced it; never fatal for the process.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "fsct protocol error: " + e.Reason }

func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError wraps a USB I/O failure (control transfer failed, device
// disappeared mid-transfer). Non-fatal: the caller logs and swallows it,
// leaving the device registered until a Disconnected event is observed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("usb transport error during %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// SemanticError reports a value that is well-formed but nonsensical in
// context: a negative time difference, a timeline update_time in the
// future, etc. Fails the offending operation only.
type SemanticError struct {
	Reason string
}

func (e *SemanticError) Error() string { return "fsct semantic error: " + e.Reason }

func NewSemanticError(format string, args ...any) *SemanticError {
	return &SemanticError{Reason: fmt.Sprintf(format, args...)}
}

// ErrProtocolVersionNotSupported is returned by the BOS/descriptor layer
// when the FSCT interface's bInterfaceProtocol doesn't match the supported
// version. It is one of the error kinds the USB Device Watch's retry loop
// treats as short-circuiting (retrying will never help).
var ErrProtocolVersionNotSupported = NewProtocolError("unsupported FSCT interface protocol version")

// ErrFSCTCapabilityNotPresent is returned by the BOS finder when a device's
// BOS descriptor is well-formed but contains no FSCT platform capability.
// Callers treat this as a benign skip, not a logged failure.
var ErrFSCTCapabilityNotPresent = NewProtocolError("FSCT capability not present")

// ErrTimeNotSynchronized is returned by set_progress when the device has
// never had a successful time synchronization (so there is no time_diff to
// compute a device timestamp from).
var ErrTimeNotSynchronized = NewSemanticError("device time not synchronized")
