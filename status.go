package dbt

import "fmt"

// Status is a command/operation result code. The low values re-expose HCI
// status codes unchanged from Bluetooth Core Spec Vol 2 Part D; values at
// and above 0x80 are supplementary codes the stack itself uses to describe
// conditions the controller never reports (timeouts we detect locally,
// programmer errors, etc).
//
// This generalizes the teacher's att.go/const.go pattern of re-exposing
// raw protocol status bytes (attEcode*) as named Go constants instead of
// returning plain errors from control methods.
type Status uint8

const (
	StatusSuccess                Status = 0x00
	StatusUnknownHCICommand      Status = 0x01
	StatusUnknownConnID          Status = 0x02
	StatusHardwareFailure        Status = 0x03
	StatusPageTimeout            Status = 0x04
	StatusAuthenticationFailure  Status = 0x05
	StatusPinOrKeyMissing        Status = 0x06
	StatusMemoryCapacityExceeded Status = 0x07
	StatusConnectionTimeout      Status = 0x08
	StatusConnectionLimitReached Status = 0x09
	StatusCommandDisallowed      Status = 0x0C
	StatusInvalidHCIParams       Status = 0x12
	StatusRemoteUserTerminated   Status = 0x13
	StatusConnectionTerminatedByLocalHost Status = 0x16
	StatusUnsupportedRemoteFeature Status = 0x1A
	StatusUnacceptableConnParam  Status = 0x3B

	// Supplementary codes, not part of the HCI status byte space.
	StatusFailed                  Status = 0x80
	StatusTimeout                 Status = 0x81
	StatusDisconnected            Status = 0x82
	StatusConnectionAlreadyExists Status = 0x83
	StatusInvalidParams           Status = 0x84
	StatusNotSupported             Status = 0x85
	StatusInternalTimeout          Status = 0x86
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnknownHCICommand:
		return "UNKNOWN_HCI_COMMAND"
	case StatusUnknownConnID:
		return "UNKNOWN_CONN_ID"
	case StatusHardwareFailure:
		return "HARDWARE_FAILURE"
	case StatusPageTimeout:
		return "PAGE_TIMEOUT"
	case StatusAuthenticationFailure:
		return "AUTHENTICATION_FAILURE"
	case StatusPinOrKeyMissing:
		return "PIN_OR_KEY_MISSING"
	case StatusMemoryCapacityExceeded:
		return "MEMORY_CAPACITY_EXCEEDED"
	case StatusConnectionTimeout:
		return "CONNECTION_TIMEOUT"
	case StatusConnectionLimitReached:
		return "CONNECTION_LIMIT_REACHED"
	case StatusCommandDisallowed:
		return "COMMAND_DISALLOWED"
	case StatusInvalidHCIParams:
		return "INVALID_HCI_PARAMS"
	case StatusRemoteUserTerminated:
		return "REMOTE_USER_TERMINATED"
	case StatusConnectionTerminatedByLocalHost:
		return "CONNECTION_TERMINATED_BY_LOCAL_HOST"
	case StatusUnsupportedRemoteFeature:
		return "UNSUPPORTED_REMOTE_FEATURE"
	case StatusUnacceptableConnParam:
		return "UNACCEPTABLE_CONNECTION_PARAM"
	case StatusFailed:
		return "FAILED"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnectionAlreadyExists:
		return "CONNECTION_ALREADY_EXISTS"
	case StatusInvalidParams:
		return "INVALID_PARAMS"
	case StatusNotSupported:
		return "NOT_SUPPORTED"
	case StatusInternalTimeout:
		return "INTERNAL_TIMEOUT"
	default:
		return fmt.Sprintf("STATUS_0x%02X", uint8(s))
	}
}

// IsSuccess reports whether s represents successful completion.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// Error allows a Status to satisfy the error interface for callers that
// prefer idiomatic Go error returns over checking a status code; control
// methods still return Status directly so success can be checked without
// an allocation.
func (s Status) Error() string { return s.String() }
