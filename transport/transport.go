// Package transport defines the byte-stream boundaries the core
// consumes but does not implement: the HCI command/event/ACL channel and
// the ATT request/response/notification channel on an L2CAP fixed
// channel. Both are out of scope per spec.md §1 ("the low-level HCI
// transport... the native ATT PDU codec... the L2CAP channel
// multiplexer"); this package gives them a concrete Go shape so the core
// can be built and tested against an in-memory double (SimHCI) without
// depending on a real kernel socket.
//
// Grounded on the teacher's bridging between its portable API (Device,
// Server) and the per-OS transport (linux/socket.go, xpc/xpc_darwin.go):
// the teacher hides a raw platform transport behind a narrow interface
// the portable code calls; this package generalizes that same shape to
// the HCI/ATT boundary this core owns.
package transport

import "context"

// HCIEventType tags the category of a decoded HCI event delivered by a
// transport to its registered sink, narrow enough for the Adapter/Device
// state machines to dispatch on without parsing raw event packets
// themselves.
type HCIEventType int

const (
	HCIEventCommandComplete HCIEventType = iota
	HCIEventCommandStatus
	HCIEventConnectionComplete
	HCIEventDisconnectionComplete
	HCIEventLEAdvertisingReport
	HCIEventLEConnectionUpdateComplete
	HCIEventEncryptionChange
	HCIEventNumberOfCompletedPackets
)

// HCIEvent is a decoded HCI event: a type tag plus the event's parameter
// bytes, already stripped of the 2-byte HCI event header. Decoding the
// parameter bytes into typed fields is the concern of the component that
// consumes a specific event type (Adapter for advertising reports,
// Device for connection/disconnection), not of this package.
type HCIEvent struct {
	Type   HCIEventType
	Opcode uint16 // valid for CommandComplete/CommandStatus
	Params []byte
}

// HCITransport is the abstract HCI command/event channel for one
// adapter. SendCommand blocks until the matching CommandComplete or
// CommandStatus event is observed (mirroring the real controller's
// one-command-in-flight serialization, spec.md §5) and returns its
// parameter bytes.
type HCITransport interface {
	// SendCommand transmits an HCI command (opcode + parameters) and
	// blocks for its completion event, returning the event's parameter
	// bytes or ctx.Err()/ a transport error.
	SendCommand(ctx context.Context, opcode uint16, params []byte) ([]byte, error)

	// Events returns the channel of asynchronously delivered HCI
	// events (advertising reports, connection/disconnection complete,
	// encryption change, etc). The channel is closed when the
	// transport is closed.
	Events() <-chan HCIEvent

	// Close releases the transport. Idempotent.
	Close() error
}

// ATTTransport is the abstract ATT request/response/notification
// channel for one connected device, addressed by connection handle at
// the HCITransport level but opened per-device once a connection
// completes.
type ATTTransport interface {
	// ExchangeMTU negotiates the ATT MTU and returns the agreed value.
	ExchangeMTU(ctx context.Context, clientMTU uint16) (uint16, error)

	// Request sends an ATT request PDU (already encoded by the
	// out-of-scope ATT codec) and returns the matching response PDU.
	Request(ctx context.Context, pdu []byte) ([]byte, error)

	// Notifications returns the channel of inbound Handle Value
	// Notification/Indication PDUs, pre-tagged as to whether they expect
	// a confirmation (indications do, notifications don't).
	Notifications() <-chan ATTNotification

	// Confirm sends a Handle Value Confirmation PDU, completing an
	// indication.
	Confirm(ctx context.Context) error

	Close() error
}

// ATTNotification is one inbound Handle Value Notification/Indication.
type ATTNotification struct {
	Handle        uint16
	Value         []byte
	IsIndication  bool
}
