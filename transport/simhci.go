package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
)

// SimHCI is an in-memory HCITransport double for tests: SendCommand
// always completes successfully with a zero-length parameter payload
// unless a per-opcode responder has been installed via Respond, and
// events are injected with Inject. Grounded on the teacher's xpc/fakexpc
// test scaffolding pattern (a minimal stand-in satisfying the transport
// interface, with hooks the test controls directly rather than driving a
// real OS channel).
type SimHCI struct {
	mu         sync.Mutex
	responders map[uint16]func([]byte) ([]byte, error)
	events     chan HCIEvent
	closed     bool
}

// NewSimHCI constructs a ready-to-use simulated transport with the given
// event channel buffer depth.
func NewSimHCI(eventBuffer int) *SimHCI {
	return &SimHCI{
		responders: map[uint16]func([]byte) ([]byte, error){},
		events:     make(chan HCIEvent, eventBuffer),
	}
}

// Respond installs a canned responder for opcode; subsequent
// SendCommand calls for that opcode invoke fn instead of the default
// always-succeed stub.
func (s *SimHCI) Respond(opcode uint16, fn func(params []byte) ([]byte, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responders[opcode] = fn
}

// SendCommand implements HCITransport.
func (s *SimHCI) SendCommand(ctx context.Context, opcode uint16, params []byte) ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("transport: closed")
	}
	fn := s.responders[opcode]
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if fn != nil {
		return fn(params)
	}
	return []byte{}, nil
}

// Events implements HCITransport.
func (s *SimHCI) Events() <-chan HCIEvent { return s.events }

// Inject delivers ev to the event channel as if the controller had sent
// it; blocks if the channel is full, matching a real transport's
// backpressure.
func (s *SimHCI) Inject(ev HCIEvent) {
	s.events <- ev
}

// InjectAdvertisingReport is a convenience wrapper building a minimal
// LEAdvertisingReport event carrying one AD structure's raw bytes.
func (s *SimHCI) InjectAdvertisingReport(addr [6]byte, addrType byte, rssi int8, data []byte) {
	buf := make([]byte, 0, 9+len(data))
	buf = append(buf, addrType)
	buf = append(buf, addr[:]...)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(data)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, data...)
	buf = append(buf, byte(rssi))
	s.Inject(HCIEvent{Type: HCIEventLEAdvertisingReport, Params: buf})
}

// Close implements HCITransport. Idempotent.
func (s *SimHCI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}
