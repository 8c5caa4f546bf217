package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSimHCIDefaultResponderSucceeds(t *testing.T) {
	s := NewSimHCI(4)
	defer s.Close()

	out, err := s.SendCommand(context.Background(), 0x0c03, nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSimHCICustomResponder(t *testing.T) {
	s := NewSimHCI(4)
	defer s.Close()

	s.Respond(0x2006, func(params []byte) ([]byte, error) {
		return []byte{0x01, 0x02}, nil
	})

	out, err := s.SendCommand(context.Background(), 0x2006, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, out)
}

func TestSimHCIInjectAndReceiveEvent(t *testing.T) {
	s := NewSimHCI(4)
	defer s.Close()

	s.InjectAdvertisingReport([6]byte{1, 2, 3, 4, 5, 6}, 0x00, -40, []byte{0x02, 0x01, 0x06})

	select {
	case ev := <-s.Events():
		require.Equal(t, HCIEventLEAdvertisingReport, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for injected event")
	}
}

func TestSimHCISendCommandAfterCloseErrors(t *testing.T) {
	s := NewSimHCI(1)
	require.NoError(t, s.Close())

	_, err := s.SendCommand(context.Background(), 0x0c03, nil)
	require.Error(t, err)
}
