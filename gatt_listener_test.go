package dbt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type votingListener struct {
	DefaultGATTServerListener
	allow bool
}

func (v *votingListener) ReadCharValue(*Device, *Service, *Characteristic) bool { return v.allow }

func TestGATTListenerRegistryUnanimousReadVote(t *testing.T) {
	reg := &gattListenerRegistry{}
	yes := &votingListener{allow: true}
	no := &votingListener{allow: false}

	require.True(t, reg.add(yes))
	require.True(t, reg.voteReadChar(nil, nil, nil))

	require.True(t, reg.add(no))
	require.False(t, reg.voteReadChar(nil, nil, nil))
}

func TestGATTListenerRegistryIdentityAttachOnce(t *testing.T) {
	reg := &gattListenerRegistry{}
	l := &votingListener{allow: true}

	require.True(t, reg.add(l))
	require.False(t, reg.add(l))
	require.Len(t, reg.snapshot(), 1)

	require.True(t, reg.remove(l))
	require.Len(t, reg.snapshot(), 0)
}

func TestDeviceCharacteristicListenerAttachOnce(t *testing.T) {
	dev := NewDevice(nil, BDAddressAndType{Address: MustParseEUI48("01:02:03:04:05:06"), Type: AddressTypeLEPublic})
	l := DefaultCharacteristicListener{}
	require.True(t, dev.AddCharacteristicListener(l))
	require.False(t, dev.AddCharacteristicListener(l))
}
