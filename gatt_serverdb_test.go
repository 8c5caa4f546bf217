package dbt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testServiceUUID = MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b")
var testCharUUID = MustParseUUID("11fac9e0-c111-11e3-9246-0002a5d5c51b")
var testNotifyCharUUID = MustParseUUID("1c927b50-c116-11e3-8a33-0800200c9a66")

func buildTestDB(t *testing.T) *ServerDB {
	t.Helper()
	db := NewServerDB("test-peripheral")
	svc := NewService(testServiceUUID)
	svc.AddCharacteristic(testCharUUID, CharPropRead)
	notifyChar := svc.AddCharacteristic(testNotifyCharUUID, CharPropRead|CharPropNotify)
	_ = notifyChar
	require.NoError(t, db.AddService(svc))
	return db
}

func TestServerDBFreezeAssignsHandlesDepthFirst(t *testing.T) {
	db := buildTestDB(t)
	require.NoError(t, db.Freeze())

	svcs := db.Services()
	require.Len(t, svcs, 3) // GAP, GATT, then the user service

	user := svcs[2]
	require.Equal(t, testServiceUUID.String(), user.UUID().String())
	require.Greater(t, user.StartHandle(), uint16(0))
	require.Greater(t, user.EndHandle(), user.StartHandle())

	readChar := user.FindCharacteristic(testCharUUID)
	require.NotNil(t, readChar)
	require.Equal(t, readChar.DeclarationHandle()+1, readChar.ValueHandle())

	notifyCharHandle := user.FindCharacteristic(testNotifyCharUUID)
	require.NotNil(t, notifyCharHandle)
	cccd := notifyCharHandle.clientCharConfig()
	require.NotNil(t, cccd, "CCCD must be auto-created for a notifiable characteristic")
	require.Greater(t, cccd.Handle(), notifyCharHandle.ValueHandle())
}

func TestServerDBFreezeIsIdempotent(t *testing.T) {
	db := buildTestDB(t)
	require.NoError(t, db.Freeze())
	first := db.Services()[2].StartHandle()
	require.NoError(t, db.Freeze())
	require.Equal(t, first, db.Services()[2].StartHandle())
}

func TestServerDBAddServiceAfterFreezeFails(t *testing.T) {
	db := buildTestDB(t)
	require.NoError(t, db.Freeze())
	err := db.AddService(NewService(UUID16(0x180A)))
	require.Error(t, err)
}

func TestServerDBFindCharByValueHandle(t *testing.T) {
	db := buildTestDB(t)
	require.NoError(t, db.Freeze())

	_, c := db.FindChar(testCharUUID)
	require.NotNil(t, c)
	found := db.FindCharByValueHandle(c.ValueHandle())
	require.Same(t, c, found)
}

func TestServerDBResetClientCharConfig(t *testing.T) {
	db := buildTestDB(t)
	require.NoError(t, db.Freeze())

	cccd := db.FindClientCharConfig(testServiceUUID, testNotifyCharUUID)
	require.NotNil(t, cccd)
	cccd.SetValue([]byte{0x01, 0x00})

	require.NoError(t, db.ResetClientCharConfig(testServiceUUID, testNotifyCharUUID))
	require.Equal(t, []byte{0x00, 0x00}, cccd.Value())
}

func TestServerDBResetClientCharConfigMissingErrors(t *testing.T) {
	db := buildTestDB(t)
	require.NoError(t, db.Freeze())
	err := db.ResetClientCharConfig(testServiceUUID, testCharUUID)
	require.Error(t, err)
}

func TestCharacteristicAddDescriptorDuplicatePanics(t *testing.T) {
	c := NewCharacteristic(testCharUUID, CharPropRead)
	c.AddDescriptor(UUID16(0x2901), []byte("desc"))
	require.Panics(t, func() {
		c.AddDescriptor(UUID16(0x2901), []byte("dup"))
	})
}

func TestServiceAddCharacteristicDuplicatePanics(t *testing.T) {
	svc := NewService(testServiceUUID)
	svc.AddCharacteristic(testCharUUID, CharPropRead)
	require.Panics(t, func() {
		svc.AddCharacteristic(testCharUUID, CharPropWriteNoAck)
	})
}

func TestCharacteristicCCCDState(t *testing.T) {
	c := NewCharacteristic(testNotifyCharUUID, CharPropNotify|CharPropIndicate)
	notify, indicate := c.CCCDState()
	require.False(t, notify)
	require.False(t, indicate)

	cccd := c.clientCharConfig()
	cccd.SetValue([]byte{0x03, 0x00})
	notify, indicate = c.CCCDState()
	require.True(t, notify)
	require.True(t, indicate)
}
