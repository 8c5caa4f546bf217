package dbt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEIRMergeIdempotence(t *testing.T) {
	e := NewEIR().SetName("widget").SetRSSI(-50).AddServiceUUID(UUID16(0x180D), true)
	changed := e.Set(e)
	require.Zero(t, changed)
}

func TestEIRMergeCommutativityForDisjointFields(t *testing.T) {
	base := func() *EIR { return NewEIR() }

	a := NewEIR().SetName("widget")
	b := NewEIR().SetRSSI(-60)

	order1 := base()
	order1.Set(a)
	order1.Set(b)

	order2 := base()
	order2.Set(b)
	order2.Set(a)

	require.Equal(t, order1.Name, order2.Name)
	require.Equal(t, order1.RSSI, order2.RSSI)
	require.Equal(t, order1.mask, order2.mask)
}

func TestEIRMergeOnlySetsChangedFields(t *testing.T) {
	e := NewEIR().SetName("widget").SetRSSI(-50)
	other := NewEIR().SetName("widget").SetRSSI(-40)

	changed := e.Set(other)
	require.True(t, changed.Has(EIRFieldRSSI))
	require.False(t, changed.Has(EIRFieldName))
	require.Equal(t, int8(-40), e.RSSI)
}

func TestEIRManufacturerDataLastWriteWinsPerCompanyID(t *testing.T) {
	e := NewEIR().SetManufacturerData(0x004C, []byte{0x01})
	other := NewEIR().SetManufacturerData(0x004C, []byte{0x02}).SetManufacturerData(0x0006, []byte{0x03})

	changed := e.Set(other)
	require.True(t, changed.Has(EIRFieldManufacturerData))
	data := e.ManufacturerData()
	require.Equal(t, []byte{0x02}, data[0x004C])
	require.Equal(t, []byte{0x03}, data[0x0006])
}

func TestEIRServiceUUIDsDeduplicated(t *testing.T) {
	e := NewEIR().AddServiceUUID(UUID16(0x180D), false)
	e.AddServiceUUID(UUID16(0x180D), true)
	uuids, complete := e.ServiceUUIDs()
	require.Len(t, uuids, 1)
	require.True(t, complete)
}

func TestEIRSetDoesNotOverwriteUnsetFields(t *testing.T) {
	e := NewEIR().SetName("widget")
	other := NewEIR().SetRSSI(-70) // does not set Name

	e.Set(other)
	require.Equal(t, "widget", e.Name)
}
