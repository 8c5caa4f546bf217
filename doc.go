// Package dbt is a user-space Bluetooth 4.2/5.x LE host stack: adapter
// and device lifecycle management, the GAP discovery/pairing/connection
// state machine, the GATT client/server data model, SMP key persistence,
// and the event-driven listener dispatch framework tying them together.
//
// The low-level HCI transport, the ATT PDU codec, and the L2CAP channel
// multiplexer are external collaborators specified by the transport
// package's interfaces, not implemented here.
//
// USAGE
//
// A Manager owns the set of Adapters; each Adapter owns its Devices.
// Events (device found, connected, paired, ready, disconnected) flow
// upward from the HCI transport through the Adapter to registered
// AdapterStatusListeners, dispatched one goroutine per adapter so that
// one adapter's callbacks are strictly ordered while distinct adapters
// run concurrently:
//
//	mgr := dbt.NewManager()
//	mgr.AddAdapter(dbt.NewAdapter(0, localAddr, hciTransport))
//	mgr.AddStatusListener(myListener{})
//
// A peripheral advertises a frozen GATT server database:
//
//	db := dbt.NewServerDB("my-peripheral")
//	db.AddService(dbt.NewService(myServiceUUID))
//	adapter.StartAdvertising(db, dbt.NewEIR().SetName("my-peripheral"))
//
// See DESIGN.md for the grounding of each component in this package.
package dbt
