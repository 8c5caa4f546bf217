package dbt

// ATTStatus is an Attribute Protocol error code (Core Spec Vol 3 Part F),
// the status space used by GATT server read/write authorization callbacks.
// It is a distinct byte space from Status (HCI status codes); the ATT
// transport is external to this module (see transport.ATTTransport), but
// the Server Listener Contract still needs to hand back one of these
// codes to accept or reject a request.
//
// Grounded on the teacher's const.go/att.go attEcode* constants.
type ATTStatus uint8

const (
	ATTStatusSuccess           ATTStatus = 0x00
	ATTStatusInvalidHandle     ATTStatus = 0x01
	ATTStatusReadNotPermitted  ATTStatus = 0x02
	ATTStatusWriteNotPermitted ATTStatus = 0x03
	ATTStatusInvalidPDU        ATTStatus = 0x04
	ATTStatusAuthentication    ATTStatus = 0x05
	ATTStatusRequestNotSupported ATTStatus = 0x06
	ATTStatusInvalidOffset     ATTStatus = 0x07
	ATTStatusAuthorization     ATTStatus = 0x08
	ATTStatusPrepareQueueFull  ATTStatus = 0x09
	ATTStatusAttrNotFound      ATTStatus = 0x0A
	ATTStatusAttrNotLong       ATTStatus = 0x0B
	ATTStatusInsufficientEncKeySize ATTStatus = 0x0C
	ATTStatusInvalidAttrValueLen ATTStatus = 0x0D
	ATTStatusUnlikely          ATTStatus = 0x0E
	ATTStatusInsufficientEnc   ATTStatus = 0x0F
	ATTStatusUnsupportedGroupType ATTStatus = 0x10
	ATTStatusInsufficientResources ATTStatus = 0x11
)

func (s ATTStatus) IsSuccess() bool { return s == ATTStatusSuccess }
