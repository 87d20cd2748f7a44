package ads

import "fmt"

// ErrKind classifies the failures this package can return.
type ErrKind int

const (
	ErrKindTransport ErrKind = iota
	ErrKindProtocol
	ErrKindTimeout
	ErrKindConversion
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindTransport:
		return "transport"
	case ErrKindProtocol:
		return "protocol"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindConversion:
		return "conversion"
	default:
		return "unknown"
	}
}

// Error is the typed error this package returns for transport, ADS
// protocol, timeout and conversion failures. Some failures are returned as
// plain errors instead: a missing WithAmsNetId, a non-IPv4 local address, a
// BlockRead group spanning several index groups, and short or truncated
// command responses and table records.
type Error struct {
	Kind ErrKind
	Code uint32 // ADS error code, only meaningful when Kind == ErrKindProtocol
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrKindProtocol:
		return fmt.Sprintf("ads: %s: ADS error 0x%04X: %s", e.Op, e.Code, adsErrorName(e.Code))
	default:
		if e.Err != nil {
			return fmt.Sprintf("ads: %s: %s: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("ads: %s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func transportErr(op string, err error) *Error {
	return &Error{Kind: ErrKindTransport, Op: op, Err: err}
}

func timeoutErr(op string) *Error {
	return &Error{Kind: ErrKindTimeout, Op: op}
}

func protocolErr(op string, code uint32) *Error {
	return &Error{Kind: ErrKindProtocol, Op: op, Code: code}
}

func conversionErr(op string, err error) *Error {
	return &Error{Kind: ErrKindConversion, Op: op, Err: err}
}

// ADS error codes (ADSERR_*), the subset a client is likely to see back
// from a device or the local router.
const (
	ErrNoError                    uint32 = 0x0000
	ErrInternal                   uint32 = 0x0001
	ErrNoRuntime                  uint32 = 0x0002
	ErrAllocLockedMem             uint32 = 0x0003
	ErrInsertMailbox              uint32 = 0x0004
	ErrWrongHMsg                  uint32 = 0x0005
	ErrTargetPortNotFound         uint32 = 0x0006
	ErrTargetMachineNotFound      uint32 = 0x0007
	ErrUnknownCmdId               uint32 = 0x0008
	ErrBadTaskId                  uint32 = 0x0009
	ErrNoIO                       uint32 = 0x000A
	ErrUnknownAmsCmd              uint32 = 0x000B
	ErrWin32Error                 uint32 = 0x000C
	ErrPortNotConnected           uint32 = 0x000D
	ErrInvalidAmsLength           uint32 = 0x000E
	ErrInvalidAmsNetId            uint32 = 0x000F
	ErrLowInstLevel               uint32 = 0x0010
	ErrNoDebugInfo                uint32 = 0x0011
	ErrPortDisabled               uint32 = 0x0012
	ErrPortAlreadyConnected       uint32 = 0x0013
	ErrAmsSync                    uint32 = 0x0014
	ErrAmsSyncSendError           uint32 = 0x0015
	ErrAmsNoSync                  uint32 = 0x0016
	ErrNoIndexMap                 uint32 = 0x0017
	ErrInvalidAmsPort             uint32 = 0x0018
	ErrNoMemory                   uint32 = 0x0019
	ErrTcpSend                    uint32 = 0x001A
	ErrHostUnreachable            uint32 = 0x001B
	ErrInvalidAmsFragment         uint32 = 0x001C
	ErrTlsSend                    uint32 = 0x001D
	ErrAccessDenied               uint32 = 0x001E
	ErrDeviceError                uint32 = 0x0700
	ErrDeviceSrvNotSupp           uint32 = 0x0701
	ErrDeviceInvalidGrp           uint32 = 0x0702
	ErrDeviceInvalidOffs          uint32 = 0x0703
	ErrDeviceInvalidAccess        uint32 = 0x0704
	ErrDeviceInvalidSize          uint32 = 0x0705
	ErrDeviceInvalidData          uint32 = 0x0706
	ErrDeviceNotReady             uint32 = 0x0707
	ErrDeviceBusy                 uint32 = 0x0708
	ErrDeviceInvalidContext       uint32 = 0x0709
	ErrDeviceNoMemory             uint32 = 0x070A
	ErrDeviceInvalidParam         uint32 = 0x070B
	ErrDeviceNotFound             uint32 = 0x070C
	ErrDeviceSyntax               uint32 = 0x070D
	ErrDeviceIncompatible         uint32 = 0x070E
	ErrDeviceExists               uint32 = 0x070F
	ErrDeviceSymbolNotFound       uint32 = 0x0710
	ErrDeviceSymbolVersionInvalid uint32 = 0x0711
	ErrDeviceInvalidState         uint32 = 0x0712
	ErrDeviceTransModeNotSupp     uint32 = 0x0713
	ErrDeviceNotifyHndInvalid     uint32 = 0x0714
	ErrDeviceClientUnknown        uint32 = 0x0715
	ErrDeviceNoMoreHdls           uint32 = 0x0716
	ErrDeviceInvalidWatchSize     uint32 = 0x0717
	ErrDeviceNotInit              uint32 = 0x0718
	ErrDeviceTimeout              uint32 = 0x0719
	ErrDeviceNoInterface          uint32 = 0x071A
	ErrDeviceInvalidInterface     uint32 = 0x071B
	ErrDeviceInvalidClsId         uint32 = 0x071C
	ErrDeviceInvalidObjId         uint32 = 0x071D
	ErrDevicePending              uint32 = 0x071E
	ErrDeviceAborted              uint32 = 0x071F
	ErrDeviceWarning              uint32 = 0x0720
	ErrDeviceInvalidArrayIdx      uint32 = 0x0721
	ErrDeviceSymbolNotActive      uint32 = 0x0722
	ErrDeviceAccessDenied         uint32 = 0x0723
	ErrDeviceInvalidFncId         uint32 = 0x0734
	ErrDeviceOutOfRange           uint32 = 0x0735
	ErrDeviceInvalidAlignment     uint32 = 0x0736
	ErrDeviceInvalidQualifier     uint32 = 0x073B
	ErrDeviceInvalidMailbox       uint32 = 0x073C
)

func adsErrorName(code uint32) string {
	switch code {
	case ErrNoError:
		return "no error"
	case ErrTargetPortNotFound:
		return "target port not found"
	case ErrTargetMachineNotFound:
		return "target machine not found"
	case ErrUnknownCmdId:
		return "unknown command ID"
	case ErrPortNotConnected:
		return "port not connected"
	case ErrInvalidAmsLength:
		return "invalid AMS length"
	case ErrInvalidAmsNetId:
		return "invalid AMS Net ID"
	case ErrDeviceError:
		return "device error"
	case ErrDeviceSrvNotSupp:
		return "service not supported"
	case ErrDeviceInvalidGrp:
		return "invalid index group"
	case ErrDeviceInvalidOffs:
		return "invalid index offset"
	case ErrDeviceInvalidAccess:
		return "invalid access"
	case ErrDeviceInvalidSize:
		return "invalid size"
	case ErrDeviceInvalidData:
		return "invalid data"
	case ErrDeviceNotReady:
		return "device not ready"
	case ErrDeviceBusy:
		return "device busy"
	case ErrDeviceNoMemory:
		return "out of memory"
	case ErrDeviceInvalidParam:
		return "invalid parameter"
	case ErrDeviceNotFound:
		return "not found"
	case ErrDeviceSymbolNotFound:
		return "symbol not found"
	case ErrDeviceInvalidState:
		return "invalid state"
	case ErrDeviceNoMoreHdls:
		return "no more handles"
	case ErrDeviceTimeout:
		return "device timeout"
	case ErrDeviceAccessDenied:
		return "access denied"
	case ErrDeviceInvalidArrayIdx:
		return "invalid array index"
	case ErrDeviceOutOfRange:
		return "out of range"
	case ErrDeviceInvalidAlignment:
		return "invalid alignment"
	default:
		return "unknown error"
	}
}
