package ads

// ADS command IDs (spec ADS command layer, seven request/response pairs).
const (
	CmdReadDeviceInfo     uint16 = 0x0001
	CmdRead               uint16 = 0x0002
	CmdWrite              uint16 = 0x0003
	CmdReadState          uint16 = 0x0004
	CmdWriteControl       uint16 = 0x0005
	CmdAddDeviceNotify    uint16 = 0x0006 // out of scope: no notification subsystem
	CmdDeleteDeviceNotify uint16 = 0x0007 // out of scope: no notification subsystem
	CmdDeviceNotification uint16 = 0x0008 // out of scope: no notification subsystem
	CmdReadWrite          uint16 = 0x0009
)

// AMS state flags.
const (
	StateFlagRequest  uint16 = 0x0004
	StateFlagResponse uint16 = 0x0005
)

// ADS index groups used by the symbol/type resolution engine.
const (
	IndexGroupSymbolTable          uint32 = 0xF000
	IndexGroupSymbolName           uint32 = 0xF001
	IndexGroupSymbolValue          uint32 = 0xF002
	IndexGroupSymbolHandleByName   uint32 = 0xF003
	IndexGroupSymbolValueByHandle  uint32 = 0xF005
	IndexGroupSymbolReleaseHandle  uint32 = 0xF006
	IndexGroupSymbolInfoByName     uint32 = 0xF007
	IndexGroupSymbolVersion        uint32 = 0xF008
	IndexGroupSymbolInfoByNameEx   uint32 = 0xF009
	IndexGroupDataTypeInfoByNameEx uint32 = 0xF00A
	IndexGroupSymbolUpload         uint32 = 0xF00B
	IndexGroupSymbolUploadInfo     uint32 = 0xF00C
	IndexGroupDataTypeUpload       uint32 = 0xF00E
	IndexGroupSymbolUploadInfo2    uint32 = 0xF00F
	// IndexGroupSymbolSumRead is ADSIGRP_SUMUP_READ: a sum-read request
	// bundles N (index group, index offset, length) triples via ReadWrite
	// and gets back, in one round trip, a block of N error codes followed
	// by the N values.
	IndexGroupSymbolSumRead uint32 = 0xF080
)

// Well-known AMS ports.
const (
	PortLogger        uint16 = 100
	PortEventLog      uint16 = 110
	PortIO            uint16 = 300
	PortNC            uint16 = 500
	PortPLC1          uint16 = 801
	PortPLC2          uint16 = 811
	PortTC3PLC1       uint16 = 851
	PortTC3PLC2       uint16 = 852
	PortCamshaft      uint16 = 900
	PortSystemService uint16 = 10000
)

// DefaultTCPPort is the standard AMS/TCP port (0xBF02).
const DefaultTCPPort = 48898

// DefaultAmsPort is the default target ADS port for a TwinCAT 3 PLC runtime.
const DefaultAmsPort = PortTC3PLC1
