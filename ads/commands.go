package ads

import (
	"encoding/binary"
	"fmt"
)

// This file implements the ADS command layer: the request/response pairs
// the symbol engine and public Client build on top of. Notification-related
// commands (AddDeviceNotify, DeleteDeviceNotify, DeviceNotification) are not
// implemented here; this library has no notification/subscription
// subsystem.

// readDeviceInfoResponse is the payload of a CmdReadDeviceInfo response.
type readDeviceInfoResponse struct {
	Result       uint32
	MajorVersion byte
	MinorVersion byte
	BuildVersion uint16
	DeviceName   string
}

func decodeReadDeviceInfoResponse(data []byte) (*readDeviceInfoResponse, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("ads: short ReadDeviceInfo response: %d bytes", len(data))
	}
	name, err := DecodeString(data[8:24])
	if err != nil {
		return nil, err
	}
	return &readDeviceInfoResponse{
		Result:       binary.LittleEndian.Uint32(data[0:4]),
		MajorVersion: data[4],
		MinorVersion: data[5],
		BuildVersion: binary.LittleEndian.Uint16(data[6:8]),
		DeviceName:   name,
	}, nil
}

// readRequest builds a CmdRead payload: index group, index offset, and the
// number of bytes to read.
func readRequest(group, offset uint32, length uint32) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], group)
	binary.LittleEndian.PutUint32(buf[4:8], offset)
	binary.LittleEndian.PutUint32(buf[8:12], length)
	return buf
}

// readResponse is the payload of a CmdRead response: a result code followed
// by the value bytes.
type readResponse struct {
	Result uint32
	Data   []byte
}

func decodeReadResponse(data []byte) (*readResponse, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("ads: short Read response: %d bytes", len(data))
	}
	length := binary.LittleEndian.Uint32(data[4:8])
	if uint32(len(data)-8) < length {
		return nil, fmt.Errorf("ads: Read response truncated: have %d, want %d", len(data)-8, length)
	}
	return &readResponse{
		Result: binary.LittleEndian.Uint32(data[0:4]),
		Data:   data[8 : 8+length],
	}, nil
}

// writeRequest builds a CmdWrite payload: index group, index offset, and
// the value bytes.
func writeRequest(group, offset uint32, value []byte) []byte {
	buf := make([]byte, 12+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], group)
	binary.LittleEndian.PutUint32(buf[4:8], offset)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(value)))
	copy(buf[12:], value)
	return buf
}

// decodeWriteResponse parses a CmdWrite response: a single result code.
func decodeWriteResponse(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("ads: short Write response: %d bytes", len(data))
	}
	return binary.LittleEndian.Uint32(data[0:4]), nil
}

// readStateResponse is the payload of a CmdReadState response.
type readStateResponse struct {
	Result      uint32
	AdsState    uint16
	DeviceState uint16
}

func decodeReadStateResponse(data []byte) (*readStateResponse, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("ads: short ReadState response: %d bytes", len(data))
	}
	return &readStateResponse{
		Result:      binary.LittleEndian.Uint32(data[0:4]),
		AdsState:    binary.LittleEndian.Uint16(data[4:6]),
		DeviceState: binary.LittleEndian.Uint16(data[6:8]),
	}, nil
}

// writeControlRequest builds a CmdWriteControl payload.
func writeControlRequest(adsState, deviceState uint16, data []byte) []byte {
	buf := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint16(buf[0:2], adsState)
	binary.LittleEndian.PutUint16(buf[2:4], deviceState)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(data)))
	copy(buf[8:], data)
	return buf
}

// readWriteRequest builds a CmdReadWrite payload: index group, index
// offset, expected read length, and the write data.
func readWriteRequest(group, offset uint32, readLength uint32, writeData []byte) []byte {
	buf := make([]byte, 16+len(writeData))
	binary.LittleEndian.PutUint32(buf[0:4], group)
	binary.LittleEndian.PutUint32(buf[4:8], offset)
	binary.LittleEndian.PutUint32(buf[8:12], readLength)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(writeData)))
	copy(buf[16:], writeData)
	return buf
}

// readWriteResponse is the payload of a CmdReadWrite response: a result
// code followed by the read-back bytes.
type readWriteResponse struct {
	Result uint32
	Data   []byte
}

func decodeReadWriteResponse(data []byte) (*readWriteResponse, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("ads: short ReadWrite response: %d bytes", len(data))
	}
	length := binary.LittleEndian.Uint32(data[4:8])
	if uint32(len(data)-8) < length {
		return nil, fmt.Errorf("ads: ReadWrite response truncated: have %d, want %d", len(data)-8, length)
	}
	return &readWriteResponse{
		Result: binary.LittleEndian.Uint32(data[0:4]),
		Data:   data[8 : 8+length],
	}, nil
}

// readLengthMax is the ADS convention for "give me as much as you have":
// used on ReadWrite requests whose response size isn't known up front
// (e.g. symbol info-by-name-ex), letting the device truncate to the real
// length rather than the caller guessing a buffer size.
const readLengthMax = 0xFFFF
