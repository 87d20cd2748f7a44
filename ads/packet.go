package ads

import (
	"encoding/binary"
	"fmt"
)

// amsHeaderSize is the fixed size of an AMS header, in bytes.
const amsHeaderSize = 32

// tcpHeaderSize is the fixed size of the AMS/TCP framing header.
const tcpHeaderSize = 6

// amsHeader is the 32-byte header carried by every ADS command.
type amsHeader struct {
	TargetNetId AmsNetId
	TargetPort  uint16
	SourceNetId AmsNetId
	SourcePort  uint16
	CommandId   uint16
	StateFlags  uint16
	DataLength  uint32
	ErrorCode   uint32
	InvokeId    uint32
}

// amsPacket is a full AMS packet: header plus command payload.
type amsPacket struct {
	Header amsHeader
	Data   []byte
}

// encode serializes the packet with its 6-byte AMS/TCP framing header.
func (p *amsPacket) encode() []byte {
	buf := make([]byte, tcpHeaderSize+amsHeaderSize+len(p.Data))

	binary.LittleEndian.PutUint16(buf[0:2], 0) // reserved
	binary.LittleEndian.PutUint32(buf[2:6], uint32(amsHeaderSize+len(p.Data)))

	h := buf[tcpHeaderSize:]
	copy(h[0:6], p.Header.TargetNetId[:])
	binary.LittleEndian.PutUint16(h[6:8], p.Header.TargetPort)
	copy(h[8:14], p.Header.SourceNetId[:])
	binary.LittleEndian.PutUint16(h[14:16], p.Header.SourcePort)
	binary.LittleEndian.PutUint16(h[16:18], p.Header.CommandId)
	binary.LittleEndian.PutUint16(h[18:20], p.Header.StateFlags)
	binary.LittleEndian.PutUint32(h[20:24], p.Header.DataLength)
	binary.LittleEndian.PutUint32(h[24:28], p.Header.ErrorCode)
	binary.LittleEndian.PutUint32(h[28:32], p.Header.InvokeId)

	copy(buf[tcpHeaderSize+amsHeaderSize:], p.Data)

	return buf
}

// decodeTCPLength reads the AMS payload length (AMS header + data) out of a
// 6-byte AMS/TCP framing header.
func decodeTCPLength(hdr []byte) (uint32, error) {
	if len(hdr) != tcpHeaderSize {
		return 0, fmt.Errorf("ads: short TCP header: %d bytes", len(hdr))
	}
	length := binary.LittleEndian.Uint32(hdr[2:6])
	if length < amsHeaderSize {
		return 0, fmt.Errorf("ads: AMS length %d smaller than header", length)
	}
	return length, nil
}

// decodeAmsPacket parses an AMS header plus trailing data, as delivered
// after the TCP framing header has been stripped.
func decodeAmsPacket(body []byte) (*amsPacket, error) {
	if len(body) < amsHeaderSize {
		return nil, fmt.Errorf("ads: short AMS body: %d bytes", len(body))
	}

	var h amsHeader
	copy(h.TargetNetId[:], body[0:6])
	h.TargetPort = binary.LittleEndian.Uint16(body[6:8])
	copy(h.SourceNetId[:], body[8:14])
	h.SourcePort = binary.LittleEndian.Uint16(body[14:16])
	h.CommandId = binary.LittleEndian.Uint16(body[16:18])
	h.StateFlags = binary.LittleEndian.Uint16(body[18:20])
	h.DataLength = binary.LittleEndian.Uint32(body[20:24])
	h.ErrorCode = binary.LittleEndian.Uint32(body[24:28])
	h.InvokeId = binary.LittleEndian.Uint32(body[28:32])

	data := body[amsHeaderSize:]
	if uint32(len(data)) < h.DataLength {
		return nil, fmt.Errorf("ads: AMS data shorter than declared length: have %d, want %d", len(data), h.DataLength)
	}

	return &amsPacket{Header: h, Data: data[:h.DataLength]}, nil
}
