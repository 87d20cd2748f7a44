package ads

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"
)

// startAdsServer runs a minimal fake PLC that answers ReadDeviceInfo and
// delegates everything else to handle.
func startAdsServer(t *testing.T, handle func(cmdId uint16, data []byte) []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			hdr := make([]byte, tcpHeaderSize)
			if _, err := io.ReadFull(conn, hdr); err != nil {
				return
			}
			length, err := decodeTCPLength(hdr)
			if err != nil {
				return
			}
			body := make([]byte, length)
			if _, err := io.ReadFull(conn, body); err != nil {
				return
			}
			req, err := decodeAmsPacket(body)
			if err != nil {
				return
			}

			var data []byte
			if req.Header.CommandId == CmdReadDeviceInfo {
				buf := make([]byte, 24)
				buf[4], buf[5] = 3, 1
				binary.LittleEndian.PutUint16(buf[6:8], 4024)
				name, _ := EncodeString("TestPLC", 16)
				copy(buf[8:24], name)
				data = buf
			} else if handle != nil {
				data = handle(req.Header.CommandId, req.Data)
			}

			resp := &amsPacket{
				Header: amsHeader{
					TargetNetId: req.Header.SourceNetId,
					TargetPort:  req.Header.SourcePort,
					SourceNetId: req.Header.TargetNetId,
					SourcePort:  req.Header.TargetPort,
					CommandId:   req.Header.CommandId,
					StateFlags:  StateFlagResponse,
					InvokeId:    req.Header.InvokeId,
					DataLength:  uint32(len(data)),
				},
				Data: data,
			}
			if _, err := conn.Write(resp.encode()); err != nil {
				return
			}
		}
	}()

	return ln.Addr().String()
}

func TestConnectRequiresAmsNetId(t *testing.T) {
	addr := startAdsServer(t, nil)
	_, err := Connect(addr)
	if err == nil {
		t.Fatal("expected error when WithAmsNetId is omitted")
	}
}

func TestConnectAndReadDeviceInfo(t *testing.T) {
	addr := startAdsServer(t, nil)

	netId, err := ParseAmsNetId("127.0.0.1.1.1")
	if err != nil {
		t.Fatalf("ParseAmsNetId: %v", err)
	}

	c, err := Connect(addr, WithAmsNetId(netId), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	info, err := c.ReadDeviceInfo()
	if err != nil {
		t.Fatalf("ReadDeviceInfo: %v", err)
	}
	if info.MajorVersion != 3 || info.MinorVersion != 1 {
		t.Errorf("unexpected version: %d.%d", info.MajorVersion, info.MinorVersion)
	}
	if info.DeviceName != "TestPLC" {
		t.Errorf("unexpected device name: %q", info.DeviceName)
	}
}

func TestClientReadState(t *testing.T) {
	addr := startAdsServer(t, func(cmdId uint16, data []byte) []byte {
		if cmdId != CmdReadState {
			return nil
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint16(buf[4:6], 5) // RUN
		binary.LittleEndian.PutUint16(buf[6:8], 0)
		return buf
	})

	netId, _ := ParseAmsNetId("127.0.0.1.1.1")
	c, err := Connect(addr, WithAmsNetId(netId), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	state, err := c.ReadState()
	if err != nil {
		t.Fatalf("ReadState: %v", err)
	}
	if state.AdsState != 5 {
		t.Errorf("AdsState = %d, want 5", state.AdsState)
	}
}

func TestClientReadByHandle(t *testing.T) {
	var stored uint32 = 7
	addr := startAdsServer(t, func(cmdId uint16, data []byte) []byte {
		switch cmdId {
		case CmdReadWrite:
			// GetHandleByName: return a fixed handle
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint32(buf[4:8], 4)
			handle := make([]byte, 4)
			binary.LittleEndian.PutUint32(handle, 99)
			return append(buf, handle...)
		case CmdRead:
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint32(buf[4:8], 4)
			val := make([]byte, 4)
			binary.LittleEndian.PutUint32(val, stored)
			return append(buf, val...)
		case CmdWrite:
			return make([]byte, 4)
		default:
			return nil
		}
	})

	netId, _ := ParseAmsNetId("127.0.0.1.1.1")
	c, err := Connect(addr, WithAmsNetId(netId), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	handle, err := c.GetHandleByName("MAIN.nCount")
	if err != nil {
		t.Fatalf("GetHandleByName: %v", err)
	}
	if handle != 99 {
		t.Fatalf("handle = %d, want 99", handle)
	}

	val, err := c.ReadByHandle(handle, TypeDInt)
	if err != nil {
		t.Fatalf("ReadByHandle: %v", err)
	}
	if val.(int64) != 7 {
		t.Fatalf("value = %v, want 7", val)
	}
}

func TestClientReadArrayByHandle(t *testing.T) {
	addr := startAdsServer(t, func(cmdId uint16, data []byte) []byte {
		switch cmdId {
		case CmdReadWrite:
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint32(buf[4:8], 4)
			handle := make([]byte, 4)
			binary.LittleEndian.PutUint32(handle, 5)
			return append(buf, handle...)
		case CmdRead:
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint32(buf[4:8], 12)
			vals := make([]byte, 12)
			binary.LittleEndian.PutUint32(vals[0:4], 10)
			binary.LittleEndian.PutUint32(vals[4:8], 20)
			binary.LittleEndian.PutUint32(vals[8:12], 30)
			return append(buf, vals...)
		default:
			return nil
		}
	})

	netId, _ := ParseAmsNetId("127.0.0.1.1.1")
	c, err := Connect(addr, WithAmsNetId(netId), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	handle, err := c.GetHandleByName("MAIN.aValues")
	if err != nil {
		t.Fatalf("GetHandleByName: %v", err)
	}

	codec := NewArrayCodec(TypeDInt, 0, []ArrayBound{{Lo: 0, Hi: 2}})
	out, err := c.ReadArrayByHandle(handle, codec)
	if err != nil {
		t.Fatalf("ReadArrayByHandle: %v", err)
	}
	if out[0].(int64) != 10 || out[1].(int64) != 20 || out[2].(int64) != 30 {
		t.Fatalf("unexpected array: %v", out)
	}
}
