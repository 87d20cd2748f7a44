package ads

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/wargate/goads/logging"
)

// firstInvokeId is the starting value for the invoke-id counter. IDs cycle
// from here through 0xFFFF and then wrap back to firstInvokeId, never
// visiting the low range (reserved, by convention, for router-internal use).
const firstInvokeId = 0x8000

// Transport is the AMS/TCP request multiplexer: one TCP connection, one
// background reader, and single-request-in-flight execution.
type Transport struct {
	conn       net.Conn
	localAddr  AmsAddress
	timeout    time.Duration
	logger     *logging.Logger

	execMu   sync.Mutex // serializes Execute calls: one request in flight
	invokeId uint32

	pendingMu sync.Mutex
	pending   map[uint32]chan result

	closeOnce sync.Once
	closed    chan struct{}
}

type result struct {
	packet *amsPacket
	err    error
}

// DialTransport opens a TCP connection to an AMS/TCP endpoint and starts
// the background reader. address is a "host:port" pair; if the port is
// omitted, DefaultTCPPort is used.
func DialTransport(address string, local AmsAddress, timeout time.Duration, logger *logging.Logger) (*Transport, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = fmt.Sprintf("%s:%d", address, DefaultTCPPort)
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		logger.ConnectError("ads", address, err)
		return nil, transportErr("Dial", err)
	}
	logger.Connect("ads", address)

	t := &Transport{
		conn:      conn,
		localAddr: local,
		timeout:   timeout,
		logger:    logger,
		invokeId:  firstInvokeId,
		pending:   make(map[uint32]chan result),
		closed:    make(chan struct{}),
	}

	go t.readLoop()

	return t, nil
}

// Close shuts down the background reader and the underlying connection.
// Safe to call more than once.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.conn.Close()
		t.logger.Disconnect("ads", t.conn.RemoteAddr().String(), "closed")
	})
	return err
}

// nextInvokeId increments the invoke-id counter and returns the new value,
// so the first id ever handed out is firstInvokeId+1; the counter wraps back
// to firstInvokeId once it reaches 0xFFFF. Must be called with execMu held.
func (t *Transport) nextInvokeId() uint32 {
	if t.invokeId < 0xFFFF {
		t.invokeId++
	} else {
		t.invokeId = firstInvokeId
	}
	return t.invokeId
}

// Execute sends a single ADS command to target and waits for its matching
// response. Only one Execute call is ever in flight on a given Transport.
func (t *Transport) Execute(target AmsAddress, cmdId uint16, data []byte) ([]byte, error) {
	t.execMu.Lock()
	defer t.execMu.Unlock()

	invokeId := t.nextInvokeId()

	pkt := &amsPacket{
		Header: amsHeader{
			TargetNetId: target.NetId,
			TargetPort:  target.Port,
			SourceNetId: t.localAddr.NetId,
			SourcePort:  t.localAddr.Port,
			CommandId:   cmdId,
			StateFlags:  StateFlagRequest,
			DataLength:  uint32(len(data)),
			InvokeId:    invokeId,
		},
		Data: data,
	}

	ch := make(chan result, 1)
	t.pendingMu.Lock()
	t.pending[invokeId] = ch
	t.pendingMu.Unlock()
	defer func() {
		t.pendingMu.Lock()
		delete(t.pending, invokeId)
		t.pendingMu.Unlock()
	}()

	wire := pkt.encode()
	t.logger.TX("ads", wire)
	if _, err := t.conn.Write(wire); err != nil {
		return nil, transportErr("Execute", err)
	}

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if t.timeout > 0 {
		timer = time.NewTimer(t.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if r.packet.Header.ErrorCode != 0 {
			return nil, protocolErr("Execute", r.packet.Header.ErrorCode)
		}
		return r.packet.Data, nil
	case <-timeoutCh:
		return nil, timeoutErr("Execute")
	case <-t.closed:
		return nil, transportErr("Execute", fmt.Errorf("transport closed"))
	}
}

// readLoop is the single background reader: it decodes one AMS packet at a
// time and hands it to the waiter registered under its invoke id. Frames
// whose invoke id has no registered waiter (stray or late responses) are
// logged and dropped.
func (t *Transport) readLoop() {
	hdr := make([]byte, tcpHeaderSize)
	for {
		if _, err := io.ReadFull(t.conn, hdr); err != nil {
			t.failAllPending(transportErr("readLoop", err))
			return
		}

		length, err := decodeTCPLength(hdr)
		if err != nil {
			t.failAllPending(transportErr("readLoop", err))
			return
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(t.conn, body); err != nil {
			t.failAllPending(transportErr("readLoop", err))
			return
		}
		t.logger.RX("ads", body)

		pkt, err := decodeAmsPacket(body)
		if err != nil {
			t.logger.LogError("ads", "decode", err)
			continue
		}

		t.pendingMu.Lock()
		ch, ok := t.pending[pkt.Header.InvokeId]
		if ok {
			delete(t.pending, pkt.Header.InvokeId)
		}
		t.pendingMu.Unlock()

		if !ok {
			t.logger.Log("ads", "dropped packet with unmatched invoke id %d", pkt.Header.InvokeId)
			continue
		}

		ch <- result{packet: pkt}
	}
}

func (t *Transport) failAllPending(err error) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	for id, ch := range t.pending {
		ch <- result{err: err}
		delete(t.pending, id)
	}
}
