package ads

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/wargate/goads/logging"
)

// DeviceInfo is the payload of a ReadDeviceInfo response.
type DeviceInfo struct {
	MajorVersion byte
	MinorVersion byte
	BuildVersion uint16
	DeviceName   string
}

// ReadStateResult is the payload of a ReadState response.
type ReadStateResult struct {
	AdsState    uint16
	DeviceState uint16
}

// options holds the resolved state of a Client's functional options.
type options struct {
	amsPort    uint16
	timeout    time.Duration
	alignment  bool
	netId      *AmsNetId
	sourceAddr *AmsAddress
	logger     *logging.Logger
}

// Option configures a Client at Connect time.
type Option func(*options)

// WithAmsNetId sets the target device's AMS Net ID. Required: unlike
// pointing at a bare IP and letting the client guess a Net ID, this
// library always takes the target identity explicitly.
func WithAmsNetId(id AmsNetId) Option {
	return func(o *options) { o.netId = &id }
}

// WithAmsPort sets the target AMS port (default PortTC3PLC1, 851).
func WithAmsPort(port uint16) Option {
	return func(o *options) { o.amsPort = port }
}

// WithTimeout sets both the dial timeout and the per-request response
// timeout (default 10s).
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithAlignment enables the ARM/TwinCAT-2 struct member alignment rule
// (disabled by default, matching TwinCAT 3 on x86).
func WithAlignment(enabled bool) Option {
	return func(o *options) { o.alignment = enabled }
}

// WithSourceAddress sets the local AMS address the client presents itself
// as. If not given, it's derived from the local TCP endpoint's IP using
// the conventional "ip.1.1" suffix TwinCAT tooling uses for route-free
// clients.
func WithSourceAddress(addr AmsAddress) Option {
	return func(o *options) { o.sourceAddr = &addr }
}

// WithLogger attaches a debug logger; nil (the default) disables logging.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Client is the public ADS client: a Transport plus the resolved type and
// symbol tables needed to read and write PLC variables by name.
type Client struct {
	transport *Transport
	target    AmsAddress
	alignment bool
	logger    *logging.Logger

	handlesMu sync.Mutex
	handles   map[string]uint32

	symMu   sync.Mutex
	symbols *SymbolList
	types   *TypeInfoList
}

// Connect opens an AMS/TCP connection to address ("host:port", port
// defaults to DefaultTCPPort) and verifies it by reading the device's
// identity. Each call dials a new connection and returns a new Client; it
// does not close or reuse the connection of any existing Client.
func Connect(address string, opts ...Option) (*Client, error) {
	o := options{
		amsPort:   DefaultAmsPort,
		timeout:   10 * time.Second,
		alignment: false,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.netId == nil {
		return nil, fmt.Errorf("ads: Connect requires WithAmsNetId")
	}

	transport, err := DialTransport(address, AmsAddress{}, o.timeout, o.logger)
	if err != nil {
		return nil, err
	}

	localAddr := o.sourceAddr
	if localAddr == nil {
		derived, err := deriveLocalAddress(transport.conn)
		if err != nil {
			transport.Close()
			return nil, err
		}
		localAddr = derived
	}
	transport.localAddr = *localAddr

	c := &Client{
		transport: transport,
		target:    AmsAddress{NetId: *o.netId, Port: o.amsPort},
		alignment: o.alignment,
		logger:    o.logger,
		handles:   make(map[string]uint32),
	}

	if _, err := c.ReadDeviceInfo(); err != nil {
		transport.Close()
		return nil, err
	}

	return c, nil
}

// deriveLocalAddress guesses a route-free source AMS address from the local
// side of the already-dialed transport connection, using the conventional
// "ip.1.1" suffix TwinCAT tooling uses for route-free clients.
func deriveLocalAddress(conn net.Conn) (*AmsAddress, error) {
	host, _, err := net.SplitHostPort(conn.LocalAddr().String())
	if err != nil {
		return nil, transportErr("deriveLocalAddress", err)
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return nil, fmt.Errorf("ads: local address %q is not an IPv4 address", host)
	}

	return &AmsAddress{
		NetId: AmsNetId{ip[0], ip[1], ip[2], ip[3], 1, 1},
		Port:  0, // source port is a don't-care for AMS/TCP framing; the router assigns one
	}, nil
}

// Close releases every handle this client acquired and closes the
// underlying transport.
func (c *Client) Close() error {
	c.closeHandles()
	return c.transport.Close()
}

// ReadDeviceInfo issues CmdReadDeviceInfo.
func (c *Client) ReadDeviceInfo() (DeviceInfo, error) {
	resp, err := c.transport.Execute(c.target, CmdReadDeviceInfo, nil)
	if err != nil {
		return DeviceInfo{}, err
	}
	r, err := decodeReadDeviceInfoResponse(resp)
	if err != nil {
		return DeviceInfo{}, err
	}
	return DeviceInfo{MajorVersion: r.MajorVersion, MinorVersion: r.MinorVersion, BuildVersion: r.BuildVersion, DeviceName: r.DeviceName}, nil
}

// ReadState issues CmdReadState.
func (c *Client) ReadState() (ReadStateResult, error) {
	resp, err := c.transport.Execute(c.target, CmdReadState, nil)
	if err != nil {
		return ReadStateResult{}, err
	}
	r, err := decodeReadStateResponse(resp)
	if err != nil {
		return ReadStateResult{}, err
	}
	return ReadStateResult{AdsState: r.AdsState, DeviceState: r.DeviceState}, nil
}

// WriteControl issues CmdWriteControl, e.g. to start or stop the PLC task.
func (c *Client) WriteControl(adsState, deviceState uint16, data []byte) error {
	_, err := c.transport.Execute(c.target, CmdWriteControl, writeControlRequest(adsState, deviceState, data))
	return err
}

// GetHandleByName resolves a symbol name to a runtime handle via
// IndexGroupSymbolHandleByName.
func (c *Client) GetHandleByName(name string) (uint32, error) {
	nameBytes, err := EncodeString(name, len(name)+1)
	if err != nil {
		return 0, err
	}
	resp, err := c.transport.Execute(c.target, CmdReadWrite, readWriteRequest(IndexGroupSymbolHandleByName, 0, 4, nameBytes))
	if err != nil {
		return 0, err
	}
	rw, err := decodeReadWriteResponse(resp)
	if err != nil {
		return 0, err
	}
	handle, err := DecodeUint(rw.Data[:4])
	if err != nil {
		return 0, err
	}

	c.handlesMu.Lock()
	c.handles[name] = uint32(handle)
	c.handlesMu.Unlock()

	return uint32(handle), nil
}

// ReleaseHandle releases a handle obtained from GetHandleByName.
func (c *Client) ReleaseHandle(handle uint32) error {
	buf, err := EncodeUint(uint64(handle), 4)
	if err != nil {
		return err
	}
	_, err = c.transport.Execute(c.target, CmdWrite, writeRequest(IndexGroupSymbolReleaseHandle, 0, buf))
	return err
}

// closeHandles releases every handle this client has acquired. Called from
// Close in the idiom of the teacher's client, which tears down handles
// before closing the socket.
func (c *Client) closeHandles() {
	c.handlesMu.Lock()
	handles := make([]uint32, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.handles = make(map[string]uint32)
	c.handlesMu.Unlock()

	for _, h := range handles {
		c.ReleaseHandle(h)
	}
}

// GetInfoByName resolves a symbol's type/size/address via
// IndexGroupSymbolInfoByNameEx, using the 0xFFFF "give me what you have"
// read length convention for the variable-length response.
func (c *Client) GetInfoByName(name string) (Symbol, error) {
	nameBytes, err := EncodeString(name, len(name)+1)
	if err != nil {
		return Symbol{}, err
	}
	resp, err := c.transport.Execute(c.target, CmdReadWrite, readWriteRequest(IndexGroupSymbolInfoByNameEx, 0, readLengthMax, nameBytes))
	if err != nil {
		return Symbol{}, err
	}
	rw, err := decodeReadWriteResponse(resp)
	if err != nil {
		return Symbol{}, err
	}
	info, err := parseSymbolInfo(rw.Data)
	if err != nil {
		return Symbol{}, err
	}
	return Symbol{Path: info.Path, IndexGroup: info.IndexGroup, IndexOffset: info.IndexOffset, Type: info.Type, Size: info.DataSize}, nil
}

// sizeForTag returns the number of bytes a scalar read/write of tag should
// move: the tag's fixed width, or defaultStringSize for STRING/WSTRING.
func sizeForTag(tag TypeTag) uint32 {
	if n := FixedSize(tag); n > 0 {
		return uint32(n)
	}
	return defaultStringSize
}

// ReadByHandle reads a value addressed by a previously acquired handle,
// decoding it as tag.
func (c *Client) ReadByHandle(handle uint32, tag TypeTag) (any, error) {
	resp, err := c.transport.Execute(c.target, CmdRead, readRequest(IndexGroupSymbolValueByHandle, handle, sizeForTag(tag)))
	if err != nil {
		return nil, err
	}
	rr, err := decodeReadResponse(resp)
	if err != nil {
		return nil, err
	}
	return DecodeValue(tag, rr.Data)
}

// WriteByHandle writes a value addressed by a previously acquired handle,
// encoding it as tag.
func (c *Client) WriteByHandle(handle uint32, tag TypeTag, value any) error {
	data, err := EncodeValue(tag, value, 0)
	if err != nil {
		return err
	}
	_, err = c.transport.Execute(c.target, CmdWrite, writeRequest(IndexGroupSymbolValueByHandle, handle, data))
	return err
}

// ReadByName resolves name to a handle and reads its value as tag.
func (c *Client) ReadByName(name string, tag TypeTag) (any, error) {
	handle, err := c.GetHandleByName(name)
	if err != nil {
		return nil, err
	}
	defer c.ReleaseHandle(handle)
	return c.ReadByHandle(handle, tag)
}

// WriteByName resolves name to a handle and writes value as tag.
func (c *Client) WriteByName(name string, tag TypeTag, value any) error {
	handle, err := c.GetHandleByName(name)
	if err != nil {
		return err
	}
	defer c.ReleaseHandle(handle)
	return c.WriteByHandle(handle, tag, value)
}

// ReadArrayByHandle reads a whole array value addressed by a previously
// acquired handle, decoded by codec into a nested map[int]any.
func (c *Client) ReadArrayByHandle(handle uint32, codec *ArrayCodec) (map[int]any, error) {
	resp, err := c.transport.Execute(c.target, CmdRead, readRequest(IndexGroupSymbolValueByHandle, handle, uint32(codec.ByteSize())))
	if err != nil {
		return nil, err
	}
	rr, err := decodeReadResponse(resp)
	if err != nil {
		return nil, err
	}
	return codec.Unpack(rr.Data)
}

// WriteArrayByHandle writes a whole array value addressed by a previously
// acquired handle, encoded by codec from a nested map[int]any or a
// flattened []any.
func (c *Client) WriteArrayByHandle(handle uint32, codec *ArrayCodec, value any) error {
	data, err := codec.Pack(value)
	if err != nil {
		return err
	}
	_, err = c.transport.Execute(c.target, CmdWrite, writeRequest(IndexGroupSymbolValueByHandle, handle, data))
	return err
}

// GetTypes uploads and parses the full data type table.
func (c *Client) GetTypes() (*TypeInfoList, error) {
	info, err := c.uploadInfo()
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Execute(c.target, CmdRead, readRequest(IndexGroupDataTypeUpload, 0, info.TypeTableSize))
	if err != nil {
		return nil, err
	}
	rr, err := decodeReadResponse(resp)
	if err != nil {
		return nil, err
	}
	types, err := ParseTypeTableUpload(rr.Data)
	if err != nil {
		return nil, err
	}
	c.symMu.Lock()
	c.types = types
	c.symMu.Unlock()
	return types, nil
}

// GetSymbols uploads and parses the full symbol table.
func (c *Client) GetSymbols() (*SymbolInfoList, error) {
	info, err := c.uploadInfo()
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Execute(c.target, CmdRead, readRequest(IndexGroupSymbolUpload, 0, info.SymbolTableSize))
	if err != nil {
		return nil, err
	}
	rr, err := decodeReadResponse(resp)
	if err != nil {
		return nil, err
	}
	return ParseSymbolTableUpload(rr.Data)
}

func (c *Client) uploadInfo() (*UploadInfo, error) {
	resp, err := c.transport.Execute(c.target, CmdRead, readRequest(IndexGroupSymbolUploadInfo2, 0, 24))
	if err != nil {
		return nil, err
	}
	rr, err := decodeReadResponse(resp)
	if err != nil {
		return nil, err
	}
	return parseUploadInfo(rr.Data)
}

// BuildSymbolList uploads the type and symbol tables (on every call) and
// expands them into a flat SymbolList.
func (c *Client) BuildSymbolList() (*SymbolList, error) {
	types, err := c.GetTypes()
	if err != nil {
		return nil, err
	}
	symbols, err := c.GetSymbols()
	if err != nil {
		return nil, err
	}
	sl := BuildSymbolList(symbols, types, c.alignment)
	c.symMu.Lock()
	c.symbols = sl
	c.symMu.Unlock()
	return sl, nil
}

// SumRead reads every symbol in group with a single ADSIGRP_SUMUP_READ
// request.
func (c *Client) SumRead(group *GroupSymbolList) ([]SumReadResult, error) {
	return SumRead(c.transport, c.target, group)
}

// BlockRead reads every symbol in group with a single contiguous Read.
func (c *Client) BlockRead(group *GroupSymbolList) ([]SumReadResult, error) {
	return BlockRead(c.transport, c.target, group)
}
