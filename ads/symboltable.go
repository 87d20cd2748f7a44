package ads

import (
	"encoding/binary"
	"fmt"
)

// SymbolInfo describes one entry from the symbol table (upload from
// IndexGroupSymbolUpload): a top-level named PLC variable, its memory
// location, and the name of its declared type.
type SymbolInfo struct {
	IndexGroup  uint32
	IndexOffset uint32
	DataSize    uint32
	Type        TypeTag
	Path        string // full symbol name, e.g. "MAIN.fbMotor.bEnable"
	TypeSymbol  string // declared type name, looked up in the TypeInfoList
	Comment     string
}

// parseSymbolInfo parses one symbol-table record. data must start at the
// record's own size prefix.
func parseSymbolInfo(data []byte) (*SymbolInfo, error) {
	if len(data) < 0x1E {
		return nil, fmt.Errorf("ads: short symbol record: %d bytes", len(data))
	}

	s := &SymbolInfo{
		IndexGroup:  binary.LittleEndian.Uint32(data[0x04:0x08]),
		IndexOffset: binary.LittleEndian.Uint32(data[0x08:0x0C]),
		DataSize:    binary.LittleEndian.Uint32(data[0x0C:0x10]),
		Type:        TypeTag(binary.LittleEndian.Uint16(data[0x10:0x12])),
	}

	pathLen := int(binary.LittleEndian.Uint16(data[0x18:0x1A]))
	typeLen := int(binary.LittleEndian.Uint16(data[0x1A:0x1C]))
	commentLen := int(binary.LittleEndian.Uint16(data[0x1C:0x1E]))

	p := 0x1E
	var err error
	if s.Path, err = sliceString(data, p, pathLen); err != nil {
		return nil, err
	}
	p += pathLen + 1
	if s.TypeSymbol, err = sliceString(data, p, typeLen); err != nil {
		return nil, err
	}
	p += typeLen + 1
	if s.Comment, err = sliceString(data, p, commentLen); err != nil {
		return nil, err
	}

	return s, nil
}

// SymbolInfoList is the path-keyed collection of SymbolInfo entries built
// from a symbol-table upload.
type SymbolInfoList struct {
	byPath map[string]*SymbolInfo
	order  []string
}

func newSymbolInfoList() *SymbolInfoList {
	return &SymbolInfoList{byPath: make(map[string]*SymbolInfo)}
}

// Insert adds or replaces an entry, keyed by its Path.
func (l *SymbolInfoList) Insert(s *SymbolInfo) {
	if _, exists := l.byPath[s.Path]; !exists {
		l.order = append(l.order, s.Path)
	}
	l.byPath[s.Path] = s
}

// Get looks up a symbol by its full name.
func (l *SymbolInfoList) Get(path string) (*SymbolInfo, bool) {
	s, ok := l.byPath[path]
	return s, ok
}

// Size returns the number of entries.
func (l *SymbolInfoList) Size() int { return len(l.byPath) }

// All returns entries in upload order.
func (l *SymbolInfoList) All() []*SymbolInfo {
	out := make([]*SymbolInfo, 0, len(l.order))
	for _, p := range l.order {
		out = append(out, l.byPath[p])
	}
	return out
}

// ParseSymbolTableUpload parses a full symbol-table upload blob (the
// response to a Read against IndexGroupSymbolUpload, offset 0) into a
// SymbolInfoList. Each record is length-prefixed by its own 4-byte size.
func ParseSymbolTableUpload(data []byte) (*SymbolInfoList, error) {
	l := newSymbolInfoList()
	p := 0
	for p < len(data) {
		if p+4 > len(data) {
			return nil, fmt.Errorf("ads: truncated symbol table at offset %d", p)
		}
		size := int(binary.LittleEndian.Uint32(data[p : p+4]))
		if size <= 0 || p+size > len(data) {
			return nil, fmt.Errorf("ads: invalid symbol record size %d at offset %d", size, p)
		}
		s, err := parseSymbolInfo(data[p : p+size])
		if err != nil {
			return nil, err
		}
		l.Insert(s)
		p += size
	}
	return l, nil
}

// UploadInfo reports the counts and byte sizes of the type and symbol
// tables, read from IndexGroupSymbolUploadInfo2 at offset 0 (a fixed
// 24-byte record).
type UploadInfo struct {
	SymbolCount     uint32
	SymbolTableSize uint32
	TypeCount       uint32
	TypeTableSize   uint32
}

func parseUploadInfo(data []byte) (*UploadInfo, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("ads: short upload info: %d bytes", len(data))
	}
	return &UploadInfo{
		SymbolCount:     binary.LittleEndian.Uint32(data[0:4]),
		SymbolTableSize: binary.LittleEndian.Uint32(data[4:8]),
		TypeCount:       binary.LittleEndian.Uint32(data[8:12]),
		TypeTableSize:   binary.LittleEndian.Uint32(data[12:16]),
	}, nil
}
