package ads

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
)

// arrayDecl matches a TwinCAT array type declaration, e.g.
// "ARRAY [0..9] OF INT". Used to recognize arrays both in a type's own
// path and, for TC2-expanded struct members, in its strtype.
var arrayDecl = regexp.MustCompile(`(?i)ARRAY\s+\[(\d+)\.\.(\d+)\].+OF\s+(\w+)`)

// TypeInfo describes one entry from the ADS type table (upload from
// IndexGroupDataTypeUpload): a named type definition, possibly a struct
// with child members, possibly an array.
type TypeInfo struct {
	Type       TypeTag
	DataSize   uint32
	Path       string // full declared type name
	StrType    string // base element type name (struct member type, or array element type)
	Comment    string
	IsStruct   bool
	IsArray    bool
	// StructIsChild is set when the array declaration was found on StrType
	// rather than Path: TwinCAT 2 expands array-of-struct members this way,
	// and the type string in StrType must be replaced by the array's
	// element type rather than taken at face value.
	StructIsChild bool
	ArrayLength   int
	MemberCount   int
	Children      []*TypeInfo
}

// parseTypeInfo parses one type-table record. data must start at the
// record's own size prefix and end at the record's declared length
// (including the prefix); len(data) bounds nested member parsing.
func parseTypeInfo(data []byte) (*TypeInfo, error) {
	if len(data) < 0x2A {
		return nil, fmt.Errorf("ads: short type record: %d bytes", len(data))
	}

	t := &TypeInfo{
		Type:     TypeTag(data[0x18]),
		DataSize: binary.LittleEndian.Uint32(data[0x10:0x14]),
		IsStruct: data[0x18] == byte(TypeStruct),
	}

	pathLen := int(binary.LittleEndian.Uint16(data[0x20:0x22]))
	strTypeLen := int(binary.LittleEndian.Uint16(data[0x22:0x24]))
	commentLen := int(binary.LittleEndian.Uint16(data[0x24:0x26]))

	p := 0x2A
	var err error
	if t.Path, err = sliceString(data, p, pathLen); err != nil {
		return nil, err
	}
	p += pathLen + 1
	if t.StrType, err = sliceString(data, p, strTypeLen); err != nil {
		return nil, err
	}
	p += strTypeLen + 1
	if t.Comment, err = sliceString(data, p, commentLen); err != nil {
		return nil, err
	}
	p += commentLen + 1

	applyArrayDecl(t)

	if t.IsStruct && !t.StructIsChild {
		if len(data) < 0x2A {
			return nil, fmt.Errorf("ads: short type record for member count")
		}
		t.MemberCount = int(binary.LittleEndian.Uint16(data[0x28:0x2A]))
		for i := 0; i < t.MemberCount; i++ {
			if p+4 > len(data) {
				return nil, fmt.Errorf("ads: truncated struct member list")
			}
			msize := int(binary.LittleEndian.Uint32(data[p : p+4]))
			if p+msize > len(data) {
				return nil, fmt.Errorf("ads: struct member record overruns type record")
			}
			child, err := parseTypeInfo(data[p : p+msize])
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child)
			p += msize
		}
	}

	return t, nil
}

// applyArrayDecl checks Path, then StrType, for an ARRAY [..] OF decl,
// exactly the two-pass rule TwinCAT's own expanded struct members need.
func applyArrayDecl(t *TypeInfo) {
	if m := arrayDecl.FindStringSubmatch(t.Path); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		t.StrType = m[3]
		t.ArrayLength = hi - lo + 1
		t.IsArray = true
		return
	}
	if m := arrayDecl.FindStringSubmatch(t.StrType); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		t.StrType = m[3]
		t.ArrayLength = hi - lo + 1
		t.IsArray = true
		t.StructIsChild = true
		return
	}
	t.ArrayLength = 1
}

func sliceString(data []byte, start, length int) (string, error) {
	if start < 0 || length < 0 || start+length > len(data) {
		return "", fmt.Errorf("ads: string field out of bounds (start %d len %d, have %d)", start, length, len(data))
	}
	return DecodeString(data[start : start+length])
}

// TypeInfoList is the ordered, path-keyed collection of TypeInfo entries
// built from a type-table upload.
type TypeInfoList struct {
	byPath map[string]*TypeInfo
	order  []string
}

// NewTypeInfoList creates a list seeded with the built-in primitive
// types, the way the symbol engine bootstraps its own lookup table before
// adding whatever the device actually reports.
func NewTypeInfoList() *TypeInfoList {
	l := &TypeInfoList{byPath: make(map[string]*TypeInfo)}
	for name, tag := range map[string]TypeTag{
		"BOOL": TypeBool, "BYTE": TypeByte, "WORD": TypeWord, "DWORD": TypeDWord,
		"SINT": TypeSInt, "USINT": TypeUSInt, "INT": TypeInt, "UINT": TypeUInt,
		"DINT": TypeDInt, "UDINT": TypeUDInt, "LINT": TypeLInt, "ULINT": TypeULInt,
		"REAL": TypeReal, "LREAL": TypeLReal, "TIME": TypeTime, "TIME_OF_DAY": TypeTimeOfDay,
		"DATE": TypeDate, "DATE_AND_TIME": TypeDateTime, "LTIME": TypeLTime,
	} {
		l.Insert(&TypeInfo{Type: tag, DataSize: uint32(FixedSize(tag)), Path: name, StrType: name, ArrayLength: 1})
	}
	return l
}

// Insert adds or replaces an entry, keyed by its Path.
func (l *TypeInfoList) Insert(t *TypeInfo) {
	if _, exists := l.byPath[t.Path]; !exists {
		l.order = append(l.order, t.Path)
	}
	l.byPath[t.Path] = t
}

// Get looks up a type by its declared name.
func (l *TypeInfoList) Get(path string) (*TypeInfo, bool) {
	t, ok := l.byPath[path]
	return t, ok
}

// Size returns the number of entries.
func (l *TypeInfoList) Size() int { return len(l.byPath) }

// ParseTypeTableUpload parses a full type-table upload blob (the response
// to a Read against IndexGroupDataTypeUpload, offset 0) into a
// TypeInfoList. Each record is length-prefixed by its own 4-byte size.
func ParseTypeTableUpload(data []byte) (*TypeInfoList, error) {
	l := NewTypeInfoList()
	p := 0
	for p < len(data) {
		if p+4 > len(data) {
			return nil, fmt.Errorf("ads: truncated type table at offset %d", p)
		}
		size := int(binary.LittleEndian.Uint32(data[p : p+4]))
		if size <= 0 || p+size > len(data) {
			return nil, fmt.Errorf("ads: invalid type record size %d at offset %d", size, p)
		}
		t, err := parseTypeInfo(data[p : p+size])
		if err != nil {
			return nil, err
		}
		l.Insert(t)
		p += size
	}
	return l, nil
}
