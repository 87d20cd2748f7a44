package ads

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// TypeTag identifies a primitive ADS data type. Values match the tags used
// in TwinCAT's own type/symbol upload records.
type TypeTag uint16

const (
	TypeBool     TypeTag = 0x21
	TypeByte     TypeTag = 0x11 // alias of USINT
	TypeWord     TypeTag = 0x12 // alias of UINT
	TypeDWord    TypeTag = 0x13 // alias of UDINT
	TypeSInt     TypeTag = 0x10
	TypeUSInt    TypeTag = 0x11
	TypeInt      TypeTag = 0x02
	TypeUInt     TypeTag = 0x12
	TypeDInt     TypeTag = 0x03
	TypeUDInt    TypeTag = 0x13
	TypeLInt     TypeTag = 0x14
	TypeULInt    TypeTag = 0x15
	TypeReal     TypeTag = 0x04
	TypeLReal    TypeTag = 0x05
	TypeString   TypeTag = 0x1E
	TypeWString  TypeTag = 0x1F
	TypeStruct   TypeTag = 0x41
	TypeTime     TypeTag = 0x30
	TypeTimeOfDay TypeTag = 0x32
	TypeDate     TypeTag = 0x31
	TypeDateTime TypeTag = 0x33
	TypeLTime    TypeTag = 0x16
	TypeUnknown  TypeTag = 0xFFFF
)

// defaultStringSize is the conventional TwinCAT STRING length when a type
// table entry doesn't specify one (80 characters + NUL terminator).
const defaultStringSize = 81

// epoch is the Unix epoch, used as the base for DATE and DATE_AND_TIME.
var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// FixedSize returns the wire size of a primitive type, or 0 for types whose
// size is carried externally (STRING, STRUCT, arrays).
func FixedSize(tag TypeTag) int {
	switch tag {
	case TypeBool, TypeByte, TypeSInt:
		return 1
	case TypeWord, TypeInt:
		return 2
	case TypeDWord, TypeDInt, TypeReal, TypeTime, TypeTimeOfDay, TypeDate, TypeDateTime:
		return 4
	case TypeLInt, TypeULInt, TypeLReal, TypeLTime:
		return 8
	default:
		return 0
	}
}

// IsSigned reports whether tag is a signed integer type.
func IsSigned(tag TypeTag) bool {
	switch tag {
	case TypeSInt, TypeInt, TypeDInt, TypeLInt:
		return true
	default:
		return false
	}
}

var win1252 = charmap.Windows1252

// DecodeString decodes a Windows-1252, NUL-terminated byte string. Any
// trailing NUL padding and everything after the first NUL is dropped.
func DecodeString(data []byte) (string, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	out, err := win1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", conversionErr("DecodeString", err)
	}
	return string(out), nil
}

// EncodeString encodes s as Windows-1252 into a buffer of exactly size
// bytes, truncating the text (not the NUL terminator) if it doesn't fit,
// and NUL-padding the remainder.
func EncodeString(s string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultStringSize
	}
	enc, err := win1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, conversionErr("EncodeString", err)
	}
	buf := make([]byte, size)
	n := len(enc)
	if n > size-1 {
		n = size - 1
	}
	copy(buf, enc[:n])
	return buf, nil
}

// DecodeBool decodes a single ADS BOOL byte (any nonzero value is true).
func DecodeBool(data []byte) (bool, error) {
	if len(data) < 1 {
		return false, conversionErr("DecodeBool", fmt.Errorf("empty data"))
	}
	return data[0] != 0, nil
}

// EncodeBool encodes a BOOL as a single byte.
func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeInt decodes a signed integer of 1, 2, 4, or 8 bytes, little-endian.
func DecodeInt(data []byte) (int64, error) {
	switch len(data) {
	case 1:
		return int64(int8(data[0])), nil
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(data))), nil
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(data))), nil
	case 8:
		return int64(binary.LittleEndian.Uint64(data)), nil
	default:
		return 0, conversionErr("DecodeInt", fmt.Errorf("unsupported width %d", len(data)))
	}
}

// DecodeUint decodes an unsigned integer of 1, 2, 4, or 8 bytes, little-endian.
func DecodeUint(data []byte) (uint64, error) {
	switch len(data) {
	case 1:
		return uint64(data[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(data)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(data)), nil
	case 8:
		return binary.LittleEndian.Uint64(data), nil
	default:
		return 0, conversionErr("DecodeUint", fmt.Errorf("unsupported width %d", len(data)))
	}
}

// EncodeInt encodes a signed integer into exactly width bytes, little-endian.
func EncodeInt(v int64, width int) ([]byte, error) {
	buf := make([]byte, width)
	switch width {
	case 1:
		buf[0] = byte(int8(v))
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(int16(v)))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	case 8:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	default:
		return nil, conversionErr("EncodeInt", fmt.Errorf("unsupported width %d", width))
	}
	return buf, nil
}

// EncodeUint encodes an unsigned integer into exactly width bytes, little-endian.
func EncodeUint(v uint64, width int) ([]byte, error) {
	buf := make([]byte, width)
	switch width {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf, v)
	default:
		return nil, conversionErr("EncodeUint", fmt.Errorf("unsupported width %d", width))
	}
	return buf, nil
}

// DecodeReal32 decodes an IEEE-754 single-precision float.
func DecodeReal32(data []byte) (float32, error) {
	if len(data) < 4 {
		return 0, conversionErr("DecodeReal32", fmt.Errorf("short data"))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
}

// EncodeReal32 encodes an IEEE-754 single-precision float.
func EncodeReal32(v float32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
	return buf
}

// DecodeReal64 decodes an IEEE-754 double-precision float.
func DecodeReal64(data []byte) (float64, error) {
	if len(data) < 8 {
		return 0, conversionErr("DecodeReal64", fmt.Errorf("short data"))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
}

// EncodeReal64 encodes an IEEE-754 double-precision float.
func EncodeReal64(v float64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

// DecodeTime decodes a TIME/TIME_OF_DAY value: milliseconds since midnight.
func DecodeTime(data []byte) (time.Duration, error) {
	u, err := DecodeUint(data)
	if err != nil {
		return 0, err
	}
	return time.Duration(u) * time.Millisecond, nil
}

// EncodeTime encodes a TIME/TIME_OF_DAY value as milliseconds since midnight.
func EncodeTime(d time.Duration) []byte {
	ms := uint64(d / time.Millisecond)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(ms))
	return buf
}

// DecodeDate decodes a DATE value: whole days since the Unix epoch, via
// ordinary day arithmetic against the epoch.
func DecodeDate(data []byte) (time.Time, error) {
	u, err := DecodeUint(data)
	if err != nil {
		return time.Time{}, err
	}
	return epoch.AddDate(0, 0, int(u)), nil
}

// EncodeDate encodes a DATE value as whole days since the Unix epoch.
func EncodeDate(t time.Time) []byte {
	days := int(t.UTC().Sub(epoch).Hours() / 24)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(days))
	return buf
}

// DecodeDateTime decodes a DATE_AND_TIME value: whole seconds since the
// Unix epoch (TwinCAT's own convention for this type, distinct from DATE's
// day granularity).
func DecodeDateTime(data []byte) (time.Time, error) {
	u, err := DecodeUint(data)
	if err != nil {
		return time.Time{}, err
	}
	return epoch.Add(time.Duration(u) * time.Second), nil
}

// EncodeDateTime encodes a DATE_AND_TIME value as whole seconds since the
// Unix epoch.
func EncodeDateTime(t time.Time) []byte {
	secs := uint64(t.UTC().Sub(epoch).Seconds())
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(secs))
	return buf
}

// DecodeLTime decodes an LTIME value: nanoseconds since midnight, as a
// 64-bit unsigned integer.
func DecodeLTime(data []byte) (time.Duration, error) {
	u, err := DecodeUint(data)
	if err != nil {
		return 0, err
	}
	return time.Duration(u), nil
}

// EncodeLTime encodes an LTIME value as nanoseconds since midnight.
func EncodeLTime(d time.Duration) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(d))
	return buf
}
