package ads

import "fmt"

// DecodeValue interprets data as a value of the given type tag, returning
// a native Go value: bool, int64/uint64, float32/float64, string, or
// time.Duration/time.Time for the TIME/DATE family.
func DecodeValue(tag TypeTag, data []byte) (any, error) {
	switch tag {
	case TypeBool:
		return DecodeBool(data)
	case TypeSInt, TypeInt, TypeDInt, TypeLInt:
		return DecodeInt(data)
	case TypeByte, TypeWord, TypeDWord, TypeULInt:
		return DecodeUint(data)
	case TypeReal:
		return DecodeReal32(data)
	case TypeLReal:
		return DecodeReal64(data)
	case TypeString, TypeWString:
		return DecodeString(data)
	case TypeTime, TypeTimeOfDay:
		return DecodeTime(data)
	case TypeDate:
		return DecodeDate(data)
	case TypeDateTime:
		return DecodeDateTime(data)
	case TypeLTime:
		return DecodeLTime(data)
	default:
		return nil, conversionErr("DecodeValue", fmt.Errorf("unsupported type tag 0x%04X", tag))
	}
}

// EncodeValue serializes a native Go value as the wire form of the given
// type tag. size is used for STRING/WSTRING (the declared field width); it
// is ignored for fixed-size types.
func EncodeValue(tag TypeTag, value any, size int) ([]byte, error) {
	switch tag {
	case TypeBool:
		v, ok := value.(bool)
		if !ok {
			return nil, conversionErr("EncodeValue", fmt.Errorf("expected bool for BOOL, got %T", value))
		}
		return EncodeBool(v), nil
	case TypeSInt, TypeInt, TypeDInt, TypeLInt:
		v, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		return EncodeInt(v, FixedSize(tag))
	case TypeByte, TypeWord, TypeDWord, TypeULInt:
		v, err := toUint64(value)
		if err != nil {
			return nil, err
		}
		return EncodeUint(v, FixedSize(tag))
	case TypeReal:
		v, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		return EncodeReal32(float32(v)), nil
	case TypeLReal:
		v, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		return EncodeReal64(v), nil
	case TypeString, TypeWString:
		s, ok := value.(string)
		if !ok {
			return nil, conversionErr("EncodeValue", fmt.Errorf("expected string for STRING, got %T", value))
		}
		return EncodeString(s, size)
	default:
		return nil, conversionErr("EncodeValue", fmt.Errorf("unsupported type tag 0x%04X", tag))
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, conversionErr("toInt64", fmt.Errorf("expected integer, got %T", value))
	}
}

func toUint64(value any) (uint64, error) {
	switch v := value.(type) {
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	default:
		return 0, conversionErr("toUint64", fmt.Errorf("expected unsigned integer, got %T", value))
	}
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, conversionErr("toFloat64", fmt.Errorf("expected float, got %T", value))
	}
}
