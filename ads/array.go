package ads

import (
	"fmt"
	"sort"
)

// ArrayBound is one dimension's inclusive index range, e.g. "ARRAY [1..4]
// OF INT" is ArrayBound{Lo: 1, Hi: 4}.
type ArrayBound struct {
	Lo, Hi int
}

// count returns the number of indices this bound spans.
func (b ArrayBound) count() int { return b.Hi - b.Lo + 1 }

// ArrayCodec composes a primitive codec with a list of inclusive index
// bounds, one per declared dimension, to pack and unpack PLC arrays. The
// host representation of an array value is a nested map[int]any keyed by
// the declared indices — one level of nesting per dimension, the last
// dimension varying fastest on the wire.
type ArrayCodec struct {
	Tag      TypeTag
	ElemSize int // STRING/WSTRING element width; ignored for fixed-size tags
	Dims     []ArrayBound
}

// NewArrayCodec builds a codec for an array of the given element tag over
// dims. elemSize is only consulted for STRING/WSTRING elements.
func NewArrayCodec(tag TypeTag, elemSize int, dims []ArrayBound) *ArrayCodec {
	return &ArrayCodec{Tag: tag, ElemSize: elemSize, Dims: dims}
}

// ElementCount returns the total number of scalar elements across all
// dimensions.
func (a *ArrayCodec) ElementCount() int {
	n := 1
	for _, d := range a.Dims {
		n *= d.count()
	}
	return n
}

func (a *ArrayCodec) elemByteSize() int {
	if n := FixedSize(a.Tag); n > 0 {
		return n
	}
	size := a.ElemSize
	if size <= 0 {
		size = defaultStringSize
	}
	return size
}

// ByteSize returns the total wire size of the array.
func (a *ArrayCodec) ByteSize() int {
	return a.ElementCount() * a.elemByteSize()
}

// Pack flattens value in row-major order and encodes each element, failing
// on a missing or out-of-range key. value may be a nested map[int]any (one
// level per dimension) or an already-flattened []any of ElementCount()
// elements.
func (a *ArrayCodec) Pack(value any) ([]byte, error) {
	var flat []any
	switch v := value.(type) {
	case []any:
		if len(v) != a.ElementCount() {
			return nil, conversionErr("ArrayCodec.Pack", fmt.Errorf(
				"expected %d flattened elements, got %d", a.ElementCount(), len(v)))
		}
		flat = v
	case map[int]any:
		f, err := dictToFlatList(v, a.Dims)
		if err != nil {
			return nil, conversionErr("ArrayCodec.Pack", err)
		}
		flat = f
	default:
		return nil, conversionErr("ArrayCodec.Pack", fmt.Errorf(
			"expected map[int]any or []any, got %T", value))
	}

	elemSize := a.elemByteSize()
	buf := make([]byte, 0, a.ByteSize())
	for i, el := range flat {
		b, err := EncodeValue(a.Tag, el, elemSize)
		if err != nil {
			return nil, fmt.Errorf("ads: array element %d: %w", i, err)
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// Unpack decodes data into a nested map[int]any keyed by the declared
// indices, inflating dimensions in the inverse order Pack flattens them.
func (a *ArrayCodec) Unpack(data []byte) (map[int]any, error) {
	elemSize := a.elemByteSize()
	n := a.ElementCount()
	if len(data) < n*elemSize {
		return nil, conversionErr("ArrayCodec.Unpack", fmt.Errorf(
			"need %d bytes for %d elements, got %d", n*elemSize, n, len(data)))
	}

	flat := make([]any, n)
	for i := 0; i < n; i++ {
		off := i * elemSize
		v, err := DecodeValue(a.Tag, data[off:off+elemSize])
		if err != nil {
			return nil, fmt.Errorf("ads: array element %d: %w", i, err)
		}
		flat[i] = v
	}

	pos := 0
	out, err := flatListToDict(flat, a.Dims, &pos)
	if err != nil {
		return nil, conversionErr("ArrayCodec.Unpack", err)
	}
	return out.(map[int]any), nil
}

// dictToFlatList recursively flattens a nested map[int]any into a row-major
// slice, validating that each dimension's keys exactly cover its declared
// bounds.
func dictToFlatList(dict map[int]any, dims []ArrayBound) ([]any, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("no dimensions to flatten against")
	}
	cur := dims[0]
	rest := dims[1:]

	keys := make([]int, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	if len(keys) == 0 || keys[0] != cur.Lo || keys[len(keys)-1] != cur.Hi || len(keys) != cur.count() {
		return nil, fmt.Errorf("expected indices %d..%d, got %v", cur.Lo, cur.Hi, keys)
	}

	flat := make([]any, 0, totalElements(dims))
	for idx := cur.Lo; idx <= cur.Hi; idx++ {
		val := dict[idx]
		if len(rest) == 0 {
			flat = append(flat, val)
			continue
		}
		sub, ok := val.(map[int]any)
		if !ok {
			return nil, fmt.Errorf("index %d: expected nested map[int]any, got %T", idx, val)
		}
		subFlat, err := dictToFlatList(sub, rest)
		if err != nil {
			return nil, err
		}
		flat = append(flat, subFlat...)
	}
	return flat, nil
}

// flatListToDict is the inverse of dictToFlatList: it consumes elements
// from flat (via the shared pos cursor) in row-major order and rebuilds
// the nested map.
func flatListToDict(flat []any, dims []ArrayBound, pos *int) (any, error) {
	cur := dims[0]
	rest := dims[1:]

	dict := make(map[int]any, cur.count())
	for idx := cur.Lo; idx <= cur.Hi; idx++ {
		if len(rest) > 0 {
			sub, err := flatListToDict(flat, rest, pos)
			if err != nil {
				return nil, err
			}
			dict[idx] = sub
			continue
		}
		if *pos >= len(flat) {
			return nil, fmt.Errorf("fewer elements than required by array bounds")
		}
		dict[idx] = flat[*pos]
		*pos++
	}
	return dict, nil
}

func totalElements(dims []ArrayBound) int {
	n := 1
	for _, d := range dims {
		n *= d.count()
	}
	return n
}
