package ads

import "strconv"

// Symbol is a leaf value location after array/struct expansion: a
// primitive type at a concrete (index group, index offset) address.
type Symbol struct {
	Path        string
	IndexGroup  uint32
	IndexOffset uint32
	Type        TypeTag
	Size        uint32
}

// alignMask describes how an aligned offset is derived for a given element
// size. Ported from the original's per-size mask/offset table: an offset
// that already satisfies the mask is left alone, otherwise it's rounded up
// to the next multiple of off. Structs (size 0) and 8-byte types align to
// 4 on 32-bit TwinCAT targets; toggled off entirely when alignment is
// disabled.
var alignMask = map[int]struct {
	mask uint32
	off  uint32
}{
	0: {0b11, 4},
	1: {0b00, 1},
	2: {0b01, 2},
	4: {0b11, 4},
	8: {0b11, 4},
}

func alignOffset(offset uint32, size int, enabled bool) uint32 {
	if !enabled {
		return offset
	}
	m, ok := alignMask[size]
	if !ok {
		m = alignMask[4]
	}
	if offset&m.mask > 0 {
		offset = (offset &^ m.mask) + m.off
	}
	return offset
}

// SymbolList is the flattened, fully expanded collection of leaf symbols
// built from a SymbolInfoList and its TypeInfoList.
type SymbolList struct {
	byPath    map[string]*Symbol
	order     []string
	alignment bool
}

func newSymbolList(alignment bool) *SymbolList {
	return &SymbolList{byPath: make(map[string]*Symbol), alignment: alignment}
}

func (sl *SymbolList) insert(path string, group, offset uint32, tag TypeTag, size uint32) {
	if _, exists := sl.byPath[path]; !exists {
		sl.order = append(sl.order, path)
	}
	sl.byPath[path] = &Symbol{Path: path, IndexGroup: group, IndexOffset: offset, Type: tag, Size: size}
}

// Get looks up a leaf symbol by its fully expanded path.
func (sl *SymbolList) Get(path string) (*Symbol, bool) {
	s, ok := sl.byPath[path]
	return s, ok
}

// Size returns the number of leaf symbols.
func (sl *SymbolList) Size() int { return len(sl.byPath) }

// All returns the leaf symbols in expansion order.
func (sl *SymbolList) All() []*Symbol {
	out := make([]*Symbol, 0, len(sl.order))
	for _, p := range sl.order {
		out = append(out, sl.byPath[p])
	}
	return out
}

func (sl *SymbolList) align(offset uint32, tag TypeTag) uint32 {
	return alignOffset(offset, FixedSize(tag), sl.alignment)
}

// expandStruct walks a struct's members, recursing into nested
// structs/arrays, and returns the offset just past the struct.
func (sl *SymbolList) expandStruct(tinfo *TypeInfo, master string, group uint32, offset uint32, types *TypeInfoList) uint32 {
	for _, e := range tinfo.Children {
		path := master + "." + e.Path
		switch {
		case e.IsArray:
			offset = sl.align(offset, e.Type)
			offset = sl.expandArray(e, path, group, offset, types)
		case e.IsStruct:
			structType, ok := types.Get(e.StrType)
			if !ok {
				offset = sl.align(offset, e.Type)
				offset += e.DataSize
				continue
			}
			offset = sl.expandStruct(structType, path, group, offset, types)
		default:
			offset = sl.align(offset, e.Type)
			sl.insert(path, group, offset, e.Type, uint32(FixedSize(e.Type)))
			offset += uint32(FixedSize(e.Type))
		}
	}
	return offset
}

// expandArray walks an array's elements and returns the offset just past
// the array.
func (sl *SymbolList) expandArray(tinfo *TypeInfo, master string, group uint32, offset uint32, types *TypeInfoList) uint32 {
	for i := 0; i < tinfo.ArrayLength; i++ {
		elemPath := arrayElementPath(master, i)
		if !tinfo.IsStruct {
			offset = sl.align(offset, tinfo.Type)
			sl.insert(elemPath, group, offset, tinfo.Type, uint32(FixedSize(tinfo.Type)))
			offset += uint32(FixedSize(tinfo.Type))
			continue
		}
		structType, ok := types.Get(tinfo.StrType)
		if !ok {
			offset += tinfo.DataSize / uint32(tinfo.ArrayLength)
			continue
		}
		offset = sl.expandStruct(structType, elemPath, group, offset, types)
	}
	return offset
}

func arrayElementPath(master string, index int) string {
	return master + "[" + strconv.Itoa(index) + "]"
}

// BuildSymbolList expands every entry in symbols into flat leaf Symbols,
// resolving each one's declared type against types. alignment toggles the
// struct/array member alignment rule (enabled on ARM-based TwinCAT 2
// targets, disabled elsewhere).
func BuildSymbolList(symbols *SymbolInfoList, types *TypeInfoList, alignment bool) *SymbolList {
	sl := newSymbolList(alignment)

	for _, sinfo := range symbols.All() {
		tinfo, ok := types.Get(sinfo.TypeSymbol)
		if !ok {
			sl.insert(sinfo.Path, sinfo.IndexGroup, sinfo.IndexOffset, sinfo.Type, sinfo.DataSize)
			continue
		}
		switch {
		case tinfo.IsArray:
			sl.expandArray(tinfo, sinfo.Path, sinfo.IndexGroup, sinfo.IndexOffset, types)
		case tinfo.IsStruct:
			sl.expandStruct(tinfo, sinfo.Path, sinfo.IndexGroup, sinfo.IndexOffset, types)
		default:
			sl.insert(sinfo.Path, sinfo.IndexGroup, sinfo.IndexOffset, sinfo.Type, sinfo.DataSize)
		}
	}

	return sl
}

// GroupSymbolList is a named subset of a SymbolList's leaves, built by
// Filter, intended for a single sum-read or block-read batch.
type GroupSymbolList struct {
	entries []*Symbol
	byPath  map[string]*Symbol
}

// Size returns the number of symbols in the group.
func (g *GroupSymbolList) Size() int { return len(g.entries) }

// Entries returns the group's symbols in filter order.
func (g *GroupSymbolList) Entries() []*Symbol { return g.entries }

// Extend merges another group's entries into this one.
func (g *GroupSymbolList) Extend(other *GroupSymbolList) {
	for _, s := range other.entries {
		if _, exists := g.byPath[s.Path]; exists {
			continue
		}
		g.byPath[s.Path] = s
		g.entries = append(g.entries, s)
	}
}
