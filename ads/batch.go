package ads

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// SumReadResult is the outcome of reading one symbol within a sum-read
// batch: either Data holds the value bytes, or Err reports that symbol's
// ADS status individually. A sum-read response carries one status code per
// symbol; a partial failure inside a batch is exactly the kind of detail a
// caller needs, so it's surfaced here rather than discarded.
type SumReadResult struct {
	Symbol *Symbol
	Data   []byte
	Err    error
}

// SumRead issues a single ADSIGRP_SUMUP_READ request covering every symbol
// in group and returns one result per symbol, in group order.
func SumRead(t *Transport, target AmsAddress, group *GroupSymbolList) ([]SumReadResult, error) {
	entries := group.Entries()
	if len(entries) == 0 {
		return nil, nil
	}

	header := make([]byte, 12*len(entries))
	for i, s := range entries {
		binary.LittleEndian.PutUint32(header[i*12:i*12+4], s.IndexGroup)
		binary.LittleEndian.PutUint32(header[i*12+4:i*12+8], s.IndexOffset)
		binary.LittleEndian.PutUint32(header[i*12+8:i*12+12], s.Size)
	}

	readLength := uint32(0)
	for _, s := range entries {
		readLength += 4 + s.Size // one 4-byte ADS error code plus the value bytes per symbol
	}

	resp, err := t.Execute(target, CmdReadWrite, readWriteRequest(IndexGroupSymbolSumRead, uint32(len(entries)), readLength, header))
	if err != nil {
		return nil, err
	}
	rw, err := decodeReadWriteResponse(resp)
	if err != nil {
		return nil, err
	}

	// The response is laid out as a block of n status codes followed by a
	// block of n values, not interleaved (code0,code1,…,data0,data1,…).
	codesSize := 4 * len(entries)
	if codesSize > len(rw.Data) {
		return nil, fmt.Errorf("ads: truncated sum-read response: need %d status bytes, got %d", codesSize, len(rw.Data))
	}

	results := make([]SumReadResult, len(entries))
	p := codesSize
	for i, s := range entries {
		code := binary.LittleEndian.Uint32(rw.Data[i*4 : i*4+4])
		results[i].Symbol = s
		if code != 0 {
			results[i].Err = protocolErr("SumRead", code)
			continue
		}
		if p+int(s.Size) > len(rw.Data) {
			return nil, fmt.Errorf("ads: truncated sum-read value at symbol %d (%s)", i, s.Path)
		}
		results[i].Data = rw.Data[p : p+int(s.Size)]
		p += int(s.Size)
	}

	return results, nil
}

// BlockRead reads every symbol in group with a single contiguous Read,
// covering the span from the lowest to the highest index offset. Symbols
// in group must share an index group and lie within one contiguous memory
// block (e.g. members of the same struct); the caller is responsible for
// that invariant, usually by building group from a single Filter call over
// one struct/array's expansion.
func BlockRead(t *Transport, target AmsAddress, group *GroupSymbolList) ([]SumReadResult, error) {
	entries := append([]*Symbol(nil), group.Entries()...)
	if len(entries) == 0 {
		return nil, nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].IndexOffset < entries[j].IndexOffset })

	indexGroup := entries[0].IndexGroup
	for _, s := range entries {
		if s.IndexGroup != indexGroup {
			return nil, fmt.Errorf("ads: BlockRead requires symbols in one index group")
		}
	}

	start := entries[0].IndexOffset
	end := entries[len(entries)-1].IndexOffset + entries[len(entries)-1].Size

	resp, err := t.Execute(target, CmdRead, readRequest(indexGroup, start, end-start))
	if err != nil {
		return nil, err
	}
	rr, err := decodeReadResponse(resp)
	if err != nil {
		return nil, err
	}

	results := make([]SumReadResult, len(entries))
	for i, s := range entries {
		lo := s.IndexOffset - start
		hi := lo + s.Size
		if int(hi) > len(rr.Data) {
			return nil, fmt.Errorf("ads: block-read span too short for symbol %s", s.Path)
		}
		results[i] = SumReadResult{Symbol: s, Data: rr.Data[lo:hi]}
	}

	return results, nil
}
