package ads

import "testing"

func TestArrayCodecPackUnpackOneDimension(t *testing.T) {
	codec := NewArrayCodec(TypeDInt, 0, []ArrayBound{{Lo: 1, Hi: 3}})
	if codec.ElementCount() != 3 {
		t.Fatalf("ElementCount() = %d, want 3", codec.ElementCount())
	}
	if codec.ByteSize() != 12 {
		t.Fatalf("ByteSize() = %d, want 12", codec.ByteSize())
	}

	data, err := codec.Pack(map[int]any{1: int64(10), 2: int64(20), 3: int64(30)})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(data) != 12 {
		t.Fatalf("len(data) = %d, want 12", len(data))
	}

	out, err := codec.Unpack(data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if out[1].(int64) != 10 || out[2].(int64) != 20 || out[3].(int64) != 30 {
		t.Fatalf("unexpected unpacked value: %v", out)
	}
}

func TestArrayCodecPackFlatSlice(t *testing.T) {
	codec := NewArrayCodec(TypeInt, 0, []ArrayBound{{Lo: 0, Hi: 1}})
	data, err := codec.Pack([]any{int64(5), int64(6)})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	out, err := codec.Unpack(data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if out[0].(int64) != 5 || out[1].(int64) != 6 {
		t.Fatalf("unexpected unpacked value: %v", out)
	}
}

func TestArrayCodecTwoDimensionsRowMajor(t *testing.T) {
	// ARRAY [0..1, 0..2] OF INT, row-major: last dimension varies fastest.
	codec := NewArrayCodec(TypeInt, 0, []ArrayBound{{Lo: 0, Hi: 1}, {Lo: 0, Hi: 2}})
	if codec.ElementCount() != 6 {
		t.Fatalf("ElementCount() = %d, want 6", codec.ElementCount())
	}

	value := map[int]any{
		0: map[int]any{0: int64(1), 1: int64(2), 2: int64(3)},
		1: map[int]any{0: int64(4), 1: int64(5), 2: int64(6)},
	}
	data, err := codec.Pack(value)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	// Row-major: row 0 (1,2,3) then row 1 (4,5,6), 2 bytes each.
	want := []int64{1, 2, 3, 4, 5, 6}
	for i, w := range want {
		v, err := DecodeInt(data[i*2 : i*2+2])
		if err != nil || v != w {
			t.Fatalf("element %d = %d, want %d", i, v, w)
		}
	}

	out, err := codec.Unpack(data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	row0 := out[0].(map[int]any)
	row1 := out[1].(map[int]any)
	if row0[0].(int64) != 1 || row0[2].(int64) != 3 || row1[1].(int64) != 5 {
		t.Fatalf("unexpected unpacked value: %v", out)
	}
}

func TestArrayCodecPackRejectsMissingIndex(t *testing.T) {
	codec := NewArrayCodec(TypeDInt, 0, []ArrayBound{{Lo: 0, Hi: 2}})
	_, err := codec.Pack(map[int]any{0: int64(1), 2: int64(3)}) // missing index 1
	if err == nil {
		t.Fatal("expected error for missing index")
	}
}

func TestArrayCodecPackRejectsWrongElementCount(t *testing.T) {
	codec := NewArrayCodec(TypeDInt, 0, []ArrayBound{{Lo: 0, Hi: 2}})
	_, err := codec.Pack([]any{int64(1), int64(2)})
	if err == nil {
		t.Fatal("expected error for wrong element count")
	}
}

func TestArrayCodecUnpackRejectsShortData(t *testing.T) {
	codec := NewArrayCodec(TypeDInt, 0, []ArrayBound{{Lo: 0, Hi: 2}})
	_, err := codec.Unpack(make([]byte, 4))
	if err == nil {
		t.Fatal("expected error for short data")
	}
}

func TestArrayCodecStringElement(t *testing.T) {
	codec := NewArrayCodec(TypeString, 8, []ArrayBound{{Lo: 0, Hi: 1}})
	if codec.ByteSize() != 16 {
		t.Fatalf("ByteSize() = %d, want 16", codec.ByteSize())
	}
	data, err := codec.Pack(map[int]any{0: "ab", 1: "cd"})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	out, err := codec.Unpack(data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if out[0].(string) != "ab" || out[1].(string) != "cd" {
		t.Fatalf("unexpected unpacked value: %v", out)
	}
}
