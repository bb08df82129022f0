package wasmgen

import "testing"

func TestAlignUp4(t *testing.T) {
	cases := map[uint32]uint32{0: 0, 1: 4, 3: 4, 4: 4, 5: 8, 8: 8}
	for in, want := range cases {
		if got := alignUp4(in); got != want {
			t.Errorf("alignUp4(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBuildMemLayoutEmpty(t *testing.T) {
	lay := buildMemLayout(nil)
	if len(lay.data) != staticBase {
		t.Fatalf("data len = %d, want %d", len(lay.data), staticBase)
	}
	if lay.heapStart != staticBase {
		t.Fatalf("heapStart = %d, want %d", lay.heapStart, staticBase)
	}
	gotHeap := readU32LE(lay.data[heapPtrCell:])
	if gotHeap != staticBase {
		t.Errorf("heap pointer cell = %d, want %d", gotHeap, staticBase)
	}
	gotFree := readU32LE(lay.data[freeListCell:])
	if gotFree != 0 {
		t.Errorf("free-list cell = %d, want 0", gotFree)
	}
}

func TestBuildMemLayoutStrings(t *testing.T) {
	lay := buildMemLayout([]string{"hi", "world!"})
	if len(lay.stringOffset) != 2 {
		t.Fatalf("stringOffset len = %d, want 2", len(lay.stringOffset))
	}
	// "hi" occupies staticBase: [u32 len=2]["hi"], padded up to a 4-byte
	// boundary (4 + 2 = 6, padded to 8).
	off0 := lay.stringOffset[0]
	if off0 != staticBase {
		t.Fatalf("stringOffset[0] = %d, want %d", off0, staticBase)
	}
	if got := readU32LE(lay.data[off0:]); got != 2 {
		t.Errorf("string 0 length prefix = %d, want 2", got)
	}
	if string(lay.data[off0+4:off0+6]) != "hi" {
		t.Errorf("string 0 bytes = %q, want %q", lay.data[off0+4:off0+6], "hi")
	}
	off1 := lay.stringOffset[1]
	if off1%4 != 0 {
		t.Fatalf("stringOffset[1] = %d is not 4-byte aligned", off1)
	}
	if got := readU32LE(lay.data[off1:]); got != 6 {
		t.Errorf("string 1 length prefix = %d, want 6", got)
	}
	if string(lay.data[off1+4:off1+10]) != "world!" {
		t.Errorf("string 1 bytes = %q, want %q", lay.data[off1+4:off1+10], "world!")
	}
	if lay.heapStart <= off1 {
		t.Fatalf("heapStart %d does not lie past the last string at %d", lay.heapStart, off1)
	}
	if lay.heapStart%4 != 0 {
		t.Fatalf("heapStart %d is not 4-byte aligned", lay.heapStart)
	}
}

func TestMemoryPages(t *testing.T) {
	cases := map[uint32]uint32{0: 1, 1: 1, 65536: 1, 65537: 2, 131072: 2}
	for in, want := range cases {
		if got := memoryPages(in); got != want {
			t.Errorf("memoryPages(%d) = %d, want %d", in, got, want)
		}
	}
}

func readU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
