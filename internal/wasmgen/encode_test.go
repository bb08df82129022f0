package wasmgen

import "testing"

func TestULEBEncoding(t *testing.T) {
	cases := map[uint64][]byte{
		0:   {0x00},
		1:   {0x01},
		127: {0x7f},
		128: {0x80, 0x01},
		624485: {0xe5, 0x8e, 0x26}, // canonical LEB128 spec example
	}
	for in, want := range cases {
		var w buffer
		w.uleb(in)
		if string(w.bytes()) != string(want) {
			t.Errorf("uleb(%d) = % x, want % x", in, w.bytes(), want)
		}
	}
}

func TestSLEBEncoding(t *testing.T) {
	cases := map[int64][]byte{
		0:    {0x00},
		2:    {0x02},
		-2:   {0x7e},
		127:  {0xff, 0x00},
		-127: {0x81, 0x7f},
	}
	for in, want := range cases {
		var w buffer
		w.sleb(in)
		if string(w.bytes()) != string(want) {
			t.Errorf("sleb(%d) = % x, want % x", in, w.bytes(), want)
		}
	}
}

func TestNameEncoding(t *testing.T) {
	var w buffer
	w.name("hi")
	want := []byte{0x02, 'h', 'i'}
	if string(w.bytes()) != string(want) {
		t.Errorf("name(\"hi\") = % x, want % x", w.bytes(), want)
	}
}

func TestVecEncoding(t *testing.T) {
	var w buffer
	w.vec(3, func(i int) { w.u8(byte(i)) })
	want := []byte{0x03, 0x00, 0x01, 0x02}
	if string(w.bytes()) != string(want) {
		t.Errorf("vec = % x, want % x", w.bytes(), want)
	}
}

func TestSectionWrapsIDAndLength(t *testing.T) {
	got := section(secType, []byte{0xaa, 0xbb})
	want := []byte{secType, 0x02, 0xaa, 0xbb}
	if string(got) != string(want) {
		t.Errorf("section = % x, want % x", got, want)
	}
}

func TestValueTypeBytesMatchWazero(t *testing.T) {
	// These four bytes are the wasm binary format's fixed vocabulary;
	// pinning them in a test guards against an accidental drift if the
	// wazero dependency is ever upgraded.
	if valI32 != 0x7f {
		t.Errorf("valI32 = %#x, want 0x7f", valI32)
	}
	if valF32 != 0x7d {
		t.Errorf("valF32 = %#x, want 0x7d", valF32)
	}
	if valI64 != 0x7e {
		t.Errorf("valI64 = %#x, want 0x7e", valI64)
	}
	if valF64 != 0x7c {
		t.Errorf("valF64 = %#x, want 0x7c", valF64)
	}
}
