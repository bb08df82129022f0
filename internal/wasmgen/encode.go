// Package wasmgen lowers a checked HirModule into a WebAssembly binary
// module. The section/opcode vocabulary and ValueType byte
// values are grounded on tetratelabs/wazero's api package; the low-level
// LEB128/byte-buffer encoder here is hand-written because only wazero's
// internal/leb128 *_test.go files survived retrieval (no encoder
// implementation file to adapt), so this follows the wasm spec's binary
// format directly instead.
package wasmgen

import "github.com/tetratelabs/wazero/api"

// buffer is an append-only byte sink with the handful of wasm
// binary-format primitives every section needs.
type buffer struct {
	b []byte
}

func (w *buffer) bytes() []byte { return w.b }

func (w *buffer) u8(v byte) { w.b = append(w.b, v) }

func (w *buffer) raw(bs []byte) { w.b = append(w.b, bs...) }

// uleb appends v as an unsigned LEB128 integer.
func (w *buffer) uleb(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.b = append(w.b, b)
		if v == 0 {
			return
		}
	}
}

// sleb appends v as a signed LEB128 integer.
func (w *buffer) sleb(v int64) {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		w.b = append(w.b, b)
	}
}

// name appends a wasm "name" value: a uleb length prefix then raw UTF-8
// bytes.
func (w *buffer) name(s string) {
	w.uleb(uint64(len(s)))
	w.raw([]byte(s))
}

// vec appends a uleb count, then calls emit once per i in [0, count).
func (w *buffer) vec(count int, emit func(i int)) {
	w.uleb(uint64(count))
	for i := 0; i < count; i++ {
		emit(i)
	}
}

// section wraps body's bytes with a section id and uleb byte-length
// prefix, the shape every section of a wasm module shares.
func section(id byte, body []byte) []byte {
	var out buffer
	out.u8(id)
	out.uleb(uint64(len(body)))
	out.raw(body)
	return out.bytes()
}

// Section ids, per wasm spec §5.5. Emitted in this fixed order: Type,
// Import, Function, Memory, Export, Code, Data.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secExport   = 7
	secCode     = 10
	secData     = 11
)

// wasm value-type bytes, borrowed from wazero's api.ValueType constants
// rather than redefined, so the two modules agree by construction.
const (
	valI32 = byte(api.ValueTypeI32)
	valI64 = byte(api.ValueTypeI64)
	valF32 = byte(api.ValueTypeF32)
	valF64 = byte(api.ValueTypeF64)
)

const funcTypeTag = 0x60
