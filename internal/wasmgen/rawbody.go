package wasmgen

import (
	"strconv"
	"strings"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
)

// rawMnemonics maps a `#wasm:` text-body line's mnemonic to its opcode
// byte, for the instructions that take no immediate beyond what
// lowerRaw's generic immediate handling already covers.
var rawMnemonics = map[string]byte{
	"unreachable": opUnreachable,
	"drop":        opDrop,

	"i32.load":   opI32Load,
	"i64.load":   opI64Load,
	"f32.load":   opF32Load,
	"f64.load":   opF64Load,
	"i32.load8_s": opI32Load8S,
	"i32.load8_u": opI32Load8U,
	"i32.store":  opI32Store,
	"i64.store":  opI64Store,
	"f32.store":  opF32Store,
	"f64.store":  opF64Store,
	"i32.store8": opI32Store8,

	"memory.size": opMemorySize,
	"memory.grow": opMemoryGrow,

	"i32.eqz": opI32Eqz,
	"i32.eq":  opI32Eq,
	"i32.ne":  opI32Ne,
	"i32.lt_s": opI32LtS,
	"i32.gt_s": opI32GtS,

	"i32.add":  opI32Add,
	"i32.sub":  opI32Sub,
	"i32.mul":  opI32Mul,
	"i32.div_s": opI32DivS,

	"f32.add": opF32Add,
	"f32.sub": opF32Sub,
	"f32.mul": opF32Mul,
	"f32.div": opF32Div,
	"f32.lt":  opF32Lt,
	"f32.gt":  opF32Gt,
	"f32.eq":  opF32Eq,
}

// rawMemOps take an alignment/offset pair that this simple encoder always
// emits as (align=2, offset=0), matching every HIR-lowered load/store.
var rawMemOps = map[string]bool{
	"i32.load": true, "i64.load": true, "f32.load": true, "f64.load": true,
	"i32.load8_s": true, "i32.load8_u": true,
	"i32.store": true, "i64.store": true, "f32.store": true, "f64.store": true,
	"i32.store8": true,
}

// lowerRaw parses and emits a #wasm: text body: one mnemonic and zero or
// one immediate per line. $<index> and $<name> both resolve a local
// reference; $<name> also resolves a callee function for `call`.
func (fc *funcCtx) lowerRaw(b *buffer, lines []string) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";;") {
			continue
		}
		fields := strings.Fields(line)
		mnem := fields[0]
		var imm string
		if len(fields) > 1 {
			imm = fields[1]
		}

		if mnem == "end" {
			b.u8(opEnd)
			continue
		}
		if mnem == "call" {
			fc.lowerRawCall(b, imm, line)
			continue
		}
		if mnem == "local.get" || mnem == "local.set" || mnem == "local.tee" {
			fc.lowerRawLocal(b, mnem, imm, line)
			continue
		}
		if mnem == "i32.const" || mnem == "i64.const" {
			n, err := strconv.ParseInt(imm, 10, 64)
			if err != nil {
				fc.errf(source.Span{}, diag.GenBadWasmInstr, "bad integer immediate in raw wasm body: "+line)
				continue
			}
			if mnem == "i32.const" {
				b.u8(opI32Const)
			} else {
				b.u8(opI64Const)
			}
			b.sleb(n)
			continue
		}
		if mnem == "f32.const" {
			f, err := strconv.ParseFloat(imm, 32)
			if err != nil {
				fc.errf(source.Span{}, diag.GenBadWasmInstr, "bad float immediate in raw wasm body: "+line)
				continue
			}
			b.u8(opF32Const)
			b.raw(f32Bytes(float32(f)))
			continue
		}

		op, ok := rawMnemonics[mnem]
		if !ok {
			fc.errf(source.Span{}, diag.GenBadWasmInstr, "unknown instruction mnemonic in raw wasm body: "+mnem)
			continue
		}
		b.u8(op)
		if rawMemOps[mnem] {
			b.u8(2) // align
			b.uleb(0) // offset
		}
	}
}

func (fc *funcCtx) lowerRawLocal(b *buffer, mnem, imm, line string) {
	slot, ok := fc.resolveRawLocal(imm)
	if !ok {
		fc.errf(source.Span{}, diag.GenBadWasmInstr, "unknown local in raw wasm body: "+line)
		return
	}
	switch mnem {
	case "local.get":
		b.u8(opLocalGet)
	case "local.set":
		b.u8(opLocalSet)
	case "local.tee":
		b.u8(opLocalTee)
	}
	b.uleb(uint64(slot))
}

func (fc *funcCtx) resolveRawLocal(imm string) (uint32, bool) {
	name := strings.TrimPrefix(imm, "$")
	if n, err := strconv.Atoi(name); err == nil {
		return uint32(n), true
	}
	slot, ok := fc.slot[name]
	return slot, ok
}

func (fc *funcCtx) lowerRawCall(b *buffer, imm, line string) {
	name := strings.TrimPrefix(imm, "$")
	idx, ok := fc.g.funcIndex[name]
	if !ok {
		fc.errf(source.Span{}, diag.GenBadWasmInstr, "call to unknown function in raw wasm body: "+line)
		return
	}
	b.u8(opCall)
	b.uleb(uint64(idx))
}
