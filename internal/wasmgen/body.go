package wasmgen

import (
	"math"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// funcCtx is the per-function state threaded through node lowering: local
// slot assignment (Unit-typed locals occupy no slot at all, per the
// value-type mapping), and the declared-locals vector the code entry
// needs before its instruction stream.
type funcCtx struct {
	g        *Generator
	fn       *hir.HirFunction
	slot     map[string]uint32
	slotType map[string]byte
	declared []byte // value-type byte per *declared* (non-param) local, in slot order
	nextSlot uint32
}

// lowerFunctionBody renders one function's full code-entry bytes: the
// locals-declaration vector followed by the instruction stream and a
// trailing `end`.
func (g *Generator) lowerFunctionBody(fn *hir.HirFunction) []byte {
	fc := &funcCtx{g: g, fn: fn, slot: map[string]uint32{}, slotType: map[string]byte{}}

	// Assign parameter slots first, matching the lowered (Unit-dropped)
	// signature order exactly.
	for _, loc := range fn.Locals {
		if !loc.IsParam {
			continue
		}
		lt, ok := g.lowerType(loc.Type)
		if !ok || lt.IsUnit {
			continue
		}
		fc.slot[loc.Name] = fc.nextSlot
		fc.slotType[loc.Name] = lt.Val
		fc.nextSlot++
	}
	// Then declared/synthesized locals, grouped into runs by type as the
	// locals-declaration vector requires (one run per value type here,
	// for simplicity, rather than maximally compressed runs).
	for _, loc := range fn.Locals {
		if loc.IsParam {
			continue
		}
		lt, ok := g.lowerType(loc.Type)
		if !ok || lt.IsUnit {
			continue
		}
		fc.slot[loc.Name] = fc.nextSlot
		fc.slotType[loc.Name] = lt.Val
		fc.nextSlot++
		fc.declared = append(fc.declared, lt.Val)
	}

	// Lower the instruction stream first: scratch locals (aggregate
	// construction's address-holding temporary) are reserved lazily as
	// lowering encounters them, so fc.declared is only complete once this
	// finishes.
	var instr buffer
	if len(fn.RawWasm) > 0 {
		fc.lowerRaw(&instr, fn.RawWasm)
	} else if fn.Body != nil {
		fc.lowerExpr(&instr, fn.Body)
	}
	instr.u8(opEnd)

	var out buffer
	// locals vector: one declaration group of count 1 per declared local.
	// Verbose but simple and always correct regardless of ordering.
	out.vec(len(fc.declared), func(i int) {
		out.uleb(1)
		out.u8(fc.declared[i])
	})
	out.raw(instr.bytes())
	return out.bytes()
}

func (fc *funcCtx) errf(span source.Span, code, msg string) {
	fc.g.sink.Add(diag.New(diag.Error, code, "codegen", span, msg))
}

// lowerExpr emits n's value onto the wasm stack (or nothing, for a
// Unit-typed n).
func (fc *funcCtx) lowerExpr(b *buffer, n hir.Node) {
	switch v := n.(type) {
	case *hir.LiteralNode:
		fc.lowerLiteral(b, v)
	case *hir.VarNode:
		fc.lowerVar(b, v)
	case *hir.CallNode:
		fc.lowerCall(b, v)
	case *hir.IfNode:
		fc.lowerIf(b, v)
	case *hir.WhileNode:
		fc.lowerWhile(b, v)
	case *hir.BlockNode:
		fc.lowerBlock(b, v)
	case *hir.MatchNode:
		fc.lowerMatch(b, v)
	case *hir.LetNode:
		fc.lowerExpr(b, v.Value)
		fc.setLocal(b, v.Name, v.Value.Type())
	case *hir.SetNode:
		fc.lowerExpr(b, v.Value)
		fc.setLocal(b, v.Name, v.Value.Type())
	case *hir.DropNode:
		fc.lowerDrop(b, v.Value)
	case *hir.AddrOfNode:
		fc.lowerExpr(b, v.Value) // a Box/struct/enum value is already its own address
	case *hir.DerefNode:
		fc.lowerExpr(b, v.Value) // reference representation is identity at the wasm level
	case *hir.EnumConstructNode:
		fc.lowerEnumConstruct(b, v)
	case *hir.StructConstructNode:
		fc.lowerAggregateConstruct(b, v.Fields, v.Type())
	case *hir.TupleConstructNode:
		fc.lowerAggregateConstruct(b, v.Items, v.Type())
	case *hir.IntrinsicNode:
		fc.lowerIntrinsic(b, v)
	default:
		fc.errf(n.Span(), diag.GenUnsupportedTy, "codegen has no lowering for this node")
	}
}

func (fc *funcCtx) lowerLiteral(b *buffer, v *hir.LiteralNode) {
	switch v.Kind {
	case hir.LitI32:
		b.u8(opI32Const)
		b.sleb(int64(v.I32))
	case hir.LitBool:
		b.u8(opI32Const)
		if v.Bool {
			b.sleb(1)
		} else {
			b.sleb(0)
		}
	case hir.LitF32:
		b.u8(opF32Const)
		b.raw(f32Bytes(v.F32))
	case hir.LitStr:
		off := fc.g.lay.stringOffset[v.StrID]
		b.u8(opI32Const)
		b.sleb(int64(off))
	case hir.LitUnit:
		// no wasm value
	}
}

func f32Bytes(f float32) []byte {
	bits := math.Float32bits(f)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}

func (fc *funcCtx) lowerVar(b *buffer, v *hir.VarNode) {
	if v.IsLocal {
		if slot, ok := fc.slot[v.Name]; ok {
			b.u8(opLocalGet)
			b.uleb(uint64(slot))
		}
		// Unit-typed local: no value to push.
		return
	}
	// A bare reference to a global function names it as a nullary call.
	idx, ok := fc.g.funcIndex[v.Name]
	if !ok {
		fc.errf(v.Span(), diag.GenUnsupportedTy, "reference to undefined function '"+v.Name+"'")
		return
	}
	b.u8(opCall)
	b.uleb(uint64(idx))
}

func (fc *funcCtx) setLocal(b *buffer, name string, valTy types.TypeId) {
	slot, ok := fc.slot[name]
	if !ok {
		lt, ok2 := fc.g.lowerType(valTy)
		if ok2 && lt.IsUnit {
			return // nothing was pushed, nothing to store
		}
		// A local introduced after lowering began (e.g. inside a nested
		// block the locals pre-pass already walked) still needs a slot.
		slot = fc.nextSlot
		fc.nextSlot++
		fc.slot[name] = slot
		if ok2 {
			fc.slotType[name] = lt.Val
		}
	}
	b.u8(opLocalSet)
	b.uleb(uint64(slot))
}

func (fc *funcCtx) lowerCall(b *buffer, v *hir.CallNode) {
	for _, a := range v.Args {
		fc.lowerExpr(b, a)
	}
	switch v.Callee.Kind {
	case hir.FuncBuiltin:
		fc.lowerBuiltinOp(b, v)
	default:
		idx, ok := fc.g.funcIndex[v.Callee.Name]
		if !ok {
			fc.errf(v.Span(), diag.GenUnsupportedTy, "call to undefined function '"+v.Callee.Name+"'")
			return
		}
		b.u8(opCall)
		b.uleb(uint64(idx))
	}
}

// lowerBuiltinOp lowers the fixed arithmetic/comparison/boolean builtins
// seeded by check.SeedBuiltins directly to their wasm opcode, keyed by the
// numeric type of the (already-pushed) first argument.
func (fc *funcCtx) lowerBuiltinOp(b *buffer, v *hir.CallNode) {
	isF32 := len(v.Args) > 0 && fc.isF32(v.Args[0].Type())
	switch v.Callee.Name {
	case "add":
		if isF32 {
			b.u8(opF32Add)
		} else {
			b.u8(opI32Add)
		}
	case "sub":
		if isF32 {
			b.u8(opF32Sub)
		} else {
			b.u8(opI32Sub)
		}
	case "mul":
		if isF32 {
			b.u8(opF32Mul)
		} else {
			b.u8(opI32Mul)
		}
	case "div":
		if isF32 {
			b.u8(opF32Div)
		} else {
			b.u8(opI32DivS)
		}
	case "eq":
		if isF32 {
			b.u8(opF32Eq)
		} else {
			b.u8(opI32Eq)
		}
	case "lt":
		if isF32 {
			b.u8(opF32Lt)
		} else {
			b.u8(opI32LtS)
		}
	case "gt":
		if isF32 {
			b.u8(opF32Gt)
		} else {
			b.u8(opI32GtS)
		}
	case "not":
		b.u8(opI32Eqz)
	case "and":
		b.u8(opI32Mul) // bool is 0/1 in i32; multiplication doubles as AND
	case "or":
		b.u8(opI32Add)
		b.u8(opI32Const)
		b.sleb(0)
		b.u8(opI32GtS) // (a+b) > 0 is OR over 0/1 values
	case "print", "println":
		// host-provided; a conforming target supplies these as #extern
		// imports, so a builtin call here means none was declared.
		fc.errf(v.Span(), diag.GenUnsupportedTy, "'"+v.Callee.Name+"' requires a host import to lower")
	default:
		fc.errf(v.Span(), diag.GenUnsupportedTy, "unknown builtin '"+v.Callee.Name+"'")
	}
}

func (fc *funcCtx) isF32(id types.TypeId) bool {
	lt, ok := fc.g.lowerType(id)
	return ok && lt.Val == valF32
}

func (fc *funcCtx) lowerIf(b *buffer, v *hir.IfNode) {
	fc.lowerExpr(b, v.Cond)
	lt, _ := fc.g.lowerType(v.Type())
	b.u8(opIf)
	b.u8(blockTypeByte(!lt.IsUnit, lt.Val))
	fc.lowerExpr(b, v.Then)
	b.u8(opElse)
	fc.lowerExpr(b, v.Else)
	b.u8(opEnd)
}

func (fc *funcCtx) lowerWhile(b *buffer, v *hir.WhileNode) {
	// loop { cond; br_if-not -> break-via-outer-block; body; br 0 }
	b.u8(opBlock)
	b.u8(blockTypeVoid)
	b.u8(opLoop)
	b.u8(blockTypeVoid)
	fc.lowerExpr(b, v.Cond)
	b.u8(opI32Eqz)
	b.u8(opBrIf)
	b.uleb(1) // break out of the enclosing block
	fc.lowerDrop(b, v.Body)
	b.u8(opBr)
	b.uleb(0) // continue the loop
	b.u8(opEnd)
	b.u8(opEnd)
}

func (fc *funcCtx) lowerBlock(b *buffer, v *hir.BlockNode) {
	for i, line := range v.Lines {
		fc.lowerExpr(b, line)
		if v.DropResult[i] {
			fc.dropIfValued(b, line.Type())
		}
	}
}

// lowerDrop lowers value for its side effects, discarding whatever it
// leaves on the stack.
func (fc *funcCtx) lowerDrop(b *buffer, value hir.Node) {
	fc.lowerExpr(b, value)
	fc.dropIfValued(b, value.Type())
}

func (fc *funcCtx) dropIfValued(b *buffer, ty types.TypeId) {
	lt, ok := fc.g.lowerType(ty)
	if ok && !lt.IsUnit {
		b.u8(opDrop)
	}
}

func (fc *funcCtx) lowerMatch(b *buffer, v *hir.MatchNode) {
	lt, _ := fc.g.lowerType(v.Type())
	fc.lowerMatchArms(b, v, 0, lt)
}

// lowerMatchArms lowers arms[i:] as a chain of `if tag == arms[i].Tag
// {...} else {lowerMatchArms(i+1)}`, loading the scrutineed tag fresh
// at each step (the tag word lives at the scrutinee's own address,
// offset 0). The final arm still guards on its own tag; an uncovered
// tag falls through to `unreachable` rather than silently running the
// last arm's body.
func (fc *funcCtx) lowerMatchArms(b *buffer, v *hir.MatchNode, i int, lt loweredType) {
	arm := v.Arms[i]
	fc.lowerExpr(b, v.Scrut)
	b.u8(opI32Load)
	b.u8(2) // align
	b.uleb(0)
	b.u8(opI32Const)
	b.sleb(int64(arm.Tag))
	b.u8(opI32Eq)
	b.u8(opIf)
	b.u8(blockTypeByte(!lt.IsUnit, lt.Val))
	fc.lowerArmBody(b, v, i)
	b.u8(opElse)
	if i == len(v.Arms)-1 {
		b.u8(opUnreachable)
	} else {
		fc.lowerMatchArms(b, v, i+1, lt)
	}
	b.u8(opEnd)
}

func (fc *funcCtx) lowerArmBody(b *buffer, v *hir.MatchNode, i int) {
	arm := v.Arms[i]
	if arm.Binding != "" {
		fc.lowerExpr(b, v.Scrut)
		b.u8(opI32Const)
		b.sleb(4) // payload follows the 4-byte tag word
		b.u8(opI32Add)
		fc.setLocal(b, arm.Binding, types.TI32)
	}
	fc.lowerExpr(b, arm.Body)
}

// lowerEnumConstruct allocates a [tag:i32][payload] cell and stores the
// tag and, if present, the payload value.
func (fc *funcCtx) lowerEnumConstruct(b *buffer, v *hir.EnumConstructNode) {
	size := int64(4)
	if v.Payload != nil {
		if lt, ok := fc.g.lowerType(v.Payload.Type()); ok && !lt.IsUnit {
			size += 4
		}
	}
	fc.emitAlloc(b, size, v.Span())
	b.u8(opLocalTee)
	b.uleb(uint64(fc.scratchSlot()))
	b.u8(opI32Const)
	b.sleb(int64(v.Tag))
	b.u8(opI32Store)
	b.u8(2)
	b.uleb(0)
	if v.Payload != nil {
		lt, ok := fc.g.lowerType(v.Payload.Type())
		if ok && !lt.IsUnit {
			b.u8(opLocalGet)
			b.uleb(uint64(fc.scratchSlot()))
			b.u8(opI32Const)
			b.sleb(4)
			b.u8(opI32Add)
			fc.lowerExpr(b, v.Payload)
			b.u8(storeOpFor(lt.Val))
			b.u8(2)
			b.uleb(0)
		}
	}
	b.u8(opLocalGet)
	b.uleb(uint64(fc.scratchSlot()))
}

// lowerAggregateConstruct allocates one cell wide enough for all fields
// and stores each at its 4-byte-aligned offset, in declaration order:
// the shared layout struct and tuple construction both use.
func (fc *funcCtx) lowerAggregateConstruct(b *buffer, fields []hir.Node, aggTy types.TypeId) {
	var lowered []loweredType
	size := int64(0)
	for _, f := range fields {
		lt, ok := fc.g.lowerType(f.Type())
		lowered = append(lowered, lt)
		if ok && !lt.IsUnit {
			size += 4
		}
	}
	fc.emitAlloc(b, size, source.Span{})
	b.u8(opLocalSet)
	b.uleb(uint64(fc.scratchSlot()))
	offset := int64(0)
	for i, f := range fields {
		lt := lowered[i]
		if lt.IsUnit {
			fc.lowerExpr(b, f) // still run for side effects; pushes nothing
			continue
		}
		b.u8(opLocalGet)
		b.uleb(uint64(fc.scratchSlot()))
		if offset != 0 {
			b.u8(opI32Const)
			b.sleb(offset)
			b.u8(opI32Add)
		}
		fc.lowerExpr(b, f)
		b.u8(storeOpFor(lt.Val))
		b.u8(2)
		b.uleb(0)
		offset += 4
	}
	b.u8(opLocalGet)
	b.uleb(uint64(fc.scratchSlot()))
}

func storeOpFor(vt byte) byte {
	switch vt {
	case valI64:
		return opI64Store
	case valF32:
		return opF32Store
	case valF64:
		return opF64Store
	default:
		return opI32Store
	}
}

func loadOpFor(vt byte) byte {
	switch vt {
	case valI64:
		return opI64Load
	case valF32:
		return opF32Load
	case valF64:
		return opF64Load
	default:
		return opI32Load
	}
}

// emitAlloc calls the resolved allocator with size bytes, reporting
// GenNoAlloc if the module declares none.
func (fc *funcCtx) emitAlloc(b *buffer, size int64, span source.Span) {
	if fc.g.allocFn == nil {
		fc.errf(span, diag.GenNoAlloc, "construction requires an 'alloc' function, none is defined")
		b.u8(opI32Const)
		b.sleb(0)
		return
	}
	b.u8(opI32Const)
	b.sleb(size)
	idx := fc.g.funcIndex[fc.g.allocFn.Mangled]
	b.u8(opCall)
	b.uleb(uint64(idx))
}

// scratchSlot lazily reserves one i32 local reused across this function's
// aggregate-construct sites to hold the freshly allocated address while
// its fields are stored.
func (fc *funcCtx) scratchSlot() uint32 {
	const name = "$scratch"
	if slot, ok := fc.slot[name]; ok {
		return slot
	}
	slot := fc.nextSlot
	fc.nextSlot++
	fc.slot[name] = slot
	fc.slotType[name] = valI32
	fc.declared = append(fc.declared, valI32)
	return slot
}

func (fc *funcCtx) lowerIntrinsic(b *buffer, v *hir.IntrinsicNode) {
	switch v.Op {
	case hir.IntrinsicSizeOf:
		b.u8(opI32Const)
		b.sleb(int64(fc.sizeOf(v.TypeArg)))
	case hir.IntrinsicAlignOf:
		b.u8(opI32Const)
		b.sleb(4)
	case hir.IntrinsicLoad:
		fc.lowerExpr(b, v.Args[0])
		lt, _ := fc.g.lowerType(v.TypeArg)
		b.u8(loadOpFor(lt.Val))
		b.u8(2)
		b.uleb(0)
	case hir.IntrinsicStore:
		fc.lowerExpr(b, v.Args[0])
		fc.lowerExpr(b, v.Args[1])
		lt, _ := fc.g.lowerType(v.TypeArg)
		b.u8(storeOpFor(lt.Val))
		b.u8(2)
		b.uleb(0)
	case hir.IntrinsicAdd:
		fc.lowerExpr(b, v.Args[0])
		fc.lowerExpr(b, v.Args[1])
		b.u8(opI32Add)
	case hir.IntrinsicCallsiteSpan:
		b.u8(opI32Const)
		b.sleb(int64(v.Span().Start))
	case hir.IntrinsicUnreachable:
		b.u8(opUnreachable)
	default:
		fc.errf(v.Span(), diag.GenUnsupportedTy, "intrinsic has no lowering")
	}
}

// sizeOf returns a struct/tuple/enum type's wasm-level footprint in
// bytes: every field/item/payload lowers to a 4-byte-aligned slot, plus
// the 4-byte tag word for an enum.
func (fc *funcCtx) sizeOf(id types.TypeId) int {
	k := fc.g.tc.Get(fc.g.tc.Resolve(id))
	switch k.Kind {
	case types.KStruct:
		n := 0
		for range k.Fields {
			n += 4
		}
		return n
	case types.KTuple:
		return 4 * len(k.Items)
	case types.KEnum:
		n := 4
		for _, variant := range k.Variants {
			if variant.Payload != types.InvalidTypeId {
				n += 4
				break
			}
		}
		return n
	default:
		return 4
	}
}
