// Package hir defines NEPL's typed intermediate representation: the small,
// closed node set the checker lowers a PrefixExpr tree into. Grounded
// structurally on ailang's internal/core typed-IR (one exported struct per
// node shape, each carrying its own TypeId, consumed by a later lowering
// pass) though the node set itself is NEPL's own.
package hir

import (
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// Node is any HIR expression. The interface declares Type() and Span(),
// which every concrete node gets from its embedded base, so callers can
// read either without switching on the concrete type.
type Node interface {
	hirNode()
	Type() types.TypeId
	Span() source.Span
}

type base struct {
	Ty  types.TypeId
	Pos source.Span
}

func (b base) Type() types.TypeId { return b.Ty }
func (b base) Span() source.Span  { return b.Pos }

// LitKind tags a LiteralNode's payload.
type LitKind int

const (
	LitI32 LitKind = iota
	LitF32
	LitBool
	LitStr
	LitUnit
)

// LiteralNode is a constant value. For LitStr, StrID indexes the owning
// HirModule's StringTable.
type LiteralNode struct {
	base
	Kind  LitKind
	I32   int32
	F32   float32
	Bool  bool
	StrID int
}

func (*LiteralNode) hirNode() {}

// VarNode reads a binding: a local/parameter (IsLocal) or a reference to a
// global function treated as a nullary call at codegen time.
type VarNode struct {
	base
	Name    string
	IsLocal bool
}

func (*VarNode) hirNode() {}

// FuncRefKind distinguishes how a Call's callee resolved.
type FuncRefKind int

const (
	FuncBuiltin FuncRefKind = iota
	FuncUser
	FuncTraitMethod
)

// FuncRef names a call target: a builtin intrinsic, a mangled user
// function, or a late-bound trait method awaiting a concrete self type.
type FuncRef struct {
	Kind     FuncRefKind
	Name     string // builtin name, or mangled user symbol
	Trait    string
	Method   string
	SelfType types.TypeId
}

// CallNode applies a resolved function to already-checked argument nodes.
type CallNode struct {
	base
	Callee    FuncRef
	Args      []Node
	TypeArgs  []types.TypeId
}

func (*CallNode) hirNode() {}

// IfNode: both branches were unified to the same result type.
type IfNode struct {
	base
	Cond, Then, Else Node
}

func (*IfNode) hirNode() {}

// WhileNode: Body's type is always Unit.
type WhileNode struct {
	base
	Cond, Body Node
}

func (*WhileNode) hirNode() {}

// BlockNode is a sequence of lines; DropResult[i] marks lines whose value
// must be discarded (a statement terminated with `;`) rather than
// threaded forward.
type BlockNode struct {
	base
	Lines      []Node
	DropResult []bool
}

func (*BlockNode) hirNode() {}

// MatchArm carries the variant tag this arm handles and an optional
// payload binding name (empty if the variant carries no payload or the
// arm ignores it).
type MatchArm struct {
	Variant string
	Tag     int
	Binding string
	Body    Node
}

// MatchNode: Scrut must resolve to an Enum type. Arm exhaustiveness over
// that enum's variant set is not checked; a tag no arm covers reaches an
// `unreachable` in the generated code.
type MatchNode struct {
	base
	Scrut Node
	Arms  []MatchArm
}

func (*MatchNode) hirNode() {}

// LetNode declares a fresh local and initializes it.
type LetNode struct {
	base
	Name  string
	Value Node
}

func (*LetNode) hirNode() {}

// SetNode reassigns an existing mutable local.
type SetNode struct {
	base
	Name  string
	Value Node
}

func (*SetNode) hirNode() {}

// DropNode discards a value for its side effects only.
type DropNode struct {
	base
	Value Node
}

func (*DropNode) hirNode() {}

// AddrOfNode takes a reference to a place.
type AddrOfNode struct {
	base
	Value Node
	Mut   bool
}

func (*AddrOfNode) hirNode() {}

// DerefNode follows a reference.
type DerefNode struct {
	base
	Value Node
}

func (*DerefNode) hirNode() {}

// EnumConstructNode builds a tagged value; Payload is nil for a
// payload-less variant.
type EnumConstructNode struct {
	base
	EnumName string
	Variant  string
	Tag      int
	Payload  Node
}

func (*EnumConstructNode) hirNode() {}

// StructConstructNode builds a struct value field-by-field, in
// declaration order.
type StructConstructNode struct {
	base
	StructName string
	Fields     []Node
}

func (*StructConstructNode) hirNode() {}

// TupleConstructNode builds a tuple value; lowered identically to
// StructConstruct.
type TupleConstructNode struct {
	base
	Items []Node
}

func (*TupleConstructNode) hirNode() {}

// IntrinsicKind enumerates the fixed codegen intrinsic set.
type IntrinsicKind int

const (
	IntrinsicSizeOf IntrinsicKind = iota
	IntrinsicAlignOf
	IntrinsicLoad
	IntrinsicStore
	IntrinsicAdd
	IntrinsicCast
	IntrinsicReinterpret
	IntrinsicCallsiteSpan
	IntrinsicUnreachable
)

// IntrinsicNode is a fixed, non-overloadable codegen primitive. TypeArg is
// the `<T>` the intrinsic was instantiated with (for size_of/align_of/
// load/store/cast/reinterpret); CastTo names the target wasm-level kind
// for casts/reinterprets.
type IntrinsicNode struct {
	base
	Op      IntrinsicKind
	TypeArg types.TypeId
	Args    []Node
	CastTo  string
}

func (*IntrinsicNode) hirNode() {}

// StringTable interns string literals in first-use order; codegen assigns
// each entry a data-segment offset during layout.
type StringTable struct {
	entries []string
	index   map[string]int
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Intern returns s's id, assigning a new one on first sight.
func (st *StringTable) Intern(s string) int {
	if id, ok := st.index[s]; ok {
		return id
	}
	id := len(st.entries)
	st.entries = append(st.entries, s)
	st.index[s] = id
	return id
}

func (st *StringTable) Entries() []string { return st.entries }

// Local describes one wasm local slot: parameters first, then declared
// `let` bindings, then synthesized temporaries, the fixed local
// allocation order codegen relies on.
type Local struct {
	Name      string
	Type      types.TypeId
	IsParam   bool
	Synthetic bool
}

// HirFunction is one lowered function: a mangled name, its resolved
// signature, its locals in allocation order, and either a typed Body or a
// RawWasm text body.
type HirFunction struct {
	Name       string
	Mangled    string
	Params     []types.TypeId
	Result     types.TypeId
	Effect     types.Effect
	Locals     []Local
	Body       Node
	RawWasm    []string
	IsEntry    bool
	ImportMod  string // non-empty for #extern-declared functions
	ImportSym  string
}

// InstantiationTable records, per user function, the type arguments
// written explicitly at each of its call sites. Keyed by callee name; each
// call appends its tuple as given, without resolving type variables or
// removing duplicates.
type InstantiationTable struct {
	entries map[string][][]types.TypeId
}

func NewInstantiationTable() *InstantiationTable {
	return &InstantiationTable{entries: make(map[string][][]types.TypeId)}
}

func (it *InstantiationTable) Record(callee string, args []types.TypeId) {
	it.entries[callee] = append(it.entries[callee], args)
}

func (it *InstantiationTable) For(callee string) [][]types.TypeId {
	return it.entries[callee]
}

// HirModule is the checker's complete output: every function (including
// trait-impl methods under their mangled name), the shared string table,
// the instantiation table, and the entry function's name if any.
type HirModule struct {
	Functions   []*HirFunction
	Strings     *StringTable
	Insts       *InstantiationTable
	EntryFn     string
	TargetName  string
}

// FindFunction looks up a function by its mangled name.
func (m *HirModule) FindFunction(mangled string) *HirFunction {
	for _, f := range m.Functions {
		if f.Mangled == mangled {
			return f
		}
	}
	return nil
}

// NewNode constructors below let the checker build nodes without
// repeating the embedded-base boilerplate at every call site.

func NewLiteral(kind LitKind, ty types.TypeId, span source.Span) *LiteralNode {
	return &LiteralNode{base: base{Ty: ty, Pos: span}, Kind: kind}
}

func NewVar(name string, isLocal bool, ty types.TypeId, span source.Span) *VarNode {
	return &VarNode{base: base{Ty: ty, Pos: span}, Name: name, IsLocal: isLocal}
}

func NewCall(callee FuncRef, args []Node, typeArgs []types.TypeId, resultTy types.TypeId, span source.Span) *CallNode {
	return &CallNode{base: base{Ty: resultTy, Pos: span}, Callee: callee, Args: args, TypeArgs: typeArgs}
}

func NewIf(cond, then, els Node, resultTy types.TypeId, span source.Span) *IfNode {
	return &IfNode{base: base{Ty: resultTy, Pos: span}, Cond: cond, Then: then, Else: els}
}

func NewWhile(cond, body Node, unitTy types.TypeId, span source.Span) *WhileNode {
	return &WhileNode{base: base{Ty: unitTy, Pos: span}, Cond: cond, Body: body}
}

func NewBlock(lines []Node, dropResult []bool, resultTy types.TypeId, span source.Span) *BlockNode {
	return &BlockNode{base: base{Ty: resultTy, Pos: span}, Lines: lines, DropResult: dropResult}
}

func NewMatch(scrut Node, arms []MatchArm, resultTy types.TypeId, span source.Span) *MatchNode {
	return &MatchNode{base: base{Ty: resultTy, Pos: span}, Scrut: scrut, Arms: arms}
}

func NewLet(name string, value Node, span source.Span) *LetNode {
	return &LetNode{base: base{Ty: types.TUnit, Pos: span}, Name: name, Value: value}
}

func NewSet(name string, value Node, span source.Span) *SetNode {
	return &SetNode{base: base{Ty: types.TUnit, Pos: span}, Name: name, Value: value}
}

func NewDrop(value Node, span source.Span) *DropNode {
	return &DropNode{base: base{Ty: types.TUnit, Pos: span}, Value: value}
}

func NewAddrOf(value Node, mut bool, refTy types.TypeId, span source.Span) *AddrOfNode {
	return &AddrOfNode{base: base{Ty: refTy, Pos: span}, Value: value, Mut: mut}
}

func NewDeref(value Node, innerTy types.TypeId, span source.Span) *DerefNode {
	return &DerefNode{base: base{Ty: innerTy, Pos: span}, Value: value}
}

func NewEnumConstruct(enumName, variant string, tag int, payload Node, enumTy types.TypeId, span source.Span) *EnumConstructNode {
	return &EnumConstructNode{base: base{Ty: enumTy, Pos: span}, EnumName: enumName, Variant: variant, Tag: tag, Payload: payload}
}

func NewStructConstruct(structName string, fields []Node, structTy types.TypeId, span source.Span) *StructConstructNode {
	return &StructConstructNode{base: base{Ty: structTy, Pos: span}, StructName: structName, Fields: fields}
}

func NewTupleConstruct(items []Node, tupleTy types.TypeId, span source.Span) *TupleConstructNode {
	return &TupleConstructNode{base: base{Ty: tupleTy, Pos: span}, Items: items}
}

func NewIntrinsic(op IntrinsicKind, typeArg types.TypeId, args []Node, castTo string, resultTy types.TypeId, span source.Span) *IntrinsicNode {
	return &IntrinsicNode{base: base{Ty: resultTy, Pos: span}, Op: op, TypeArg: typeArg, Args: args, CastTo: castTo}
}
