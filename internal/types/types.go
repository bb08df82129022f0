// Package types implements NEPL's type representation: an arena-backed
// TypeCtx holding TypeKind entries addressed by TypeId, and Robinson-style
// unification over that arena. The arena-of-kinds shape trades a tree of
// linked type values for flat, cheap-to-copy TypeId handles that stay valid
// across the HIR and into codegen. The unification algorithm itself
// (recursive structural comparison, occurs-check, a bound recursion depth)
// is carried over from ailang's Unifier.Unify in spirit.
package types

import "fmt"

// TypeId is an opaque index into a TypeCtx's arena.
type TypeId int

// Kind tags a TypeKind's shape.
type Kind int

const (
	KUnit Kind = iota
	KI32
	KU8
	KF32
	KBool
	KStr
	KNever
	KNamed
	KEnum
	KStruct
	KTuple
	KFunction
	KVar
	KApply
	KBox
	KReference
)

// Effect annotates a Function type.
type Effect int

const (
	Pure Effect = iota
	Impure
)

func (e Effect) String() string {
	if e == Impure {
		return "impure"
	}
	return "pure"
}

// Variant holds one enum case: a name and an optional payload type.
type Variant struct {
	Name    string
	Payload TypeId // InvalidTypeId if the variant has no payload
}

// Field holds one struct field: a name and its type.
type Field struct {
	Name string
	Type TypeId
}

// TypeKind is the arena payload for one TypeId. Only the fields relevant
// to Kind are meaningful; this mirrors a tagged union via a flat struct,
// the common Go idiom for small closed sets of node shapes.
type TypeKind struct {
	Kind Kind

	// Named
	Name string

	// Enum / Struct
	TypeParams []string
	Variants   []Variant
	Fields     []Field

	// Tuple
	Items []TypeId

	// Function
	Params []TypeId
	Result TypeId
	Effect Effect

	// Var
	Label   string
	Binding TypeId // InvalidTypeId if unbound

	// Apply
	Base TypeId
	Args []TypeId

	// Box / Reference
	Inner   TypeId
	RefMut  bool
}

// InvalidTypeId marks an absent optional reference (an unbound Var's
// Binding, a payload-less Variant, etc).
const InvalidTypeId TypeId = -1

// TypeCtx is the arena. It is mutated only by the type checker; once
// checking finishes it is treated as immutable and shared read-only with
// codegen.
type TypeCtx struct {
	arena []TypeKind

	// depthGuard bounds unification recursion.
	depthGuard int
}

const maxUnifyDepth = 5000

// NewTypeCtx creates an arena pre-seeded with the fixed primitive types at
// well-known ids, so callers can refer to them by the exported constants
// below without a lookup.
func NewTypeCtx() *TypeCtx {
	tc := &TypeCtx{}
	tc.intern(TypeKind{Kind: KUnit})
	tc.intern(TypeKind{Kind: KI32})
	tc.intern(TypeKind{Kind: KU8})
	tc.intern(TypeKind{Kind: KF32})
	tc.intern(TypeKind{Kind: KBool})
	tc.intern(TypeKind{Kind: KStr})
	tc.intern(TypeKind{Kind: KNever})
	return tc
}

// Well-known primitive ids, valid for every TypeCtx created by NewTypeCtx.
const (
	TUnit TypeId = iota
	TI32
	TU8
	TF32
	TBool
	TStr
	TNever
)

func (tc *TypeCtx) intern(k TypeKind) TypeId {
	tc.arena = append(tc.arena, k)
	return TypeId(len(tc.arena) - 1)
}

// Get returns the TypeKind stored at id.
func (tc *TypeCtx) Get(id TypeId) TypeKind {
	if int(id) < 0 || int(id) >= len(tc.arena) {
		return TypeKind{Kind: KNever}
	}
	return tc.arena[id]
}

// NewVar allocates a fresh unbound type variable, optionally labeled (used
// for user-written generic parameters so error messages can say `.T`
// instead of `$7`).
func (tc *TypeCtx) NewVar(label string) TypeId {
	return tc.intern(TypeKind{Kind: KVar, Label: label, Binding: InvalidTypeId})
}

func (tc *TypeCtx) NewNamed(name string) TypeId {
	return tc.intern(TypeKind{Kind: KNamed, Name: name})
}

func (tc *TypeCtx) NewFunction(params []TypeId, result TypeId, eff Effect) TypeId {
	return tc.intern(TypeKind{Kind: KFunction, Params: params, Result: result, Effect: eff})
}

func (tc *TypeCtx) NewTuple(items []TypeId) TypeId {
	return tc.intern(TypeKind{Kind: KTuple, Items: items})
}

func (tc *TypeCtx) NewStruct(name string, typeParams []string, fields []Field) TypeId {
	return tc.intern(TypeKind{Kind: KStruct, Name: name, TypeParams: typeParams, Fields: fields})
}

func (tc *TypeCtx) NewEnum(name string, typeParams []string, variants []Variant) TypeId {
	return tc.intern(TypeKind{Kind: KEnum, Name: name, TypeParams: typeParams, Variants: variants})
}

func (tc *TypeCtx) NewApply(base TypeId, args []TypeId) TypeId {
	return tc.intern(TypeKind{Kind: KApply, Base: base, Args: args})
}

func (tc *TypeCtx) NewBox(inner TypeId) TypeId {
	return tc.intern(TypeKind{Kind: KBox, Inner: inner})
}

func (tc *TypeCtx) NewReference(inner TypeId, mut bool) TypeId {
	return tc.intern(TypeKind{Kind: KReference, Inner: inner, RefMut: mut})
}

// Resolve walks Var binding chains to a fixed point. Non-Var ids are returned unchanged.
func (tc *TypeCtx) Resolve(id TypeId) TypeId {
	seen := 0
	for {
		k := tc.Get(id)
		if k.Kind != KVar || k.Binding == InvalidTypeId {
			return id
		}
		id = k.Binding
		seen++
		if seen > maxUnifyDepth {
			return id
		}
	}
}

// Bind sets an unbound Var's binding. Callers must have already occurs-
// checked.
func (tc *TypeCtx) Bind(v TypeId, to TypeId) {
	k := tc.arena[v]
	k.Binding = to
	tc.arena[v] = k
}

// String renders a type for diagnostics.
func (tc *TypeCtx) String(id TypeId) string {
	k := tc.Get(tc.Resolve(id))
	switch k.Kind {
	case KUnit:
		return "()"
	case KI32:
		return "i32"
	case KU8:
		return "u8"
	case KF32:
		return "f32"
	case KBool:
		return "bool"
	case KStr:
		return "str"
	case KNever:
		return "never"
	case KNamed:
		return k.Name
	case KVar:
		if k.Label != "" {
			return "." + k.Label
		}
		return fmt.Sprintf("$%d", id)
	case KEnum, KStruct:
		return k.Name
	case KTuple:
		s := "("
		for i, it := range k.Items {
			if i > 0 {
				s += ", "
			}
			s += tc.String(it)
		}
		return s + ")"
	case KFunction:
		s := "("
		for i, p := range k.Params {
			if i > 0 {
				s += ", "
			}
			s += tc.String(p)
		}
		arrow := "->"
		if k.Effect == Impure {
			arrow = "*>"
		}
		return s + ")" + arrow + tc.String(k.Result)
	case KApply:
		s := tc.String(k.Base) + "<"
		for i, a := range k.Args {
			if i > 0 {
				s += ", "
			}
			s += tc.String(a)
		}
		return s + ">"
	case KBox:
		return "Box<" + tc.String(k.Inner) + ">"
	case KReference:
		if k.RefMut {
			return "&mut " + tc.String(k.Inner)
		}
		return "&" + tc.String(k.Inner)
	}
	return "<?>"
}

// IsCopy reports whether values of this type can be duplicated without
// consuming the original, used by the move checker:
// primitives, references, and tuples of Copy types are Copy.
func (tc *TypeCtx) IsCopy(id TypeId) bool {
	k := tc.Get(tc.Resolve(id))
	switch k.Kind {
	case KUnit, KI32, KU8, KF32, KBool, KNever, KReference:
		return true
	case KTuple:
		for _, it := range k.Items {
			if !tc.IsCopy(it) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
