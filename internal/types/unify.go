package types

import "fmt"

// UnifyError reports a unification failure without committing to any
// particular diagnostic renderer; the checker wraps these into a
// diag.Report with the call-site span.
type UnifyError struct {
	Left, Right TypeId
	Reason      string
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("%s", e.Reason)
}

// Unify attempts to make a and b equal by binding unresolved Vars,
// following ailang's Unifier.Unify structurally (recurse into children,
// occurs-check before binding, fail on mismatched shapes) but writing
// bindings into the arena instead of a substitution map. depth bounds
// recursion as a runaway-unification guard; pass 0 from the
// checker's call sites, Unify manages its own increment/reset.
func (tc *TypeCtx) Unify(a, b TypeId) error {
	return tc.unify(a, b, 0)
}

func (tc *TypeCtx) unify(a, b TypeId, depth int) error {
	if depth > maxUnifyDepth {
		return &UnifyError{a, b, "unification recursion depth exceeded"}
	}
	a = tc.Resolve(a)
	b = tc.Resolve(b)
	if a == b {
		return nil
	}

	ka := tc.Get(a)
	kb := tc.Get(b)

	if ka.Kind == KVar {
		return tc.bindVar(a, b, depth)
	}
	if kb.Kind == KVar {
		return tc.bindVar(b, a, depth)
	}

	// KApply bridges to a concrete Enum/Struct when the base resolves to
	// one and arity matches, so `Option<i32>` written as an Apply unifies
	// with the concrete instantiation the checker builds during
	// monomorphization bookkeeping.
	if ka.Kind == KApply && kb.Kind != KApply {
		return tc.unifyApply(a, ka, b, kb, depth)
	}
	if kb.Kind == KApply && ka.Kind != KApply {
		return tc.unifyApply(b, kb, a, ka, depth)
	}

	if ka.Kind != kb.Kind {
		return &UnifyError{a, b, fmt.Sprintf("type mismatch: %s vs %s", tc.String(a), tc.String(b))}
	}

	switch ka.Kind {
	case KUnit, KI32, KU8, KF32, KBool, KStr, KNever:
		return nil

	case KNamed:
		if ka.Name != kb.Name {
			return &UnifyError{a, b, fmt.Sprintf("type mismatch: %s vs %s", ka.Name, kb.Name)}
		}
		return nil

	case KEnum, KStruct:
		if ka.Name != kb.Name {
			return &UnifyError{a, b, fmt.Sprintf("type mismatch: %s vs %s", ka.Name, kb.Name)}
		}
		return nil

	case KTuple:
		if len(ka.Items) != len(kb.Items) {
			return &UnifyError{a, b, "tuple arity mismatch"}
		}
		for i := range ka.Items {
			if err := tc.unify(ka.Items[i], kb.Items[i], depth+1); err != nil {
				return err
			}
		}
		return nil

	case KFunction:
		if len(ka.Params) != len(kb.Params) {
			return &UnifyError{a, b, "function arity mismatch"}
		}
		if ka.Effect == Pure && kb.Effect == Impure {
			return &UnifyError{a, b, "pure function cannot unify with impure function"}
		}
		for i := range ka.Params {
			if err := tc.unify(ka.Params[i], kb.Params[i], depth+1); err != nil {
				return err
			}
		}
		return tc.unify(ka.Result, kb.Result, depth+1)

	case KApply:
		if err := tc.unify(ka.Base, kb.Base, depth+1); err != nil {
			return err
		}
		if len(ka.Args) != len(kb.Args) {
			return &UnifyError{a, b, "generic argument count mismatch"}
		}
		for i := range ka.Args {
			if err := tc.unify(ka.Args[i], kb.Args[i], depth+1); err != nil {
				return err
			}
		}
		return nil

	case KBox:
		return tc.unify(ka.Inner, kb.Inner, depth+1)

	case KReference:
		if ka.RefMut != kb.RefMut {
			return &UnifyError{a, b, "reference mutability mismatch"}
		}
		return tc.unify(ka.Inner, kb.Inner, depth+1)
	}
	return &UnifyError{a, b, "unhandled type kind in unification"}
}

// unifyApply handles unification between a KApply (a generic instantiated
// with concrete args) and some other already-concrete kind, bridging to
// the concrete shape when base and arity line up.
func (tc *TypeCtx) unifyApply(applyId TypeId, apply TypeKind, otherId TypeId, other TypeKind, depth int) error {
	base := tc.Get(tc.Resolve(apply.Base))
	switch other.Kind {
	case KEnum, KStruct:
		if base.Kind != KNamed && base.Kind != KEnum && base.Kind != KStruct {
			return &UnifyError{applyId, otherId, "cannot apply type arguments to a non-generic type"}
		}
		if base.Name != other.Name {
			return &UnifyError{applyId, otherId, fmt.Sprintf("type mismatch: %s vs %s", base.Name, other.Name)}
		}
		return nil
	default:
		return &UnifyError{applyId, otherId, fmt.Sprintf("type mismatch: %s vs %s", tc.String(applyId), tc.String(otherId))}
	}
}

// bindVar binds the unresolved variable v to target, after an occurs-check
// to reject infinite types like `.T = (.T) -> i32`.
func (tc *TypeCtx) bindVar(v, target TypeId, depth int) error {
	target = tc.Resolve(target)
	if v == target {
		return nil
	}
	if tc.occurs(v, target, depth) {
		return &UnifyError{v, target, fmt.Sprintf("occurs check failed: %s occurs in %s", tc.String(v), tc.String(target))}
	}
	tc.Bind(v, target)
	return nil
}

func (tc *TypeCtx) occurs(v, id TypeId, depth int) bool {
	if depth > maxUnifyDepth {
		return true
	}
	id = tc.Resolve(id)
	if id == v {
		return true
	}
	k := tc.Get(id)
	switch k.Kind {
	case KTuple:
		for _, it := range k.Items {
			if tc.occurs(v, it, depth+1) {
				return true
			}
		}
	case KFunction:
		for _, p := range k.Params {
			if tc.occurs(v, p, depth+1) {
				return true
			}
		}
		return tc.occurs(v, k.Result, depth+1)
	case KApply:
		if tc.occurs(v, k.Base, depth+1) {
			return true
		}
		for _, a := range k.Args {
			if tc.occurs(v, a, depth+1) {
				return true
			}
		}
	case KBox, KReference:
		return tc.occurs(v, k.Inner, depth+1)
	}
	return false
}

// Instantiate produces a fresh copy of a possibly-generic type, replacing
// each of that type's own type parameters with a fresh Var. This is the
// arena analogue of ailang's Scheme.Instantiate: callers pass the mapping
// from type-parameter name to the fresh TypeId they've already allocated,
// since NEPL resolves type parameters by name at the AST boundary rather
// than storing a Scheme value.
func (tc *TypeCtx) Instantiate(id TypeId, subst map[string]TypeId) TypeId {
	return tc.instantiate(id, subst, 0)
}

func (tc *TypeCtx) instantiate(id TypeId, subst map[string]TypeId, depth int) TypeId {
	if depth > maxUnifyDepth {
		return id
	}
	k := tc.Get(id)
	switch k.Kind {
	case KNamed:
		if fresh, ok := subst[k.Name]; ok {
			return fresh
		}
		return id
	case KVar:
		if k.Binding != InvalidTypeId {
			return tc.instantiate(k.Binding, subst, depth+1)
		}
		if k.Label != "" {
			if fresh, ok := subst[k.Label]; ok {
				return fresh
			}
		}
		return id
	case KTuple:
		items := make([]TypeId, len(k.Items))
		for i, it := range k.Items {
			items[i] = tc.instantiate(it, subst, depth+1)
		}
		return tc.NewTuple(items)
	case KFunction:
		params := make([]TypeId, len(k.Params))
		for i, p := range k.Params {
			params[i] = tc.instantiate(p, subst, depth+1)
		}
		result := tc.instantiate(k.Result, subst, depth+1)
		return tc.NewFunction(params, result, k.Effect)
	case KApply:
		args := make([]TypeId, len(k.Args))
		for i, a := range k.Args {
			args[i] = tc.instantiate(a, subst, depth+1)
		}
		return tc.NewApply(tc.instantiate(k.Base, subst, depth+1), args)
	case KBox:
		return tc.NewBox(tc.instantiate(k.Inner, subst, depth+1))
	case KReference:
		return tc.NewReference(tc.instantiate(k.Inner, subst, depth+1), k.RefMut)
	default:
		return id
	}
}

// Clone copies the whole arena, used by overload resolution to attempt
// unification against each candidate signature in isolation before
// committing to the winner.
func (tc *TypeCtx) Clone() *TypeCtx {
	cp := &TypeCtx{arena: make([]TypeKind, len(tc.arena))}
	copy(cp.arena, tc.arena)
	return cp
}

// Len reports the arena size, so a Clone's new ids can be told apart from
// ids allocated before the clone point (overload resolution rolls back by
// truncating to a saved Len rather than by discarding the clone).
func (tc *TypeCtx) Len() int { return len(tc.arena) }
