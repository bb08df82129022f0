package check

import (
	"strings"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// reduceCall resolves an ordinary callable entry (builtin op, struct/enum
// constructor, user function, or overload set) against its already-checked
// arguments and produces the resulting Call-family HIR node.
func (c *Checker) reduceCall(callee entry, args []hir.Node, span source.Span) hir.Node {
	cand, fresh := c.pickOverload(callee, args, span)
	if cand == nil {
		return hir.NewLiteral(hir.LitUnit, types.TUnit, span)
	}

	capArgs := c.capturedArgs(cand, span)
	sigKind := c.tc.Get(fresh)
	for i, a := range args {
		pi := len(capArgs) + i
		if pi >= len(sigKind.Params) {
			break
		}
		if err := c.tc.Unify(a.Type(), sigKind.Params[pi]); err != nil {
			c.errorf(span, diag.TypMismatch, "argument %d to '%s' has wrong type: %v", i+1, callee.Name, err)
		}
	}
	args = append(capArgs, args...)

	if c.curEffect == types.Pure && cand.Effect == types.Impure {
		c.errorf(span, diag.EffPureCallsImpure, "pure function cannot call impure '%s'", callee.Name)
	}

	if len(cand.TypeParams) > 0 {
		c.insts.Record(cand.Mangled, callee.TypeArgs)
	}

	if strings.HasPrefix(cand.BuiltinOp, "enum_construct:") {
		parts := strings.SplitN(cand.BuiltinOp, ":", 3)
		enumName, variant := parts[1], parts[2]
		enumTy := c.typeNames[enumName]
		tag := 0
		ek := c.tc.Get(enumTy)
		for i, v := range ek.Variants {
			if v.Name == variant {
				tag = i
			}
		}
		var payload hir.Node
		if len(args) > 0 {
			payload = args[0]
		}
		return hir.NewEnumConstruct(enumName, variant, tag, payload, sigKind.Result, span)
	}
	if !cand.IsBuiltin {
		if structTy, ok := c.typeNames[callee.Name]; ok {
			if c.tc.Get(structTy).Kind == types.KStruct {
				return hir.NewStructConstruct(callee.Name, args, structTy, span)
			}
		}
	}
	if cand.IsBuiltin {
		return hir.NewCall(hir.FuncRef{Kind: hir.FuncBuiltin, Name: cand.BuiltinOp}, args, callee.TypeArgs, sigKind.Result, span)
	}
	if cand.TraitName != "" {
		selfTy := types.InvalidTypeId
		if len(args) > 0 {
			selfTy = args[0].Type()
		}
		return hir.NewCall(hir.FuncRef{Kind: hir.FuncTraitMethod, Trait: cand.TraitName, Method: cand.Method, SelfType: selfTy}, args, callee.TypeArgs, sigKind.Result, span)
	}
	return hir.NewCall(hir.FuncRef{Kind: hir.FuncUser, Name: cand.Mangled}, args, callee.TypeArgs, sigKind.Result, span)
}

// capturedArgs resolves cand's captured outer Var bindings against the
// environment live at this call site, in capture order, so they can be
// spliced in as the lifted function's leading arguments.
func (c *Checker) capturedArgs(cand *FuncInfo, span source.Span) []hir.Node {
	if len(cand.Captures) == 0 {
		return nil
	}
	out := make([]hir.Node, len(cand.Captures))
	for i, name := range cand.Captures {
		b, ok := c.env.LookupVar(name)
		if !ok {
			c.errorf(span, diag.NamUndefined, "captured binding '%s' is no longer in scope", name)
			out[i] = hir.NewLiteral(hir.LitUnit, types.TUnit, span)
			continue
		}
		out[i] = hir.NewVar(name, true, b.Type, span)
	}
	return out
}

// pickOverload implements overload resolution: each
// candidate is tried, in isolation, against a cloned arena; exactly one
// applicable candidate must remain. Returns the winning FuncInfo and its
// freshly-instantiated (generic parameters replaced by new Vars) signature
// TypeId, already committed into the real arena.
func (c *Checker) pickOverload(callee entry, args []hir.Node, span source.Span) (*FuncInfo, types.TypeId) {
	if len(callee.Funcs) == 0 {
		c.errorf(span, diag.NamUndefined, "'%s' is not callable", callee.Name)
		return nil, types.InvalidTypeId
	}
	if len(callee.Funcs) == 1 {
		return callee.Funcs[0], c.freshSig(callee.Funcs[0])
	}

	type hit struct {
		info  *FuncInfo
		fresh types.TypeId
	}
	var hits []hit
	for _, cand := range callee.Funcs {
		fresh := c.freshSig(cand)
		trial := c.tc.Clone()
		sigKind := trial.Get(fresh)
		if len(sigKind.Params) != len(args)+len(cand.Captures) {
			continue
		}
		ok := true
		for i, a := range args {
			if err := trial.Unify(a.Type(), sigKind.Params[len(cand.Captures)+i]); err != nil {
				ok = false
				break
			}
		}
		if ok {
			hits = append(hits, hit{cand, fresh})
		}
	}
	if len(hits) == 1 {
		return hits[0].info, hits[0].fresh
	}
	if len(hits) == 0 {
		c.errorf(span, diag.NamNoOverload, "no matching overload for '%s'", callee.Name)
		return nil, types.InvalidTypeId
	}
	c.errorf(span, diag.NamAmbiguous, "ambiguous overload for '%s'", callee.Name)
	return hits[0].info, hits[0].fresh
}

// freshSig instantiates cand's signature with fresh type variables for its
// own generic parameters.
func (c *Checker) freshSig(cand *FuncInfo) types.TypeId {
	if len(cand.TypeParams) == 0 {
		return cand.Sig
	}
	subst := map[string]types.TypeId{}
	for _, tp := range cand.TypeParams {
		subst[tp] = c.tc.NewVar(tp)
	}
	return c.tc.Instantiate(cand.Sig, subst)
}
