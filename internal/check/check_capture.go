package check

import (
	"sort"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// captureVar is one outer Var binding a nested function's body refers to,
// paired with the type it was found at in the enclosing scope.
type captureVar struct {
	Name string
	Type types.TypeId
}

// collectRefNames walks pe, recording every identifier name a SymbolItem
// (or bare identifier-list GroupItem) refers to. It does not descend into
// nested *ast.FnDef statements: those get their own, independent capture
// scan when the checker reaches them.
func collectRefNames(pe *ast.PrefixExpr, out map[string]bool) {
	if pe == nil {
		return
	}
	for _, it := range pe.Items {
		collectRefNamesItem(it, out)
	}
}

func collectRefNamesItem(it ast.PrefixItem, out map[string]bool) {
	switch v := it.(type) {
	case *ast.SymbolItem:
		out[v.Name] = true
	case *ast.BlockItem:
		collectRefNamesBlock(v.Block, out)
	case *ast.MatchItem:
		for _, arm := range v.Arms {
			collectRefNames(arm.Body, out)
		}
	case *ast.TupleItem:
		for _, e := range v.Items {
			collectRefNames(e, out)
		}
	case *ast.GroupItem:
		if v.Inner != nil {
			collectRefNames(v.Inner, out)
		} else {
			for _, name := range v.IdentList {
				out[name] = true
			}
		}
	case *ast.ExprItem:
		collectRefNames(v.Expr, out)
	case *ast.IntrinsicItem:
		for _, a := range v.Args {
			collectRefNames(a, out)
		}
	}
}

func collectRefNamesBlock(blk *ast.Block, out map[string]bool) {
	if blk == nil {
		return
	}
	for _, stmt := range blk.Stmts {
		if es, ok := stmt.(*ast.ExprStmt); ok {
			collectRefNames(es.Expr, out)
		}
	}
}

// collectBoundNames records every name a PrefixExpr introduces itself:
// `let` targets and match-arm payload bindings. These shadow an
// identically-named outer binding, so a reference to them is not a capture.
func collectBoundNames(pe *ast.PrefixExpr, out map[string]bool) {
	if pe == nil {
		return
	}
	for _, it := range pe.Items {
		switch v := it.(type) {
		case *ast.MarkerItem:
			if v.Kind == ast.MarkerLet {
				out[v.Name] = true
			}
		case *ast.BlockItem:
			collectBoundNamesBlock(v.Block, out)
		case *ast.MatchItem:
			for _, arm := range v.Arms {
				if arm.Binding != "" {
					out[arm.Binding] = true
				}
				collectBoundNames(arm.Body, out)
			}
		}
	}
}

func collectBoundNamesBlock(blk *ast.Block, out map[string]bool) {
	if blk == nil {
		return
	}
	for _, stmt := range blk.Stmts {
		switch s := stmt.(type) {
		case *ast.ExprStmt:
			collectBoundNames(s.Expr, out)
		case *ast.FnDef:
			out[s.Name] = true
		}
	}
}

// freeNamesInFnDef returns, in sorted order, every name f's body refers to
// that isn't one of f's own parameters, a name f's body binds itself
// (`let`/match-arm bindings, sibling nested fn names), or f's own name.
func freeNamesInFnDef(f *ast.FnDef) []string {
	bound := map[string]bool{}
	for _, p := range f.Params {
		bound[p.Name] = true
	}
	collectBoundNames(f.Body, bound)

	refs := map[string]bool{}
	collectRefNames(f.Body, refs)

	var names []string
	for name := range refs {
		if bound[name] || name == f.Name {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// computeCaptures resolves f's free names against the live environment at
// the point f is declared: a free name that resolves to a Var binding is
// captured, in sorted name order.
func (c *Checker) computeCaptures(f *ast.FnDef) []captureVar {
	var caps []captureVar
	for _, name := range freeNamesInFnDef(f) {
		if b, ok := c.env.LookupVar(name); ok {
			caps = append(caps, captureVar{Name: name, Type: b.Type})
		}
	}
	return caps
}

// checkNestedFnDef checks a function defined inside another function's
// body (including a lambda-lift's synthesized fn): its captured outer Var
// bindings are computed by an AST scan and prepended as leading
// parameters, both on the lifted function's own signature and at every
// call site (see capturedArgs in check_call.go).
func (c *Checker) checkNestedFnDef(f *ast.FnDef) {
	caps := c.computeCaptures(f)

	gen := map[string]types.TypeId{}
	for _, tp := range f.TypeParams {
		gen[tp.Name] = c.tc.NewVar(tp.Name)
	}
	var tpNames []string
	for _, tp := range f.TypeParams {
		tpNames = append(tpNames, tp.Name)
	}

	capTypes := make([]types.TypeId, len(caps))
	for i, cv := range caps {
		capTypes[i] = cv.Type
	}

	var sig types.TypeId
	if f.Sig != nil {
		declSig := c.resolveFuncSig(f.Sig, gen)
		sk := c.tc.Get(declSig)
		sig = c.tc.NewFunction(append(append([]types.TypeId{}, capTypes...), sk.Params...), sk.Result, sk.Effect)
	} else {
		params := make([]types.TypeId, len(f.Params))
		for i := range f.Params {
			params[i] = c.tc.NewVar("")
		}
		sig = c.tc.NewFunction(append(append([]types.TypeId{}, capTypes...), params...), c.tc.NewVar(""), types.Pure)
	}

	captureNames := make([]string, len(caps))
	for i, cv := range caps {
		captureNames[i] = cv.Name
	}
	info := &FuncInfo{Mangled: f.Name, Sig: sig, TypeParams: tpNames, Effect: c.tc.Get(sig).Effect, Captures: captureNames}
	c.env.DeclareFunc(f.Name, info)
	if f.Name == c.entryName {
		info.Effect = types.Impure
	}

	sigKind := c.tc.Get(sig)
	hf := &hir.HirFunction{
		Name: f.Name, Mangled: f.Name, Params: sigKind.Params, Result: sigKind.Result,
		Effect: sigKind.Effect, IsEntry: f.Name == c.entryName,
	}

	if len(f.RawWasm) > 0 {
		hf.RawWasm = f.RawWasm
		c.funcs = append(c.funcs, hf)
		return
	}

	c.env.Push()
	defer c.env.Pop()

	var locals []hir.Local
	for i, cv := range caps {
		c.env.DeclareVar(cv.Name, sigKind.Params[i], false)
		locals = append(locals, hir.Local{Name: cv.Name, Type: sigKind.Params[i], IsParam: true})
	}
	for i, p := range f.Params {
		idx := len(caps) + i
		var ty types.TypeId
		if idx < len(sigKind.Params) {
			ty = sigKind.Params[idx]
		} else {
			ty = c.tc.NewVar("")
		}
		c.env.DeclareVar(p.Name, ty, false)
		locals = append(locals, hir.Local{Name: p.Name, Type: ty, IsParam: true})
	}

	prevEffect := c.curEffect
	prevLocals := c.curLocals
	c.curEffect = sigKind.Effect
	if f.Name == c.entryName {
		c.curEffect = types.Impure
	}
	c.curLocals = &locals
	defer func() { c.curEffect = prevEffect; c.curLocals = prevLocals }()

	if f.Body != nil {
		bodyNode := c.checkExpr(f.Body)
		if bodyNode != nil {
			if err := c.tc.Unify(bodyNode.Type(), sigKind.Result); err != nil {
				c.errorf(f.SpanVal, diag.TypReturn, "function '%s' body type %s does not match declared result %s",
					f.Name, c.tc.String(bodyNode.Type()), c.tc.String(sigKind.Result))
			}
			hf.Body = bodyNode
		}
	}
	hf.Locals = locals
	c.funcs = append(c.funcs, hf)
}
