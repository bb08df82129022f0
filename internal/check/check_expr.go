package check

import (
	"strconv"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// special tags a callable stack entry that isn't an ordinary overload-set
// call: if/while/let/set/addrof/deref reduce to their own HIR node shapes
// instead of a CallNode.
type special int

const (
	specNone special = iota
	specIf
	specWhile
	specLet
	specSet
	specAddrOf
	specDeref
)

// entry is one juggler-stack slot: either a completed value (Node set,
// Callable false) or a not-yet-applied callable awaiting arguments.
type entry struct {
	Node     hir.Node
	Callable bool
	Special  special
	Name     string // let/set binding name, or the callable's source name
	Mut      bool   // addrof mutability
	Funcs    []*FuncInfo
	TypeArgs []types.TypeId
	Span     source.Span
}

func (e entry) Type() types.TypeId {
	if e.Node != nil {
		return e.Node.Type()
	}
	return types.InvalidTypeId
}

// stackState threads the mutable juggler-stack processing state through one
// PrefixExpr's item list.
type stackState struct {
	stack         []entry
	pendingAnnot  *ast.TypeExpr
	pendingPipe   *entry
	dropOnFinish  bool
}

// checkExpr checks one PrefixExpr to a single HIR node: the juggler-stack
// value left after every item has been processed and reduced as far as
// possible.
func (c *Checker) checkExpr(pe *ast.PrefixExpr) hir.Node {
	st := &stackState{}
	for _, item := range pe.Items {
		c.pushItem(st, item)
		c.reduce(st, pe.Span())
	}
	c.reduce(st, pe.Span())

	if len(st.stack) == 0 {
		return hir.NewLiteral(hir.LitUnit, types.TUnit, pe.Span())
	}
	if len(st.stack) > 1 {
		c.errorf(pe.Span(), diag.TypReturn, "expression leaves %d values on the stack", len(st.stack))
	}
	top := st.stack[len(st.stack)-1]
	if top.Callable {
		c.errorf(pe.Span(), diag.NamNoOverload, "'%s' is missing its call arguments", top.Name)
		return hir.NewLiteral(hir.LitUnit, types.TUnit, pe.Span())
	}
	return top.Node
}

// pushItem converts one PrefixItem into zero or more stack pushes.
func (c *Checker) pushItem(st *stackState, item ast.PrefixItem) {
	switch it := item.(type) {
	case *ast.LitItem:
		st.stack = append(st.stack, entry{Node: c.checkLit(it), Span: it.Span()})

	case *ast.SymbolItem:
		c.pushSymbol(st, it)

	case *ast.TypeAnnotationItem:
		st.pendingAnnot = it.Type

	case *ast.PipeItem:
		if len(st.stack) > 0 && !st.stack[len(st.stack)-1].Callable {
			v := st.stack[len(st.stack)-1]
			st.stack = st.stack[:len(st.stack)-1]
			st.pendingPipe = &v
		}

	case *ast.BlockItem:
		node := c.checkBlock(it.Block)
		st.stack = append(st.stack, entry{Node: node, Span: it.Span()})

	case *ast.ExprItem:
		node := c.checkExpr(it.Expr)
		st.stack = append(st.stack, entry{Node: node, Span: it.Span()})

	case *ast.TupleItem:
		var items []hir.Node
		var tys []types.TypeId
		for _, e := range it.Items {
			n := c.checkExpr(e)
			items = append(items, n)
			tys = append(tys, n.Type())
		}
		tupTy := c.tc.NewTuple(tys)
		st.stack = append(st.stack, entry{Node: hir.NewTupleConstruct(items, tupTy, it.Span()), Span: it.Span()})

	case *ast.GroupItem:
		if it.Inner != nil {
			node := c.checkExpr(it.Inner)
			st.stack = append(st.stack, entry{Node: node, Span: it.Span()})
		} else {
			for _, name := range it.IdentList {
				st.stack = append(st.stack, c.lookupSymbolEntry(name, it.Span(), nil))
			}
		}

	case *ast.MatchItem:
		c.pushMatch(st, it)

	case *ast.IntrinsicItem:
		st.stack = append(st.stack, entry{Node: c.checkIntrinsic(it), Span: it.Span()})

	case *ast.MarkerItem:
		c.pushMarker(st, it)
	}
}

func (c *Checker) checkLit(l *ast.LitItem) hir.Node {
	switch l.Kind {
	case ast.LitInt:
		n := hir.NewLiteral(hir.LitI32, types.TI32, l.SpanVal)
		v, _ := strconv.ParseInt(l.Text, 0, 64)
		n.I32 = int32(v)
		return n
	case ast.LitFloat:
		n := hir.NewLiteral(hir.LitF32, types.TF32, l.SpanVal)
		f, _ := strconv.ParseFloat(l.Text, 32)
		n.F32 = float32(f)
		return n
	case ast.LitBool:
		n := hir.NewLiteral(hir.LitBool, types.TBool, l.SpanVal)
		n.Bool = l.Text == "true"
		return n
	case ast.LitString:
		n := hir.NewLiteral(hir.LitStr, types.TStr, l.SpanVal)
		n.StrID = c.strings.Intern(l.Text)
		return n
	default:
		return hir.NewLiteral(hir.LitUnit, types.TUnit, l.SpanVal)
	}
}

func (c *Checker) lookupSymbolEntry(name string, span source.Span, typeArgs []*ast.TypeExpr) entry {
	if b, ok := c.env.LookupVar(name); ok {
		return entry{Node: hir.NewVar(name, true, b.Type, span), Span: span}
	}
	if funcs, ok := c.env.LookupFuncs(name); ok {
		var targs []types.TypeId
		gen := map[string]types.TypeId{}
		for _, ta := range typeArgs {
			targs = append(targs, c.resolveTypeExpr(ta, gen))
		}
		return entry{Callable: true, Name: name, Funcs: funcs, TypeArgs: targs, Span: span}
	}
	c.errorf(span, diag.NamUndefined, "undefined name '%s'", name)
	return entry{Node: hir.NewLiteral(hir.LitUnit, types.TUnit, span), Span: span}
}

func (c *Checker) pushSymbol(st *stackState, it *ast.SymbolItem) {
	e := c.lookupSymbolEntry(it.Name, it.SpanVal, it.TypeArgs)
	if it.ForceValue && e.Callable {
		// Forced to appear as a value (a higher-order argument reference)
		// rather than auto-calling: wrap the first candidate's signature as
		// a plain function-typed value.
		if len(e.Funcs) > 0 {
			e = entry{Node: hir.NewVar(it.Name, false, e.Funcs[0].Sig, it.SpanVal), Span: it.SpanVal}
		}
	}
	if st.pendingPipe != nil && e.Callable {
		// The piped value becomes this callable's first argument: splice it
		// in immediately after the callable entry.
		piped := *st.pendingPipe
		st.pendingPipe = nil
		st.stack = append(st.stack, e, piped)
		return
	}
	st.stack = append(st.stack, e)
}

func (c *Checker) pushMarker(st *stackState, m *ast.MarkerItem) {
	switch m.Kind {
	case ast.MarkerLet:
		st.stack = append(st.stack, entry{Callable: true, Special: specLet, Name: m.Name, Span: m.SpanVal})
	case ast.MarkerSet:
		st.stack = append(st.stack, entry{Callable: true, Special: specSet, Name: m.Name, Span: m.SpanVal})
	case ast.MarkerIf:
		st.stack = append(st.stack, entry{Callable: true, Special: specIf, Span: m.SpanVal})
	case ast.MarkerWhile:
		st.stack = append(st.stack, entry{Callable: true, Special: specWhile, Span: m.SpanVal})
	case ast.MarkerAddrOf:
		st.stack = append(st.stack, entry{Callable: true, Special: specAddrOf, Span: m.SpanVal})
	case ast.MarkerDeref:
		st.stack = append(st.stack, entry{Callable: true, Special: specDeref, Span: m.SpanVal})
	}
}

// arity returns how many trailing value arguments a callable entry needs.
func (c *Checker) arity(e entry) int {
	switch e.Special {
	case specIf:
		return 3
	case specWhile:
		return 2
	case specLet, specSet, specAddrOf, specDeref:
		return 1
	}
	if len(e.Funcs) == 0 {
		return 0
	}
	// Captured outer bindings are prepended as leading signature
	// parameters but are supplied at the call site by capturedArgs, not
	// by the caller's own stack values.
	return len(c.tc.Get(e.Funcs[0].Sig).Params) - len(e.Funcs[0].Captures)
}

// reduce repeatedly collapses the rightmost reducible (callable, fully
// argued) run at the top of the stack.
func (c *Checker) reduce(st *stackState, exprSpan source.Span) {
	for {
		if !c.reduceOnce(st, exprSpan) {
			return
		}
		c.applyPendingAnnotation(st)
	}
}

func (c *Checker) applyPendingAnnotation(st *stackState) {
	if st.pendingAnnot == nil || len(st.stack) == 0 {
		return
	}
	top := &st.stack[len(st.stack)-1]
	if top.Callable {
		return
	}
	gen := map[string]types.TypeId{}
	annotTy := c.resolveTypeExpr(st.pendingAnnot, gen)
	if err := c.tc.Unify(top.Node.Type(), annotTy); err != nil {
		c.errorf(top.Span, diag.TypMismatch, "type annotation mismatch: %v", err)
	}
	st.pendingAnnot = nil
}

// reduceOnce finds the last callable entry that now has enough trailing
// value arguments and collapses it into a single value entry, reporting
// whether a reduction happened.
func (c *Checker) reduceOnce(st *stackState, exprSpan source.Span) bool {
	for i := len(st.stack) - 1; i >= 0; i-- {
		if !st.stack[i].Callable {
			continue
		}
		need := c.arity(st.stack[i])
		have := len(st.stack) - i - 1
		if have < need {
			continue
		}
		if have > need {
			// Extra trailing values belong to a still-later callable closer
			// to the end of the stack; only the nearest preceding callable
			// with an exact match reduces at a time.
			continue
		}
		args := make([]hir.Node, need)
		for j := 0; j < need; j++ {
			args[j] = st.stack[i+1+j].Node
		}
		result := c.reduceEntry(st.stack[i], args, exprSpan)
		st.stack = append(st.stack[:i], entry{Node: result, Span: exprSpan})
		return true
	}
	return false
}

func (c *Checker) reduceEntry(callee entry, args []hir.Node, span source.Span) hir.Node {
	switch callee.Special {
	case specIf:
		if err := c.tc.Unify(args[0].Type(), types.TBool); err != nil {
			c.errorf(span, diag.TypMismatch, "if condition must be bool: %v", err)
		}
		if err := c.tc.Unify(args[1].Type(), args[2].Type()); err != nil {
			c.errorf(span, diag.TypMismatch, "if branches have different types: %v", err)
		}
		return hir.NewIf(args[0], args[1], args[2], args[1].Type(), span)
	case specWhile:
		if err := c.tc.Unify(args[0].Type(), types.TBool); err != nil {
			c.errorf(span, diag.TypMismatch, "while condition must be bool: %v", err)
		}
		if err := c.tc.Unify(args[1].Type(), types.TUnit); err != nil {
			c.errorf(span, diag.TypReturn, "while body must be unit: %v", err)
		}
		return hir.NewWhile(args[0], args[1], types.TUnit, span)
	case specLet:
		ty := args[0].Type()
		if IsImportantName(callee.Name) {
			c.warnf(span, diag.NamNoShadow, "'%s' shadows an important standard name", callee.Name)
		}
		c.env.DeclareVar(callee.Name, ty, false)
		if c.curLocals != nil {
			*c.curLocals = append(*c.curLocals, hir.Local{Name: callee.Name, Type: ty})
		}
		return hir.NewLet(callee.Name, args[0], span)
	case specSet:
		b, ok := c.env.LookupVar(callee.Name)
		if !ok {
			c.errorf(span, diag.NamUndefined, "'set' target '%s' is undefined", callee.Name)
			return hir.NewSet(callee.Name, args[0], span)
		}
		if err := c.tc.Unify(b.Type, args[0].Type()); err != nil {
			c.errorf(span, diag.TypMismatch, "assigned value does not match '%s': %v", callee.Name, err)
		}
		return hir.NewSet(callee.Name, args[0], span)
	case specAddrOf:
		refTy := c.tc.NewReference(args[0].Type(), false)
		return hir.NewAddrOf(args[0], false, refTy, span)
	case specDeref:
		inner := c.tc.NewVar("")
		refTy := c.tc.NewReference(inner, false)
		if err := c.tc.Unify(args[0].Type(), refTy); err != nil {
			c.errorf(span, diag.TypMismatch, "deref of non-reference: %v", err)
		}
		return hir.NewDeref(args[0], inner, span)
	default:
		return c.reduceCall(callee, args, span)
	}
}
