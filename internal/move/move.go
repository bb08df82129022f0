// Package move implements the move/borrow checker that runs on HIR after
// type checking. Grounded structurally on ailang's
// effects/row-based checker pattern (internal/types: a small per-node
// recursive walk threading an environment of states) but the state lattice
// itself (Valid/Moved/PossiblyMoved, joined across if/match/while) has no
// ailang analogue and is built directly from the move-check rules.
package move

import (
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// VarState is one variable's ownership state at a program point.
type VarState int

const (
	Valid VarState = iota
	Moved
	PossiblyMoved
)

// scope is one level of the variable-state stack; a fresh scope is pushed
// for each block/if-branch/match-arm/while-body so bindings introduced
// there are dropped with it. Joins compare flattened snapshots of every
// visible variable, not only those of one level.
type scope struct {
	parent *scope
	states map[string]VarState
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, states: make(map[string]VarState)}
}

func (s *scope) get(name string) (VarState, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if st, ok := sc.states[name]; ok {
			return st, true
		}
	}
	return Valid, false
}

func (s *scope) set(name string, st VarState) {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.states[name]; ok {
			sc.states[name] = st
			return
		}
	}
	s.states[name] = st
}

// Checker walks an HirModule's function bodies checking ownership
// discipline; it needs the owning TypeCtx only to decide Copy-ness of a
// read value's type.
type Checker struct {
	tc   *types.TypeCtx
	sink *diag.Sink
	cur  *scope
}

func NewChecker(tc *types.TypeCtx, sink *diag.Sink) *Checker {
	return &Checker{tc: tc, sink: sink}
}

// reservedNames are layout keywords never treated as ordinary variables.
var reservedNames = map[string]bool{"if": true, "while": true, "let": true, "set": true}

// Check runs the move checker over every function with a typed body.
func Check(mod *hir.HirModule, tc *types.TypeCtx, sink *diag.Sink) {
	c := NewChecker(tc, sink)
	for _, fn := range mod.Functions {
		if fn.Body == nil {
			continue
		}
		c.cur = newScope(nil)
		for _, loc := range fn.Locals {
			if loc.IsParam {
				c.cur.set(loc.Name, Valid)
			}
		}
		c.walk(fn.Body)
	}
}

// walk visits node and returns the post-state delta is applied in place on
// c.cur; it returns nothing because HIR carries no separate "read" node:
// state transitions happen as a side effect of visiting Var/Let/Set/AddrOf
// nodes wherever they occur in the tree.
func (c *Checker) walk(n hir.Node) {
	switch v := n.(type) {
	case nil:
		return
	case *hir.LiteralNode:
		return
	case *hir.VarNode:
		c.readVar(v)
	case *hir.CallNode:
		for _, a := range v.Args {
			c.walk(a)
		}
	case *hir.IfNode:
		c.walk(v.Cond)
		before := c.snapshot()
		c.cur = newScope(c.cur)
		c.walk(v.Then)
		thenSnap := c.snapshot()
		c.cur = c.cur.parent
		for name, st := range before {
			c.cur.set(name, st)
		}
		c.cur = newScope(c.cur)
		c.walk(v.Else)
		elseSnap := c.snapshot()
		c.cur = c.cur.parent
		c.joinInto(before, thenSnap, elseSnap)
	case *hir.WhileNode:
		c.walk(v.Cond)
		saved := c.snapshot()
		c.cur = newScope(c.cur)
		c.walk(v.Body)
		after := c.snapshot()
		c.cur = c.cur.parent
		for name, st := range after {
			prev := saved[name]
			if prev == Valid && st != Valid {
				c.sink.Add(diag.New(diag.Warning, diag.MovPossiblyMoved, "move", v.Span(),
					"'"+name+"' may be moved by a loop body that runs zero or more times"))
				c.cur.set(name, PossiblyMoved)
			}
		}
	case *hir.BlockNode:
		c.cur = newScope(c.cur)
		for _, line := range v.Lines {
			c.walk(line)
		}
		c.cur = c.cur.parent
	case *hir.MatchNode:
		c.walk(v.Scrut)
		before := c.snapshot()
		var armSnaps []map[string]VarState
		for _, arm := range v.Arms {
			for name, st := range before {
				c.cur.set(name, st)
			}
			c.cur = newScope(c.cur)
			if arm.Binding != "" {
				c.cur.set(arm.Binding, Valid)
			}
			c.walk(arm.Body)
			armSnaps = append(armSnaps, c.snapshot())
			c.cur = c.cur.parent
		}
		c.joinAll(before, armSnaps)
	case *hir.LetNode:
		c.walk(v.Value)
		c.cur.set(v.Name, Valid)
	case *hir.SetNode:
		c.walk(v.Value)
		c.cur.set(v.Name, Valid)
	case *hir.DropNode:
		c.walk(v.Value)
	case *hir.AddrOfNode:
		if vn, ok := v.Value.(*hir.VarNode); ok && vn.IsLocal {
			if st, ok := c.cur.get(vn.Name); ok && st != Valid {
				c.sink.Add(diag.New(diag.Error, diag.MovBorrowOfMoved, "move", v.Span(),
					"cannot borrow '"+vn.Name+"': value has been moved"))
			}
			return
		}
		c.walk(v.Value)
	case *hir.DerefNode:
		c.walk(v.Value)
	case *hir.EnumConstructNode:
		c.walk(v.Payload)
	case *hir.StructConstructNode:
		for _, f := range v.Fields {
			c.walk(f)
		}
	case *hir.TupleConstructNode:
		for _, it := range v.Items {
			c.walk(it)
		}
	case *hir.IntrinsicNode:
		for _, a := range v.Args {
			c.walk(a)
		}
	}
}

func (c *Checker) readVar(v *hir.VarNode) {
	if !v.IsLocal || reservedNames[v.Name] {
		return
	}
	st, ok := c.cur.get(v.Name)
	if !ok {
		return // globals/functions are never tracked
	}
	switch st {
	case Moved:
		c.sink.Add(diag.New(diag.Error, diag.MovUseOfMoved, "move", v.Span(),
			"use of moved value '"+v.Name+"'"))
		return
	case PossiblyMoved:
		c.sink.Add(diag.New(diag.Error, diag.MovUseOfMoved, "move", v.Span(),
			"use of possibly-moved value '"+v.Name+"'"))
		return
	}
	if !c.tc.IsCopy(v.Type()) {
		c.cur.set(v.Name, Moved)
	}
}

func (c *Checker) snapshot() map[string]VarState {
	out := map[string]VarState{}
	for sc := c.cur; sc != nil; sc = sc.parent {
		for k, v := range sc.states {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out
}

func (c *Checker) joinInto(before, a, b map[string]VarState) {
	for name, av := range a {
		bv, ok := b[name]
		if !ok {
			bv = before[name]
		}
		if av == bv {
			c.cur.set(name, av)
		} else {
			c.cur.set(name, PossiblyMoved)
		}
	}
}

func (c *Checker) joinAll(before map[string]VarState, snaps []map[string]VarState) {
	if len(snaps) == 0 {
		return
	}
	names := map[string]bool{}
	for _, s := range snaps {
		for n := range s {
			names[n] = true
		}
	}
	for name := range names {
		first, ok := snaps[0][name]
		if !ok {
			first = before[name]
		}
		allSame := true
		for _, s := range snaps[1:] {
			v, ok := s[name]
			if !ok {
				v = before[name]
			}
			if v != first {
				allSame = false
				break
			}
		}
		if allSame {
			c.cur.set(name, first)
		} else {
			c.cur.set(name, PossiblyMoved)
		}
	}
}
