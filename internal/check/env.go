// Package check implements NEPL's type checker: the "juggler stack"
// expression algorithm, overload resolution, trait/impl dispatch, and
// monomorphization bookkeeping. Structurally it follows ailang's
// internal/types (InferenceContext driving a TypeEnv of nested scopes,
// Unifier calls threaded through every node case) but the environment
// model is NEPL's own overload-set shape rather than ailang's
// single-binding HM environment, since NEPL functions may be overloaded by
// arity/type and ailang's let-bound values may not.
package check

import (
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// BindingKind distinguishes a single value slot from an overload set.
type BindingKind int

const (
	BindVar BindingKind = iota
	BindFunc
)

// FuncInfo records everything overload resolution and trait dispatch need
// about one callable binding.
type FuncInfo struct {
	Mangled    string
	Sig        types.TypeId // KFunction
	TypeParams []string
	Effect     types.Effect
	Captures   []string // outer Var names prepended as leading parameters
	IsBuiltin  bool
	BuiltinOp  string
	TraitName  string // non-empty for `Trait::method` style dispatch targets
	Method     string
}

// Binding is one name's entry in a scope. Var bindings hold exactly one
// TypeId; Func bindings accumulate an overload set in Funcs.
type Binding struct {
	Name     string
	Kind     BindingKind
	Type     types.TypeId // meaningful for BindVar
	Funcs    []*FuncInfo  // meaningful for BindFunc
	Mutable  bool
	NoShadow bool
	Defined  bool
}

// Scope is one lexical level: module, function body, or a nested block.
type Scope struct {
	parent   *Scope
	bindings map[string]*Binding
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, bindings: make(map[string]*Binding)}
}

// Env is the scope stack, grounded on ailang's TypeEnv chain-of-frames
// shape (internal/types/env.go) but storing NEPL's richer Binding.
type Env struct {
	top *Scope
}

func NewEnv() *Env {
	return &Env{top: newScope(nil)}
}

func (e *Env) Push() {
	e.top = newScope(e.top)
}

func (e *Env) Pop() {
	if e.top.parent != nil {
		e.top = e.top.parent
	}
}

// LookupVar searches outward for a value binding named name.
func (e *Env) LookupVar(name string) (*Binding, bool) {
	for s := e.top; s != nil; s = s.parent {
		if b, ok := s.bindings[name]; ok && b.Kind == BindVar {
			return b, true
		}
	}
	return nil, false
}

// LookupFuncs collects the overload set for name, searching outward and
// stopping at the first scope that defines anything under that name (a
// function overload set is not merged across shadowing scopes, matching
// ailang's TypeEnv.Lookup shadow semantics).
func (e *Env) LookupFuncs(name string) ([]*FuncInfo, bool) {
	for s := e.top; s != nil; s = s.parent {
		if b, ok := s.bindings[name]; ok {
			if b.Kind == BindFunc {
				return b.Funcs, true
			}
			return nil, false
		}
	}
	return nil, false
}

// DeclareVar introduces a fresh Var binding in the current scope,
// shadowing any outer binding of the same name.
func (e *Env) DeclareVar(name string, ty types.TypeId, mutable bool) *Binding {
	b := &Binding{Name: name, Kind: BindVar, Type: ty, Mutable: mutable, Defined: true}
	e.top.bindings[name] = b
	return b
}

// DeclareFunc adds info to name's overload set in the current scope,
// creating the set on first use.
func (e *Env) DeclareFunc(name string, info *FuncInfo) {
	b, ok := e.top.bindings[name]
	if !ok || b.Kind != BindFunc {
		b = &Binding{Name: name, Kind: BindFunc, Defined: true}
		e.top.bindings[name] = b
	}
	b.Funcs = append(b.Funcs, info)
}

// important stdlib names whose shadowing by a `let` binding produces a warning rather than
// being silently accepted.
var importantNames = map[string]bool{
	"print": true, "println": true, "add": true, "sub": true,
	"mul": true, "div": true, "eq": true, "lt": true, "gt": true,
}

func IsImportantName(name string) bool { return importantNames[name] }
