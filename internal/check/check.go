package check

import (
	"fmt"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// Checker drives the two hoisting passes and the per-function body check,
// accumulating diagnostics into sink and building an
// hir.HirModule. Grounded on ailang's InferenceContext as the
// state-carrying driver, split across files the way ailang splits
// typechecker_literals.go / typechecker_functions.go / typechecker_patterns.go
// by concern.
type Checker struct {
	tc   *types.TypeCtx
	env  *Env
	sink *diag.Sink
	sm   *source.Map

	typeNames map[string]types.TypeId // struct/enum name -> its Named/Enum/Struct id
	enums     map[string]*types.TypeKind
	structs   map[string]*types.TypeKind
	impls     map[string]map[string]*FuncInfo // trait -> targetType -> method info

	strings *hir.StringTable
	insts   *hir.InstantiationTable

	entryName  string
	targetName string

	funcs []*hir.HirFunction

	// curEffect is the enclosing function's declared effect, enforced by
	// call reduction.
	curEffect types.Effect
	// curLocals accumulates the function currently being checked's locals
	// in allocation order (parameters pre-seeded by checkFnDef).
	curLocals *[]hir.Local
}

// NewChecker creates a Checker with the prelude seeded into the root
// environment.
func NewChecker(sm *source.Map, sink *diag.Sink) *Checker {
	tc := types.NewTypeCtx()
	env := NewEnv()
	SeedBuiltins(env, tc)
	return &Checker{
		tc:        tc,
		env:       env,
		sink:      sink,
		sm:        sm,
		typeNames: make(map[string]types.TypeId),
		impls:     make(map[string]map[string]*FuncInfo),
		strings:   hir.NewStringTable(),
		insts:     hir.NewInstantiationTable(),
	}
}

// Check runs the full pipeline over mod and returns the resulting
// HirModule along with its owning TypeCtx.
func Check(mod *ast.Module, sm *source.Map, sink *diag.Sink) (*hir.HirModule, *types.TypeCtx) {
	c := NewChecker(sm, sink)
	c.applyDirectives(mod)
	c.hoistTypes(mod.Body)
	c.hoistFuncs(mod.Body)
	c.checkBodies(mod.Body)

	return &hir.HirModule{
		Functions:  c.funcs,
		Strings:    c.strings,
		Insts:      c.insts,
		EntryFn:    c.entryName,
		TargetName: c.targetName,
	}, c.tc
}

// applyDirectives records #entry/#target; #extern declarations are turned
// into import-only HirFunctions immediately since they have no body to
// hoist alongside.
func (c *Checker) applyDirectives(mod *ast.Module) {
	for _, d := range mod.Directives {
		switch d.Kind {
		case ast.DirEntry:
			c.entryName = d.Name
		case ast.DirTarget:
			c.targetName = d.Target
		case ast.DirExtern:
			c.declareExtern(d)
		}
	}
}

func (c *Checker) declareExtern(d *ast.Directive) {
	gen := map[string]types.TypeId{}
	var params []types.TypeId
	for _, p := range d.ExternSig.Params {
		params = append(params, c.resolveTypeExpr(&ast.TypeExpr{Name: p}, gen))
	}
	result := c.resolveTypeExpr(&ast.TypeExpr{Name: d.ExternSig.Result}, gen)
	eff := types.Pure
	if d.ExternSig.Impure {
		eff = types.Impure
	}
	sig := c.tc.NewFunction(params, result, eff)
	c.env.DeclareFunc(d.ExternLocal, &FuncInfo{
		Mangled: d.ExternLocal, Sig: sig, Effect: eff,
	})
	c.funcs = append(c.funcs, &hir.HirFunction{
		Name: d.ExternLocal, Mangled: d.ExternLocal,
		Params: params, Result: result, Effect: eff,
		ImportMod: d.ExternModule, ImportSym: d.ExternSymbol,
	})
}

// hoistTypes is hoisting pass 1: register struct/enum names
// so bodies and signatures elsewhere can reference them, and register enum
// variants as both short-name and qualified-name global constructors.
func (c *Checker) hoistTypes(blk *ast.Block) {
	for _, stmt := range blk.Stmts {
		switch s := stmt.(type) {
		case *ast.StructDef:
			c.hoistStruct(s)
		case *ast.EnumDef:
			c.hoistEnum(s)
		}
	}
}

func (c *Checker) hoistStruct(s *ast.StructDef) {
	gen := map[string]types.TypeId{}
	for _, tp := range s.TypeParams {
		gen[tp.Name] = c.tc.NewVar(tp.Name)
	}
	var fields []types.Field
	for _, f := range s.Fields {
		fields = append(fields, types.Field{Name: f.Name, Type: c.resolveTypeExpr(f.Type, gen)})
	}
	var tpNames []string
	for _, tp := range s.TypeParams {
		tpNames = append(tpNames, tp.Name)
	}
	id := c.tc.NewStruct(s.Name, tpNames, fields)
	c.typeNames[s.Name] = id

	// constructor `name(field1, field2, ...) -> Struct`
	var params []types.TypeId
	for _, f := range fields {
		params = append(params, f.Type)
	}
	c.env.DeclareFunc(s.Name, &FuncInfo{
		Mangled: s.Name, Sig: c.tc.NewFunction(params, id, types.Pure),
		TypeParams: tpNames, Effect: types.Pure,
	})
}

func (c *Checker) hoistEnum(e *ast.EnumDef) {
	gen := map[string]types.TypeId{}
	for _, tp := range e.TypeParams {
		gen[tp.Name] = c.tc.NewVar(tp.Name)
	}
	var variants []types.Variant
	for _, v := range e.Variants {
		payload := types.InvalidTypeId
		if v.Payload != nil {
			payload = c.resolveTypeExpr(v.Payload, gen)
		}
		variants = append(variants, types.Variant{Name: v.Name, Payload: payload})
	}
	var tpNames []string
	for _, tp := range e.TypeParams {
		tpNames = append(tpNames, tp.Name)
	}
	id := c.tc.NewEnum(e.Name, tpNames, variants)
	c.typeNames[e.Name] = id

	for i, v := range variants {
		var params []types.TypeId
		if v.Payload != types.InvalidTypeId {
			params = []types.TypeId{v.Payload}
		}
		info := &FuncInfo{
			Mangled: mangleVariant(e.Name, v.Name), Sig: c.tc.NewFunction(params, id, types.Pure),
			TypeParams: tpNames, Effect: types.Pure, BuiltinOp: "enum_construct:" + e.Name + ":" + v.Name,
			IsBuiltin: true,
		}
		_ = i
		c.env.DeclareFunc(v.Name, info)
		c.env.DeclareFunc(mangleVariant(e.Name, v.Name), info)
	}
}

// hoistFuncs is hoisting pass 2: register function/constructor signatures
// (already done for struct/enum constructors above), plus top-level
// fn/alias/trait/impl declarations.
func (c *Checker) hoistFuncs(blk *ast.Block) {
	for _, stmt := range blk.Stmts {
		switch s := stmt.(type) {
		case *ast.FnDef:
			c.hoistFnDef(s, "")
		case *ast.FnAlias:
			if funcs, ok := c.env.LookupFuncs(s.Target); ok {
				for _, fi := range funcs {
					c.env.DeclareFunc(s.Name, fi)
				}
			} else {
				c.errorf(s.SpanVal, diag.NamUndefined, "alias target '%s' is undefined", s.Target)
			}
		case *ast.TraitDef:
			c.hoistTrait(s)
		case *ast.ImplDef:
			c.hoistImpl(s)
		}
	}
}

func (c *Checker) hoistFnDef(f *ast.FnDef, manglePrefix string) *FuncInfo {
	gen := map[string]types.TypeId{}
	for _, tp := range f.TypeParams {
		gen[tp.Name] = c.tc.NewVar(tp.Name)
	}
	var tpNames []string
	for _, tp := range f.TypeParams {
		tpNames = append(tpNames, tp.Name)
	}

	var sig types.TypeId
	if f.Sig != nil {
		sig = c.resolveFuncSig(f.Sig, gen)
	} else {
		// No declared signature: every parameter and the result get fresh
		// vars, unified against usage during body checking.
		params := make([]types.TypeId, len(f.Params))
		for i := range f.Params {
			params[i] = c.tc.NewVar("")
		}
		sig = c.tc.NewFunction(params, c.tc.NewVar(""), types.Pure)
	}

	mangled := f.Name
	if manglePrefix != "" {
		mangled = manglePrefix
	}
	info := &FuncInfo{Mangled: mangled, Sig: sig, TypeParams: tpNames, Effect: c.tc.Get(sig).Effect}
	c.env.DeclareFunc(f.Name, info)
	if f.Name == c.entryName {
		info.Effect = types.Impure
	}
	return info
}

func (c *Checker) hoistTrait(t *ast.TraitDef) {
	if _, ok := c.impls[t.Name]; !ok {
		c.impls[t.Name] = map[string]*FuncInfo{}
	}
}

func (c *Checker) hoistImpl(impl *ast.ImplDef) {
	targetName := impl.ForType.Name
	if _, ok := c.impls[impl.Trait]; !ok {
		c.impls[impl.Trait] = map[string]*FuncInfo{}
	}
	for _, m := range impl.Methods {
		mangled := mangleImpl(impl.Trait, m.Name, targetName)
		info := c.hoistFnDef(m, mangled)
		info.TraitName = impl.Trait
		info.Method = m.Name
		c.impls[impl.Trait][targetName] = info
	}
}

// checkBodies is the third pass: bodies are only checked once hoisting has
// registered every name a body might reference.
func (c *Checker) checkBodies(blk *ast.Block) {
	for _, stmt := range blk.Stmts {
		switch s := stmt.(type) {
		case *ast.FnDef:
			c.checkFnDef(s, "")
		case *ast.ImplDef:
			targetName := s.ForType.Name
			for _, m := range s.Methods {
				c.checkFnDef(m, mangleImpl(s.Trait, m.Name, targetName))
			}
		}
	}
}

func (c *Checker) checkFnDef(f *ast.FnDef, manglePrefix string) {
	mangled := f.Name
	if manglePrefix != "" {
		mangled = manglePrefix
	}
	funcs, _ := c.env.LookupFuncs(f.Name)
	var info *FuncInfo
	for _, fi := range funcs {
		if fi.Mangled == mangled {
			info = fi
			break
		}
	}
	if info == nil {
		info = c.hoistFnDef(f, manglePrefix)
	}

	sigKind := c.tc.Get(info.Sig)
	hf := &hir.HirFunction{
		Name: f.Name, Mangled: mangled, Params: sigKind.Params, Result: sigKind.Result,
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
	for i, p := range f.Params {
		var ty types.TypeId
		if i < len(sigKind.Params) {
			ty = sigKind.Params[i]
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

func (c *Checker) errorf(span source.Span, code, format string, args ...any) {
	c.sink.Add(diag.New(diag.Error, code, "check", span, fmt.Sprintf(format, args...)))
}

func (c *Checker) warnf(span source.Span, code, format string, args ...any) {
	c.sink.Add(diag.New(diag.Warning, code, "check", span, fmt.Sprintf(format, args...)))
}
