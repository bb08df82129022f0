package wasmgen

import (
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// Generator lowers one checked HirModule into a wasm binary. It holds no
// mutable emission state beyond what a single Generate call needs, so a
// Generator is safe to build once and reuse across modules sharing a
// TypeCtx (tests do this).
type Generator struct {
	mod  *hir.HirModule
	tc   *types.TypeCtx
	sink *diag.Sink

	lay     memLayout
	allocFn *hir.HirFunction

	sigs   []funcSig
	sigIdx map[string]int // funcSig.key() -> index into sigs
	allSigs []funcSigIndex // parallel to imports++locals, in that order

	funcIndex map[string]int // mangled name -> function-index-space index (imports first)
	imports   []*hir.HirFunction
	locals    []*hir.HirFunction // non-import functions, in function-index order after imports
}

type funcSig struct {
	params []byte
	result []byte
}

func (s funcSig) key() string {
	return string(s.params) + "|" + string(s.result)
}

// Generate assembles mod into a complete wasm binary module. Errors are
// reported to sink (GenUnlowerableSig/GenUnsupportedTy/GenNoAlloc/
// GenBadWasmInstr); Generate still returns whatever bytes it managed to
// build so callers can decide whether sink.HasErrors() should block
// writing the output.
func Generate(mod *hir.HirModule, tc *types.TypeCtx, sink *diag.Sink) []byte {
	g := &Generator{
		mod:       mod,
		tc:        tc,
		sink:      sink,
		sigIdx:    map[string]int{},
		funcIndex: map[string]int{},
	}
	g.lay = buildMemLayout(mod.Strings.Entries())
	g.resolveAlloc()
	g.partitionFunctions()
	g.assignSigs()

	var out buffer
	out.raw([]byte{0x00, 0x61, 0x73, 0x6d}) // magic "\0asm"
	out.raw([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	out.raw(g.typeSection())
	out.raw(g.importSection())
	out.raw(g.functionSection())
	out.raw(g.memorySection())
	out.raw(g.exportSection())
	out.raw(g.codeSection())
	out.raw(g.dataSection())
	return out.bytes()
}

// resolveAlloc finds the allocator function by name convention: a
// function literally named "alloc", or the sole function whose name has
// an "alloc__" prefix (a monomorphized generic allocator). Its absence is
// only an error if some function actually needs it (checked lazily at the
// call site, per "alloc resolution").
func (g *Generator) resolveAlloc() {
	var candidates []*hir.HirFunction
	for _, fn := range g.mod.Functions {
		if fn.Name == "alloc" {
			g.allocFn = fn
			return
		}
		if len(fn.Name) >= 7 && fn.Name[:7] == "alloc__" {
			candidates = append(candidates, fn)
		}
	}
	if len(candidates) == 1 {
		g.allocFn = candidates[0]
	}
}

func (g *Generator) partitionFunctions() {
	idx := 0
	for _, fn := range g.mod.Functions {
		if fn.ImportMod != "" {
			g.imports = append(g.imports, fn)
			g.funcIndex[fn.Mangled] = idx
			idx++
		}
	}
	for _, fn := range g.mod.Functions {
		if fn.ImportMod == "" {
			g.locals = append(g.locals, fn)
			g.funcIndex[fn.Mangled] = idx
			idx++
		}
	}
}

func (g *Generator) sigFor(fn *hir.HirFunction) (int, bool) {
	params, ok := g.lowerParams(fn.Params)
	if !ok {
		g.sink.Add(diag.New(diag.Error, diag.GenUnlowerableSig, "codegen", source.Span{},
			"function '"+fn.Name+"' has a parameter type with no wasm representation"))
		return 0, false
	}
	result, ok := g.lowerResult(fn.Result)
	if !ok {
		g.sink.Add(diag.New(diag.Error, diag.GenUnlowerableSig, "codegen", source.Span{},
			"function '"+fn.Name+"' has a result type with no wasm representation"))
		return 0, false
	}
	return g.internSig(funcSig{params: params, result: result}), true
}

func (g *Generator) internSig(s funcSig) int {
	k := s.key()
	if i, ok := g.sigIdx[k]; ok {
		return i
	}
	i := len(g.sigs)
	g.sigs = append(g.sigs, s)
	g.sigIdx[k] = i
	return i
}

// funcSigIndex maps each function (import or local) to its type-section
// index, in the same order partitionFunctions assigned function indices.
type funcSigIndex struct {
	fn  *hir.HirFunction
	sig int
}

func (g *Generator) assignSigs() {
	g.allSigs = nil
	for _, fn := range g.imports {
		sig, ok := g.sigFor(fn)
		if !ok {
			sig = g.internSig(funcSig{})
		}
		g.allSigs = append(g.allSigs, funcSigIndex{fn, sig})
	}
	for _, fn := range g.locals {
		sig, ok := g.sigFor(fn)
		if !ok {
			sig = g.internSig(funcSig{})
		}
		g.allSigs = append(g.allSigs, funcSigIndex{fn, sig})
	}
}

func (g *Generator) typeSection() []byte {
	var body buffer
	body.vec(len(g.sigs), func(i int) {
		s := g.sigs[i]
		body.u8(funcTypeTag)
		body.vec(len(s.params), func(j int) { body.u8(s.params[j]) })
		body.vec(len(s.result), func(j int) { body.u8(s.result[j]) })
	})
	return section(secType, body.bytes())
}

func (g *Generator) importSection() []byte {
	var body buffer
	body.vec(len(g.imports), func(i int) {
		fn := g.imports[i]
		body.name(fn.ImportMod)
		body.name(fn.ImportSym)
		body.u8(0x00) // import kind: function
		body.uleb(uint64(g.allSigs[i].sig))
	})
	return section(secImport, body.bytes())
}

func (g *Generator) functionSection() []byte {
	var body buffer
	body.vec(len(g.locals), func(i int) {
		body.uleb(uint64(g.allSigs[len(g.imports)+i].sig))
	})
	return section(secFunction, body.bytes())
}

func (g *Generator) memorySection() []byte {
	var body buffer
	pages := memoryPages(uint32(len(g.lay.data)))
	body.vec(1, func(i int) {
		body.u8(0x00) // limits: min only
		body.uleb(uint64(pages))
	})
	return section(secMemory, body.bytes())
}

func (g *Generator) exportSection() []byte {
	type exp struct {
		name string
		idx  int
	}
	var exps []exp
	for _, fn := range g.locals {
		idx := g.funcIndex[fn.Mangled]
		if fn.IsEntry {
			exps = append(exps, exp{"main", idx})
			exps = append(exps, exp{"_start", idx})
			if fn.Name != "main" && fn.Name != "_start" {
				exps = append(exps, exp{fn.Name, idx})
			}
		}
	}
	var body buffer
	body.vec(1+len(exps), func(i int) {
		if i == 0 {
			body.name("memory")
			body.u8(0x02) // export kind: memory
			body.uleb(0)
			return
		}
		e := exps[i-1]
		body.name(e.name)
		body.u8(0x00) // export kind: function
		body.uleb(uint64(e.idx))
	})
	return section(secExport, body.bytes())
}

func (g *Generator) dataSection() []byte {
	var body buffer
	body.vec(1, func(i int) {
		body.uleb(0) // memory index 0
		body.u8(opI32Const)
		body.sleb(0)
		body.u8(opEnd)
		body.uleb(uint64(len(g.lay.data)))
		body.raw(g.lay.data)
	})
	return section(secData, body.bytes())
}

func (g *Generator) codeSection() []byte {
	var body buffer
	body.vec(len(g.locals), func(i int) {
		fn := g.locals[i]
		entryBody := g.lowerFunctionBody(fn)
		var fbuf buffer
		fbuf.raw(entryBody)
		body.uleb(uint64(len(fbuf.bytes())))
		body.raw(fbuf.bytes())
	})
	return section(secCode, body.bytes())
}
