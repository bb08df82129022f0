package wasmgen

import (
	"testing"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

func newBodyGenerator(tc *types.TypeCtx) *Generator {
	return &Generator{tc: tc, sink: diag.NewSink(), funcIndex: map[string]int{}}
}

func TestLowerFunctionBodyLiteralEmitsConstAndEnd(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newBodyGenerator(tc)
	var sp source.Span
	lit := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	lit.I32 = 42
	fn := &hir.HirFunction{Name: "f", Result: types.TI32, Body: lit}
	out := g.lowerFunctionBody(fn)
	// no declared locals -> locals vector is a single 0x00 count byte.
	want := []byte{0x00, opI32Const, 0x2a, opEnd}
	if string(out) != string(want) {
		t.Fatalf("body = % x, want % x", out, want)
	}
}

func TestLowerFunctionBodyParamReadEmitsLocalGet(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newBodyGenerator(tc)
	var sp source.Span
	v := hir.NewVar("x", true, types.TI32, sp)
	fn := &hir.HirFunction{
		Name:   "f",
		Result: types.TI32,
		Locals: []hir.Local{{Name: "x", Type: types.TI32, IsParam: true}},
		Body:   v,
	}
	out := g.lowerFunctionBody(fn)
	want := []byte{0x00, opLocalGet, 0x00, opEnd}
	if string(out) != string(want) {
		t.Fatalf("body = % x, want % x", out, want)
	}
}

func TestLowerFunctionBodyLetDeclaresAndSetsLocal(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newBodyGenerator(tc)
	var sp source.Span
	lit := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	lit.I32 = 7
	let := hir.NewLet("x", lit, sp)
	fn := &hir.HirFunction{
		Name:   "f",
		Result: types.TUnit,
		Locals: []hir.Local{{Name: "x", Type: types.TI32}},
		Body:   let,
	}
	out := g.lowerFunctionBody(fn)
	// one declared i32 local (count=1, type=i32), then push 7, then local.set 0, then end.
	want := []byte{0x01, 0x01, valI32, opI32Const, 0x07, opLocalSet, 0x00, opEnd}
	if string(out) != string(want) {
		t.Fatalf("body = % x, want % x", out, want)
	}
}

func TestLowerFunctionBodyIfEmitsIfElseEnd(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newBodyGenerator(tc)
	var sp source.Span
	cond := hir.NewLiteral(hir.LitBool, types.TBool, sp)
	cond.Bool = true
	thenLit := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	thenLit.I32 = 1
	elseLit := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	elseLit.I32 = 0
	ifNode := hir.NewIf(cond, thenLit, elseLit, types.TI32, sp)
	fn := &hir.HirFunction{Name: "f", Result: types.TI32, Body: ifNode}
	out := g.lowerFunctionBody(fn)
	if out[len(out)-1] != opEnd {
		t.Fatalf("body should end with opEnd, got % x", out)
	}
	found := false
	for _, b := range out {
		if b == opIf {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an opIf byte in % x", out)
	}
}

func TestLowerFunctionBodyBlockDropsDiscardedLines(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newBodyGenerator(tc)
	var sp source.Span
	lit1 := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	lit1.I32 = 1
	lit2 := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	lit2.I32 = 2
	block := hir.NewBlock([]hir.Node{lit1, lit2}, []bool{true, false}, types.TI32, sp)
	fn := &hir.HirFunction{Name: "f", Result: types.TI32, Body: block}
	out := g.lowerFunctionBody(fn)
	want := []byte{0x00, opI32Const, 0x01, opDrop, opI32Const, 0x02, opEnd}
	if string(out) != string(want) {
		t.Fatalf("body = % x, want % x", out, want)
	}
}

func TestLowerFunctionBodyMatchGuardsFinalArmAndTrapsOnMiss(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newBodyGenerator(tc)
	var sp source.Span
	scrut := hir.NewVar("e", true, types.TI32, sp)
	armLit := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	armLit.I32 = 9
	arms := []hir.MatchArm{{Variant: "Some", Tag: 0, Body: armLit}}
	match := hir.NewMatch(scrut, arms, types.TI32, sp)
	fn := &hir.HirFunction{
		Name:   "f",
		Result: types.TI32,
		Locals: []hir.Local{{Name: "e", Type: types.TI32, IsParam: true}},
		Body:   match,
	}
	out := g.lowerFunctionBody(fn)
	if out[len(out)-1] != opEnd {
		t.Fatalf("body should end with opEnd, got % x", out)
	}
	foundIf, foundUnreachable := false, false
	for i, bt := range out {
		if bt == opIf {
			foundIf = true
		}
		if bt == opElse && i+1 < len(out) && out[i+1] == opUnreachable {
			foundUnreachable = true
		}
	}
	if !foundIf {
		t.Errorf("expected the single arm to still be tag-guarded with opIf in % x", out)
	}
	if !foundUnreachable {
		t.Errorf("expected an unmatched tag to fall through to opUnreachable in % x", out)
	}
}

func TestLowerFunctionBodyRawWasmIsEmittedVerbatim(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newBodyGenerator(tc)
	fn := &hir.HirFunction{Name: "f", RawWasm: []string{"i32.const 1"}}
	out := g.lowerFunctionBody(fn)
	if len(out) == 0 {
		t.Fatal("expected non-empty body for a #wasm raw function")
	}
	if out[len(out)-1] != opEnd {
		t.Fatalf("raw body should still end with opEnd, got % x", out)
	}
}
