package check

import (
	"testing"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/lexer"
	"github.com/neknaj/NEPLg2-sub000/internal/parser"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

func checkSource(t *testing.T, src string) (*hir.HirModule, *types.TypeCtx, *diag.Sink) {
	t.Helper()
	sm := source.NewMap()
	file := sm.AddFile("test.nepl", src)
	sink := diag.NewSink()
	lx := lexer.New(sm, file, sink)
	var toks []token.Token
	for {
		tok := lx.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	mod := parser.Parse(toks, file, sm, sink)
	hmod, tc := Check(mod, sm, sink)
	return hmod, tc, sink
}

func findFn(hmod *hir.HirModule, name string) *hir.HirFunction {
	for _, f := range hmod.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func TestCheckResolvesOverloadByArgumentType(t *testing.T) {
	hmod, tc, sink := checkSource(t, "fn addints(): add 1 2\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors: %v", sink.Reports())
	}
	fn := findFn(hmod, "addints")
	if fn == nil {
		t.Fatal("addints not found")
	}
	if got := tc.Get(tc.Resolve(fn.Result)).Kind; got != types.KI32 {
		t.Errorf("result kind = %v, want KI32", got)
	}
}

func TestCheckUndefinedNameReportsNamUndefined(t *testing.T) {
	_, _, sink := checkSource(t, "fn f(): nosuchthing 1\n")
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.NamUndefined {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s, got %v", diag.NamUndefined, sink.Reports())
	}
}

func TestCheckPureFunctionCallingImpureIsRejected(t *testing.T) {
	src := "fn f(): println \"hi\"\n"
	_, _, sink := checkSource(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.EffPureCallsImpure {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for a pure fn calling an impure builtin, got %v", diag.EffPureCallsImpure, sink.Reports())
	}
}

func TestCheckIfBranchesMustUnify(t *testing.T) {
	src := "fn f():\n  if:\n    cond: true\n    then: 1\n    else: \"no\"\n"
	_, _, sink := checkSource(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.TypMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for mismatched if branches, got %v", diag.TypMismatch, sink.Reports())
	}
}

func TestCheckIfBranchesAgreeingTypesIsFine(t *testing.T) {
	src := "fn f():\n  if:\n    cond: true\n    then: 1\n    else: 2\n"
	hmod, tc, sink := checkSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors: %v", sink.Reports())
	}
	fn := findFn(hmod, "f")
	if fn == nil {
		t.Fatal("f not found")
	}
	body := fn.Body
	if blk, ok := body.(*hir.BlockNode); ok && len(blk.Lines) == 1 {
		body = blk.Lines[0]
	}
	ifNode, ok := body.(*hir.IfNode)
	if !ok {
		t.Fatalf("body = %T, want *hir.IfNode", body)
	}
	if got := tc.Get(tc.Resolve(ifNode.Type())).Kind; got != types.KI32 {
		t.Errorf("if result kind = %v, want KI32", got)
	}
}

func TestCheckLetThenUseBindsLocal(t *testing.T) {
	src := "fn f():\n  let x = 5\n  add x 1\n"
	hmod, _, sink := checkSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors: %v", sink.Reports())
	}
	fn := findFn(hmod, "f")
	if fn == nil {
		t.Fatal("f not found")
	}
	found := false
	for _, loc := range fn.Locals {
		if loc.Name == "x" {
			found = true
		}
	}
	if !found {
		t.Errorf("locals = %+v, want an 'x' entry", fn.Locals)
	}
}

func TestCheckSetUndefinedTargetReportsNamUndefined(t *testing.T) {
	src := "fn f(): set y 1\n"
	_, _, sink := checkSource(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.NamUndefined {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for setting an undeclared local, got %v", diag.NamUndefined, sink.Reports())
	}
}

func TestCheckStructConstructorIsHoistedAndTyped(t *testing.T) {
	src := "struct Point: x i32 y i32\nfn origin(): Point 0 0\n"
	hmod, tc, sink := checkSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors: %v", sink.Reports())
	}
	fn := findFn(hmod, "origin")
	if fn == nil {
		t.Fatal("origin not found")
	}
	sc, ok := fn.Body.(*hir.StructConstructNode)
	if !ok {
		t.Fatalf("body = %T, want *hir.StructConstructNode", fn.Body)
	}
	if sc.StructName != "Point" {
		t.Errorf("struct name = %q, want Point", sc.StructName)
	}
	if got := tc.Get(tc.Resolve(fn.Result)).Kind; got != types.KStruct {
		t.Errorf("result kind = %v, want KStruct", got)
	}
}

func TestCheckEntryDirectiveMarksFunctionEntryAndImpure(t *testing.T) {
	src := "#entry main\nfn main(): println \"hi\"\n"
	hmod, _, sink := checkSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors: %v", sink.Reports())
	}
	if hmod.EntryFn != "main" {
		t.Fatalf("EntryFn = %q, want main", hmod.EntryFn)
	}
	fn := findFn(hmod, "main")
	if fn == nil || !fn.IsEntry {
		t.Fatalf("main function = %+v, want IsEntry=true", fn)
	}
}

func TestCheckFnAliasSharesOverloadSet(t *testing.T) {
	src := "fn plus add\nfn f(): plus 1 2\n"
	_, _, sink := checkSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors aliasing a builtin: %v", sink.Reports())
	}
}

func TestCheckAliasOfUndefinedTargetReportsNamUndefined(t *testing.T) {
	src := "fn plus nosuchfn\nfn f(): plus 1 2\n"
	_, _, sink := checkSource(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.NamUndefined {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for aliasing an undefined target, got %v", diag.NamUndefined, sink.Reports())
	}
}

func TestCheckArgumentTypeMismatchReportsTypMismatch(t *testing.T) {
	src := "fn f(): add 1 true\n"
	_, _, sink := checkSource(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.TypMismatch || r.Code == diag.NamNoOverload {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a type-mismatch or no-overload error for mixed-type add, got %v", sink.Reports())
	}
}

func TestCheckNestedFnCapturesOuterLet(t *testing.T) {
	src := "fn main <()->i32> ():\n    let n = 10\n    fn addten (x): add x n\n    addten 5\n"
	hmod, _, sink := checkSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors: %v", sink.Reports())
	}
	fn := findFn(hmod, "addten")
	if fn == nil {
		t.Fatal("addten not found")
	}
	if len(fn.Params) != 2 {
		t.Fatalf("addten params = %d, want 2 (captured n, declared x)", len(fn.Params))
	}
	if len(fn.Locals) != 2 || fn.Locals[0].Name != "n" || fn.Locals[1].Name != "x" {
		t.Fatalf("addten locals = %+v, want [n x] with n leading", fn.Locals)
	}
}

func TestCheckNestedFnCaptureMissingOuterBindingLeavesNoCapture(t *testing.T) {
	src := "fn main <()->i32> ():\n    fn dbl (x): mul x 2\n    dbl 5\n"
	hmod, _, sink := checkSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected check errors: %v", sink.Reports())
	}
	fn := findFn(hmod, "dbl")
	if fn == nil {
		t.Fatal("dbl not found")
	}
	if len(fn.Params) != 1 {
		t.Fatalf("dbl params = %d, want 1 (no outer binding to capture)", len(fn.Params))
	}
}

func TestCheckAmbiguousExtraStackValuesReportTypReturn(t *testing.T) {
	src := "fn f(): 1 2\n"
	_, _, sink := checkSource(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.TypReturn {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s for an expression leaving extra stack values, got %v", diag.TypReturn, sink.Reports())
	}
}
