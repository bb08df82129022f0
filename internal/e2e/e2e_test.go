// Package e2e drives whole NEPL sources through the full pipeline (lex,
// parse, check, move-check, wasmgen) and, for the scenarios that reach
// codegen, actually runs the emitted module on wazero the same way
// cmd/neplc's own runtime-less driver assumes a downstream embedder would.
package e2e

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/neknaj/NEPLg2-sub000/internal/check"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/lexer"
	"github.com/neknaj/NEPLg2-sub000/internal/move"
	"github.com/neknaj/NEPLg2-sub000/internal/parser"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
	"github.com/neknaj/NEPLg2-sub000/internal/wasmgen"
)

// compile runs src through lex/parse/check/move-check and, if every phase
// is clean, through wasmgen. It never fails the test itself; callers
// inspect the returned sink and bytes.
func compile(t *testing.T, src string) ([]byte, *diag.Sink) {
	t.Helper()
	sm := source.NewMap()
	file := sm.AddFile("e2e.nepl", src)
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
	if sink.HasErrors() {
		return nil, sink
	}

	mod := parser.Parse(toks, file, sm, sink)
	if sink.HasErrors() {
		return nil, sink
	}

	hmod, tc := check.Check(mod, sm, sink)
	if sink.HasErrors() {
		return nil, sink
	}

	move.Check(hmod, tc, sink)
	if sink.HasErrors() {
		return nil, sink
	}

	out := wasmgen.Generate(hmod, tc, sink)
	if sink.HasErrors() {
		return nil, sink
	}
	return out, sink
}

// runMain instantiates a compiled module on a fresh wazero runtime and
// calls its nullary, i32-returning `main` export.
func runMain(t *testing.T, wasmBytes []byte) int32 {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, wasmBytes)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	fn := mod.ExportedFunction("main")
	if fn == nil {
		t.Fatal("module does not export 'main'")
	}
	results, err := fn.Call(ctx)
	if err != nil {
		t.Fatalf("call main: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("main returned %d results, want 1", len(results))
	}
	return int32(results[0])
}

func TestArithmeticScenarioReturns42(t *testing.T) {
	src := "#entry main\n#target wasm\n" +
		"fn inc <(i32)->i32> (x): add x 1\n" +
		"fn main <()->i32> (): inc 41\n"
	wasmBytes, sink := compile(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected pipeline errors: %v", sink.Reports())
	}
	if got := runMain(t, wasmBytes); got != 42 {
		t.Errorf("main() = %d, want 42", got)
	}
}

func TestIfLayoutWithGluedElseReturns100(t *testing.T) {
	src := "#entry main\n#target wasm\n" +
		"fn main <()->i32> ():\n" +
		"    let x = 3\n" +
		"    if eq x 3:\n" +
		"        100\n" +
		"    else:\n" +
		"        200\n"
	wasmBytes, sink := compile(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected pipeline errors: %v", sink.Reports())
	}
	if got := runMain(t, wasmBytes); got != 100 {
		t.Errorf("main() = %d, want 100", got)
	}
}

func TestGenericOptionMatchReturns7(t *testing.T) {
	src := "enum Option<.T>: Some<.T>; None\n" +
		"fn unwrap_or <(Option<.T>, .T)->.T> (o, d):\n" +
		"    match o:\n" +
		"        Some v: v\n" +
		"        None:   d\n" +
		"#entry main\n#target wasm\n" +
		"fn main <()->i32> (): unwrap_or (Some 7) 0\n"
	wasmBytes, sink := compile(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected pipeline errors: %v", sink.Reports())
	}
	if got := runMain(t, wasmBytes); got != 7 {
		t.Errorf("main() = %d, want 7", got)
	}
}

func TestMutableLoopAccumulatorReturns10(t *testing.T) {
	src := "#entry main\n#target wasm\n" +
		"fn main <()->i32> ():\n" +
		"    let mut s = 0\n" +
		"    let mut i = 0\n" +
		"    while lt i 5:\n" +
		"        set s = add s i\n" +
		"        set i = add i 1\n" +
		"    s\n"
	wasmBytes, sink := compile(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected pipeline errors: %v", sink.Reports())
	}
	if got := runMain(t, wasmBytes); got != 10 {
		t.Errorf("main() = %d, want 10", got)
	}
}

func TestPipeDesugaringReturns10(t *testing.T) {
	src := "#entry main\n#target wasm\n" +
		"fn sq <(i32)->i32>(x): mul x x\n" +
		"fn inc<(i32)->i32>(x): add x 1\n" +
		"fn main<()->i32>(): 3 |> sq |> inc\n"
	wasmBytes, sink := compile(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected pipeline errors: %v", sink.Reports())
	}
	if got := runMain(t, wasmBytes); got != 10 {
		t.Errorf("main() = %d, want 10", got)
	}
}

func TestMoveCheckRejectsDoubleUse(t *testing.T) {
	src := "struct Buf: data<i32>\n" +
		"fn take <(Buf)->Buf>(b): b\n" +
		"fn main<()->i32>():\n" +
		"    let b = Buf 1\n" +
		"    let _ = take b\n" +
		"    let _ = take b\n" +
		"    0\n"
	_, sink := compile(t, src)
	if !sink.HasErrors() {
		t.Fatal("expected the second 'take b' to be rejected as a use of a moved value")
	}
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.MovUseOfMoved {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s among errors, got %v", diag.MovUseOfMoved, sink.Reports())
	}
}
