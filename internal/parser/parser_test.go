package parser

import (
	"testing"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/lexer"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

func parseSource(t *testing.T, src string) (*ast.Module, *diag.Sink) {
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
	mod := Parse(toks, file, sm, sink)
	return mod, sink
}

func firstExprStmt(t *testing.T, mod *ast.Module) *ast.ExprStmt {
	t.Helper()
	for _, st := range mod.Body.Stmts {
		if es, ok := st.(*ast.ExprStmt); ok {
			return es
		}
	}
	t.Fatalf("no ExprStmt found among %d statements", len(mod.Body.Stmts))
	return nil
}

func TestParseSimpleCall(t *testing.T) {
	mod, sink := parseSource(t, "add 1 2\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.Reports())
	}
	es := firstExprStmt(t, mod)
	if len(es.Expr.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(es.Expr.Items))
	}
	sym, ok := es.Expr.Items[0].(*ast.SymbolItem)
	if !ok || sym.Name != "add" {
		t.Fatalf("item 0 = %+v, want SymbolItem(add)", es.Expr.Items[0])
	}
	lit1, ok := es.Expr.Items[1].(*ast.LitItem)
	if !ok || lit1.Text != "1" {
		t.Fatalf("item 1 = %+v, want LitItem(1)", es.Expr.Items[1])
	}
}

func TestParseFnDef(t *testing.T) {
	mod, sink := parseSource(t, "fn double(x):\n  mul x 2\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.Reports())
	}
	var fn *ast.FnDef
	for _, st := range mod.Body.Stmts {
		if f, ok := st.(*ast.FnDef); ok {
			fn = f
		}
	}
	if fn == nil {
		t.Fatalf("no FnDef found among %d statements", len(mod.Body.Stmts))
	}
	if fn.Name != "double" {
		t.Errorf("fn name = %q, want double", fn.Name)
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "x" {
		t.Errorf("fn params = %+v, want [x]", fn.Params)
	}
	if fn.Body == nil {
		t.Fatal("fn body is nil")
	}
}

func TestParseLetMarker(t *testing.T) {
	mod, sink := parseSource(t, "let x = 5\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.Reports())
	}
	es := firstExprStmt(t, mod)
	m, ok := es.Expr.Items[0].(*ast.MarkerItem)
	if !ok || m.Kind != ast.MarkerLet || m.Name != "x" {
		t.Fatalf("item 0 = %+v, want MarkerItem(let x)", es.Expr.Items[0])
	}
}

func TestParseIfColonDesugarsToCondThenElseSlots(t *testing.T) {
	src := "if:\n  cond: gt x 0\n  then: 1\n  else: 0\n"
	mod, sink := parseSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.Reports())
	}
	es := firstExprStmt(t, mod)
	// Expect: [MarkerIf, ExprItem(cond), ExprItem(then), ExprItem(else)]
	if len(es.Expr.Items) != 4 {
		t.Fatalf("got %d items, want 4: %+v", len(es.Expr.Items), es.Expr.Items)
	}
	if m, ok := es.Expr.Items[0].(*ast.MarkerItem); !ok || m.Kind != ast.MarkerIf {
		t.Fatalf("item 0 = %+v, want MarkerIf", es.Expr.Items[0])
	}
	for i := 1; i < 4; i++ {
		if _, ok := es.Expr.Items[i].(*ast.ExprItem); !ok {
			t.Errorf("item %d = %+v, want ExprItem", i, es.Expr.Items[i])
		}
	}
}

func TestParseWhileColonDesugarsToCondDoSlots(t *testing.T) {
	src := "while:\n  cond: gt x 0\n  do: set x (sub x 1)\n"
	mod, sink := parseSource(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.Reports())
	}
	es := firstExprStmt(t, mod)
	if len(es.Expr.Items) != 3 {
		t.Fatalf("got %d items, want 3: %+v", len(es.Expr.Items), es.Expr.Items)
	}
	if m, ok := es.Expr.Items[0].(*ast.MarkerItem); !ok || m.Kind != ast.MarkerWhile {
		t.Fatalf("item 0 = %+v, want MarkerWhile", es.Expr.Items[0])
	}
}

func TestParseTupleGroup(t *testing.T) {
	mod, sink := parseSource(t, "pair (1, 2)\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.Reports())
	}
	es := firstExprStmt(t, mod)
	if len(es.Expr.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(es.Expr.Items))
	}
	tup, ok := es.Expr.Items[1].(*ast.TupleItem)
	if !ok || len(tup.Items) != 2 {
		t.Fatalf("item 1 = %+v, want a 2-entry TupleItem", es.Expr.Items[1])
	}
}

func TestParseMarkerExtraErrorsOnTooManyEntries(t *testing.T) {
	src := "if:\n  cond: gt x 0\n  then: 1\n  else: 0\n  9\n"
	_, sink := parseSource(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.ParMarkerExtra {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a %s error, got %v", diag.ParMarkerExtra, sink.Reports())
	}
}

func TestParseDirectiveEntry(t *testing.T) {
	mod, sink := parseSource(t, "#entry main\nfn main(): 0\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.Reports())
	}
	if len(mod.Directives) != 1 || mod.Directives[0].Kind != ast.DirEntry || mod.Directives[0].Name != "main" {
		t.Fatalf("directives = %+v, want one #entry main", mod.Directives)
	}
}
