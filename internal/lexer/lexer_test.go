package lexer

import (
	"testing"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Sink) {
	t.Helper()
	sm := source.NewMap()
	file := sm.AddFile("test.nepl", src)
	sink := diag.NewSink()
	l := New(sm, file, sink)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, sink
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestNextTokenBasics(t *testing.T) {
	toks, sink := lexAll(t, "add 1 2\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	want := []token.Kind{token.IDENT, token.INT, token.INT, token.NEWLINE, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestIndentProducesIndentDedent(t *testing.T) {
	src := "fn f:\n  add 1 2\nfn g:\n  add 3 4\n"
	toks, sink := lexAll(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	var sawIndent, sawDedent int
	for _, tok := range toks {
		if tok.Kind == token.INDENT {
			sawIndent++
		}
		if tok.Kind == token.DEDENT {
			sawDedent++
		}
	}
	if sawIndent != 2 || sawDedent != 2 {
		t.Fatalf("got %d INDENT and %d DEDENT, want 2 and 2", sawIndent, sawDedent)
	}
}

func TestMisalignedIndentWarns(t *testing.T) {
	src := "fn f:\n   add 1 2\n"
	_, sink := lexAll(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.LayMisaligned {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a %s warning, got %v", diag.LayMisaligned, sink.Reports())
	}
}

func TestTabIndentIsError(t *testing.T) {
	src := "fn f:\n\tadd 1 2\n"
	_, sink := lexAll(t, src)
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.LexTabIndent {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a %s error, got %v", diag.LexTabIndent, sink.Reports())
	}
}

func TestArrowFolding(t *testing.T) {
	toks, sink := lexAll(t, "-> *> - * a -1\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	want := []token.Kind{token.ARROW_PURE, token.ARROW_IMPURE, token.ILLEGAL, token.STAR, token.IDENT, token.INT, token.NEWLINE, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
	if toks[5].Literal != "-1" {
		t.Errorf("negative literal: got %q, want %q", toks[5].Literal, "-1")
	}
}

func TestStringEscapes(t *testing.T) {
	toks, sink := lexAll(t, `"hi\nthere"` + "\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	if toks[0].Kind != token.STRING || toks[0].Literal != "hi\nthere" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestUnterminatedString(t *testing.T) {
	_, sink := lexAll(t, `"unterminated`+"\n")
	found := false
	for _, r := range sink.Reports() {
		if r.Code == diag.LexUnterminated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a %s error, got %v", diag.LexUnterminated, sink.Reports())
	}
}

func TestWasmBlockCapturesVerbatimLines(t *testing.T) {
	src := "fn f:\n  #wasm:\n    local.get $x\n    i32.const 1\n  add 1 2\n"
	toks, sink := lexAll(t, src)
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	var wasmLines []string
	for _, tok := range toks {
		if tok.Kind == token.WASMTEXT {
			wasmLines = append(wasmLines, tok.Literal)
		}
	}
	want := []string{"local.get $x", "i32.const 1"}
	if len(wasmLines) != len(want) {
		t.Fatalf("got %v, want %v", wasmLines, want)
	}
	for i := range want {
		if wasmLines[i] != want[i] {
			t.Errorf("wasm line %d: got %q want %q", i, wasmLines[i], want[i])
		}
	}
}

func TestIdentifierNFCNormalization(t *testing.T) {
	// "e" + combining acute accent (NFD) should normalize to the single
	// precomposed "é" (NFC) codepoint so both spellings intern identically.
	nfd := "caf" + "e\u0301"
	toks, sink := lexAll(t, nfd+"\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	nfc := "caf\u00e9"
	if toks[0].Literal != nfc {
		t.Fatalf("got %q, want NFC form %q", toks[0].Literal, nfc)
	}
}

func TestDirectiveToken(t *testing.T) {
	toks, sink := lexAll(t, "#entry main\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	if toks[0].Kind != token.DIRECTIVE || toks[0].Literal != "entry main" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLayoutMarkerKeywords(t *testing.T) {
	toks, sink := lexAll(t, "cond then else do\n")
	if sink.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", sink.Reports())
	}
	want := []token.Kind{token.COND, token.THEN, token.ELSE, token.DO, token.NEWLINE, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}
