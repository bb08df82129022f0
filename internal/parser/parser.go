// Package parser builds NEPL's AST from a token stream. Structurally this
// follows ailang's internal/parser (a cursor over tokens with peek/advance
// helpers, one file per concern: parser_module.go for top-level items,
// parser_expr.go for prefix/layout expressions, parser_type.go for type
// expressions) adapted to NEPL's prefix "juggler stack" grammar and its
// indentation-driven colon-block desugaring, which has no
// ailang analogue.
package parser

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

// Parser holds cursor state over one file's token stream.
type Parser struct {
	toks []token.Token
	pos  int
	file source.FileID
	sm   *source.Map
	sink *diag.Sink

	indentUnit int

	// pendingSynth holds lambda-lifted function definitions synthesized by
	// colon-block desugaring shape 2 (parser_colon.go); parseBlock splices
	// them into the enclosing block immediately before the triggering
	// statement.
	pendingSynth []*ast.FnDef

	// elseSlotPending is set by desugarIfWhile when an `if <cond>:` block
	// filled `then` but not `else`; parsePrefixExpr consumes it right after
	// handleColonBlock returns and marks its result PendingElse so
	// parseBlock's glue pass can look for a sibling `else:` statement.
	elseSlotPending bool
}

// New creates a parser over toks (already lexed, including the trailing
// EOF token). sm is the shared source map, used to splice embedded
// `#intrinsic` argument text back through the lexer (see
// parser_intrinsic.go).
func New(toks []token.Token, file source.FileID, sm *source.Map, sink *diag.Sink) *Parser {
	return &Parser{toks: toks, file: file, sm: sm, sink: sink, indentUnit: 4}
}

// Parse runs the parser to completion.
func Parse(toks []token.Token, file source.FileID, sm *source.Map, sink *diag.Sink) *ast.Module {
	p := New(toks, file, sm, sink)
	return p.parseModule()
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) expect(k token.Kind, code, what string) token.Token {
	if p.cur().Kind != k {
		p.errorf(code, "expected %s", what)
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(code, format string, args ...any) {
	p.sink.Add(diag.New(diag.Error, code, "parser", p.cur().Span, fmt.Sprintf(format, args...)))
}

// skipToRecover advances past tokens until a NEWLINE or EOF, NEPL's
// standard recovery point for syntax errors.
func (p *Parser) skipToRecover() {
	for !p.at(token.NEWLINE) && !p.at(token.EOF) {
		p.advance()
	}
	if p.at(token.NEWLINE) {
		p.advance()
	}
}

// skipNewlines consumes any run of blank NEWLINE tokens.
func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// synthName produces a collision-free name for a lambda-lifted function,
// grounded on funvibe-funxy's use of github.com/google/uuid for generated
// identifiers (SPEC_FULL.md ambient stack).
func synthName(prefix string) string {
	id := uuid.NewString()
	return prefix + "__" + sanitizeUUID(id)
}

func sanitizeUUID(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			continue
		}
		out = append(out, id[i])
	}
	return string(out)
}
