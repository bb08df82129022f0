// Package token defines NEPL's lexical token kinds, grounded on ailang's
// internal/lexer/token.go Kind enumeration but extended with the
// indentation-structural tokens (INDENT/DEDENT/NEWLINE) and the raw
// WasmText line kind requires.
package token

import "github.com/neknaj/NEPLg2-sub000/internal/source"

// Kind tags a Token's lexical category.
type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	// Structural.
	INDENT
	DEDENT
	NEWLINE

	// Literals.
	IDENT
	INT
	FLOAT
	STRING
	TRUE
	FALSE
	UNIT // `()`

	// Punctuation.
	COLON
	SEMI
	COMMA
	LPAREN
	RPAREN
	LANGLE // `<`
	RANGLE // `>`
	AMP    // `&`
	STAR   // `*`
	PIPE   // `|>`
	DCOLON // `::`
	ARROW_PURE   // `->`
	ARROW_IMPURE // `*>`
	DOT
	ASSIGN // `=` (cosmetic sugar after let/set; never an operator)

	// Keywords.
	FN
	LET
	MUT
	SET
	IF
	WHILE
	BLOCK
	MATCH
	STRUCT
	ENUM
	TRAIT
	IMPL
	FOR
	PUB
	TUPLE
	MLSTR

	// Layout markers (reserved only in that role).
	COND
	THEN
	ELSE
	DO

	// Directives and raw wasm.
	DIRECTIVE // `#name ...`, Literal holds the directive line's rest
	WASMTEXT  // one verbatim line inside a `#wasm:` block
)

var keywords = map[string]Kind{
	"fn": FN, "let": LET, "mut": MUT, "set": SET,
	"if": IF, "while": WHILE, "block": BLOCK, "match": MATCH,
	"struct": STRUCT, "enum": ENUM, "trait": TRAIT, "impl": IMPL,
	"for": FOR, "pub": PUB, "tuple": TUPLE, "mlstr": MLSTR,
	"true": TRUE, "false": FALSE,
}

// layoutMarkers are recognized contextually by the parser;
// the lexer still tags them distinctly so the parser can special-case the
// first-item-on-line rule without a second name lookup.
var layoutMarkers = map[string]Kind{
	"cond": COND, "then": THEN, "else": ELSE, "do": DO,
}

// LookupIdent classifies an identifier spelling as a keyword, layout
// marker, or plain IDENT.
func LookupIdent(s string) Kind {
	if k, ok := keywords[s]; ok {
		return k
	}
	if k, ok := layoutMarkers[s]; ok {
		return k
	}
	return IDENT
}

// Token is one lexical unit. Literal carries the raw spelling (or, for
// WASMTEXT, the verbatim post-indent text of one line; for DIRECTIVE, the
// text following `#`).
type Token struct {
	Kind    Kind
	Literal string
	Span    source.Span
}

func (t Token) String() string {
	return t.Literal
}
