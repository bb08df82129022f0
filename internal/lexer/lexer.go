// Package lexer implements NEPL's indentation-aware tokenizer. Structurally it follows ailang's internal/lexer.Lexer: a rune
// cursor with readChar/peekChar and a big NextToken switch producing one
// Token per call. What's new relative to ailang is the indent-stack state
// machine (ailang's source language is brace-delimited, not layout-based),
// directive/`#wasm:` scanning, and NFC identifier normalization.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

const defaultIndentUnit = 4

// Lexer tokenizes one file's worth of NEPL source.
type Lexer struct {
	file source.FileID
	sm   *source.Map
	sink *diag.Sink

	input        string
	position     int
	readPosition int
	ch           rune

	atLineStart bool
	indentUnit  int
	indents     []int // stack of indent widths, 0 at the bottom

	// wasm-block scanning state
	inWasmBlock bool
	wasmBase    int

	pending []token.Token // tokens queued by indent bookkeeping
}

// New creates a lexer over text already registered in sm under file.
func New(sm *source.Map, file source.FileID, sink *diag.Sink) *Lexer {
	l := &Lexer{
		file:        file,
		sm:          sm,
		sink:        sink,
		input:       sm.Text(file),
		atLineStart: true,
		indentUnit:  defaultIndentUnit,
		indents:     []int{0},
	}
	l.readChar()
	return l
}

// IndentUnit returns the unit in effect (updated by `#indent N`).
func (l *Lexer) IndentUnit() int { return l.indentUnit }

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	ch, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.position = l.readPosition
	l.readPosition += size
	l.ch = ch
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return ch
}

func (l *Lexer) peekAt(offset int) rune {
	pos := l.readPosition
	var ch rune
	for i := 0; i <= offset; i++ {
		if pos >= len(l.input) {
			return 0
		}
		var size int
		ch, size = utf8.DecodeRuneInString(l.input[pos:])
		pos += size
	}
	return ch
}

func (l *Lexer) span(start int) source.Span {
	return source.Span{File: l.file, Start: start, End: l.position}
}

// Tokenize runs the lexer to completion and returns every token, including
// the trailing EOF. Errors are recorded on the sink but never abort
// scanning: downstream consumers may still
// attempt to parse.
func Tokenize(sm *source.Map, file source.FileID, sink *diag.Sink) []token.Token {
	l := New(sm, file, sink)
	var toks []token.Token
	for {
		t := l.NextToken()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks
}

// NextToken returns the next token, handling indentation bookkeeping via an
// internal queue: a single physical line boundary can yield several
// DEDENT tokens before the line's first real token.
func (l *Lexer) NextToken() token.Token {
	if len(l.pending) > 0 {
		t := l.pending[0]
		l.pending = l.pending[1:]
		return t
	}

	if l.atLineStart {
		if done := l.handleLineStart(); done {
			if len(l.pending) > 0 {
				t := l.pending[0]
				l.pending = l.pending[1:]
				return t
			}
		}
	}

	l.skipInlineSpace()

	start := l.position
	switch {
	case l.ch == 0:
		return l.finalizeEOF(start)
	case l.ch == '\n':
		l.readChar()
		l.atLineStart = true
		return token.Token{Kind: token.NEWLINE, Literal: "\n", Span: l.span(start)}
	case l.ch == '/' && l.peekChar() == '/':
		l.skipLineComment()
		return l.NextToken()
	case l.ch == '#':
		return l.readDirectiveOrWasmLine(start)
	case l.ch == '"':
		return l.readString(start)
	case unicode.IsDigit(l.ch):
		return l.readNumber(start)
	case isIdentStart(l.ch):
		return l.readIdent(start)
	default:
		return l.readOperator(start)
	}
}

func (l *Lexer) finalizeEOF(start int) token.Token {
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, token.Token{Kind: token.DEDENT, Span: l.span(start)})
	}
	eof := token.Token{Kind: token.EOF, Span: l.span(start)}
	if len(l.pending) > 0 {
		l.pending = append(l.pending, eof)
		t := l.pending[0]
		l.pending = l.pending[1:]
		return t
	}
	return eof
}

// handleLineStart consumes leading whitespace of a new physical line,
// computes its indent width, and queues INDENT/DEDENT tokens. Blank lines
// and comment-only lines are skipped without affecting the indent stack.
// Returns true once a real line (or EOF) has been found and queued.
func (l *Lexer) handleLineStart() bool {
	for {
		lineStart := l.position
		width, sawTab := l.measureIndent()

		if sawTab {
			l.sink.Add(diag.New(diag.Error, diag.LexTabIndent, "lexer", l.span(lineStart),
				"tabs are not permitted for indentation"))
		}

		if l.ch == 0 {
			l.atLineStart = false
			return true
		}
		if l.ch == '\n' {
			l.readChar()
			continue // blank line
		}
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			if l.ch == '\n' {
				l.readChar()
			}
			continue // comment-only line
		}
		if l.ch == '#' {
			// Directives float free of indent-stack bookkeeping.
			l.atLineStart = false
			return true
		}
		if l.inWasmBlock {
			if width >= l.wasmBase {
				l.readWasmTextLine(width)
				continue
			}
			l.inWasmBlock = false
		}

		l.applyIndent(width, lineStart)
		l.atLineStart = false
		return true
	}
}

// measureIndent consumes leading space/tab runs and returns their width.
func (l *Lexer) measureIndent() (width int, sawTab bool) {
	for l.ch == ' ' || l.ch == '\t' {
		if l.ch == '\t' {
			sawTab = true
			width++
		} else {
			width++
		}
		l.readChar()
	}
	return width, sawTab
}

func (l *Lexer) applyIndent(width, lineStart int) {
	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		if width%l.indentUnit != 0 {
			l.sink.Add(diag.New(diag.Warning, diag.LayMisaligned, "lexer", l.span(lineStart),
				"indentation is not a multiple of the indent unit"))
		}
		l.indents = append(l.indents, width)
		l.pending = append(l.pending, token.Token{Kind: token.INDENT, Span: l.span(lineStart)})
	case width < top:
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, token.Token{Kind: token.DEDENT, Span: l.span(lineStart)})
		}
		if l.indents[len(l.indents)-1] != width {
			l.sink.Add(diag.New(diag.Error, diag.LayNoDedentLvl, "lexer", l.span(lineStart),
				"indentation does not match any enclosing level"))
			l.indents = append(l.indents, width)
			l.pending = append(l.pending, token.Token{Kind: token.INDENT, Span: l.span(lineStart)})
		}
	}
}

func (l *Lexer) skipInlineSpace() {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readDirectiveOrWasmLine handles one `#...` line. `#wasm` latches the next
// non-empty line's indent as the wasm base and switches the lexer into
// verbatim line-capture mode; any other directive produces a single
// DIRECTIVE token whose Literal is the text after `#`.
func (l *Lexer) readDirectiveOrWasmLine(start int) token.Token {
	l.readChar() // consume '#'
	restStart := l.position
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	rest := strings.TrimSpace(l.input[restStart:l.position])
	if strings.HasPrefix(rest, "indent ") {
		if n, err := strconv.Atoi(strings.TrimSpace(rest[len("indent "):])); err == nil && n > 0 {
			l.indentUnit = n
		}
	}
	if rest == "wasm" || strings.HasPrefix(rest, "wasm:") {
		l.inWasmBlock = true
		l.wasmBase = -1 // latched on first captured line
	}
	return token.Token{Kind: token.DIRECTIVE, Literal: rest, Span: l.span(start)}
}

// readWasmTextLine captures one already-indent-measured line verbatim (the
// part after `width` columns of indentation) as a WASMTEXT token and queues
// it, alongside the NEWLINE that follows.
func (l *Lexer) readWasmTextLine(width int) {
	if l.wasmBase < 0 {
		l.wasmBase = width
	}
	start := l.position
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	text := l.input[start:l.position]
	l.pending = append(l.pending, token.Token{Kind: token.WASMTEXT, Literal: text, Span: l.span(start)})
	if l.ch == '\n' {
		nlStart := l.position
		l.readChar()
		l.pending = append(l.pending, token.Token{Kind: token.NEWLINE, Literal: "\n", Span: l.span(nlStart)})
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentCont(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch) || unicode.Is(unicode.Mn, ch)
}

func (l *Lexer) readIdent(start int) token.Token {
	for isIdentCont(l.ch) {
		l.readChar()
	}
	raw := l.input[start:l.position]
	name := norm.NFC.String(raw)
	return token.Token{Kind: token.LookupIdent(name), Literal: name, Span: l.span(start)}
}

func (l *Lexer) readNumber(start int) token.Token {
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return token.Token{Kind: token.INT, Literal: l.input[start:l.position], Span: l.span(start)}
	}
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Literal: l.input[start:l.position], Span: l.span(start)}
}

func isHexDigit(ch rune) bool {
	return unicode.IsDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func (l *Lexer) readString(start int) token.Token {
	l.readChar() // opening quote
	var sb strings.Builder
	terminated := false
	for {
		if l.ch == 0 || l.ch == '\n' {
			break
		}
		if l.ch == '"' {
			l.readChar()
			terminated = true
			break
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '0':
				sb.WriteByte(0)
			default:
				l.sink.Add(diag.New(diag.Error, diag.LexBadEscape, "lexer", l.span(l.position),
					"invalid escape sequence"))
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if !terminated {
		l.sink.Add(diag.New(diag.Error, diag.LexUnterminated, "lexer", l.span(start),
			"unterminated string literal"))
	}
	return token.Token{Kind: token.STRING, Literal: norm.NFC.String(sb.String()), Span: l.span(start)}
}

// readOperator handles punctuation, including the `-`/`*` arrow folding and
// the `-<digit>` negative-literal-sign fold.
func (l *Lexer) readOperator(start int) token.Token {
	ch := l.ch
	switch ch {
	case '-':
		if l.afterArrowWhitespace() == '>' {
			l.readChar()
			l.skipInlineSpace()
			l.readChar() // consume '>'
			return token.Token{Kind: token.ARROW_PURE, Literal: "->", Span: l.span(start)}
		}
		if unicode.IsDigit(l.peekChar()) {
			l.readChar() // consume '-', fold sign into following literal
			numTok := l.readNumber(l.position)
			numTok.Literal = "-" + numTok.Literal
			numTok.Span = l.span(start)
			return numTok
		}
		l.readChar()
		return token.Token{Kind: token.ILLEGAL, Literal: "-", Span: l.span(start)}
	case '*':
		if l.afterArrowWhitespace() == '>' {
			l.readChar()
			l.skipInlineSpace()
			l.readChar()
			return token.Token{Kind: token.ARROW_IMPURE, Literal: "*>", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.STAR, Literal: "*", Span: l.span(start)}
	case '|':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.PIPE, Literal: "|>", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.ILLEGAL, Literal: "|", Span: l.span(start)}
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.DCOLON, Literal: "::", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.COLON, Literal: ":", Span: l.span(start)}
	case ';':
		l.readChar()
		return token.Token{Kind: token.SEMI, Literal: ";", Span: l.span(start)}
	case ',':
		l.readChar()
		return token.Token{Kind: token.COMMA, Literal: ",", Span: l.span(start)}
	case '(':
		if l.peekChar() == ')' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.UNIT, Literal: "()", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.LPAREN, Literal: "(", Span: l.span(start)}
	case ')':
		l.readChar()
		return token.Token{Kind: token.RPAREN, Literal: ")", Span: l.span(start)}
	case '<':
		l.readChar()
		return token.Token{Kind: token.LANGLE, Literal: "<", Span: l.span(start)}
	case '>':
		l.readChar()
		return token.Token{Kind: token.RANGLE, Literal: ">", Span: l.span(start)}
	case '&':
		l.readChar()
		return token.Token{Kind: token.AMP, Literal: "&", Span: l.span(start)}
	case '.':
		l.readChar()
		return token.Token{Kind: token.DOT, Literal: ".", Span: l.span(start)}
	case '=':
		l.readChar()
		return token.Token{Kind: token.ASSIGN, Literal: "=", Span: l.span(start)}
	default:
		l.sink.Add(diag.New(diag.Error, diag.LexBadChar, "lexer", l.span(start),
			"unexpected character"))
		l.readChar()
		return token.Token{Kind: token.ILLEGAL, Literal: string(ch), Span: l.span(start)}
	}
}

// afterArrowWhitespace peeks past any inline spaces following the current
// `-`/`*` to see whether an `>` completes an arrow, allowing optional
// intervening whitespace.
func (l *Lexer) afterArrowWhitespace() rune {
	offset := 0
	for {
		ch := l.peekAt(offset)
		if ch == ' ' || ch == '\t' {
			offset++
			continue
		}
		return ch
	}
}
