package parser

import (
	"strconv"
	"strings"

	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/lexer"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

// parseInlineDirectiveItem handles a DIRECTIVE token encountered mid
// expression. The only directive legal in expression position is
// `#intrinsic "name"<T...>(args...)`; anything else is a
// syntax error.
func (p *Parser) parseInlineDirectiveItem() ast.PrefixItem {
	tok := p.advance()
	lit := strings.TrimSpace(tok.Literal)
	if !strings.HasPrefix(lit, "intrinsic") {
		p.sink.Add(diag.New(diag.Error, diag.ParUnexpectedToken, "parser", tok.Span,
			"directives are not valid in expression position"))
		return nil
	}
	rest := strings.TrimSpace(strings.TrimPrefix(lit, "intrinsic"))

	i := &ast.IntrinsicItem{SpanVal: tok.Span}

	// Name: a quoted string.
	if len(rest) == 0 || rest[0] != '"' {
		p.sink.Add(diag.New(diag.Error, diag.ParExpected, "parser", tok.Span,
			"#intrinsic requires a quoted name"))
		return i
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		p.sink.Add(diag.New(diag.Error, diag.ParExpected, "parser", tok.Span,
			"unterminated intrinsic name"))
		return i
	}
	if name, err := strconv.Unquote(rest[:end+2]); err == nil {
		i.Name = name
	} else {
		i.Name = rest[1 : end+1]
	}
	rest = strings.TrimSpace(rest[end+2:])

	// Optional `<T, ...>` type arguments.
	if strings.HasPrefix(rest, "<") {
		close := matchingBracket(rest, 0, '<', '>')
		if close > 0 {
			inner := rest[1:close]
			for _, part := range splitTopLevel(inner, ',') {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				i.TypeArgs = append(i.TypeArgs, p.subParseTypeExpr(part))
			}
			rest = strings.TrimSpace(rest[close+1:])
		}
	}

	// `(args, ...)`.
	if strings.HasPrefix(rest, "(") {
		close := matchingBracket(rest, 0, '(', ')')
		if close > 0 {
			inner := rest[1:close]
			for _, part := range splitTopLevel(inner, ',') {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				i.Args = append(i.Args, p.subParsePrefixExpr(part))
			}
		}
	}
	return i
}

// matchingBracket finds the index of the bracket closing the one at open
// (which must equal openCh), honoring nesting and quoted strings.
func matchingBracket(s string, open int, openCh, closeCh byte) int {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case openCh:
			if !inQuote {
				depth++
			}
		case closeCh:
			if !inQuote {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// parens/angle-brackets/quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(', '<':
			if !inQuote {
				depth++
			}
		case ')', '>':
			if !inQuote {
				depth--
			}
		case sep:
			if !inQuote && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// subTokenize lexes an embedded text fragment (an #intrinsic type or value
// argument) as its own tiny sub-file so spans and diagnostics still resolve
// through the shared source map.
func (p *Parser) subTokenize(text string) ([]token.Token, source.FileID) {
	file := p.file
	if p.sm != nil {
		file = p.sm.AddFile(p.sm.Path(p.file)+"#intrinsic-arg", text)
	}
	return lexer.Tokenize(p.sm, file, p.sink), file
}

func (p *Parser) subParseTypeExpr(text string) *ast.TypeExpr {
	toks, file := p.subTokenize(text)
	sub := New(toks, file, p.sm, p.sink)
	return sub.parseTypeExpr()
}

func (p *Parser) subParsePrefixExpr(text string) *ast.PrefixExpr {
	toks, file := p.subTokenize(text)
	sub := New(toks, file, p.sm, p.sink)
	return sub.parsePrefixExpr()
}
