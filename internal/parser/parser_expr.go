package parser

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

// parsePrefixExpr parses one logical line's worth of juggler-stack items
//, including pipe-continuation across physical newlines and
// any colon-block it runs into. The returned PrefixExpr's Semis field
// records trailing `;` markers.
func (p *Parser) parsePrefixExpr() *ast.PrefixExpr {
	start := p.cur().Span
	var items []ast.PrefixItem
	semis := 0

	for {
		stoppedByColon := false
		for !p.atLineStop() {
			if p.at(token.COLON) {
				p.handleColonBlock(&items)
				stoppedByColon = true
				break
			}
			if p.at(token.MATCH) {
				p.parseMatch(&items)
				continue
			}
			item := p.parseOneItem()
			if item == nil {
				break
			}
			items = append(items, item)
		}
		if stoppedByColon {
			break
		}
		for p.at(token.SEMI) {
			p.advance()
			semis++
		}
		if p.at(token.NEWLINE) && p.peekAt(1).Kind == token.PIPE {
			p.advance() // consume NEWLINE, the pipe begins the continued line
			continue
		}
		break
	}

	items = stripLayoutMarkers(items)

	end := start
	if len(items) > 0 {
		end = items[len(items)-1].Span()
	}
	pe := &ast.PrefixExpr{Items: items, Semis: semis, SpanVal: start.Join(end)}
	if p.elseSlotPending {
		pe.PendingElse = true
		p.elseSlotPending = false
	}
	return pe
}

// stripLayoutMarkers removes inline cond/then/else/do markers that are not
// the first item on the line: once an if/while marker and at least one of
// then/else/do appear, the rest are purely visual aids.
func stripLayoutMarkers(items []ast.PrefixItem) []ast.PrefixItem {
	hasIfWhile, hasOther := false, false
	for _, it := range items {
		if m, ok := it.(*ast.MarkerItem); ok {
			switch m.Kind {
			case ast.MarkerIf, ast.MarkerWhile:
				hasIfWhile = true
			case ast.MarkerThen, ast.MarkerElse, ast.MarkerDo:
				hasOther = true
			}
		}
	}
	if !hasIfWhile || !hasOther {
		return items
	}
	out := make([]ast.PrefixItem, 0, len(items))
	for i, it := range items {
		if m, ok := it.(*ast.MarkerItem); ok && i > 0 {
			switch m.Kind {
			case ast.MarkerCond, ast.MarkerThen, ast.MarkerElse, ast.MarkerDo:
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

// atLineStop reports whether the cursor is at a token that ends a prefix
// expression's item-scanning loop.
func (p *Parser) atLineStop() bool {
	switch p.cur().Kind {
	case token.NEWLINE, token.SEMI, token.EOF, token.DEDENT, token.COLON:
		return true
	}
	return false
}

// parseOneItem parses exactly one PrefixItem and advances past it.
func (p *Parser) parseOneItem() ast.PrefixItem {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.LitItem{Kind: ast.LitInt, Text: tok.Literal, SpanVal: tok.Span}
	case token.FLOAT:
		p.advance()
		return &ast.LitItem{Kind: ast.LitFloat, Text: tok.Literal, SpanVal: tok.Span}
	case token.STRING:
		p.advance()
		return &ast.LitItem{Kind: ast.LitString, Text: tok.Literal, SpanVal: tok.Span}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.LitItem{Kind: ast.LitBool, Text: tok.Literal, SpanVal: tok.Span}
	case token.UNIT:
		p.advance()
		return &ast.LitItem{Kind: ast.LitUnit, Text: tok.Literal, SpanVal: tok.Span}

	case token.LET, token.SET:
		return p.parseAssignMarker()

	case token.IF:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerIf, SpanVal: tok.Span}
	case token.WHILE:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerWhile, SpanVal: tok.Span}
	case token.COND:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerCond, SpanVal: tok.Span}
	case token.THEN:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerThen, SpanVal: tok.Span}
	case token.ELSE:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerElse, SpanVal: tok.Span}
	case token.DO:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerDo, SpanVal: tok.Span}
	case token.BLOCK:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerDo, Name: "block", SpanVal: tok.Span}

	case token.AMP:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerAddrOf, SpanVal: tok.Span}
	case token.STAR:
		p.advance()
		return &ast.MarkerItem{Kind: ast.MarkerDeref, SpanVal: tok.Span}

	case token.PIPE:
		p.advance()
		return &ast.PipeItem{SpanVal: tok.Span}

	case token.LPAREN:
		return p.parseParenGroup()

	case token.DIRECTIVE:
		return p.parseInlineDirectiveItem()

	case token.IDENT:
		p.advance()
		sym := &ast.SymbolItem{Name: tok.Literal, SpanVal: tok.Span}
		sym.TypeArgs = p.parseTypeArgsOpt()
		sym.SpanVal = sym.SpanVal.Join(p.toks[p.pos-1].Span)
		return sym

	default:
		p.errorf(diag.ParUnexpectedToken, "unexpected token in expression")
		p.advance()
		return nil
	}
}

// parseAssignMarker parses `let name [=]` / `set name [=]`: the `=` is pure
// syntax sugar and is discarded once seen.
func (p *Parser) parseAssignMarker() ast.PrefixItem {
	tok := p.advance() // 'let' or 'set'
	kind := ast.MarkerLet
	if tok.Kind == token.SET {
		kind = ast.MarkerSet
	}
	isMut := false
	if p.at(token.MUT) {
		isMut = true
		p.advance()
	}
	_ = isMut // the `mut` flag is accepted and discarded; no later stage checks mutability
	name := p.expect(token.IDENT, diag.ParExpected, "binding name").Literal
	if p.at(token.ASSIGN) {
		p.advance()
	}
	return &ast.MarkerItem{Kind: kind, Name: name, SpanVal: tok.Span.Join(p.toks[p.pos-1].Span)}
}

// parseParenGroup parses `(...)`: a tuple if it contains a top-level comma,
// a single parenthesized expression otherwise, or (when every entry is a
// bare identifier) also records an IdentList so colon-desugaring can
// reinterpret it as a lambda parameter list.
func (p *Parser) parseParenGroup() ast.PrefixItem {
	start := p.advance().Span // '('
	var entries []*ast.PrefixExpr
	allIdents := true
	var idents []string
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		entryStart := p.cur().Span
		var entryItems []ast.PrefixItem
		for !p.at(token.COMMA) && !p.at(token.RPAREN) && !p.at(token.EOF) {
			item := p.parseOneItem()
			if item == nil {
				break
			}
			entryItems = append(entryItems, item)
		}
		if len(entryItems) == 1 {
			if sym, ok := entryItems[0].(*ast.SymbolItem); ok {
				idents = append(idents, sym.Name)
			} else {
				allIdents = false
			}
		} else {
			allIdents = false
		}
		end := entryStart
		if len(entryItems) > 0 {
			end = entryItems[len(entryItems)-1].Span()
		}
		entries = append(entries, &ast.PrefixExpr{Items: entryItems, SpanVal: entryStart.Join(end)})
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	end := p.expect(token.RPAREN, diag.ParExpected, "')' to close group").Span
	span := start.Join(end)

	if len(entries) == 1 {
		g := &ast.GroupItem{Inner: entries[0], SpanVal: span}
		if allIdents && len(idents) == 1 {
			g.IdentList = idents
		}
		return g
	}
	if allIdents && len(idents) == len(entries) {
		return &ast.GroupItem{IdentList: idents, SpanVal: span}
	}
	return &ast.TupleItem{Items: entries, SpanVal: span}
}

// parseMatch parses `match scrutinee: Variant [binding]: body ...` and
// appends the scrutinee's items followed by the MatchItem to items, so the
// checker sees `match`'s argument on the juggler stack exactly as any other
// call's preceding arguments.
func (p *Parser) parseMatch(items *[]ast.PrefixItem) {
	start := p.advance().Span // 'match'
	for !p.at(token.COLON) && !p.at(token.NEWLINE) && !p.at(token.EOF) {
		item := p.parseOneItem()
		if item == nil {
			break
		}
		*items = append(*items, item)
	}
	p.expect(token.COLON, diag.ParExpected, "':' before match arms")
	p.expect(token.NEWLINE, diag.ParExpected, "newline before match arms")
	p.expect(token.INDENT, diag.ParBlockShape, "indented match arms")
	p.skipNewlines()
	m := &ast.MatchItem{}
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		vname := p.expect(token.IDENT, diag.ParExpected, "variant name").Literal
		arm := ast.MatchArm{Variant: vname}
		if p.at(token.IDENT) {
			arm.Binding = p.advance().Literal
		}
		p.expect(token.COLON, diag.ParExpected, "':' before arm body")
		arm.Body = p.parsePrefixExpr()
		m.Arms = append(m.Arms, arm)
		p.skipNewlines()
	}
	if p.at(token.DEDENT) {
		p.advance()
	}
	m.SpanVal = start.Join(p.toks[p.pos-1].Span)
	*items = append(*items, m)
}
