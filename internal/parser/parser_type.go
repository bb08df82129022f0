package parser

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

// parseGenericParams parses `<.T, .U: TraitA & TraitB>` following a
// definition's name. Returns nil if no `<` follows.
func (p *Parser) parseGenericParams() []ast.TypeParam {
	if !p.at(token.LANGLE) {
		return nil
	}
	// Only treat as generic-param list if the very next token is a DOT,
	// the syntactic marker distinguishing type params from a signature's
	// `<(...)->R>`.
	if p.peekAt(1).Kind != token.DOT {
		return nil
	}
	p.advance() // consume '<'
	var params []ast.TypeParam
	for !p.at(token.RANGLE) && !p.at(token.EOF) {
		p.expect(token.DOT, diag.ParExpected, "'.' before generic parameter name")
		name := p.expect(token.IDENT, diag.ParExpected, "generic parameter name").Literal
		tp := ast.TypeParam{Name: name}
		if p.at(token.COLON) {
			p.advance()
			tp.Bounds = append(tp.Bounds, p.expect(token.IDENT, diag.ParExpected, "trait bound").Literal)
			for p.at(token.AMP) {
				p.advance()
				tp.Bounds = append(tp.Bounds, p.expect(token.IDENT, diag.ParExpected, "trait bound").Literal)
			}
		}
		params = append(params, tp)
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RANGLE, diag.ParExpected, "'>' to close generic parameter list")
	return params
}

// parseFuncSig parses `<(T1, T2)->R>` or `<*>R>`/`*>R` signature
// annotations attached to `fn`.
func (p *Parser) parseFuncSig() *ast.FuncTypeExpr {
	start := p.cur().Span
	if !p.at(token.LANGLE) {
		return nil
	}
	p.advance()
	sig := &ast.FuncTypeExpr{}
	if p.at(token.LPAREN) {
		p.advance()
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			sig.Params = append(sig.Params, p.parseTypeExpr())
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RPAREN, diag.ParExpected, "')' to close parameter type list")
	} else if p.at(token.UNIT) {
		p.advance()
	}
	if p.at(token.ARROW_PURE) {
		p.advance()
	} else if p.at(token.ARROW_IMPURE) {
		sig.Impure = true
		p.advance()
	} else {
		p.errorf(diag.ParExpected, "expected '->' or '*>' in function signature")
	}
	sig.Result = p.parseTypeExpr()
	p.expect(token.RANGLE, diag.ParExpected, "'>' to close function signature")
	sig.SpanVal = start.Join(p.toks[p.pos-1].Span)
	return sig
}

// parseTypeExpr parses a single type-level expression: a name, optionally
// generic-applied (`Option<.T>` / `Option<i32>`), or `&T`/`&mut T`.
func (p *Parser) parseTypeExpr() *ast.TypeExpr {
	start := p.cur().Span
	if p.at(token.AMP) {
		p.advance()
		mut := false
		if p.at(token.MUT) {
			mut = true
			p.advance()
		}
		inner := p.parseTypeExpr()
		return &ast.TypeExpr{IsRef: true, RefMut: mut, Args: []*ast.TypeExpr{inner}, SpanVal: start.Join(inner.SpanVal)}
	}
	name := ""
	if p.at(token.DOT) {
		p.advance()
		name = "." + p.expect(token.IDENT, diag.ParExpected, "type parameter name").Literal
	} else {
		name = p.expect(token.IDENT, diag.ParExpected, "type name").Literal
	}
	te := &ast.TypeExpr{Name: name, SpanVal: start}
	if p.at(token.LANGLE) && p.peekAt(1).Kind != token.LPAREN {
		p.advance()
		for !p.at(token.RANGLE) && !p.at(token.EOF) {
			te.Args = append(te.Args, p.parseTypeExpr())
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RANGLE, diag.ParExpected, "'>' to close type argument list")
	}
	te.SpanVal = te.SpanVal.Join(p.toks[p.pos-1].Span)
	return te
}

// parseTypeArgsOpt parses an optional explicit `<T1, T2>` type-argument
// list at a call site (`name<.I32>`); returns nil if none present.
func (p *Parser) parseTypeArgsOpt() []*ast.TypeExpr {
	if !p.at(token.LANGLE) {
		return nil
	}
	save := p.pos
	p.advance()
	var args []*ast.TypeExpr
	ok := true
	for !p.at(token.RANGLE) {
		if p.at(token.EOF) || p.at(token.NEWLINE) || p.at(token.COLON) {
			ok = false
			break
		}
		args = append(args, p.parseTypeExpr())
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	if !ok || !p.at(token.RANGLE) {
		p.pos = save
		return nil
	}
	p.advance()
	return args
}
