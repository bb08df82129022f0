package parser

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

func (p *Parser) parseModule() *ast.Module {
	mod := &ast.Module{IndentUnit: p.indentUnit}
	mod.Body = p.parseBlock(0)
	mod.IndentUnit = p.indentUnit
	for _, stmt := range mod.Body.Stmts {
		if d, ok := stmt.(*ast.Directive); ok {
			mod.Directives = append(mod.Directives, d)
		}
	}
	return mod
}

// parseBlock parses a flat run of statements at the current indentation
// depth, consuming a leading INDENT and trailing DEDENT when depth > 0 (the
// root module block has no surrounding INDENT/DEDENT pair).
func (p *Parser) parseBlock(depth int) *ast.Block {
	start := p.cur().Span
	blk := &ast.Block{}
	if depth > 0 {
		p.expect(token.INDENT, diag.ParBlockShape, "indented block")
	}
	p.skipNewlines()
	for !p.at(token.EOF) && !p.at(token.DEDENT) {
		stmt := p.parseStmt()
		for _, fn := range p.pendingSynth {
			blk.Stmts = append(blk.Stmts, fn)
		}
		p.pendingSynth = nil
		if stmt != nil {
			p.glueElse(stmt)
			blk.Stmts = append(blk.Stmts, stmt)
		}
		p.skipNewlines()
	}
	if depth > 0 && p.at(token.DEDENT) {
		p.advance()
	}
	end := start
	if len(blk.Stmts) > 0 {
		end = blk.Stmts[len(blk.Stmts)-1].Span()
	}
	blk.SpanVal = start.Join(end)
	return blk
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.DIRECTIVE:
		tok := p.advance()
		d := p.parseDirective(tok)
		if d == nil {
			return nil
		}
		return d
	case token.FN:
		return p.parseFnItem()
	case token.STRUCT:
		return p.parseStructDef()
	case token.ENUM:
		return p.parseEnumDef()
	case token.TRAIT:
		return p.parseTraitDef()
	case token.IMPL:
		return p.parseImplDef()
	case token.PUB:
		p.advance()
		switch p.cur().Kind {
		case token.FN:
			stmt := p.parseFnItem()
			markPub(stmt)
			return stmt
		case token.STRUCT:
			s := p.parseStructDef()
			s.Pub = true
			return s
		case token.ENUM:
			e := p.parseEnumDef()
			e.Pub = true
			return e
		case token.TRAIT:
			t := p.parseTraitDef()
			t.Pub = true
			return t
		default:
			p.errorf(diag.ParUnexpectedToken, "'pub' must precede fn/struct/enum/trait")
			p.skipToRecover()
			return nil
		}
	default:
		return p.parseExprStmt()
	}
}

func markPub(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.FnDef:
		v.Pub = true
	case *ast.FnAlias:
		v.Pub = true
	}
}

// parseFnItem parses `fn name<.T> <sig> (params): body`, the alias form
// `fn a b;`, and the `#wasm:` raw-body form.
func (p *Parser) parseFnItem() ast.Stmt {
	start := p.cur().Span
	p.advance() // 'fn'
	name := p.expect(token.IDENT, diag.ParExpected, "function name").Literal

	// Alias form: `fn a b;`, a bare target identifier followed by a
	// statement-terminating semicolon, no signature or parameter list.
	if p.at(token.IDENT) && (p.peekAt(1).Kind == token.SEMI || p.peekAt(1).Kind == token.NEWLINE) {
		target := p.advance().Literal
		for p.at(token.SEMI) {
			p.advance()
		}
		return &ast.FnAlias{Name: name, Target: target, SpanVal: start.Join(p.toks[p.pos-1].Span)}
	}

	typeParams := p.parseGenericParams()
	sig := p.parseFuncSig()

	var params []ast.Param
	if p.at(token.UNIT) {
		p.advance() // `()` lexes as a single UNIT token: empty parameter list
	} else {
		p.expect(token.LPAREN, diag.ParExpected, "'(' to open parameter list")
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			pname := p.expect(token.IDENT, diag.ParExpected, "parameter name")
			params = append(params, ast.Param{Name: pname.Literal, Span: pname.Span})
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RPAREN, diag.ParExpected, "')' to close parameter list")
	}
	p.expect(token.COLON, diag.ParExpected, "':' before function body")

	fn := &ast.FnDef{Name: name, TypeParams: typeParams, Sig: sig, Params: params}

	if p.at(token.WASMTEXT) {
		for p.at(token.WASMTEXT) {
			fn.RawWasm = append(fn.RawWasm, p.advance().Literal)
			p.skipNewlines()
		}
		fn.SpanVal = start.Join(p.toks[p.pos-1].Span)
		return fn
	}

	if p.at(token.NEWLINE) && p.peekAt(1).Kind == token.INDENT {
		p.advance() // NEWLINE
		blk := p.parseBlock(1)
		fn.Body = blockAsExpr(blk)
	} else {
		fn.Body = p.parsePrefixExpr()
	}
	fn.SpanVal = start.Join(p.toks[p.pos-1].Span)
	return fn
}

// blockAsExpr wraps a multi-statement body block as a single PrefixExpr
// whose sole item is a BlockItem, matching how colon-desugaring represents
// a `block:` form elsewhere.
func blockAsExpr(blk *ast.Block) *ast.PrefixExpr {
	return &ast.PrefixExpr{
		Items:   []ast.PrefixItem{&ast.BlockItem{Block: blk, SpanVal: blk.SpanVal}},
		SpanVal: blk.SpanVal,
	}
}

func (p *Parser) parseStructDef() *ast.StructDef {
	start := p.cur().Span
	p.advance() // 'struct'
	name := p.expect(token.IDENT, diag.ParExpected, "struct name").Literal
	typeParams := p.parseGenericParams()
	p.expect(token.COLON, diag.ParExpected, "':' before struct fields")
	s := &ast.StructDef{Name: name, TypeParams: typeParams}
	fieldType := func() *ast.TypeExpr {
		if p.at(token.LANGLE) {
			p.advance()
			t := p.parseTypeExpr()
			p.expect(token.RANGLE, diag.ParExpected, "'>' to close field type")
			return t
		}
		return p.parseTypeExpr()
	}
	parseFieldList := func() {
		for p.at(token.IDENT) {
			fname := p.advance().Literal
			ftype := fieldType()
			s.Fields = append(s.Fields, ast.FieldDef{Name: fname, Type: ftype})
		}
	}
	if p.at(token.NEWLINE) && p.peekAt(1).Kind == token.INDENT {
		p.advance()
		p.advance() // INDENT
		p.skipNewlines()
		for !p.at(token.DEDENT) && !p.at(token.EOF) {
			fname := p.expect(token.IDENT, diag.ParExpected, "field name").Literal
			ftype := fieldType()
			s.Fields = append(s.Fields, ast.FieldDef{Name: fname, Type: ftype})
			p.skipNewlines()
		}
		if p.at(token.DEDENT) {
			p.advance()
		}
	} else {
		parseFieldList()
	}
	s.SpanVal = start.Join(p.toks[p.pos-1].Span)
	return s
}

func (p *Parser) parseEnumDef() *ast.EnumDef {
	start := p.cur().Span
	p.advance() // 'enum'
	name := p.expect(token.IDENT, diag.ParExpected, "enum name").Literal
	typeParams := p.parseGenericParams()
	p.expect(token.COLON, diag.ParExpected, "':' before enum variants")
	e := &ast.EnumDef{Name: name, TypeParams: typeParams}
	parseOne := func() {
		vname := p.expect(token.IDENT, diag.ParExpected, "variant name").Literal
		v := ast.VariantDef{Name: vname}
		if p.at(token.LANGLE) {
			p.advance()
			v.Payload = p.parseTypeExpr()
			p.expect(token.RANGLE, diag.ParExpected, "'>' to close variant payload")
		}
		e.Variants = append(e.Variants, v)
	}
	if p.at(token.NEWLINE) && p.peekAt(1).Kind == token.INDENT {
		p.advance()
		p.advance()
		p.skipNewlines()
		for !p.at(token.DEDENT) && !p.at(token.EOF) {
			parseOne()
			for p.at(token.SEMI) {
				p.advance()
			}
			p.skipNewlines()
		}
		if p.at(token.DEDENT) {
			p.advance()
		}
	} else {
		parseOne()
		for p.at(token.SEMI) {
			p.advance()
			if p.at(token.IDENT) {
				parseOne()
			}
		}
	}
	e.SpanVal = start.Join(p.toks[p.pos-1].Span)
	return e
}

func (p *Parser) parseTraitDef() *ast.TraitDef {
	start := p.cur().Span
	p.advance() // 'trait'
	name := p.expect(token.IDENT, diag.ParExpected, "trait name").Literal
	tp := ast.TypeParam{Name: "Self"}
	if p.at(token.LANGLE) {
		params := p.parseGenericParams()
		if len(params) > 0 {
			tp = params[0]
		}
	}
	p.expect(token.COLON, diag.ParExpected, "':' before trait methods")
	t := &ast.TraitDef{Name: name, Param: tp}
	p.expect(token.NEWLINE, diag.ParExpected, "newline before trait body")
	p.expect(token.INDENT, diag.ParBlockShape, "indented trait body")
	p.skipNewlines()
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		p.expect(token.FN, diag.ParExpected, "method signature")
		mname := p.expect(token.IDENT, diag.ParExpected, "method name").Literal
		sig := p.parseFuncSig()
		for p.at(token.SEMI) {
			p.advance()
		}
		t.Methods = append(t.Methods, ast.TraitMethod{Name: mname, Sig: sig})
		p.skipNewlines()
	}
	if p.at(token.DEDENT) {
		p.advance()
	}
	t.SpanVal = start.Join(p.toks[p.pos-1].Span)
	return t
}

func (p *Parser) parseImplDef() *ast.ImplDef {
	start := p.cur().Span
	p.advance() // 'impl'
	trait := p.expect(token.IDENT, diag.ParExpected, "trait name").Literal
	p.expect(token.FOR, diag.ParExpected, "'for'")
	forType := p.parseTypeExpr()
	p.expect(token.COLON, diag.ParExpected, "':' before impl methods")
	impl := &ast.ImplDef{Trait: trait, ForType: forType}
	p.expect(token.NEWLINE, diag.ParExpected, "newline before impl body")
	p.expect(token.INDENT, diag.ParBlockShape, "indented impl body")
	p.skipNewlines()
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		if !p.at(token.FN) {
			p.errorf(diag.ParExpected, "expected method definition in impl body")
			p.skipToRecover()
			continue
		}
		if fn, ok := p.parseFnItem().(*ast.FnDef); ok {
			impl.Methods = append(impl.Methods, fn)
		}
		p.skipNewlines()
	}
	if p.at(token.DEDENT) {
		p.advance()
	}
	impl.SpanVal = start.Join(p.toks[p.pos-1].Span)
	return impl
}

func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parsePrefixExpr()
	if expr == nil {
		p.skipToRecover()
		return nil
	}
	return &ast.ExprStmt{Expr: expr}
}
