package parser

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/token"
)

// handleColonBlock consumes the `:` at the cursor and attaches the
// following indented block to items in one of the five recognized
// colon-block shapes.
func (p *Parser) handleColonBlock(items *[]ast.PrefixItem) {
	colonSpan := p.advance().Span // ':'

	if idx, ok := lastIdentGroup(*items); ok {
		p.desugarLambda(items, idx, colonSpan)
		return
	}
	if idx := findMarker(*items, ast.MarkerIf); idx >= 0 {
		p.desugarIfWhile(items, idx, true, colonSpan)
		return
	}
	if idx := findMarker(*items, ast.MarkerWhile); idx >= 0 {
		p.desugarIfWhile(items, idx, false, colonSpan)
		return
	}
	if isSoleTrailingBlockMarker(*items) {
		if len(*items) > 0 && !p.at(token.NEWLINE) {
			// inline form `cond: expr`: the rest of the line is the slot value
			rest := p.parsePrefixExpr()
			*items = append(*items, rest.Items...)
			return
		}
		blk := p.parseIndentedBlock()
		*items = append(*items, &ast.BlockItem{Block: blk, SpanVal: blk.SpanVal})
		return
	}

	// Shape 5: general argument layout. The block's statements become
	// positional argument expressions of the preceding call.
	blk := p.parseIndentedBlock()
	for _, st := range blk.Stmts {
		if es, ok := st.(*ast.ExprStmt); ok {
			*items = append(*items, &ast.ExprItem{Expr: es.Expr, SpanVal: es.Expr.SpanVal})
		}
	}
}

func (p *Parser) parseIndentedBlock() *ast.Block {
	p.expect(token.NEWLINE, diag.ParBlockShape, "newline before indented block")
	return p.parseBlock(1)
}

// lastIdentGroup reports whether the last item is a GroupItem carrying a
// bare-identifier list (the parenthesized lambda-parameter shape).
func lastIdentGroup(items []ast.PrefixItem) (int, bool) {
	if len(items) == 0 {
		return 0, false
	}
	idx := len(items) - 1
	g, ok := items[idx].(*ast.GroupItem)
	if !ok || g.IdentList == nil {
		return 0, false
	}
	return idx, true
}

// desugarLambda implements colon-desugaring shape 2: the parenthesized
// identifier group immediately before `:` becomes a synthesized nested
// function's parameter list, and the group item is replaced by a symbol
// reference to that function.
func (p *Parser) desugarLambda(items *[]ast.PrefixItem, groupIdx int, colonSpan interface{ Span() }) {
	g := (*items)[groupIdx].(*ast.GroupItem)
	blk := p.parseIndentedBlock()
	name := synthName("lambda")
	var params []ast.Param
	for _, id := range g.IdentList {
		params = append(params, ast.Param{Name: id})
	}
	fn := &ast.FnDef{
		Name:    name,
		Params:  params,
		Body:    blockAsExpr(blk),
		SpanVal: blk.SpanVal,
	}
	p.pendingSynth = append(p.pendingSynth, fn)
	(*items)[groupIdx] = &ast.SymbolItem{Name: name, SpanVal: g.SpanVal}
}

// findMarker returns the index of the first MarkerItem of the given kind,
// or -1.
func findMarker(items []ast.PrefixItem, kind ast.MarkerKind) int {
	for i, it := range items {
		if m, ok := it.(*ast.MarkerItem); ok && m.Kind == kind {
			return i
		}
	}
	return -1
}

// isSoleTrailingBlockMarker reports shape 1: the line's only item list
// content besides the `:` is the block/cond/then/else/do marker itself, or
// the line ends with a bare `block` marker.
func isSoleTrailingBlockMarker(items []ast.PrefixItem) bool {
	if len(items) == 0 {
		return true // bare `:` opens a block with no preceding call
	}
	if m, ok := items[len(items)-1].(*ast.MarkerItem); ok {
		switch m.Kind {
		case ast.MarkerDo, ast.MarkerCond, ast.MarkerThen, ast.MarkerElse:
			if m.Name == "block" {
				return true
			}
			return len(items) == 1
		}
	}
	return false
}

// desugarIfWhile implements colon-desugaring shapes 3 and 4. isIf selects
// between the if-layout marker set {cond, then, else} and the while-layout
// set {cond, do}.
func (p *Parser) desugarIfWhile(items *[]ast.PrefixItem, markerIdx int, isIf bool, colonSpan interface{ Span() }) {
	hasCondBefore := markerIdx < len(*items)-1
	blk := p.parseIndentedBlock()
	if !isIf && hasCondBefore {
		// `while <cond>:` — the whole indented block is the loop body
		*items = append(*items, &ast.BlockItem{Block: blk, SpanVal: blk.SpanVal})
		return
	}

	var slotNames []string
	if isIf {
		if hasCondBefore {
			slotNames = []string{"then", "else"}
		} else {
			slotNames = []string{"cond", "then", "else"}
		}
	} else {
		if hasCondBefore {
			slotNames = []string{"do"}
		} else {
			slotNames = []string{"cond", "do"}
		}
	}

	slots, ok := p.fillSlots(blk, slotNames)
	if !ok {
		return
	}

	result := make([]ast.PrefixItem, 0, len(slots))
	pendingElse := false
	for i, name := range slotNames {
		v := slots[i]
		if v == nil {
			if isIf && name == "else" {
				pendingElse = true
				continue
			}
			p.sink.Add(diag.New(diag.Error, diag.ParMarkerMissing, "parser", blk.SpanVal,
				"missing '"+name+"' slot in layout block"))
			continue
		}
		result = append(result, &ast.ExprItem{Expr: v, SpanVal: v.SpanVal})
	}
	*items = append(*items, result...)

	if pendingElse {
		p.elseSlotPending = true
	}
}

// glueElse implements the "glued else" rule: if stmt's expression is
// missing its `else` slot, look for an immediately following `else:`
// sibling statement and fold it in.
func (p *Parser) glueElse(stmt ast.Stmt) {
	es, ok := stmt.(*ast.ExprStmt)
	if !ok || !es.Expr.PendingElse {
		return
	}
	p.skipNewlines()
	if !p.at(token.ELSE) || p.peekAt(1).Kind != token.COLON {
		return
	}
	p.advance() // 'else'
	p.advance() // ':'
	blk := p.parseIndentedBlock()
	elseExpr := blockAsExpr(blk)
	es.Expr.Items = append(es.Expr.Items, &ast.ExprItem{Expr: elseExpr, SpanVal: elseExpr.SpanVal})
	es.Expr.PendingElse = false
}

// fillSlots maps a colon-block's top-level statements onto named slots:
// markers (cond/then/else/do as the statement's first item) take explicit
// precedence, then remaining entries fill empty slots left to right. It
// enforces no duplicate/out-of-order markers.
func (p *Parser) fillSlots(blk *ast.Block, names []string) ([]*ast.PrefixExpr, bool) {
	slots := make([]*ast.PrefixExpr, len(names))
	filled := make([]bool, len(names))
	nameIdx := func(n string) int {
		for i, nm := range names {
			if nm == n {
				return i
			}
		}
		return -1
	}

	var unmarked []*ast.PrefixExpr
	lastMarkerSlot := -1
	for _, st := range blk.Stmts {
		es, ok := st.(*ast.ExprStmt)
		if !ok || len(es.Expr.Items) == 0 {
			continue
		}
		markerName := ""
		if m, ok := es.Expr.Items[0].(*ast.MarkerItem); ok {
			switch m.Kind {
			case ast.MarkerCond:
				markerName = "cond"
			case ast.MarkerThen:
				markerName = "then"
			case ast.MarkerElse:
				markerName = "else"
			case ast.MarkerDo:
				markerName = "do"
			}
		}
		if markerName == "" {
			unmarked = append(unmarked, es.Expr)
			continue
		}
		idx := nameIdx(markerName)
		if idx < 0 {
			p.sink.Add(diag.New(diag.Error, diag.ParMarkerExtra, "parser", es.Expr.SpanVal,
				"marker '"+markerName+"' is not valid in this layout block"))
			continue
		}
		if filled[idx] {
			p.sink.Add(diag.New(diag.Error, diag.ParMarkerDup, "parser", es.Expr.SpanVal,
				"duplicate '"+markerName+"' marker"))
			continue
		}
		if idx < lastMarkerSlot {
			p.sink.Add(diag.New(diag.Error, diag.ParMarkerOrder, "parser", es.Expr.SpanVal,
				"'"+markerName+"' marker is out of order"))
			continue
		}
		lastMarkerSlot = idx
		rest := &ast.PrefixExpr{Items: es.Expr.Items[1:], Semis: es.Expr.Semis, SpanVal: es.Expr.SpanVal}
		slots[idx] = rest
		filled[idx] = true
	}

	ui := 0
	for i := range slots {
		if filled[i] {
			continue
		}
		if ui < len(unmarked) {
			slots[i] = unmarked[ui]
			ui = ui + 1
			filled[i] = true
		}
	}
	if ui < len(unmarked) {
		p.sink.Add(diag.New(diag.Error, diag.ParMarkerExtra, "parser", blk.SpanVal,
			"extra entries in layout block beyond its expected slots"))
	}
	return slots, true
}
