package check

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// checkBlock checks a nested Block's statements in a fresh scope and
// returns its BlockNode. A statement's trailing `;` markers (Semis > 0)
// flag its value to be dropped rather than threaded forward as the
// block's result; the last non-dropped line's value is the block's
// result, or Unit if every line dropped (or the block is empty).
func (c *Checker) checkBlock(blk *ast.Block) hir.Node {
	c.env.Push()
	defer c.env.Pop()

	var lines []hir.Node
	var dropFlags []bool
	for _, stmt := range blk.Stmts {
		switch s := stmt.(type) {
		case *ast.ExprStmt:
			n := c.checkExpr(s.Expr)
			drop := s.Expr.Semis > 0
			lines = append(lines, n)
			dropFlags = append(dropFlags, drop)
		case *ast.FnDef:
			c.checkNestedFnDef(s)
		case *ast.StructDef:
			c.hoistStruct(s)
		case *ast.EnumDef:
			c.hoistEnum(s)
		}
	}

	resultTy := types.TUnit
	for i := len(lines) - 1; i >= 0; i-- {
		if !dropFlags[i] {
			resultTy = lines[i].Type()
			break
		}
	}
	for i, n := range lines {
		if dropFlags[i] {
			lines[i] = hir.NewDrop(n, n.Span())
		}
	}
	return hir.NewBlock(lines, dropFlags, resultTy, blk.Span())
}
