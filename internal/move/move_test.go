package move

import (
	"testing"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

func hasCode(sink *diag.Sink, code string) bool {
	for _, r := range sink.Reports() {
		if r.Code == code {
			return true
		}
	}
	return false
}

func runCheck(t *testing.T, tc *types.TypeCtx, fn *hir.HirFunction) *diag.Sink {
	t.Helper()
	sink := diag.NewSink()
	mod := &hir.HirModule{Functions: []*hir.HirFunction{fn}}
	Check(mod, tc, sink)
	return sink
}

func TestDoubleUseOfNonCopyValueIsRejected(t *testing.T) {
	tc := types.NewTypeCtx()
	structTy := tc.NewStruct("Box", nil, []types.Field{{Name: "v", Type: types.TI32}})
	var sp source.Span

	x1 := hir.NewVar("x", true, structTy, sp)
	x2 := hir.NewVar("x", true, structTy, sp)
	body := hir.NewBlock([]hir.Node{x1, x2}, []bool{true, false}, structTy, sp)

	fn := &hir.HirFunction{
		Name:   "f",
		Locals: []hir.Local{{Name: "x", Type: structTy, IsParam: true}},
		Body:   body,
	}
	sink := runCheck(t, tc, fn)
	if !hasCode(sink, diag.MovUseOfMoved) {
		t.Fatalf("expected %s, got %v", diag.MovUseOfMoved, sink.Reports())
	}
}

func TestCopyValueCanBeUsedRepeatedly(t *testing.T) {
	tc := types.NewTypeCtx()
	var sp source.Span

	x1 := hir.NewVar("x", true, types.TI32, sp)
	x2 := hir.NewVar("x", true, types.TI32, sp)
	body := hir.NewBlock([]hir.Node{x1, x2}, []bool{true, false}, types.TI32, sp)

	fn := &hir.HirFunction{
		Name:   "f",
		Locals: []hir.Local{{Name: "x", Type: types.TI32, IsParam: true}},
		Body:   body,
	}
	sink := runCheck(t, tc, fn)
	if sink.HasErrors() {
		t.Fatalf("copy values should be freely reusable, got %v", sink.Reports())
	}
}

func TestBorrowOfMovedValueIsRejected(t *testing.T) {
	tc := types.NewTypeCtx()
	structTy := tc.NewStruct("Box", nil, []types.Field{{Name: "v", Type: types.TI32}})
	var sp source.Span

	x1 := hir.NewVar("x", true, structTy, sp)
	xRef := hir.NewVar("x", true, structTy, sp)
	addr := hir.NewAddrOf(xRef, false, tc.NewReference(structTy, false), sp)
	body := hir.NewBlock([]hir.Node{x1, addr}, []bool{true, false}, structTy, sp)

	fn := &hir.HirFunction{
		Name:   "f",
		Locals: []hir.Local{{Name: "x", Type: structTy, IsParam: true}},
		Body:   body,
	}
	sink := runCheck(t, tc, fn)
	if !hasCode(sink, diag.MovBorrowOfMoved) {
		t.Fatalf("expected %s, got %v", diag.MovBorrowOfMoved, sink.Reports())
	}
}

func TestIfBranchAsymmetricMoveIsPossiblyMovedAfterJoin(t *testing.T) {
	tc := types.NewTypeCtx()
	structTy := tc.NewStruct("Box", nil, []types.Field{{Name: "v", Type: types.TI32}})
	var sp source.Span

	cond := hir.NewLiteral(hir.LitBool, types.TBool, sp)
	cond.Bool = true

	// then-branch moves x; else-branch does not touch it.
	thenMove := hir.NewVar("x", true, structTy, sp)
	elseLit := hir.NewLiteral(hir.LitUnit, types.TUnit, sp)
	ifNode := hir.NewIf(cond, thenMove, elseLit, structTy, sp)

	// after the if, reading x again should now be flagged.
	xAfter := hir.NewVar("x", true, structTy, sp)
	body := hir.NewBlock([]hir.Node{ifNode, xAfter}, []bool{true, false}, structTy, sp)

	fn := &hir.HirFunction{
		Name:   "f",
		Locals: []hir.Local{{Name: "x", Type: structTy, IsParam: true}},
		Body:   body,
	}
	sink := runCheck(t, tc, fn)
	if !hasCode(sink, diag.MovUseOfMoved) {
		t.Fatalf("expected %s after asymmetric branch move, got %v", diag.MovUseOfMoved, sink.Reports())
	}
}

func TestWhileBodyMoveWarnsPossiblyMoved(t *testing.T) {
	tc := types.NewTypeCtx()
	structTy := tc.NewStruct("Box", nil, []types.Field{{Name: "v", Type: types.TI32}})
	var sp source.Span

	cond := hir.NewLiteral(hir.LitBool, types.TBool, sp)
	cond.Bool = true
	bodyMove := hir.NewVar("x", true, structTy, sp)
	whileNode := hir.NewWhile(cond, bodyMove, types.TUnit, sp)

	fn := &hir.HirFunction{
		Name:   "f",
		Locals: []hir.Local{{Name: "x", Type: structTy, IsParam: true}},
		Body:   whileNode,
	}
	sink := runCheck(t, tc, fn)
	if !hasCode(sink, diag.MovPossiblyMoved) {
		t.Fatalf("expected %s, got %v", diag.MovPossiblyMoved, sink.Reports())
	}
}
