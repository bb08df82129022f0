package check

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// checkIntrinsic lowers a `#intrinsic "name"<T...>(args...)` item straight
// to its IntrinsicNode: these are a fixed, non-overloadable set dispatched
// by name rather than through the callable overload-resolution path.
func (c *Checker) checkIntrinsic(it *ast.IntrinsicItem) hir.Node {
	gen := map[string]types.TypeId{}
	var typeArg types.TypeId = types.InvalidTypeId
	if len(it.TypeArgs) > 0 {
		typeArg = c.resolveTypeExpr(it.TypeArgs[0], gen)
	}
	var args []hir.Node
	for _, a := range it.Args {
		args = append(args, c.checkExpr(a))
	}

	switch it.Name {
	case "size_of":
		return hir.NewIntrinsic(hir.IntrinsicSizeOf, typeArg, nil, "", types.TI32, it.SpanVal)
	case "align_of":
		return hir.NewIntrinsic(hir.IntrinsicAlignOf, typeArg, nil, "", types.TI32, it.SpanVal)
	case "load":
		return hir.NewIntrinsic(hir.IntrinsicLoad, typeArg, args, "", typeArg, it.SpanVal)
	case "store":
		return hir.NewIntrinsic(hir.IntrinsicStore, typeArg, args, "", types.TUnit, it.SpanVal)
	case "add":
		resultTy := types.TI32
		if len(args) > 0 {
			resultTy = args[0].Type()
		}
		return hir.NewIntrinsic(hir.IntrinsicAdd, typeArg, args, "", resultTy, it.SpanVal)
	case "callsite_span":
		return hir.NewIntrinsic(hir.IntrinsicCallsiteSpan, typeArg, nil, "", types.TI32, it.SpanVal)
	case "unreachable":
		return hir.NewIntrinsic(hir.IntrinsicUnreachable, typeArg, nil, "", types.TNever, it.SpanVal)
	default:
		c.errorf(it.SpanVal, diag.GenUnsupportedTy, "unknown intrinsic '%s'", it.Name)
		return hir.NewIntrinsic(hir.IntrinsicUnreachable, typeArg, nil, "", types.TNever, it.SpanVal)
	}
}
