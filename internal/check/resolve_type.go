package check

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// namedPrimitives maps NEPL's fixed-name primitive spellings to their
// well-known TypeIds.
var namedPrimitives = map[string]types.TypeId{
	"unit": types.TUnit,
	"i32":  types.TI32,
	"u8":   types.TU8,
	"f32":  types.TF32,
	"bool": types.TBool,
	"str":  types.TStr,
}

// resolveTypeExpr turns a parsed TypeExpr into an arena TypeId. genScope
// maps an enclosing declaration's generic parameter names (".T") to the
// TypeId already allocated for them; c.typeNames resolves struct/enum
// names registered during hoisting.
func (c *Checker) resolveTypeExpr(te *ast.TypeExpr, genScope map[string]types.TypeId) types.TypeId {
	if te == nil {
		return c.tc.NewVar("")
	}
	name := te.Name

	var base types.TypeId
	if len(name) > 0 && name[0] == '.' {
		if id, ok := genScope[name[1:]]; ok {
			base = id
		} else {
			base = c.tc.NewVar(name[1:])
			genScope[name[1:]] = base
		}
	} else if prim, ok := namedPrimitives[name]; ok {
		base = prim
	} else if id, ok := c.typeNames[name]; ok {
		base = id
	} else {
		base = c.tc.NewNamed(name)
	}

	if len(te.Args) > 0 {
		args := make([]types.TypeId, len(te.Args))
		for i, a := range te.Args {
			args[i] = c.resolveTypeExpr(a, genScope)
		}
		base = c.tc.NewApply(base, args)
	}
	if te.IsRef {
		base = c.tc.NewReference(base, te.RefMut)
	}
	return base
}

// resolveFuncSig builds a Function TypeId from a parsed FuncTypeExpr.
func (c *Checker) resolveFuncSig(sig *ast.FuncTypeExpr, genScope map[string]types.TypeId) types.TypeId {
	if sig == nil {
		return c.tc.NewVar("")
	}
	params := make([]types.TypeId, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = c.resolveTypeExpr(p, genScope)
	}
	result := c.resolveTypeExpr(sig.Result, genScope)
	eff := types.Pure
	if sig.Impure {
		eff = types.Impure
	}
	return c.tc.NewFunction(params, result, eff)
}
