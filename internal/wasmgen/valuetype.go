package wasmgen

import (
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// loweredType is one TypeId's wasm-level shape: either "no type" (Unit,
// dropped from signatures/returns) or a concrete value-type byte.
type loweredType struct {
	IsUnit bool
	Val    byte
}

// lowerType implements "Value-type mapping" table.
func (g *Generator) lowerType(id types.TypeId) (loweredType, bool) {
	k := g.tc.Get(g.tc.Resolve(id))
	switch k.Kind {
	case types.KUnit:
		return loweredType{IsUnit: true}, true
	case types.KI32:
		return loweredType{Val: valI32}, true
	case types.KU8:
		return loweredType{Val: valI32}, true
	case types.KBool:
		return loweredType{Val: valI32}, true
	case types.KStr:
		return loweredType{Val: valI32}, true
	case types.KEnum, types.KStruct, types.KTuple, types.KReference, types.KBox, types.KApply:
		return loweredType{Val: valI32}, true
	case types.KF32:
		return loweredType{Val: valF32}, true
	case types.KNamed:
		switch k.Name {
		case "i64":
			return loweredType{Val: valI64}, true
		case "f64":
			return loweredType{Val: valF64}, true
		case "i32", "u8", "bool", "str":
			return loweredType{Val: valI32}, true
		case "f32":
			return loweredType{Val: valF32}, true
		}
		return loweredType{}, false
	default:
		return loweredType{}, false
	}
}

// lowerParams drops Unit-typed parameters/results from a wasm signature.
func (g *Generator) lowerParams(ids []types.TypeId) ([]byte, bool) {
	var out []byte
	for _, id := range ids {
		lt, ok := g.lowerType(id)
		if !ok {
			return nil, false
		}
		if lt.IsUnit {
			continue
		}
		out = append(out, lt.Val)
	}
	return out, true
}

func (g *Generator) lowerResult(id types.TypeId) ([]byte, bool) {
	lt, ok := g.lowerType(id)
	if !ok {
		return nil, false
	}
	if lt.IsUnit {
		return nil, true
	}
	return []byte{lt.Val}, true
}
