package wasmgen

import (
	"testing"

	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

func newTestGenerator(tc *types.TypeCtx) *Generator {
	return &Generator{tc: tc}
}

func TestLowerTypePrimitives(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newTestGenerator(tc)

	lt, ok := g.lowerType(types.TUnit)
	if !ok || !lt.IsUnit {
		t.Fatalf("Unit: got %+v, ok=%v", lt, ok)
	}

	lt, ok = g.lowerType(types.TI32)
	if !ok || lt.IsUnit || lt.Val != valI32 {
		t.Fatalf("i32: got %+v, ok=%v", lt, ok)
	}

	lt, ok = g.lowerType(types.TBool)
	if !ok || lt.IsUnit || lt.Val != valI32 {
		t.Fatalf("bool: got %+v, ok=%v", lt, ok)
	}

	lt, ok = g.lowerType(types.TF32)
	if !ok || lt.IsUnit || lt.Val != valF32 {
		t.Fatalf("f32: got %+v, ok=%v", lt, ok)
	}
}

func TestLowerTypeAggregatesLowerToI32Pointer(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newTestGenerator(tc)
	tup := tc.NewTuple([]types.TypeId{types.TI32, types.TBool})
	lt, ok := g.lowerType(tup)
	if !ok || lt.IsUnit || lt.Val != valI32 {
		t.Fatalf("tuple should lower to an i32 pointer: got %+v, ok=%v", lt, ok)
	}
}

func TestLowerTypeUnresolvedVarFails(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newTestGenerator(tc)
	v := tc.NewVar("T")
	_, ok := g.lowerType(v)
	if ok {
		t.Fatal("expected an unresolved type variable to fail lowering")
	}
}

func TestLowerParamsDropsUnit(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newTestGenerator(tc)
	params, ok := g.lowerParams([]types.TypeId{types.TI32, types.TUnit, types.TBool})
	if !ok {
		t.Fatal("lowerParams failed")
	}
	want := []byte{valI32, valI32}
	if string(params) != string(want) {
		t.Errorf("params = % x, want % x", params, want)
	}
}

func TestLowerResultUnitYieldsEmptySlice(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newTestGenerator(tc)
	result, ok := g.lowerResult(types.TUnit)
	if !ok {
		t.Fatal("lowerResult failed")
	}
	if len(result) != 0 {
		t.Errorf("result = % x, want empty", result)
	}
}

func TestLowerResultValueYieldsOneByte(t *testing.T) {
	tc := types.NewTypeCtx()
	g := newTestGenerator(tc)
	result, ok := g.lowerResult(types.TI32)
	if !ok {
		t.Fatal("lowerResult failed")
	}
	if len(result) != 1 || result[0] != valI32 {
		t.Errorf("result = % x, want [%#x]", result, valI32)
	}
}
