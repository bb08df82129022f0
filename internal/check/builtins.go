package check

import "github.com/neknaj/NEPLg2-sub000/internal/types"

// SeedBuiltins installs the prelude's overloaded arithmetic/comparison/io
// functions into env's current (root) scope. These are ordinary callable
// bindings (resolved through the same overload-resolution path as user
// functions) but codegen recognizes their BuiltinOp name
// and lowers them to direct wasm instructions rather than a `call`.
func SeedBuiltins(env *Env, tc *types.TypeCtx) {
	numeric := []types.TypeId{types.TI32, types.TF32}
	for _, t := range numeric {
		seedBinaryArith(env, tc, "add", t)
		seedBinaryArith(env, tc, "sub", t)
		seedBinaryArith(env, tc, "mul", t)
		seedBinaryArith(env, tc, "div", t)
		seedComparison(env, tc, "eq", t)
		seedComparison(env, tc, "lt", t)
		seedComparison(env, tc, "gt", t)
	}
	seedUnaryBool(env, tc, "not")
	seedBinaryBool(env, tc, "and")
	seedBinaryBool(env, tc, "or")

	env.DeclareFunc("print", &FuncInfo{
		IsBuiltin: true, BuiltinOp: "print", Effect: types.Impure,
		Sig: tc.NewFunction([]types.TypeId{types.TStr}, types.TUnit, types.Impure),
	})
	env.DeclareFunc("println", &FuncInfo{
		IsBuiltin: true, BuiltinOp: "println", Effect: types.Impure,
		Sig: tc.NewFunction([]types.TypeId{types.TStr}, types.TUnit, types.Impure),
	})
}

func seedBinaryArith(env *Env, tc *types.TypeCtx, name string, t types.TypeId) {
	env.DeclareFunc(name, &FuncInfo{
		IsBuiltin: true, BuiltinOp: name, Effect: types.Pure,
		Sig: tc.NewFunction([]types.TypeId{t, t}, t, types.Pure),
	})
}

func seedComparison(env *Env, tc *types.TypeCtx, name string, t types.TypeId) {
	env.DeclareFunc(name, &FuncInfo{
		IsBuiltin: true, BuiltinOp: name, Effect: types.Pure,
		Sig: tc.NewFunction([]types.TypeId{t, t}, types.TBool, types.Pure),
	})
}

func seedUnaryBool(env *Env, tc *types.TypeCtx, name string) {
	env.DeclareFunc(name, &FuncInfo{
		IsBuiltin: true, BuiltinOp: name, Effect: types.Pure,
		Sig: tc.NewFunction([]types.TypeId{types.TBool}, types.TBool, types.Pure),
	})
}

func seedBinaryBool(env *Env, tc *types.TypeCtx, name string) {
	env.DeclareFunc(name, &FuncInfo{
		IsBuiltin: true, BuiltinOp: name, Effect: types.Pure,
		Sig: tc.NewFunction([]types.TypeId{types.TBool, types.TBool}, types.TBool, types.Pure),
	})
}
