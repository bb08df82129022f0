package wasmgen

import (
	"testing"

	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/source"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

func litReturningFn(name string, isEntry bool) *hir.HirFunction {
	var sp source.Span
	lit := hir.NewLiteral(hir.LitI32, types.TI32, sp)
	lit.I32 = 1
	return &hir.HirFunction{
		Name: name, Mangled: name, Result: types.TI32, Body: lit, IsEntry: isEntry,
	}
}

func TestGenerateEmitsWasmMagicAndVersion(t *testing.T) {
	tc := types.NewTypeCtx()
	mod := &hir.HirModule{
		Functions: []*hir.HirFunction{litReturningFn("f", false)},
		Strings:   hir.NewStringTable(),
		Insts:     hir.NewInstantiationTable(),
	}
	sink := diag.NewSink()
	out := Generate(mod, tc, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected gen errors: %v", sink.Reports())
	}
	want := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if len(out) < 8 || string(out[:8]) != string(want) {
		t.Fatalf("header = % x, want % x", out[:min(8, len(out))], want)
	}
}

func TestGenerateEntryFunctionGetsMainAndStartExports(t *testing.T) {
	tc := types.NewTypeCtx()
	fn := litReturningFn("run", true)
	mod := &hir.HirModule{
		Functions: []*hir.HirFunction{fn},
		Strings:   hir.NewStringTable(),
		Insts:     hir.NewInstantiationTable(),
	}
	sink := diag.NewSink()
	g := &Generator{mod: mod, tc: tc, sink: sink, sigIdx: map[string]int{}, funcIndex: map[string]int{}}
	g.lay = buildMemLayout(nil)
	g.partitionFunctions()
	g.assignSigs()
	exportBytes := g.exportSection()
	// export section: id, length, then count-prefixed vec of (name, kind, idx)
	if exportBytes[0] != secExport {
		t.Fatalf("export section id = %#x, want %#x", exportBytes[0], secExport)
	}
	body := exportBytes[2:] // skip id + 1-byte length (small enough to fit in one ULEB byte here)
	count := body[0]
	if count != 3 { // memory + main + _start
		t.Fatalf("export count = %d, want 3 (memory, main, _start)", count)
	}
}

func TestGenerateImportedFunctionOccupiesLowFunctionIndices(t *testing.T) {
	tc := types.NewTypeCtx()
	imported := &hir.HirFunction{
		Name: "host_log", Mangled: "host_log", Params: []types.TypeId{types.TI32}, Result: types.TUnit,
		ImportMod: "env", ImportSym: "log",
	}
	local := litReturningFn("f", false)
	mod := &hir.HirModule{
		Functions: []*hir.HirFunction{local, imported},
		Strings:   hir.NewStringTable(),
		Insts:     hir.NewInstantiationTable(),
	}
	sink := diag.NewSink()
	g := &Generator{mod: mod, tc: tc, sink: sink, sigIdx: map[string]int{}, funcIndex: map[string]int{}}
	g.lay = buildMemLayout(nil)
	g.partitionFunctions()
	if g.funcIndex["host_log"] != 0 {
		t.Errorf("imported function index = %d, want 0 (imports occupy the low indices)", g.funcIndex["host_log"])
	}
	if g.funcIndex["f"] != 1 {
		t.Errorf("local function index = %d, want 1", g.funcIndex["f"])
	}
}

func TestGenerateDataSectionCarriesMemoryLayoutBytes(t *testing.T) {
	tc := types.NewTypeCtx()
	strs := hir.NewStringTable()
	strs.Intern("hi")
	mod := &hir.HirModule{
		Functions: []*hir.HirFunction{litReturningFn("f", false)},
		Strings:   strs,
		Insts:     hir.NewInstantiationTable(),
	}
	sink := diag.NewSink()
	out := Generate(mod, tc, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected gen errors: %v", sink.Reports())
	}
	found := false
	for _, b := range out {
		if b == secData {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected a data section id byte somewhere in the emitted module")
	}
}
