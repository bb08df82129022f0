package diag

// Error code taxonomy, one prefix per pipeline phase. Codes are
// stable identifiers referenced by tests and by tooling that consumes the
// JSON form of a Report; they are not meant to be read as prose.
const (
	// Lexical (tab indentation, bad character, unterminated string/escape).
	LexBadChar        = "LEX001"
	LexTabIndent      = "LEX002"
	LexUnterminated   = "LEX003"
	LexBadEscape      = "LEX004"
	LexBadNumber      = "LEX005"

	// Layout (indentation structure).
	LayMisaligned   = "LAY001"
	LayNoDedentLvl  = "LAY002"
	LayWasmNoBody   = "LAY003"

	// Syntactic.
	ParUnexpectedToken = "PAR001"
	ParExpected        = "PAR002"
	ParBlockShape      = "PAR003"
	ParMarkerOrder     = "PAR004"
	ParMarkerDup       = "PAR005"
	ParMarkerMissing   = "PAR006"
	ParMarkerExtra     = "PAR007"

	// Semantic naming.
	NamUndefined     = "NAM001"
	NamNoShadow      = "NAM002"
	NamAmbiguous     = "NAM003"
	NamNoOverload    = "NAM004"
	NamKindConflict  = "NAM005"

	// Type.
	TypMismatch    = "TYP001"
	TypOccursCheck = "TYP002"
	TypImplSig     = "TYP003"
	TypExternSig   = "TYP004"
	TypReturn      = "TYP005"
	TypUnresolved  = "TYP006"

	// Effect.
	EffPureCallsImpure = "EFF001"
	EffEntryKind       = "EFF002"

	// Ownership.
	MovUseOfMoved     = "MOV001"
	MovBorrowOfMoved  = "MOV002"
	MovPossiblyMoved  = "MOV003"

	// Codegen.
	GenUnlowerableSig = "GEN001"
	GenUnsupportedTy  = "GEN002"
	GenNoAlloc        = "GEN003"
	GenBadWasmInstr   = "GEN004"
)
