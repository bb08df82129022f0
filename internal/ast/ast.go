// Package ast defines NEPL's parsed representation: a flat top-level Block
// of Stmt, and prefix expressions built from an ordered slice of
// PrefixItem. The shape mirrors ailang's internal/ast package (a small Node
// interface, Pos/Span carried on every node) but the expression grammar
// itself is NEPL's prefix "juggler stack" form rather
// than ailang's infix expression tree.
package ast

import "github.com/neknaj/NEPLg2-sub000/internal/source"

// Node is satisfied by every AST type; it exposes the span for diagnostics.
type Node interface {
	Span() source.Span
}

// Module is the top of the tree: an indent unit, the directive list (both
// collected globally and left positioned in Block), and the root Block.
type Module struct {
	IndentUnit int
	Directives []*Directive
	Body       *Block
}

// Block is an ordered sequence of statements sharing one indentation
// level.
type Block struct {
	Stmts   []Stmt
	SpanVal source.Span
}

func (b *Block) Span() source.Span { return b.SpanVal }

// Stmt is the sum of top-level/nested statement forms.
type Stmt interface {
	Node
	stmtNode()
}

// DirectiveKind enumerates the recognized module-level directive forms.
type DirectiveKind int

const (
	DirEntry DirectiveKind = iota
	DirTarget
	DirImport
	DirUse
	DirIfTarget
	DirIfProfile
	DirIndentWidth
	DirExtern
	DirInclude
	DirPrelude
	DirNoPrelude
)

// ImportClause captures the optional `as ...` modifiers on #import.
type ImportClause int

const (
	ImportDefault ImportClause = iota
	ImportAlias
	ImportOpen
	ImportSelective
	ImportMerge
)

// ImportSelector is one `name [as alias]` or `ns::*` entry of a selective
// import list.
type ImportSelector struct {
	Path     string // qualified name or `ns::*`
	Alias    string
	Wildcard bool
}

// ExternSig is the explicit signature on an `#extern` declaration, either
// `<(params)->result>` (pure) or `*>result` (impure).
type ExternSig struct {
	Params  []string // type expression spellings, resolved later
	Result  string
	Impure  bool
}

// Directive is one `#...` line, both recorded in Module.Directives and left
// in statement position so conditional gating scopes the next item.
type Directive struct {
	Kind DirectiveKind

	Name    string // #entry name / #use path / #include path / #prelude path
	Target  string // #target wasm|wasi
	N       int    // #indent N

	ImportPath     string
	ImportClause   ImportClause
	ImportAlias    string
	ImportSelector []ImportSelector

	IfKey   string // "target" | "profile"
	IfValue string

	ExternModule string
	ExternSymbol string
	ExternLocal  string
	ExternSig    ExternSig

	SpanVal source.Span
}

func (d *Directive) Span() source.Span { return d.SpanVal }
func (d *Directive) stmtNode()         {}

// FnDef is a function definition: `fn name <sig> (params): body`.
type FnDef struct {
	Pub        bool
	Name       string
	TypeParams []TypeParam
	Sig        *FuncTypeExpr
	Params     []Param
	Body       *PrefixExpr // nil if RawWasm is set
	RawWasm    []string    // verbatim #wasm: lines, one per element
	SpanVal    source.Span
}

func (f *FnDef) Span() source.Span { return f.SpanVal }
func (f *FnDef) stmtNode()         {}

// FnAlias is the `fn a b;` alias-definition form.
type FnAlias struct {
	Pub     bool
	Name    string
	Target  string
	SpanVal source.Span
}

func (f *FnAlias) Span() source.Span { return f.SpanVal }
func (f *FnAlias) stmtNode()         {}

// TypeParam is a generic parameter `.T` or `.U: TraitA & TraitB`.
type TypeParam struct {
	Name   string
	Bounds []string
}

// Param is one function parameter (identifier only; its type is inferred
// from Sig's positional parameter type expression).
type Param struct {
	Name string
	Span source.Span
}

// TypeExpr is a parsed type-level expression (a name, possibly applied to
// arguments, possibly wrapped as a reference).
type TypeExpr struct {
	Name      string // "i32", "Option", ".T", etc. ("." prefix = generic var)
	Args      []*TypeExpr
	IsRef     bool
	RefMut    bool
	SpanVal   source.Span
}

func (t *TypeExpr) Span() source.Span { return t.SpanVal }

// FuncTypeExpr is `<(T1, T2)->R>` or `*>R` parsed from a signature
// annotation.
type FuncTypeExpr struct {
	Params  []*TypeExpr
	Result  *TypeExpr
	Impure  bool
	SpanVal source.Span
}

func (f *FuncTypeExpr) Span() source.Span { return f.SpanVal }

// StructDef: `struct Name<.T>: field1<T1> field2<T2>`.
type StructDef struct {
	Pub        bool
	Name       string
	TypeParams []TypeParam
	Fields     []FieldDef
	SpanVal    source.Span
}

func (s *StructDef) Span() source.Span { return s.SpanVal }
func (s *StructDef) stmtNode()         {}

// FieldDef is one struct field.
type FieldDef struct {
	Name string
	Type *TypeExpr
}

// EnumDef: `enum Name<.T>: Variant1<.T>; Variant2`.
type EnumDef struct {
	Pub        bool
	Name       string
	TypeParams []TypeParam
	Variants   []VariantDef
	SpanVal    source.Span
}

func (e *EnumDef) Span() source.Span { return e.SpanVal }
func (e *EnumDef) stmtNode()         {}

// VariantDef is one enum variant, with an optional payload type.
type VariantDef struct {
	Name    string
	Payload *TypeExpr // nil if the variant carries no payload
}

// TraitDef declares a trait's method signatures.
type TraitDef struct {
	Pub     bool
	Name    string
	Param   TypeParam
	Methods []TraitMethod
	SpanVal source.Span
}

func (t *TraitDef) Span() source.Span { return t.SpanVal }
func (t *TraitDef) stmtNode()         {}

// TraitMethod is one method signature inside a trait declaration.
type TraitMethod struct {
	Name string
	Sig  *FuncTypeExpr
}

// ImplDef implements a trait for a concrete type.
type ImplDef struct {
	Trait    string
	ForType  *TypeExpr
	Methods  []*FnDef
	SpanVal  source.Span
}

func (i *ImplDef) Span() source.Span { return i.SpanVal }
func (i *ImplDef) stmtNode()         {}

// ExprStmt wraps a PrefixExpr used as a statement.
type ExprStmt struct {
	Expr *PrefixExpr
}

func (e *ExprStmt) Span() source.Span { return e.Expr.SpanVal }
func (e *ExprStmt) stmtNode()         {}
