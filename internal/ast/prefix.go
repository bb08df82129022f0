package ast

import "github.com/neknaj/NEPLg2-sub000/internal/source"

// PrefixExpr is one logical line of prefix-form items: a
// "juggler stack" that the type checker reduces left to right. Semis counts
// trailing `;` markers; Semis > 0 means the line is a statement whose final
// value (if any) is discarded after checking.
type PrefixExpr struct {
	Items   []PrefixItem
	Semis   int
	SpanVal source.Span

	// PendingElse marks an `if <cond>:`-shaped expression whose block
	// yielded a `then` slot but no `else` slot; the enclosing Block parse
	// loop looks for a glued `else:` sibling statement to complete it.
	PendingElse bool
}

func (p *PrefixExpr) Span() source.Span { return p.SpanVal }

// PrefixItem is one element of a PrefixExpr.
type PrefixItem interface {
	Node
	prefixItem()
}

// LitItem is a literal value.
type LitItem struct {
	Kind    LiteralKind
	Text    string // original spelling, parsed by the checker
	SpanVal source.Span
}

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitUnit
)

func (l *LitItem) Span() source.Span { return l.SpanVal }
func (l *LitItem) prefixItem()       {}

// SymbolItem is an identifier reference, optionally with explicit type
// arguments (`name<.I32>`) and a forced-value flag (used when a name that
// would otherwise auto-call as a nullary function must be treated as the
// function value itself, e.g. when passed as a higher-order argument).
type SymbolItem struct {
	Name       string
	TypeArgs   []*TypeExpr
	ForceValue bool
	SpanVal    source.Span
}

func (s *SymbolItem) Span() source.Span { return s.SpanVal }
func (s *SymbolItem) prefixItem()       {}

// TypeAnnotationItem is a deferred `<T>` annotation: it
// applies once the next completed expression reaches the top of the
// juggler stack.
type TypeAnnotationItem struct {
	Type    *TypeExpr
	SpanVal source.Span
}

func (t *TypeAnnotationItem) Span() source.Span { return t.SpanVal }
func (t *TypeAnnotationItem) prefixItem()       {}

// PipeItem is the `|>` marker.
type PipeItem struct{ SpanVal source.Span }

func (p *PipeItem) Span() source.Span { return p.SpanVal }
func (p *PipeItem) prefixItem()       {}

// BlockItem wraps a nested Block attached via colon-desugaring shape 1.
type BlockItem struct {
	Block   *Block
	SpanVal source.Span
}

func (b *BlockItem) Span() source.Span { return b.SpanVal }
func (b *BlockItem) prefixItem()       {}

// MatchItem is a `match scrutinee: arms...` form, parsed with the
// scrutinee already consumed from the stack and the arm block attached.
type MatchItem struct {
	Arms    []MatchArm
	SpanVal source.Span
}

func (m *MatchItem) Span() source.Span { return m.SpanVal }
func (m *MatchItem) prefixItem()       {}

// MatchArm is one `Variant [binding]: body` line of a match block.
type MatchArm struct {
	Variant string
	Binding string // "" if the variant has no payload binding
	Body    *PrefixExpr
}

// TupleItem is a parenthesized comma-separated group used as a tuple
// literal.
type TupleItem struct {
	Items   []*PrefixExpr
	SpanVal source.Span
}

func (t *TupleItem) Span() source.Span { return t.SpanVal }
func (t *TupleItem) prefixItem()       {}

// GroupItem is a parenthesized single expression (disambiguated from
// TupleItem by absence of a top-level comma), or a bare identifier-list
// group later reinterpreted as a lambda parameter list by colon
// desugaring.
type GroupItem struct {
	Inner     *PrefixExpr // set when the group holds a single expression
	IdentList []string    // set when the group holds only bare identifiers
	SpanVal   source.Span
}

func (g *GroupItem) Span() source.Span { return g.SpanVal }
func (g *GroupItem) prefixItem()       {}

// ExprItem wraps an already-parsed nested PrefixExpr as a single stack
// item: used for if/while branch slots extracted from a colon-block and
// for the positional arguments synthesized by the general argument-layout
// shape.
type ExprItem struct {
	Expr    *PrefixExpr
	SpanVal source.Span
}

func (e *ExprItem) Span() source.Span { return e.SpanVal }
func (e *ExprItem) prefixItem()       {}

// IntrinsicItem is `#intrinsic "name"<T...>(args...)`.
type IntrinsicItem struct {
	Name     string
	TypeArgs []*TypeExpr
	Args     []*PrefixExpr
	SpanVal  source.Span
}

func (i *IntrinsicItem) Span() source.Span { return i.SpanVal }
func (i *IntrinsicItem) prefixItem()       {}

// MarkerKind distinguishes the layout-only marker tokens: `let`/`set`, `if`/`while`, and `&`/`*`.
type MarkerKind int

const (
	MarkerLet MarkerKind = iota
	MarkerSet
	MarkerIf
	MarkerWhile
	MarkerAddrOf
	MarkerDeref
	MarkerCond
	MarkerThen
	MarkerElse
	MarkerDo
)

// MarkerItem is one parser-level marker token that participates in
// colon-block desugaring or assignment-kind detection but never reaches
// the type checker as an ordinary symbol.
type MarkerItem struct {
	Kind    MarkerKind
	Name    string // the `let`/`set` target identifier, when applicable
	SpanVal source.Span
}

func (m *MarkerItem) Span() source.Span { return m.SpanVal }
func (m *MarkerItem) prefixItem()       {}
