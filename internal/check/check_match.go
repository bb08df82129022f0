package check

import (
	"github.com/neknaj/NEPLg2-sub000/internal/ast"
	"github.com/neknaj/NEPLg2-sub000/internal/diag"
	"github.com/neknaj/NEPLg2-sub000/internal/hir"
	"github.com/neknaj/NEPLg2-sub000/internal/types"
)

// pushMatch pops the scrutinee value already sitting on the stack, checks
// each arm against the scrutinee's enum definition, and pushes the joined
// result.
func (c *Checker) pushMatch(st *stackState, m *ast.MatchItem) {
	if len(st.stack) == 0 || st.stack[len(st.stack)-1].Callable {
		c.errorf(m.SpanVal, diag.ParExpected, "'match' has no scrutinee expression")
		return
	}
	scrutEntry := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
	scrut := scrutEntry.Node

	enumKind := c.tc.Get(c.tc.Resolve(scrut.Type()))
	if enumKind.Kind != types.KEnum {
		c.errorf(m.SpanVal, diag.TypMismatch, "'match' scrutinee is not an enum type")
	}

	resultTy := types.InvalidTypeId
	var arms []hir.MatchArm
	for _, arm := range m.Arms {
		tag := -1
		var payloadTy types.TypeId = types.InvalidTypeId
		for i, v := range enumKind.Variants {
			if v.Name == arm.Variant {
				tag = i
				payloadTy = v.Payload
				break
			}
		}
		if tag < 0 {
			c.errorf(m.SpanVal, diag.NamUndefined, "unknown variant '%s' in match arm", arm.Variant)
		}
		c.env.Push()
		if arm.Binding != "" && payloadTy != types.InvalidTypeId {
			c.env.DeclareVar(arm.Binding, payloadTy, false)
			if c.curLocals != nil {
				*c.curLocals = append(*c.curLocals, hir.Local{Name: arm.Binding, Type: payloadTy})
			}
		}
		body := c.checkExpr(arm.Body)
		c.env.Pop()

		if resultTy == types.InvalidTypeId {
			resultTy = body.Type()
		} else if err := c.tc.Unify(resultTy, body.Type()); err != nil {
			c.errorf(m.SpanVal, diag.TypMismatch, "match arms have incompatible types: %v", err)
		}
		arms = append(arms, hir.MatchArm{Variant: arm.Variant, Tag: tag, Binding: arm.Binding, Body: body})
	}
	if len(arms) == 0 {
		resultTy = types.TUnit
	}
	st.stack = append(st.stack, entry{Node: hir.NewMatch(scrut, arms, resultTy, m.SpanVal), Span: m.SpanVal})
}
