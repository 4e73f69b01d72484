package validation

import (
	language "github.com/hanpama/graphplan/internal/language"
	schema "github.com/hanpama/graphplan/internal/schema"
)

// Validate checks that every pair of selections in the document that
// contributes to one response key can merge. It returns one diagnostic
// per conflict, in document order, and an empty slice for a mergeable
// document. Unknown types, fields and fragments are skipped here; other
// rules own those errors.
func Validate(sch *schema.Schema, doc *language.QueryDocument) []Diagnostic {
	ctx := newRunContext(sch, doc)

	for _, op := range doc.Operations {
		root := sch.RootType(string(op.Operation))
		ctx.checkSelectionSet(root, op.SelectionSet)
	}
	for _, frag := range doc.Fragments {
		// The definition is checked through the same expansion a
		// bare spread of it would use, so the cache carries over to
		// spread sites.
		ref := &spreadRef{
			node:     &language.FragmentSpread{Name: frag.Name, Position: frag.Position},
			fragment: frag,
			key:      frag.Name,
		}
		for _, c := range ctx.findConflictsWithinSelectionSet(ctx.fieldsForSpread(ref)) {
			ctx.report(c)
		}
		// Descend through the materialized expansion, not the raw body,
		// so nested selection sets compare with the fragment's arguments
		// substituted the same way the extraction above saw them.
		ctx.descend(sch.ResolveTypeCondition(frag.TypeCondition), ctx.setBySpread[ref.key])
	}

	diagnostics := make([]Diagnostic, len(ctx.conflicts))
	for i, c := range ctx.conflicts {
		diagnostics[i] = c.diagnostic()
	}
	return diagnostics
}

// checkSelectionSet runs the within-set comparison for one selection set
// and recurses into the sub-selections below it.
func (ctx *runContext) checkSelectionSet(parentType *schema.Type, set language.SelectionSet) {
	for _, c := range ctx.findConflictsWithinSelectionSet(ctx.extract(parentType, set)) {
		ctx.report(c)
	}
	ctx.descend(parentType, set)
}

// descend visits the field sub-selections below a selection set. Inline
// fragments do not get a within-set check of their own: their fields were
// flattened into the enclosing set's extraction and compared there.
// Fragment spreads are not followed either; each fragment definition is
// checked once at the top level.
func (ctx *runContext) descend(parentType *schema.Type, set language.SelectionSet) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			if len(sel.SelectionSet) == 0 {
				continue
			}
			var next *schema.Type
			if parentType != nil {
				if def := parentType.FieldByName(sel.Name); def != nil {
					next = ctx.schema.Types[def.Type.GetNamedType()]
				}
			}
			ctx.checkSelectionSet(next, sel.SelectionSet)
		case *language.InlineFragment:
			next := parentType
			if sel.TypeCondition != "" {
				next = ctx.schema.ResolveTypeCondition(sel.TypeCondition)
			}
			ctx.descend(next, sel.SelectionSet)
		}
	}
}
