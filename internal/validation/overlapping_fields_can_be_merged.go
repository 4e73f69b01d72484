package validation

import (
	"fmt"

	language "github.com/hanpama/graphplan/internal/language"
	schema "github.com/hanpama/graphplan/internal/schema"
)

// Conflicts occur when two fields produce the same response key but may
// represent differing values. To compare as few fields as possible the
// search is organized as comparisons "within" one collection of fields and
// "between" collections of fields:
//
//   - each selection set compares its own collected fields pairwise, once
//     (the only place "within" comparisons happen);
//   - a selection set's fields are compared against each fragment spread
//     it references, and every pair of spreads referenced together is
//     compared, recursing through fragments referenced by fragments;
//   - when two overlapping fields both carry sub-selections, the same two
//     rules run between their sub-selection sets, with mutual exclusivity
//     propagated downward, and any nested conflicts fold into one parent
//     conflict.
//
// Fragment-spread expansions are keyed by fragment name plus canonical
// arguments, so two spreads of one fragment with different arguments are
// compared as distinct expansions. The pair set memoizes spread-pair
// comparisons per mutual-exclusivity assumption.

// findConflictsWithinSelectionSet finds all conflicts "within" one
// extracted selection set, including those reached via its spreads.
func (ctx *runContext) findConflictsWithinSelectionSet(fas *fieldsAndSpreads) []*conflict {
	result := ctx.collectConflictsWithin(fas.fields)

	if len(fas.spreads) > 0 {
		compared := make(map[string]bool)
		for i, ref := range fas.spreads {
			result = append(result, ctx.collectConflictsBetweenFieldsAndSpread(compared, false, fas.fields, ref)...)
			for _, other := range fas.spreads[i+1:] {
				result = append(result, ctx.collectConflictsBetweenSpreads(false, ref, other)...)
			}
		}
	}
	return result
}

// collectConflictsWithin compares every pair of same-response-key fields
// in one collection. Fields within one collection are never mutually
// exclusive: they were reached from one traversal of one parent.
func (ctx *runContext) collectConflictsWithin(fields *fieldMap) []*conflict {
	var conflicts []*conflict
	for _, key := range fields.keys {
		occurrences := fields.m[key]
		for i, occ := range occurrences {
			for _, other := range occurrences[i+1:] {
				if c := ctx.findConflict(false, key, occ, other); c != nil {
					conflicts = append(conflicts, c)
				}
			}
		}
	}
	return conflicts
}

// collectConflictsBetween compares two collections of fields for every
// response key they share.
func (ctx *runContext) collectConflictsBetween(mutuallyExclusive bool, fields1, fields2 *fieldMap) []*conflict {
	var conflicts []*conflict
	for _, key := range fields1.keys {
		occurrences2, ok := fields2.m[key]
		if !ok {
			continue
		}
		for _, occ1 := range fields1.m[key] {
			for _, occ2 := range occurrences2 {
				if c := ctx.findConflict(mutuallyExclusive, key, occ1, occ2); c != nil {
					conflicts = append(conflicts, c)
				}
			}
		}
	}
	return conflicts
}

// collectConflictsBetweenFieldsAndSpread compares a collection of fields
// against a referenced fragment expansion, then against every fragment the
// expansion references in turn. compared memoizes expansions already
// handled at this call site.
func (ctx *runContext) collectConflictsBetweenFieldsAndSpread(
	compared map[string]bool,
	mutuallyExclusive bool,
	fields *fieldMap,
	ref *spreadRef,
) []*conflict {
	if compared[ref.key] {
		return nil
	}
	compared[ref.key] = true

	fas2 := ctx.fieldsForSpread(ref)
	// A fragment's own collection is never compared to itself.
	if fas2.fields == fields {
		return nil
	}

	result := ctx.collectConflictsBetween(mutuallyExclusive, fields, fas2.fields)
	for _, nested := range fas2.spreads {
		result = append(result, ctx.collectConflictsBetweenFieldsAndSpread(compared, mutuallyExclusive, fields, nested)...)
	}
	return result
}

// collectConflictsBetweenSpreads compares two fragment expansions,
// including fragments referenced by either, memoized per pair and
// exclusivity assumption. Two spreads of one fragment with differing
// arguments are themselves a conflict: their substituted selection sets
// may diverge even though they name the same fragment.
func (ctx *runContext) collectConflictsBetweenSpreads(mutuallyExclusive bool, ref1, ref2 *spreadRef) []*conflict {
	if ref1.fragment == ref2.fragment {
		if ref1.key == ref2.key {
			return nil
		}
		if !sameArguments(ref1.node.Arguments, ref2.node.Arguments) {
			return []*conflict{{
				reason: &reason{
					kind:    reasonFragmentSpread,
					key:     ref1.fragment.Name,
					message: "they have differing fragment arguments",
				},
				nodes1: []language.Selection{ref1.node},
				nodes2: []language.Selection{ref2.node},
			}}
		}
		return nil
	}

	if ctx.comparedPairs.Has(ref1.key, ref2.key, mutuallyExclusive) {
		return nil
	}
	ctx.comparedPairs.Add(ref1.key, ref2.key, mutuallyExclusive)

	fas1 := ctx.fieldsForSpread(ref1)
	fas2 := ctx.fieldsForSpread(ref2)

	result := ctx.collectConflictsBetween(mutuallyExclusive, fas1.fields, fas2.fields)
	for _, nested := range fas2.spreads {
		result = append(result, ctx.collectConflictsBetweenSpreads(mutuallyExclusive, ref1, nested)...)
	}
	for _, nested := range fas1.spreads {
		result = append(result, ctx.collectConflictsBetweenSpreads(mutuallyExclusive, nested, ref2)...)
	}
	return result
}

// findConflict determines whether two occurrences of one response key
// cannot merge, comparing their sub-selections recursively.
func (ctx *runContext) findConflict(parentMutuallyExclusive bool, responseKey string, occ1, occ2 *fieldOccurrence) *conflict {
	// Two fields that provably cannot apply to one concrete object at the
	// same time may diverge freely in alias targets and arguments. That is
	// known only when the parent types are distinct object types;
	// interface and union parents might overlap, if not in the current
	// schema then in a future extension of it, so they may not safely
	// diverge.
	mutuallyExclusive := parentMutuallyExclusive ||
		(occ1.parentType != occ2.parentType && occ1.parentType.IsObject() && occ2.parentType.IsObject())

	node1, node2 := occ1.node, occ2.node

	if !mutuallyExclusive {
		if node1.Name != node2.Name {
			return fieldConflict(responseKey, fmt.Sprintf("%q and %q are different fields", node1.Name, node2.Name), node1, node2)
		}
		if !sameArguments(node1.Arguments, node2.Arguments) {
			return fieldConflict(responseKey, "they have differing arguments", node1, node2)
		}
	}

	// Stream usage must agree even for mutually exclusive fields: both
	// occurrences deliver into one response position.
	if !sameStreams(node1, node2) {
		return fieldConflict(responseKey, "they have differing stream directives", node1, node2)
	}

	var type1, type2 *schema.TypeRef
	if occ1.def != nil {
		type1 = occ1.def.Type
	}
	if occ2.def != nil {
		type2 = occ2.def.Type
	}
	if type1 != nil && type2 != nil && ctx.typesConflict(type1, type2) {
		return fieldConflict(
			responseKey,
			fmt.Sprintf("they return conflicting types %s and %s", type1, type2),
			node1, node2,
		)
	}

	if len(node1.SelectionSet) > 0 && len(node2.SelectionSet) > 0 {
		sub := ctx.findConflictsBetweenSubSelectionSets(mutuallyExclusive, occ1, occ2)
		return foldSubfieldConflicts(sub, responseKey, node1, node2)
	}
	return nil
}

// findConflictsBetweenSubSelectionSets finds all conflicts between the
// sub-selection sets of two overlapping fields, including through spreads.
func (ctx *runContext) findConflictsBetweenSubSelectionSets(mutuallyExclusive bool, occ1, occ2 *fieldOccurrence) []*conflict {
	fas1 := ctx.fieldsForSubselection(occ1)
	fas2 := ctx.fieldsForSubselection(occ2)

	result := ctx.collectConflictsBetween(mutuallyExclusive, fas1.fields, fas2.fields)

	if len(fas2.spreads) > 0 {
		compared := make(map[string]bool)
		for _, ref := range fas2.spreads {
			result = append(result, ctx.collectConflictsBetweenFieldsAndSpread(compared, mutuallyExclusive, fas1.fields, ref)...)
		}
	}
	if len(fas1.spreads) > 0 {
		compared := make(map[string]bool)
		for _, ref := range fas1.spreads {
			result = append(result, ctx.collectConflictsBetweenFieldsAndSpread(compared, mutuallyExclusive, fas2.fields, ref)...)
		}
	}
	for _, ref1 := range fas1.spreads {
		for _, ref2 := range fas2.spreads {
			result = append(result, ctx.collectConflictsBetweenSpreads(mutuallyExclusive, ref1, ref2)...)
		}
	}
	return result
}

// foldSubfieldConflicts folds conflicts between two fields' sub-selection
// sets into one conflict on the parent response key.
func foldSubfieldConflicts(conflicts []*conflict, responseKey string, node1, node2 *language.Field) *conflict {
	if len(conflicts) == 0 {
		return nil
	}
	folded := &conflict{
		reason: &reason{kind: reasonField, key: responseKey},
		nodes1: []language.Selection{node1},
		nodes2: []language.Selection{node2},
	}
	for _, c := range conflicts {
		folded.reason.sub = append(folded.reason.sub, c.reason)
		folded.nodes1 = append(folded.nodes1, c.nodes1...)
		folded.nodes2 = append(folded.nodes2, c.nodes2...)
	}
	return folded
}

func fieldConflict(responseKey, message string, node1, node2 *language.Field) *conflict {
	return &conflict{
		reason: &reason{kind: reasonField, key: responseKey, message: message},
		nodes1: []language.Selection{node1},
		nodes2: []language.Selection{node2},
	}
}

// sameArguments compares two argument lists by canonicalized structural
// equality: order-independent on argument names and object keys.
func sameArguments(args1, args2 language.ArgumentList) bool {
	if len(args1) != len(args2) {
		return false
	}
	return language.PrintArguments(args1) == language.PrintArguments(args2)
}

// sameStreams reports whether two fields agree on @stream usage: both
// without it, or both with it and with equal arguments.
func sameStreams(node1, node2 *language.Field) bool {
	stream1 := node1.Directives.ForName("stream")
	stream2 := node2.Directives.ForName("stream")
	if stream1 == nil && stream2 == nil {
		return true
	}
	if stream1 == nil || stream2 == nil {
		return false
	}
	return sameArguments(stream1.Arguments, stream2.Arguments)
}

// typesConflict reports whether two return types cannot both apply to one
// response position: list-ness and non-null wrappers must match layer by
// layer, and unwrapped leaf types must be identical. Composite types never
// conflict here; their sub-fields are compared instead.
func (ctx *runContext) typesConflict(type1, type2 *schema.TypeRef) bool {
	switch type1.Kind {
	case schema.TypeRefKindList:
		if type2.Kind == schema.TypeRefKindList {
			return ctx.typesConflict(type1.OfType, type2.OfType)
		}
		return true
	case schema.TypeRefKindNonNull:
		if type2.Kind == schema.TypeRefKindNonNull {
			return ctx.typesConflict(type1.OfType, type2.OfType)
		}
		return true
	default:
		if type2.Kind == schema.TypeRefKindList || type2.Kind == schema.TypeRefKindNonNull {
			return true
		}
		named1 := ctx.schema.Types[type1.Named]
		named2 := ctx.schema.Types[type2.Named]
		if named1.IsLeaf() || named2.IsLeaf() {
			return type1.Named != type2.Named
		}
		return false
	}
}
