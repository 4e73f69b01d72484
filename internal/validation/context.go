package validation

import (
	language "github.com/hanpama/graphplan/internal/language"
	schema "github.com/hanpama/graphplan/internal/schema"
)

// runContext holds the state of one validator invocation: the document's
// fragment table and the two memoization caches. A fresh context is
// created per run; nothing here outlives it.
type runContext struct {
	schema    *schema.Schema
	fragments language.FragmentDefinitionList

	// fieldsByField caches the field/fragment-spread extraction of field
	// sub-selection sets. Keying by node pointer is sound because
	// substitution deep-copies fragment bodies, so one node never appears
	// under two different variable scopes.
	fieldsByField map[*language.Field]*fieldsAndSpreads
	// fieldsBySpread caches extraction of materialized fragment
	// expansions, keyed by spread identity (fragment name plus canonical
	// arguments) so that spreads of one fragment with different arguments
	// are distinct expansions.
	fieldsBySpread map[string]*fieldsAndSpreads
	// setBySpread keeps the materialized selection set behind each cached
	// expansion, so walks over a fragment body see the substituted nodes
	// rather than the raw ones.
	setBySpread map[string]language.SelectionSet

	comparedPairs *pairSet
	conflicts     []*conflict
}

func newRunContext(sch *schema.Schema, doc *language.QueryDocument) *runContext {
	return &runContext{
		schema:         sch,
		fragments:      doc.Fragments,
		fieldsByField:  make(map[*language.Field]*fieldsAndSpreads),
		fieldsBySpread: make(map[string]*fieldsAndSpreads),
		setBySpread:    make(map[string]language.SelectionSet),
		comparedPairs:  newPairSet(),
	}
}

// fieldOccurrence is one field selection with the parent type in effect
// where it was reached and its schema definition, either of which may be
// nil when the document refers to unknown types or fields (other rules
// report those).
type fieldOccurrence struct {
	parentType *schema.Type
	node       *language.Field
	def        *schema.Field
}

// fieldMap groups field occurrences by response key in first-seen order.
type fieldMap struct {
	keys []string
	m    map[string][]*fieldOccurrence
}

func newFieldMap() *fieldMap {
	return &fieldMap{m: make(map[string][]*fieldOccurrence)}
}

func (fm *fieldMap) add(key string, occ *fieldOccurrence) {
	if _, ok := fm.m[key]; !ok {
		fm.keys = append(fm.keys, key)
	}
	fm.m[key] = append(fm.m[key], occ)
}

// spreadRef identifies one fragment-spread expansion.
type spreadRef struct {
	node     *language.FragmentSpread
	fragment *language.FragmentDefinition
	key      string
}

func (ctx *runContext) spreadKey(node *language.FragmentSpread) string {
	if len(node.Arguments) == 0 {
		return node.Name
	}
	return node.Name + language.PrintArguments(node.Arguments)
}

// fieldsAndSpreads is the extraction of one selection set: its fields
// (through inline fragments) and the fragment spreads it references.
type fieldsAndSpreads struct {
	fields  *fieldMap
	spreads []*spreadRef
}

// extract walks a selection set, collecting fields through inline
// fragments (narrowing the parent type by their type conditions) and
// recording each distinct fragment-spread expansion once.
func (ctx *runContext) extract(parentType *schema.Type, set language.SelectionSet) *fieldsAndSpreads {
	fas := &fieldsAndSpreads{fields: newFieldMap()}
	seen := make(map[string]bool)
	ctx.extractInto(parentType, set, fas, seen)
	return fas
}

func (ctx *runContext) extractInto(parentType *schema.Type, set language.SelectionSet, fas *fieldsAndSpreads, seen map[string]bool) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			var def *schema.Field
			if parentType != nil && (parentType.Kind == schema.TypeKindObject || parentType.Kind == schema.TypeKindInterface) {
				def = parentType.FieldByName(sel.Name)
			}
			fas.fields.add(sel.ResponseKey(), &fieldOccurrence{
				parentType: parentType,
				node:       sel,
				def:        def,
			})
		case *language.InlineFragment:
			next := parentType
			if sel.TypeCondition != "" {
				next = ctx.schema.ResolveTypeCondition(sel.TypeCondition)
			}
			ctx.extractInto(next, sel.SelectionSet, fas, seen)
		case *language.FragmentSpread:
			fragment := ctx.fragments.ForName(sel.Name)
			if fragment == nil {
				continue
			}
			key := ctx.spreadKey(sel)
			if seen[key] {
				continue
			}
			seen[key] = true
			fas.spreads = append(fas.spreads, &spreadRef{node: sel, fragment: fragment, key: key})
		}
	}
}

// fieldsForSubselection returns the cached extraction of a field's
// sub-selection set against its named return type.
func (ctx *runContext) fieldsForSubselection(occ *fieldOccurrence) *fieldsAndSpreads {
	if fas, ok := ctx.fieldsByField[occ.node]; ok {
		return fas
	}
	var parentType *schema.Type
	if occ.def != nil {
		parentType = ctx.schema.Types[occ.def.Type.GetNamedType()]
	}
	fas := ctx.extract(parentType, occ.node.SelectionSet)
	ctx.fieldsByField[occ.node] = fas
	return fas
}

// fieldsForSpread returns the cached extraction of a fragment-spread
// expansion: the fragment's selection set with the spread's arguments
// substituted, against the fragment's type condition.
func (ctx *runContext) fieldsForSpread(ref *spreadRef) *fieldsAndSpreads {
	if fas, ok := ctx.fieldsBySpread[ref.key]; ok {
		return fas
	}
	set := language.SubstituteFragmentSpread(ref.fragment, ref.node.Arguments)
	parentType := ctx.schema.ResolveTypeCondition(ref.fragment.TypeCondition)
	fas := ctx.extract(parentType, set)
	ctx.fieldsBySpread[ref.key] = fas
	ctx.setBySpread[ref.key] = set
	return fas
}

func (ctx *runContext) report(c *conflict) {
	ctx.conflicts = append(ctx.conflicts, c)
}
