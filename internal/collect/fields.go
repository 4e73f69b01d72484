package collect

import (
	"fmt"

	language "github.com/hanpama/graphplan/internal/language"
	schema "github.com/hanpama/graphplan/internal/schema"
)

// DeferUsage identifies one @defer boundary encountered during collection.
// Usages form a tree rooted at "not deferred" (a nil parent).
type DeferUsage struct {
	Label  *string
	Parent *DeferUsage
}

// FieldDetails is one collected field occurrence: the selection node, the
// defer boundary it belongs to (nil when part of the initial result), and
// the fragment-local variable scope in effect when it was collected (nil
// outside fragment-argument scopes).
type FieldDetails struct {
	Field      *language.Field
	DeferUsage *DeferUsage
	Scope      *language.FragmentScope
}

// FieldGroup is the list of field occurrences sharing one response key.
type FieldGroup struct {
	ResponseKey string
	Fields      []FieldDetails
}

// GroupedFieldSet maps response keys to field groups, preserving the order
// in which keys were first encountered during traversal.
type GroupedFieldSet struct {
	groups []FieldGroup
	index  map[string]int
}

func newGroupedFieldSet() *GroupedFieldSet {
	return &GroupedFieldSet{index: make(map[string]int)}
}

func (g *GroupedFieldSet) add(responseKey string, details FieldDetails) {
	if idx, exists := g.index[responseKey]; exists {
		g.groups[idx].Fields = append(g.groups[idx].Fields, details)
		return
	}
	g.index[responseKey] = len(g.groups)
	g.groups = append(g.groups, FieldGroup{
		ResponseKey: responseKey,
		Fields:      []FieldDetails{details},
	})
}

// Groups returns the field groups in first-encountered key order.
func (g *GroupedFieldSet) Groups() []FieldGroup { return g.groups }

// ForKey returns the group for a response key.
func (g *GroupedFieldSet) ForKey(responseKey string) (FieldGroup, bool) {
	idx, ok := g.index[responseKey]
	if !ok {
		return FieldGroup{}, false
	}
	return g.groups[idx], true
}

// Len returns the number of distinct response keys.
func (g *GroupedFieldSet) Len() int { return len(g.groups) }

// CollectFields groups the operation's top-level selections by response
// key against the given concrete runtime type, expanding fragments and
// applying @skip/@include. It also returns every @defer usage newly
// encountered, for the execution engine to schedule.
func CollectFields(
	sch *schema.Schema,
	fragments language.FragmentDefinitionList,
	variableValues map[string]any,
	runtimeType *schema.Type,
	operation *language.OperationDefinition,
) (*GroupedFieldSet, []*DeferUsage, error) {
	c := &collector{
		schema:         sch,
		fragments:      fragments,
		variableValues: variableValues,
		runtimeType:    runtimeType,
		operation:      operation,
		visited:        make(map[string]bool),
		grouped:        newGroupedFieldSet(),
	}
	if err := c.walk(operation.SelectionSet, nil, nil); err != nil {
		return nil, nil, err
	}
	return c.grouped, c.newDeferUsages, nil
}

// CollectSubfields groups the sub-selections of an already-collected field
// group against the field's composite return type. Each occurrence's own
// defer usage and fragment scope carry forward as the starting context for
// its sub-selection set.
func CollectSubfields(
	sch *schema.Schema,
	fragments language.FragmentDefinitionList,
	variableValues map[string]any,
	operation *language.OperationDefinition,
	returnType *schema.Type,
	fieldGroup FieldGroup,
) (*GroupedFieldSet, []*DeferUsage, error) {
	c := &collector{
		schema:         sch,
		fragments:      fragments,
		variableValues: variableValues,
		runtimeType:    returnType,
		operation:      operation,
		visited:        make(map[string]bool),
		grouped:        newGroupedFieldSet(),
	}
	for _, details := range fieldGroup.Fields {
		if len(details.Field.SelectionSet) == 0 {
			continue
		}
		if err := c.walk(details.Field.SelectionSet, details.Scope, details.DeferUsage); err != nil {
			return nil, nil, err
		}
	}
	return c.grouped, c.newDeferUsages, nil
}

type collector struct {
	schema         *schema.Schema
	fragments      language.FragmentDefinitionList
	variableValues map[string]any
	runtimeType    *schema.Type
	operation      *language.OperationDefinition
	visited        map[string]bool
	grouped        *GroupedFieldSet
	newDeferUsages []*DeferUsage
}

func (c *collector) walk(set language.SelectionSet, scope *language.FragmentScope, parentDefer *DeferUsage) error {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			if !c.shouldInclude(sel.Directives, scope) {
				continue
			}
			c.grouped.add(sel.ResponseKey(), FieldDetails{
				Field:      sel,
				DeferUsage: parentDefer,
				Scope:      scope,
			})

		case *language.InlineFragment:
			if !c.shouldInclude(sel.Directives, scope) {
				continue
			}
			if !c.typeConditionMatches(sel.TypeCondition) {
				continue
			}
			deferUsage, err := c.deferUsage(sel.Directives, scope, parentDefer)
			if err != nil {
				return err
			}
			next := parentDefer
			if deferUsage != nil {
				c.newDeferUsages = append(c.newDeferUsages, deferUsage)
				next = deferUsage
			}
			if err := c.walk(sel.SelectionSet, scope, next); err != nil {
				return err
			}

		case *language.FragmentSpread:
			deferUsage, err := c.deferUsage(sel.Directives, scope, parentDefer)
			if err != nil {
				return err
			}
			// The visited guard applies to non-deferred spreads only: each
			// deferred boundary is evaluated independently and may revisit.
			if deferUsage == nil && (c.visited[sel.Name] || !c.shouldInclude(sel.Directives, scope)) {
				continue
			}
			fragment := c.fragments.ForName(sel.Name)
			if fragment == nil {
				continue
			}
			if !c.typeConditionMatches(fragment.TypeCondition) {
				continue
			}
			if deferUsage == nil {
				c.visited[sel.Name] = true
			}
			nextScope := scope
			if len(fragment.VariableDefinitions) > 0 {
				nextScope = language.NewFragmentScope(fragment, sel.Arguments, scope)
			}
			next := parentDefer
			if deferUsage != nil {
				c.newDeferUsages = append(c.newDeferUsages, deferUsage)
				next = deferUsage
			}
			if err := c.walk(fragment.SelectionSet, nextScope, next); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *collector) typeConditionMatches(condition string) bool {
	if condition == "" {
		return true
	}
	conditionType := c.schema.ResolveTypeCondition(condition)
	if conditionType == nil {
		return false
	}
	return c.schema.TypeConditionMatches(conditionType, c.runtimeType)
}

// shouldInclude evaluates @skip and @include. @skip has precedence:
// @skip(if: true) excludes the selection regardless of @include.
func (c *collector) shouldInclude(directives language.DirectiveList, scope *language.FragmentScope) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := c.directiveArgument(skip, "if", scope); ok {
			if b, ok := v.(bool); ok && b {
				return false
			}
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := c.directiveArgument(include, "if", scope); ok {
			if b, ok := v.(bool); ok && !b {
				return false
			}
		}
	}
	return true
}

// deferUsage computes the defer boundary introduced by @defer on the given
// node, if any. @defer(if: false) suppresses the deferral. Reaching a
// deferral on a subscription operation is an internal contract violation:
// validation upstream is responsible for rejecting such documents.
func (c *collector) deferUsage(directives language.DirectiveList, scope *language.FragmentScope, parent *DeferUsage) (*DeferUsage, error) {
	d := directives.ForName("defer")
	if d == nil {
		return nil, nil
	}
	if v, ok := c.directiveArgument(d, "if", scope); ok {
		if b, ok := v.(bool); ok && !b {
			return nil, nil
		}
	}
	if c.operation != nil && c.operation.Operation == language.Subscription {
		return nil, fmt.Errorf("internal: @defer must not be used on subscription operations")
	}
	usage := &DeferUsage{Parent: parent}
	// Only literal labels are taken; a variable-valued label is ignored
	// rather than resolved.
	if arg := d.Arguments.ForName("label"); arg != nil && arg.Value != nil && arg.Value.Kind == language.StringValue {
		label := arg.Value.Raw
		usage.Label = &label
	}
	return usage, nil
}

// directiveArgument resolves one directive argument to a runtime value,
// falling back to the directive definition's declared default.
func (c *collector) directiveArgument(d *language.Directive, name string, scope *language.FragmentScope) (any, bool) {
	if arg := d.Arguments.ForName(name); arg != nil {
		if v, ok := ResolveValue(arg.Value, c.variableValues, scope); ok {
			return v, true
		}
		return nil, false
	}
	if c.schema != nil {
		if def := c.schema.Directives[d.Name]; def != nil {
			for _, argDef := range def.Arguments {
				if argDef.Name == name && argDef.DefaultValue != nil {
					return argDef.DefaultValue, true
				}
			}
		}
	}
	return nil, false
}
