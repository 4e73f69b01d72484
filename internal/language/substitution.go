package language

// UnsetVariable is the reserved name of the synthetic variable that marks a
// declared fragment argument that was neither supplied by the spread nor
// covered by a default. Dereferencing it yields "no value", never a fall
// through to a same-named variable in an outer scope.
const UnsetVariable = "__unset"

// UnsetValue returns a fresh reference to the unset marker variable.
func UnsetValue(pos *Position) *Value {
	return &Value{Kind: Variable, Raw: UnsetVariable, Position: pos}
}

// IsUnset reports whether v is a reference to the unset marker.
func IsUnset(v *Value) bool {
	return v != nil && v.Kind == Variable && v.Raw == UnsetVariable
}

// Binding is the value expression bound to one fragment variable. An unset
// binding records a variable that was declared but not supplied and has no
// default.
type Binding struct {
	Value *Value
	Unset bool
}

// FragmentScope holds the variable bindings in effect while traversing one
// fragment spread's expansion. Bound expressions are pre-substituted
// through the caller's scope, so they only ever reference operation-level
// variables or the unset marker. Names the fragment does not declare
// resolve to the enclosing operation's variables.
type FragmentScope struct {
	fragment string
	bindings map[string]Binding
}

// NewFragmentScope computes the bindings for spreading fragment with the
// supplied arguments. For each declared variable: an explicitly supplied
// argument wins, otherwise the signature default, otherwise the unset
// marker. caller is the scope in effect at the spread site (nil at
// operation level); supplied argument expressions are rewritten through it.
func NewFragmentScope(fragment *FragmentDefinition, supplied ArgumentList, caller *FragmentScope) *FragmentScope {
	scope := &FragmentScope{
		fragment: fragment.Name,
		bindings: make(map[string]Binding, len(fragment.VariableDefinitions)),
	}
	for _, sig := range fragment.VariableDefinitions {
		if arg := supplied.ForName(sig.Variable); arg != nil {
			scope.bindings[sig.Variable] = Binding{Value: substituteValue(arg.Value, caller)}
			continue
		}
		if sig.DefaultValue != nil {
			scope.bindings[sig.Variable] = Binding{Value: sig.DefaultValue}
			continue
		}
		scope.bindings[sig.Variable] = Binding{Unset: true}
	}
	return scope
}

// FragmentName returns the name of the fragment that established the scope.
func (s *FragmentScope) FragmentName() string { return s.fragment }

// Binding resolves a variable name against the scope. The second result is
// false when the fragment does not declare the name, in which case the
// caller should fall through to operation-level variables.
func (s *FragmentScope) Binding(name string) (Binding, bool) {
	if s == nil {
		return Binding{}, false
	}
	b, ok := s.bindings[name]
	return b, ok
}

// SubstituteFragmentSpread materializes the effective selection set of
// spreading fragment with the given arguments: every reference to a
// declared fragment variable is replaced by the bound value expression, or
// by the unset marker. Fragments that declare no variables are returned
// unmodified.
func SubstituteFragmentSpread(fragment *FragmentDefinition, supplied ArgumentList) SelectionSet {
	if len(fragment.VariableDefinitions) == 0 {
		return fragment.SelectionSet
	}
	scope := NewFragmentScope(fragment, supplied, nil)
	return substituteSelectionSet(fragment.SelectionSet, scope)
}

func substituteSelectionSet(set SelectionSet, scope *FragmentScope) SelectionSet {
	if set == nil {
		return nil
	}
	out := make(SelectionSet, 0, len(set))
	for _, sel := range set {
		switch sel := sel.(type) {
		case *Field:
			out = append(out, &Field{
				Alias:        sel.Alias,
				Name:         sel.Name,
				Arguments:    substituteArguments(sel.Arguments, scope),
				Directives:   substituteDirectives(sel.Directives, scope),
				SelectionSet: substituteSelectionSet(sel.SelectionSet, scope),
				Position:     sel.Position,
			})
		case *InlineFragment:
			out = append(out, &InlineFragment{
				TypeCondition: sel.TypeCondition,
				Directives:    substituteDirectives(sel.Directives, scope),
				SelectionSet:  substituteSelectionSet(sel.SelectionSet, scope),
				Position:      sel.Position,
			})
		case *FragmentSpread:
			out = append(out, &FragmentSpread{
				Name:       sel.Name,
				Arguments:  substituteArguments(sel.Arguments, scope),
				Directives: substituteDirectives(sel.Directives, scope),
				Position:   sel.Position,
			})
		}
	}
	return out
}

func substituteArguments(args ArgumentList, scope *FragmentScope) ArgumentList {
	if args == nil {
		return nil
	}
	out := make(ArgumentList, 0, len(args))
	for _, arg := range args {
		out = append(out, &Argument{
			Name:     arg.Name,
			Value:    substituteValue(arg.Value, scope),
			Position: arg.Position,
		})
	}
	return out
}

func substituteDirectives(directives DirectiveList, scope *FragmentScope) DirectiveList {
	if directives == nil {
		return nil
	}
	out := make(DirectiveList, 0, len(directives))
	for _, d := range directives {
		out = append(out, &Directive{
			Name:      d.Name,
			Arguments: substituteArguments(d.Arguments, scope),
			Position:  d.Position,
		})
	}
	return out
}

// substituteValue rewrites variable references bound by scope. Variables
// the scope does not bind are left alone: they refer to operation-level
// variables by definition.
func substituteValue(v *Value, scope *FragmentScope) *Value {
	if v == nil || scope == nil {
		return v
	}
	switch v.Kind {
	case Variable:
		b, ok := scope.Binding(v.Raw)
		if !ok {
			return v
		}
		if b.Unset {
			return UnsetValue(v.Position)
		}
		return b.Value
	case ListValue, ObjectValue:
		children := make(ChildValueList, 0, len(v.Children))
		for _, c := range v.Children {
			children = append(children, &ChildValue{
				Name:     c.Name,
				Value:    substituteValue(c.Value, scope),
				Position: c.Position,
			})
		}
		return &Value{Kind: v.Kind, Children: children, Position: v.Position}
	default:
		return v
	}
}
