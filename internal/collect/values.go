package collect

import (
	"strconv"

	language "github.com/hanpama/graphplan/internal/language"
)

// ResolveValue converts a value expression to a runtime Go value. Variable
// references resolve through the fragment-local scope first: a bound
// expression was pre-substituted and only references operation variables,
// and an unset binding yields "undefined" rather than falling through to a
// same-named operation variable. The second result is false when the value
// is undefined (unset marker, or an unknown variable).
func ResolveValue(v *language.Value, variables map[string]any, scope *language.FragmentScope) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch v.Kind {
	case language.Variable:
		if language.IsUnset(v) {
			return nil, false
		}
		if binding, ok := scope.Binding(v.Raw); ok {
			if binding.Unset {
				return nil, false
			}
			return ResolveValue(binding.Value, variables, nil)
		}
		val, ok := variables[v.Raw]
		return val, ok
	case language.IntValue:
		iv, _ := strconv.Atoi(v.Raw)
		return iv, true
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(v.Raw, 64)
		return fv, true
	case language.StringValue, language.BlockValue, language.EnumValue:
		return v.Raw, true
	case language.BooleanValue:
		return v.Raw == "true", true
	case language.NullValue:
		return nil, true
	case language.ListValue:
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			item, ok := ResolveValue(c.Value, variables, scope)
			if !ok {
				item = nil
			}
			out = append(out, item)
		}
		return out, true
	case language.ObjectValue:
		m := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			// Undefined object fields are omitted, matching absent-input
			// semantics for input objects.
			if item, ok := ResolveValue(c.Value, variables, scope); ok {
				m[c.Name] = item
			}
		}
		return m, true
	default:
		return nil, false
	}
}
