package language

import (
	"sort"
	"strconv"
	"strings"
)

// PrintValue renders a value expression to a canonical string. Object
// fields are sorted by name so that two structurally equal values always
// print identically regardless of key order in the source text.
func PrintValue(v *Value) string {
	var sb strings.Builder
	printValueTo(&sb, v)
	return sb.String()
}

// PrintArguments renders an argument list canonically, sorted by argument
// name. Used for structural equality of field arguments and for keying
// fragment-spread expansions.
func PrintArguments(args ArgumentList) string {
	if len(args) == 0 {
		return ""
	}
	sorted := make([]*Argument, len(args))
	copy(sorted, args)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteByte('(')
	for i, arg := range sorted {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.Name)
		sb.WriteString(": ")
		printValueTo(&sb, arg.Value)
	}
	sb.WriteByte(')')
	return sb.String()
}

func printValueTo(sb *strings.Builder, v *Value) {
	if v == nil {
		sb.WriteString("null")
		return
	}
	switch v.Kind {
	case Variable:
		sb.WriteByte('$')
		sb.WriteString(v.Raw)
	case StringValue, BlockValue:
		sb.WriteString(strconv.Quote(v.Raw))
	case ListValue:
		sb.WriteByte('[')
		for i, c := range v.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			printValueTo(sb, c.Value)
		}
		sb.WriteByte(']')
	case ObjectValue:
		fields := make([]*ChildValue, len(v.Children))
		copy(fields, v.Children)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		sb.WriteByte('{')
		for i, c := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.Name)
			sb.WriteString(": ")
			printValueTo(sb, c.Value)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(v.Raw)
	}
}
