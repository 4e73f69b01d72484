package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document and converts it to the local
// AST. Fragment variable signatures and spread arguments are not part of
// the standard grammar; front ends that support them attach them to the
// converted nodes afterwards.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return convertQueryDocument(doc), nil
}

func convertQueryDocument(doc *ast.QueryDocument) *QueryDocument {
	out := &QueryDocument{}
	for _, op := range doc.Operations {
		out.Operations = append(out.Operations, &OperationDefinition{
			Operation:           op.Operation,
			Name:                op.Name,
			VariableDefinitions: op.VariableDefinitions,
			Directives:          op.Directives,
			SelectionSet:        convertSelectionSet(op.SelectionSet),
			Position:            op.Position,
		})
	}
	for _, frag := range doc.Fragments {
		out.Fragments = append(out.Fragments, &FragmentDefinition{
			Name:          frag.Name,
			TypeCondition: frag.TypeCondition,
			Directives:    frag.Directives,
			SelectionSet:  convertSelectionSet(frag.SelectionSet),
			Position:      frag.Position,
		})
	}
	return out
}

func convertSelectionSet(set ast.SelectionSet) SelectionSet {
	if set == nil {
		return nil
	}
	out := make(SelectionSet, 0, len(set))
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			out = append(out, &Field{
				Alias:        sel.Alias,
				Name:         sel.Name,
				Arguments:    sel.Arguments,
				Directives:   sel.Directives,
				SelectionSet: convertSelectionSet(sel.SelectionSet),
				Position:     sel.Position,
			})
		case *ast.InlineFragment:
			out = append(out, &InlineFragment{
				TypeCondition: sel.TypeCondition,
				Directives:    sel.Directives,
				SelectionSet:  convertSelectionSet(sel.SelectionSet),
				Position:      sel.Position,
			})
		case *ast.FragmentSpread:
			out = append(out, &FragmentSpread{
				Name:       sel.Name,
				Directives: sel.Directives,
				Position:   sel.Position,
			})
		}
	}
	return out
}
