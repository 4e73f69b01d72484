package language

import "github.com/vektah/gqlparser/v2/ast"

// Leaf nodes are shared with gqlparser. Selection-level nodes are defined
// locally because fragment spreads carry argument lists and fragment
// definitions carry variable signatures, neither of which exists in the
// standard grammar.
type (
	Value                  = ast.Value
	ChildValue             = ast.ChildValue
	ChildValueList         = ast.ChildValueList
	Argument               = ast.Argument
	ArgumentList           = ast.ArgumentList
	Directive              = ast.Directive
	DirectiveList          = ast.DirectiveList
	Type                   = ast.Type
	VariableDefinition     = ast.VariableDefinition
	VariableDefinitionList = ast.VariableDefinitionList
	Position               = ast.Position
)

type Operation = ast.Operation

const (
	Query        Operation = ast.Query
	Mutation     Operation = ast.Mutation
	Subscription Operation = ast.Subscription
)

type ValueKind = ast.ValueKind

const (
	Variable     ValueKind = ast.Variable
	IntValue     ValueKind = ast.IntValue
	FloatValue   ValueKind = ast.FloatValue
	StringValue  ValueKind = ast.StringValue
	BlockValue   ValueKind = ast.BlockValue
	BooleanValue ValueKind = ast.BooleanValue
	NullValue    ValueKind = ast.NullValue
	EnumValue    ValueKind = ast.EnumValue
	ListValue    ValueKind = ast.ListValue
	ObjectValue  ValueKind = ast.ObjectValue
)

// QueryDocument is an executable document: operations plus the fragment
// lookup table. Fragments are addressed by name, never as owned subtrees,
// so cyclic spreads stay representable.
type QueryDocument struct {
	Operations OperationList
	Fragments  FragmentDefinitionList
}

type OperationDefinition struct {
	Operation           Operation
	Name                string
	VariableDefinitions VariableDefinitionList
	Directives          DirectiveList
	SelectionSet        SelectionSet
	Position            *Position
}

type OperationList []*OperationDefinition

func (l OperationList) ForName(name string) *OperationDefinition {
	if name == "" && len(l) == 1 {
		return l[0]
	}
	for _, op := range l {
		if op.Name == name {
			return op
		}
	}
	return nil
}

// FragmentDefinition declares a named fragment. VariableDefinitions are the
// fragment's locally scoped arguments; they shadow any same-named operation
// variables for the duration of one spread's expansion.
type FragmentDefinition struct {
	Name                string
	VariableDefinitions VariableDefinitionList
	TypeCondition       string
	Directives          DirectiveList
	SelectionSet        SelectionSet
	Position            *Position
}

type FragmentDefinitionList []*FragmentDefinition

func (l FragmentDefinitionList) ForName(name string) *FragmentDefinition {
	for _, f := range l {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type SelectionSet []Selection

type Selection interface {
	isSelection()
	GetPosition() *Position
}

func (*Field) isSelection()          {}
func (*InlineFragment) isSelection() {}
func (*FragmentSpread) isSelection() {}

func (s *Field) GetPosition() *Position          { return s.Position }
func (s *InlineFragment) GetPosition() *Position { return s.Position }
func (s *FragmentSpread) GetPosition() *Position { return s.Position }

type Field struct {
	Alias        string
	Name         string
	Arguments    ArgumentList
	Directives   DirectiveList
	SelectionSet SelectionSet
	Position     *Position
}

// ResponseKey returns the alias if present, otherwise the field name.
func (f *Field) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

type InlineFragment struct {
	TypeCondition string
	Directives    DirectiveList
	SelectionSet  SelectionSet
	Position      *Position
}

// FragmentSpread references a fragment definition by name. Arguments supply
// values for the fragment's declared variables; names the definition does
// not declare are ignored by substitution.
type FragmentSpread struct {
	Name       string
	Arguments  ArgumentList
	Directives DirectiveList
	Position   *Position
}
