package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// FromSDL loads a schema from SDL source and converts it to the internal
// model. Introspection-only types are dropped; the @defer and @stream
// execution directives are declared implicitly when the SDL does not
// declare them itself.
func FromSDL(name, source string) (*Schema, error) {
	loaded, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}

	s := &Schema{
		Types:      make(map[string]*Type),
		Directives: make(map[string]*Directive),
	}
	if loaded.Query != nil {
		s.QueryType = loaded.Query.Name
	}
	if loaded.Mutation != nil {
		s.MutationType = loaded.Mutation.Name
	}
	if loaded.Subscription != nil {
		s.SubscriptionType = loaded.Subscription.Name
	}
	if loaded.Description != "" {
		s.Description = loaded.Description
	}

	for name, def := range loaded.Types {
		if strings.HasPrefix(name, "__") {
			continue
		}
		t, err := buildType(def)
		if err != nil {
			return nil, err
		}
		for _, possible := range loaded.PossibleTypes[name] {
			t.PossibleTypes = append(t.PossibleTypes, possible.Name)
		}
		s.Types[name] = t
	}

	for name, def := range loaded.Directives {
		if strings.HasPrefix(name, "__") {
			continue
		}
		s.Directives[name] = buildDirective(def)
	}
	for _, builtin := range []*Directive{deferDirective, streamDirective} {
		if _, ok := s.Directives[builtin.Name]; !ok {
			s.Directives[builtin.Name] = builtin
		}
	}
	return s, nil
}

func buildType(def *ast.Definition) (*Type, error) {
	t := &Type{
		Name:        def.Name,
		Description: def.Description,
	}
	switch def.Kind {
	case ast.Scalar:
		t.Kind = TypeKindScalar
	case ast.Object:
		t.Kind = TypeKindObject
	case ast.Interface:
		t.Kind = TypeKindInterface
	case ast.Union:
		t.Kind = TypeKindUnion
	case ast.Enum:
		t.Kind = TypeKindEnum
	case ast.InputObject:
		t.Kind = TypeKindInputObject
	default:
		return nil, fmt.Errorf("unsupported definition kind %s for type %s", def.Kind, def.Name)
	}

	t.Interfaces = append(t.Interfaces, def.Interfaces...)

	switch t.Kind {
	case TypeKindObject, TypeKindInterface:
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			t.Fields = append(t.Fields, buildField(f))
		}
	case TypeKindEnum:
		for _, ev := range def.EnumValues {
			t.EnumValues = append(t.EnumValues, &EnumValue{
				Name:        ev.Name,
				Description: ev.Description,
			})
		}
	case TypeKindInputObject:
		for _, f := range def.Fields {
			t.InputFields = append(t.InputFields, &InputValue{
				Name:         f.Name,
				Description:  f.Description,
				Type:         TypeRefFromAST(f.Type),
				DefaultValue: literalToGo(f.DefaultValue),
			})
		}
	}
	return t, nil
}

func buildField(def *ast.FieldDefinition) *Field {
	f := &Field{
		Name:        def.Name,
		Description: def.Description,
		Type:        TypeRefFromAST(def.Type),
	}
	for _, arg := range def.Arguments {
		f.Arguments = append(f.Arguments, &InputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         TypeRefFromAST(arg.Type),
			DefaultValue: literalToGo(arg.DefaultValue),
		})
	}
	return f
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	d := &Directive{
		Name:         def.Name,
		Description:  def.Description,
		IsRepeatable: def.IsRepeatable,
	}
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.Arguments = append(d.Arguments, &InputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         TypeRefFromAST(arg.Type),
			DefaultValue: literalToGo(arg.DefaultValue),
		})
	}
	return d
}

// TypeRefFromAST converts a gqlparser type reference to the internal form.
func TypeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(TypeRefFromAST(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(TypeRefFromAST(t.Elem))
	}
	return nil
}

// literalToGo converts a constant AST value (schema default values contain
// no variables) to a plain Go value.
func literalToGo(v *ast.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case ast.IntValue:
		iv, _ := strconv.Atoi(v.Raw)
		return iv
	case ast.FloatValue:
		fv, _ := strconv.ParseFloat(v.Raw, 64)
		return fv
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return v.Raw
	case ast.BooleanValue:
		return v.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.ListValue:
		out := make([]any, len(v.Children))
		for i, c := range v.Children {
			out[i] = literalToGo(c.Value)
		}
		return out
	case ast.ObjectValue:
		m := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			m[c.Name] = literalToGo(c.Value)
		}
		return m
	default:
		return nil
	}
}
