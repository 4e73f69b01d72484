package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	language "github.com/hanpama/graphplan/internal/language"
	schema "github.com/hanpama/graphplan/internal/schema"
)

func newDogSchema() *schema.Schema {
	return newSchemaWithQueryType(
		newObjectType("Query", &schema.Field{Name: "dog", Type: schema.NamedType("Dog")}),
		newObjectType("Dog",
			&schema.Field{Name: "trick", Type: schema.NamedType("String"), Arguments: []*schema.InputValue{
				{Name: "cmd", Type: schema.NamedType("String")},
			}},
		),
		newScalarType("String"),
	)
}

// attachFragmentSignature declares fragment variables on an already-parsed
// document. The executable grammar has no syntax for them, so tests attach
// them the way a front end would.
func attachFragmentSignature(t *testing.T, doc *language.QueryDocument, fragName string, defs language.VariableDefinitionList) {
	t.Helper()
	frag := doc.Fragments.ForName(fragName)
	if frag == nil {
		t.Fatalf("fragment %q not found", fragName)
	}
	frag.VariableDefinitions = defs
}

// attachSpreadArguments sets the argument list on every spread of the named
// fragment in the document's operations.
func attachSpreadArguments(t *testing.T, doc *language.QueryDocument, fragName string, args language.ArgumentList) {
	t.Helper()
	found := false
	var visit func(set language.SelectionSet)
	visit = func(set language.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *language.Field:
				visit(sel.SelectionSet)
			case *language.InlineFragment:
				visit(sel.SelectionSet)
			case *language.FragmentSpread:
				if sel.Name == fragName {
					sel.Arguments = args
					found = true
				}
			}
		}
	}
	for _, op := range doc.Operations {
		visit(op.SelectionSet)
	}
	if !found {
		t.Fatalf("no spread of fragment %q found", fragName)
	}
}

func stringVar(name string) *language.VariableDefinition {
	return &language.VariableDefinition{Variable: name, Type: &language.Type{NamedType: "String"}}
}

func stringVarWithDefault(name, def string) *language.VariableDefinition {
	return &language.VariableDefinition{
		Variable:     name,
		Type:         &language.Type{NamedType: "String"},
		DefaultValue: &language.Value{Raw: def, Kind: language.StringValue},
	}
}

// Pattern: Calls comparison (argument values are the subject)
func TestFragmentArguments_Execution(t *testing.T) {
	newRuntime := func() *MockRuntime {
		return NewMockRuntime(map[string]MockResolver{
			"Query.dog": NewMockValueResolver(map[string]any{}),
			"Dog.trick": func(ctx context.Context, source any, args map[string]any) (any, error) {
				if cmd, ok := args["cmd"]; ok {
					return cmd, nil
				}
				return "none", nil
			},
		})
	}

	t.Run("Spread argument reaches the resolver", func(t *testing.T) {
		doc := mustParseQuery(t, "{ dog { ...Trained } } fragment Trained on Dog { trick(cmd: $cmd) }")
		attachFragmentSignature(t, doc, "Trained", language.VariableDefinitionList{stringVar("cmd")})
		attachSpreadArguments(t, doc, "Trained", language.ArgumentList{
			{Name: "cmd", Value: &language.Value{Raw: "roll", Kind: language.StringValue}},
		})
		rt := newRuntime()
		exec := NewExecutor(rt, newDogSchema())

		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		want := &ExecutionResult{Data: map[string]any{"dog": map[string]any{"trick": "roll"}}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		wantCalls := []Call{
			{Kind: "sync", ObjectType: "Query", Field: "dog", Source: nil, Args: map[string]any{}, BatchID: 0},
			{Kind: "sync", ObjectType: "Dog", Field: "trick", Source: map[string]any{}, Args: map[string]any{"cmd": "roll"}, BatchID: 0},
		}
		if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
			t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Signature default applies when the spread omits the argument", func(t *testing.T) {
		doc := mustParseQuery(t, "{ dog { ...Trained } } fragment Trained on Dog { trick(cmd: $cmd) }")
		attachFragmentSignature(t, doc, "Trained", language.VariableDefinitionList{stringVarWithDefault("cmd", "sit")})
		rt := newRuntime()
		exec := NewExecutor(rt, newDogSchema())

		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		want := &ExecutionResult{Data: map[string]any{"dog": map[string]any{"trick": "sit"}}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Signature default shadows a same-named operation variable", func(t *testing.T) {
		doc := mustParseQuery(t, "query Q($cmd: String) { dog { ...Trained } } fragment Trained on Dog { trick(cmd: $cmd) }")
		attachFragmentSignature(t, doc, "Trained", language.VariableDefinitionList{stringVarWithDefault("cmd", "sit")})
		rt := newRuntime()
		exec := NewExecutor(rt, newDogSchema())

		got := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"cmd": "down"}, nil)

		want := &ExecutionResult{Data: map[string]any{"dog": map[string]any{"trick": "sit"}}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Unset argument leaves the resolver argument absent", func(t *testing.T) {
		doc := mustParseQuery(t, "query Q($cmd: String) { dog { ...Trained } } fragment Trained on Dog { trick(cmd: $cmd) }")
		attachFragmentSignature(t, doc, "Trained", language.VariableDefinitionList{stringVar("cmd")})
		rt := newRuntime()
		exec := NewExecutor(rt, newDogSchema())

		got := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"cmd": "down"}, nil)

		want := &ExecutionResult{Data: map[string]any{"dog": map[string]any{"trick": "none"}}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		wantCalls := []Call{
			{Kind: "sync", ObjectType: "Query", Field: "dog", Source: nil, Args: map[string]any{}, BatchID: 0},
			{Kind: "sync", ObjectType: "Dog", Field: "trick", Source: map[string]any{}, Args: map[string]any{}, BatchID: 0},
		}
		if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
			t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Variable outside the fragment still resolves from the operation", func(t *testing.T) {
		doc := mustParseQuery(t, "query Q($cmd: String) { dog { trick(cmd: $cmd) } }")
		rt := newRuntime()
		exec := NewExecutor(rt, newDogSchema())

		got := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"cmd": "down"}, nil)

		want := &ExecutionResult{Data: map[string]any{"dog": map[string]any{"trick": "down"}}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestDefer_Execution(t *testing.T) {
	t.Run("Deferred fields resolve inline in a single response", func(t *testing.T) {
		sch := newSchemaWithQueryType(
			newObjectType("Query",
				&schema.Field{Name: "a", Type: schema.NamedType("String")},
				&schema.Field{Name: "b", Type: schema.NamedType("String")},
			),
			newScalarType("String"),
		)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockValueResolver("A"),
			"Query.b": NewMockValueResolver("B"),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ a ... @defer(label: \"rest\") { b } }")

		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		want := &ExecutionResult{Data: map[string]any{"a": "A", "b": "B"}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Defer on a subscription operation fails the request", func(t *testing.T) {
		sch := &schema.Schema{
			QueryType:        "Query",
			SubscriptionType: "Subscription",
			Types: map[string]*schema.Type{
				"Query": {Name: "Query", Kind: schema.TypeKindObject},
				"Subscription": {Name: "Subscription", Kind: schema.TypeKindObject, Fields: []*schema.Field{
					{Name: "updates", Type: schema.NamedType("String")},
					{Name: "extra", Type: schema.NamedType("String")},
				}},
				"String": {Name: "String", Kind: schema.TypeKindScalar},
			},
		}
		rt := NewMockRuntime(nil)
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "subscription { updates ... @defer { extra } }")

		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		want := &ExecutionResult{Errors: []GraphQLError{{Message: "internal: @defer must not be used on subscription operations"}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		if len(rt.GetCalls()) != 0 {
			t.Fatalf("expected no resolver calls, got %v", rt.GetCalls())
		}
	})
}
