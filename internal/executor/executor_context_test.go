package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/graphplan/internal/schema"
)

func newEchoSchema() *schema.Schema {
	return newSchemaWithQueryType(
		newObjectType("Query",
			&schema.Field{Name: "a", Type: schema.NamedType("String")},
			&schema.Field{Name: "echo", Type: schema.NamedType("String"), Arguments: []*schema.InputValue{
				{Name: "msg", Type: schema.NamedType("String")},
			}},
		),
		newScalarType("String"),
	)
}

// Pattern: Result comparison
func TestRequest_OperationSelection_Result(t *testing.T) {
	sch := newEchoSchema()
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
	})
	exec := NewExecutor(rt, sch)

	okResult := &ExecutionResult{Data: map[string]any{"a": "A"}, Errors: []GraphQLError{}}
	notFound := &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}

	t.Run("Empty name selects the single operation", func(t *testing.T) {
		doc := mustParseQuery(t, "query Only { a }")
		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
		if diff := cmp.Diff(okResult, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Anonymous operation runs without a name", func(t *testing.T) {
		doc := mustParseQuery(t, "{ a }")
		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
		if diff := cmp.Diff(okResult, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Name selects among multiple operations", func(t *testing.T) {
		doc := mustParseQuery(t, "query First { a } query Second { echo(msg: \"hi\") }")
		got := exec.ExecuteRequest(context.Background(), doc, "First", nil, nil)
		if diff := cmp.Diff(okResult, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Empty name with multiple operations is an error", func(t *testing.T) {
		doc := mustParseQuery(t, "query First { a } query Second { a }")
		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
		if diff := cmp.Diff(notFound, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Unknown name is an error", func(t *testing.T) {
		doc := mustParseQuery(t, "query Only { a }")
		got := exec.ExecuteRequest(context.Background(), doc, "Missing", nil, nil)
		if diff := cmp.Diff(notFound, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Operation type without a configured root is an error", func(t *testing.T) {
		doc := mustParseQuery(t, "mutation { a }")
		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
		want := &ExecutionResult{Errors: []GraphQLError{{Message: "root type not found for mutation operation"}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison (plus call args where the coerced value matters)
func TestRequest_VariableCoercion(t *testing.T) {
	sch := newEchoSchema()

	t.Run("Provided variable reaches the resolver coerced", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.echo": func(ctx context.Context, source any, args map[string]any) (any, error) {
				return args["msg"], nil
			},
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "query Q($m: String) { echo(msg: $m) }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"m": 42}, nil)
		gotCalls := rt.GetCalls()

		wantRes := &ExecutionResult{Data: map[string]any{"echo": "42"}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		wantCalls := []Call{
			{Kind: "sync", ObjectType: "Query", Field: "echo", Source: nil, Args: map[string]any{"msg": "42"}, BatchID: 0},
		}
		if diff := cmp.Diff(wantCalls, gotCalls); diff != "" {
			t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Default value fills a missing variable", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.echo": func(ctx context.Context, source any, args map[string]any) (any, error) {
				return args["msg"], nil
			},
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "query Q($m: String = \"fallback\") { echo(msg: $m) }")

		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		want := &ExecutionResult{Data: map[string]any{"echo": "fallback"}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing required variable fails the request", func(t *testing.T) {
		rt := NewMockRuntime(nil)
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "query Q($m: String!) { echo(msg: $m) }")

		got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		want := &ExecutionResult{Errors: []GraphQLError{{Message: "variable $m of required type String! was not provided"}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		if len(rt.GetCalls()) != 0 {
			t.Fatalf("expected no resolver calls, got %v", rt.GetCalls())
		}
	})

	t.Run("Declared non-null type drives the coercion", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.echo": func(ctx context.Context, source any, args map[string]any) (any, error) {
				return args["msg"], nil
			},
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "query Q($m: String!) { echo(msg: $m) }")

		got := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"m": 7}, nil)

		want := &ExecutionResult{Data: map[string]any{"echo": "7"}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Null for a required variable fails the request", func(t *testing.T) {
		rt := NewMockRuntime(nil)
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "query Q($m: String!) { echo(msg: $m) }")

		got := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"m": nil}, nil)

		want := &ExecutionResult{Errors: []GraphQLError{{Message: "variable $m of type String! cannot be null"}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}
