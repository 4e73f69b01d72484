package collect

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildPlan(t *testing.T) {
	sch := mustLoadSchema(t, petSDL)

	t.Run("nested selections with aliases", func(t *testing.T) {
		doc := mustParseQuery(t, "{ pup: dog { name __typename } a }")
		plan, err := BuildPlan(sch, doc, "", nil)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		want := &Plan{
			Operation: "query",
			RootType:  "Query",
			Selections: []*PlanNode{
				{
					Key:   "pup",
					Field: "dog",
					Type:  "Dog",
					Selections: []*PlanNode{
						{Key: "name", Field: "name", Type: "String"},
						{Key: "__typename", Field: "__typename", Type: "String!"},
					},
				},
				{Key: "a", Field: "a", Type: "String"},
			},
		}
		if diff := cmp.Diff(want, plan); diff != "" {
			t.Fatalf("plan mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("abstract fields plan per concrete type", func(t *testing.T) {
		doc := mustParseQuery(t, "{ pet { name ... on Dog { barkVolume } ... on Cat { meowVolume } } }")
		plan, err := BuildPlan(sch, doc, "", nil)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		want := []*PlanNode{
			{
				Key:   "pet",
				Field: "pet",
				Type:  "Pet",
				Conditional: []*TypePlan{
					{
						Type: "Dog",
						Selections: []*PlanNode{
							{Key: "name", Field: "name", Type: "String"},
							{Key: "barkVolume", Field: "barkVolume", Type: "Int"},
						},
					},
					{
						Type: "Cat",
						Selections: []*PlanNode{
							{Key: "name", Field: "name", Type: "String"},
							{Key: "meowVolume", Field: "meowVolume", Type: "Int"},
						},
					},
				},
			},
		}
		if diff := cmp.Diff(want, plan.Selections); diff != "" {
			t.Fatalf("plan mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("operation selection", func(t *testing.T) {
		doc := mustParseQuery(t, "query A { a } query B { b }")

		plan, err := BuildPlan(sch, doc, "B", nil)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if plan.Selections[0].Key != "b" {
			t.Fatalf("selected wrong operation: %+v", plan.Selections[0])
		}

		if _, err := BuildPlan(sch, doc, "", nil); err == nil || !strings.Contains(err.Error(), "operation name is required") {
			t.Fatalf("err = %v", err)
		}
		if _, err := BuildPlan(sch, doc, "C", nil); err == nil || !strings.Contains(err.Error(), `operation "C" not found`) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("missing root type", func(t *testing.T) {
		doc := mustParseQuery(t, "mutation { a }")
		_, err := BuildPlan(sch, doc, "", nil)
		if err == nil || !strings.Contains(err.Error(), "root type for mutation") {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		doc := mustParseQuery(t, "{ missing }")
		_, err := BuildPlan(sch, doc, "", nil)
		if err == nil || !strings.Contains(err.Error(), `cannot query field "missing"`) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestBuildPlan_Deferral(t *testing.T) {
	sch := mustLoadSchema(t, petSDL)

	t.Run("fully deferred key carries the label", func(t *testing.T) {
		doc := mustParseQuery(t, `{ a ... @defer(label: "rest") { b } }`)
		plan, err := BuildPlan(sch, doc, "", nil)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		want := []*PlanNode{
			{Key: "a", Field: "a", Type: "String"},
			{Key: "b", Field: "b", Type: "String", Deferred: true, DeferLabel: "rest"},
		}
		if diff := cmp.Diff(want, plan.Selections); diff != "" {
			t.Fatalf("plan mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("one non-deferred occurrence keeps the key in the initial payload", func(t *testing.T) {
		doc := mustParseQuery(t, `{ a ... @defer { a } }`)
		plan, err := BuildPlan(sch, doc, "", nil)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if plan.Selections[0].Deferred {
			t.Fatal("key with a non-deferred occurrence must not be marked deferred")
		}
	})
}

func TestBuildPlan_RecursionBound(t *testing.T) {
	sch := mustLoadSchema(t, `
type Query { self: Query, leaf: String }
`)
	doc := mustParseQuery(t, "{ ...Loop } fragment Loop on Query { self { ...Loop } }")
	_, err := BuildPlan(sch, doc, "", nil)
	if err == nil || !strings.Contains(err.Error(), "maximum depth") {
		t.Fatalf("err = %v", err)
	}
}
