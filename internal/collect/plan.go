package collect

import (
	"fmt"

	language "github.com/hanpama/graphplan/internal/language"
	schema "github.com/hanpama/graphplan/internal/schema"
)

// maxPlanDepth bounds plan expansion so that documents whose fragments
// recurse through fields (legal at execution time, where data depth bounds
// the recursion) cannot expand forever statically.
const maxPlanDepth = 64

// Plan is a static rendering of the grouped field sets an execution of the
// operation would produce, one level per composite field.
type Plan struct {
	Operation  string      `json:"operation"`
	RootType   string      `json:"rootType"`
	Selections []*PlanNode `json:"selections"`
}

// PlanNode describes one response key of a grouped field set.
type PlanNode struct {
	Key        string      `json:"key"`
	Field      string      `json:"field"`
	Type       string      `json:"type,omitempty"`
	Deferred   bool        `json:"deferred,omitempty"`
	DeferLabel string      `json:"deferLabel,omitempty"`
	Selections []*PlanNode `json:"selections,omitempty"`
	// Conditional holds per-concrete-type sub-plans when the field returns
	// an interface or union.
	Conditional []*TypePlan `json:"conditional,omitempty"`
}

// TypePlan is the sub-plan that applies when an abstract-typed field
// resolves to one specific object type.
type TypePlan struct {
	Type       string      `json:"type"`
	Selections []*PlanNode `json:"selections"`
}

// BuildPlan collects the named operation's fields against the schema and
// descends through composite return types, producing the full plan tree.
func BuildPlan(
	sch *schema.Schema,
	doc *language.QueryDocument,
	operationName string,
	variables map[string]any,
) (*Plan, error) {
	operation := doc.Operations.ForName(operationName)
	if operation == nil {
		if operationName == "" {
			return nil, fmt.Errorf("operation name is required when the document has multiple operations")
		}
		return nil, fmt.Errorf("operation %q not found", operationName)
	}
	rootType := sch.RootType(string(operation.Operation))
	if rootType == nil {
		return nil, fmt.Errorf("schema does not define a root type for %s operations", operation.Operation)
	}

	b := &planBuilder{
		schema:    sch,
		doc:       doc,
		operation: operation,
		variables: variables,
	}
	grouped, _, err := CollectFields(sch, doc.Fragments, variables, rootType, operation)
	if err != nil {
		return nil, err
	}
	selections, err := b.planGroups(grouped, rootType, 0)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Operation:  string(operation.Operation),
		RootType:   rootType.Name,
		Selections: selections,
	}, nil
}

type planBuilder struct {
	schema    *schema.Schema
	doc       *language.QueryDocument
	operation *language.OperationDefinition
	variables map[string]any
}

func (b *planBuilder) planGroups(grouped *GroupedFieldSet, parentType *schema.Type, depth int) ([]*PlanNode, error) {
	if depth > maxPlanDepth {
		return nil, fmt.Errorf("plan exceeds maximum depth of %d; the document likely recurses through fragments", maxPlanDepth)
	}
	var nodes []*PlanNode
	for _, group := range grouped.Groups() {
		field := group.Fields[0].Field
		node := &PlanNode{
			Key:   group.ResponseKey,
			Field: field.Name,
		}
		annotateDeferral(node, group)

		if field.Name == "__typename" {
			node.Type = "String!"
			nodes = append(nodes, node)
			continue
		}

		def := parentType.FieldByName(field.Name)
		if def == nil {
			return nil, fmt.Errorf("cannot query field %q on type %q", field.Name, parentType.Name)
		}
		node.Type = def.Type.String()

		named := b.schema.Types[def.Type.GetNamedType()]
		switch {
		case named == nil:
			return nil, fmt.Errorf("unknown type %q in field %q", def.Type.GetNamedType(), field.Name)
		case named.IsObject():
			sub, _, err := CollectSubfields(b.schema, b.doc.Fragments, b.variables, b.operation, named, group)
			if err != nil {
				return nil, err
			}
			if sub.Len() > 0 {
				selections, err := b.planGroups(sub, named, depth+1)
				if err != nil {
					return nil, err
				}
				node.Selections = selections
			}
		case named.IsAbstract():
			for _, possibleName := range named.PossibleTypes {
				possible := b.schema.Types[possibleName]
				if possible == nil {
					continue
				}
				sub, _, err := CollectSubfields(b.schema, b.doc.Fragments, b.variables, b.operation, possible, group)
				if err != nil {
					return nil, err
				}
				selections, err := b.planGroups(sub, possible, depth+1)
				if err != nil {
					return nil, err
				}
				node.Conditional = append(node.Conditional, &TypePlan{
					Type:       possibleName,
					Selections: selections,
				})
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// annotateDeferral marks a plan node deferred only when every occurrence of
// the response key sits behind a defer boundary; one non-deferred
// occurrence keeps the key in the initial payload.
func annotateDeferral(node *PlanNode, group FieldGroup) {
	deferred := true
	for _, details := range group.Fields {
		if details.DeferUsage == nil {
			deferred = false
			break
		}
	}
	if !deferred {
		return
	}
	node.Deferred = true
	for _, details := range group.Fields {
		if details.DeferUsage != nil && details.DeferUsage.Label != nil {
			node.DeferLabel = *details.DeferUsage.Label
			break
		}
	}
}
