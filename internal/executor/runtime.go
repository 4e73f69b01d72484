package executor

import (
	"context"
)

// Runtime defines the host integration surface for field resolution,
// batching, abstract type resolution, and leaf-value serialization used by
// the Executor.
//
// General contract
//   - The Executor performs a breadth-first execution. At each depth it
//     drains all synchronous fields first via ResolveSync, then calls
//     BatchResolveAsync ONCE with all async tasks collected at that depth.
//     The next depth does not begin until BatchResolveAsync returns and
//     those results are completed.
//   - ResolveSync is never invoked for fields marked async, and
//     BatchResolveAsync is only invoked when there is at least one async
//     field at the current depth.
//   - Errors returned from any method are converted into located GraphQL
//     errors. If the field's return type is Non-Null, the Executor
//     propagates the null up to the nearest nullable ancestor.
//   - Implementations should be stateless or otherwise concurrency-safe,
//     and must not mutate source or args values.
//
// Object/field identifiers
//   - objectType is the GraphQL type name (e.g. "User").
//   - field is the GraphQL field name on that type.
//   - source is the parent object value (nil for root).
//   - args is the map of argument names to already-coerced Go values.
//     Arguments supplied through fragment-argument substitution arrive
//     coerced the same way; an unset fragment argument is simply absent.
//
// Partial success and determinism
//   - BatchResolveAsync must return one AsyncResolveResult per task, in
//     task order (results[i] corresponds to tasks[i]). Each result is
//     independent; failures in one do not affect others.
//
// Cancellation
//   - The Executor filters out tasks whose response paths were nullified
//     by a Non-Null violation, so BatchResolveAsync receives only live
//     tasks. Implementations only need to respect ctx.
type Runtime interface {
	// ResolveSync resolves a synchronous field value immediately.
	//
	// Called only for fields declared as sync (Async == false). Return
	// (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	//
	// The Executor calls this exactly once per depth with all async tasks
	// collected at that depth (after draining sync paths).
	//
	// Requirements:
	// - Return len(results) == len(tasks).
	// - Results MUST maintain task order.
	// - Return independent errors per element without failing the batch.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType determines the concrete runtime type name for a value of
	// an abstract GraphQL type (interface or union). Must return a possible
	// type of abstractType; otherwise return an error.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe
	// Go value. For enums, return the symbolic name as string.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in
	// the same batch are unaffected.
	Error error
}
