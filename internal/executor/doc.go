// Package executor implements a breadth-first, batch-friendly GraphQL
// executor with explicit runtime hooks for synchronous resolution,
// depth-wise batching of asynchronous work, abstract-type resolution, and
// leaf serialization.
//
// # Overview
//
// The executor follows a level-by-level (BFS) execution model designed to:
//   - Expand synchronous ("physical") fields immediately without adding
//     batch depth.
//   - Collect asynchronous ("remote") fields encountered at the current
//     depth and resolve them in a single call to Runtime.BatchResolveAsync.
//   - Complete values according to the GraphQL specification (lists, leafs,
//     objects, abstract types), including Non-Null null-propagation rules.
//   - Accumulate located errors while allowing partial success.
//
// # Field collection
//
// Selection sets are grouped by the collect package before execution:
// CollectFields for the operation root and CollectSubfields for each object
// completion. Grouping applies @skip/@include (with @skip precedence),
// expands fragments against the concrete runtime type, and threads two
// pieces of per-occurrence context through to execution:
//
//   - the fragment-argument scope, so that argument values supplied at a
//     spread site shadow same-named operation variables, signature defaults
//     apply when the spread is silent, and an unset fragment argument makes
//     the field argument absent rather than null;
//   - the @defer usage, identifying the defer boundary each occurrence
//     belongs to.
//
// This executor delivers a single response: deferred groups are part of the
// grouped field set and execute inline with everything else. Incremental
// delivery is a transport concern; the defer metadata exists for planners
// and for transports that implement it.
//
// # Execution model
//
// The executor repeats the following cycle until no async tasks remain:
//
//	A. Sync expansion
//	   - For each group in the grouped field set, compute argument values
//	     under the occurrence's fragment scope and determine the return
//	     type and async flag.
//	   - If sync: call Runtime.ResolveSync, then completeValue immediately.
//	     Object results collect their subfields and keep expanding
//	     synchronously (depth does not increase).
//	   - If async: create an AsyncResolveTask and enqueue it without
//	     executing yet.
//
//	B. Batch execution
//	   - If there are async tasks at this depth, call
//	     Runtime.BatchResolveAsync exactly once with all of them (after
//	     filtering out paths nullified by prior Non-Null violations). The
//	     runtime must return one result per task, in order.
//	   - Completing a result may queue new async subfields; those form the
//	     next depth's batch.
//
//	C. Non-Null propagation and pruning
//	   - A Non-Null violation at path p nulls the top-level field above p
//	     and marks that path as a tombstone. Queued tasks under it are
//	     dropped. Errors are recorded as located errors.
//
// For a graph with asynchronous depth d, BatchResolveAsync is invoked
// exactly d times. Purely synchronous descents do not increase d.
//
// # Value completion
//
//   - Non-Null: unwrap and complete the inner type; a null inner result
//     records a violation and propagates.
//   - List: complete each element with index-aware paths. A null element
//     for a Non-Null inner type nullifies the list value.
//   - Leaf (Scalar/Enum): defer to Runtime.SerializeLeafValue.
//   - Abstract (Interface/Union): defer to Runtime.ResolveType for the
//     concrete object type, validate it against the schema, then complete
//     as an object.
//   - Object: collect subfields via CollectSubfields against the concrete
//     type and execute the resulting grouped field set.
//
// # Errors and partial success
//
// Errors accumulate as located GraphQL errors (message + path). A Non-Null
// null or error propagates to the nearest nullable ancestor; otherwise the
// field is set to null and execution continues. Batch results are
// independent, enabling partial success within a single batch call.
package executor
