package events

import "time"

// ValidationStart is emitted before running merge validation on a document.
type ValidationStart struct {
	Query         string
	OperationName string
}

// ValidationFinish is emitted after merge validation completes.
type ValidationFinish struct {
	Query           string
	OperationName   string
	DiagnosticCount int
	Duration        time.Duration
}

// PlanStart is emitted before building a collection plan.
type PlanStart struct {
	Query         string
	OperationName string
}

// PlanFinish is emitted after plan building completes.
type PlanFinish struct {
	Query         string
	OperationName string
	Err           error
	Duration      time.Duration
}
