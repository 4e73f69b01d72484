package validation

import (
	"fmt"
	"strings"

	language "github.com/hanpama/graphplan/internal/language"
)

// Diagnostic is one user-facing validation error. Diagnostics accumulate;
// the validator keeps analyzing the rest of the document after reporting.
type Diagnostic struct {
	Message   string     `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (d Diagnostic) Error() string { return d.Message }

type reasonKind int

const (
	reasonField reasonKind = iota
	reasonFragmentSpread
)

// reason explains why two same-keyed occurrences cannot merge: either a
// flat message, or the list of sub-reasons found between the two
// occurrences' sub-selection sets.
type reason struct {
	kind    reasonKind
	key     string
	message string
	sub     []*reason
}

func (r *reason) describe() string {
	if len(r.sub) == 0 {
		return r.message
	}
	parts := make([]string, len(r.sub))
	for i, sub := range r.sub {
		noun := "subfields"
		if sub.kind == reasonFragmentSpread {
			noun = "fragment spreads"
		}
		parts[i] = fmt.Sprintf("%s %q conflict because %s", noun, sub.key, sub.describe())
	}
	return strings.Join(parts, " and ")
}

// conflict is one reported incompatibility between two response-key
// occurrences, with the selection nodes implicated on each side.
type conflict struct {
	reason *reason
	nodes1 []language.Selection
	nodes2 []language.Selection
}

func (c *conflict) diagnostic() Diagnostic {
	var msg string
	if c.reason.kind == reasonFragmentSpread {
		msg = fmt.Sprintf("Spreads of fragment %q conflict because %s.", c.reason.key, c.reason.describe())
	} else {
		msg = fmt.Sprintf(
			"Fields %q conflict because %s. Use different aliases on the fields to fetch both if this was intentional.",
			c.reason.key, c.reason.describe(),
		)
	}
	d := Diagnostic{Message: msg}
	for _, node := range c.nodes1 {
		d.Locations = appendLocation(d.Locations, node.GetPosition())
	}
	for _, node := range c.nodes2 {
		d.Locations = appendLocation(d.Locations, node.GetPosition())
	}
	return d
}

func appendLocation(locs []Location, pos *language.Position) []Location {
	if pos == nil {
		return locs
	}
	return append(locs, Location{Line: pos.Line, Column: pos.Column})
}
