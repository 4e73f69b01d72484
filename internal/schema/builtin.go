package schema

var deferDirective = &Directive{
	Name:        "defer",
	Description: "Directs the executor to deliver this fragment in a follow-up payload after the initial response.",
	Arguments: []*InputValue{
		{
			Name:         "if",
			Description:  "Deferred when true.",
			Type:         NonNullType(NamedType("Boolean")),
			DefaultValue: true,
		},
		{
			Name:        "label",
			Description: "Unique name for the deferred payload.",
			Type:        NamedType("String"),
		},
	},
	Locations: []string{"FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
}

var streamDirective = &Directive{
	Name:        "stream",
	Description: "Directs the executor to deliver list items incrementally.",
	Arguments: []*InputValue{
		{
			Name:         "if",
			Description:  "Streamed when true.",
			Type:         NonNullType(NamedType("Boolean")),
			DefaultValue: true,
		},
		{
			Name:        "label",
			Description: "Unique name for the streamed payloads.",
			Type:        NamedType("String"),
		},
		{
			Name:         "initialCount",
			Description:  "Number of list items delivered in the initial response.",
			Type:         NamedType("Int"),
			DefaultValue: 0,
		},
	},
	Locations: []string{"FIELD"},
}
