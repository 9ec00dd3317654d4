package tools

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

const recordTextHelp = "Record text: first line is the record name, then one '* Label: value' bullet per field. Name and Id are required."

var renderDefinitions = []Definition{
	{
		Name:        ToolRenderForm,
		Description: "Render a record as an editable form. Saving reports a summary of changed fields.",
		InputSchema: objectSchema(map[string]any{
			"text": stringProp(recordTextHelp),
		}, "text"),
	},
	{
		Name:        ToolRenderTable,
		Description: "Render several records of one object type as a table. Selecting a row requests an edit form for it.",
		InputSchema: objectSchema(map[string]any{
			"texts": map[string]any{
				"type":        "array",
				"items":       stringProp(recordTextHelp),
				"description": "One record text per row. Any invalid record rejects the whole batch.",
			},
			"object_type": stringProp("Object type shown in the title, e.g. Opportunity"),
		}, "texts"),
	},
	{
		Name:        ToolRenderCard,
		Description: "Render a record as a read-only detail card grouped into sections.",
		InputSchema: objectSchema(map[string]any{
			"text": stringProp(recordTextHelp),
			"sections": map[string]any{
				"type":        "array",
				"description": "Optional section layout. Fields not listed go to Other Details.",
				"items": objectSchema(map[string]any{
					"title":  stringProp("Section heading"),
					"fields": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				}, "title", "fields"),
			},
		}, "text"),
	},
}

var salesforceDefinitions = []Definition{
	{
		Name:        ToolSalesforceQuery,
		Description: "Run a SOQL SELECT and render the rows as a table. Select at least Id and Name.",
		InputSchema: objectSchema(map[string]any{
			"soql": stringProp("SOQL SELECT statement"),
		}, "soql"),
	},
	{
		Name:        ToolSalesforceDescribe,
		Description: "List the fields of a Salesforce object.",
		InputSchema: objectSchema(map[string]any{
			"object": stringProp("SObject API name, e.g. Opportunity"),
		}, "object"),
	},
	{
		Name:        ToolSalesforceCreate,
		Description: "Create a Salesforce record.",
		InputSchema: objectSchema(map[string]any{
			"object": stringProp("SObject API name"),
			"fields": map[string]any{"type": "object", "description": "Field API names to values"},
		}, "object", "fields"),
	},
	{
		Name:        ToolSalesforceUpdate,
		Description: "Update fields on a Salesforce record.",
		InputSchema: objectSchema(map[string]any{
			"object": stringProp("SObject API name"),
			"id":     stringProp("Record Id"),
			"fields": map[string]any{"type": "object", "description": "Field API names to new values"},
		}, "object", "id", "fields"),
	},
	{
		Name:        ToolSalesforceDelete,
		Description: "Delete a Salesforce record.",
		InputSchema: objectSchema(map[string]any{
			"object": stringProp("SObject API name"),
			"id":     stringProp("Record Id"),
		}, "object", "id"),
	},
}

// Definitions lists the available tools. Salesforce tools appear only when
// a client is configured.
func (h *Handler) Definitions() []Definition {
	defs := append([]Definition(nil), renderDefinitions...)
	if h.sf != nil {
		defs = append(defs, salesforceDefinitions...)
	}
	return defs
}
