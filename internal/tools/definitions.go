package tools

// Wire shapes for declaring client tools in the backend's create-call request.

type Definition struct {
	TemporaryTool TemporaryTool `json:"temporaryTool"`
}

type TemporaryTool struct {
	ModelToolName     string             `json:"modelToolName"`
	Description       string             `json:"description,omitempty"`
	DynamicParameters []DynamicParameter `json:"dynamicParameters,omitempty"`
	Client            struct{}           `json:"client"`
}

type DynamicParameter struct {
	Name     string          `json:"name"`
	Location string          `json:"location"`
	Schema   ParameterSchema `json:"schema"`
	Required bool            `json:"required"`
}

type ParameterSchema struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

const locationBody = "PARAMETER_LOCATION_BODY"

// Definitions renders every registration into the selectedTools shape the
// backend expects, in stable name order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.byName))
	for _, name := range r.Names() {
		reg := r.byName[name]
		tool := TemporaryTool{
			ModelToolName: reg.Name,
			Description:   reg.Description,
		}
		for _, p := range reg.Parameters {
			tool.DynamicParameters = append(tool.DynamicParameters, DynamicParameter{
				Name:     p.Name,
				Location: locationBody,
				Schema:   ParameterSchema{Type: p.Type, Description: p.Description},
				Required: p.Required,
			})
		}
		defs = append(defs, Definition{TemporaryTool: tool})
	}
	return defs
}
