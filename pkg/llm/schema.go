package llm

// Schema captures the subset of JSON Schema used to describe tool parameters.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ObjectSchema builds an object schema whose listed properties are all required.
func ObjectSchema(props map[string]Property, required ...string) *Schema {
	return &Schema{Type: "object", Properties: props, Required: required}
}
