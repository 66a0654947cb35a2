package domain

import "encoding/json"

// ToolSpec describes one callable capability as presented to the model:
// a name, a human description and a JSON-schema parameter object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolInvocation is a model-issued request to run one tool with raw JSON
// arguments. Arguments are validated by the executor, not trusted here.
type ToolInvocation struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolOutcome is the normalized result of one tool execution. Payload is
// always valid JSON; failures are encoded inside the payload rather than as
// Go errors so the model can narrate them.
type ToolOutcome struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}
