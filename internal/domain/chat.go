package domain

// Message roles used across the handler, orchestration loop and model
// integration.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and the model integration. Exactly one of Content, Calls or Results is
// meaningful per role: user/assistant text, assistant-issued tool calls, or
// tool outcomes fed back to the model.
type ChatMessage struct {
	Role    string           `json:"role"`
	Content string           `json:"content,omitempty"`
	Calls   []ToolInvocation `json:"calls,omitempty"`
	Results []ToolOutcome    `json:"results,omitempty"`
}

// CallerContext carries the identity attributes optionally attached to a
// turn. Immutable for the duration of one turn; a zero value is an anonymous
// guest.
type CallerContext struct {
	ID       string
	Email    string
	Role     string
	Phone    string
	Location string
}

// Authenticated reports whether the caller has a usable identity for tools
// that mutate account-scoped state.
func (c CallerContext) Authenticated() bool {
	return c.ID != ""
}

// TopicClassification is the guardrail verdict for one user message.
type TopicClassification struct {
	FarmingRelated bool
	DetectedTopics []string
}
