package domain

// ModelRequest is one model invocation: a system instruction, the turn
// transcript so far, and the tool specs the model may call.
type ModelRequest struct {
	System   string
	Messages []ChatMessage
	Tools    []ToolSpec
}

// ModelTurn is the model's reply to one invocation: the text it produced
// (also forwarded incrementally through the stream callback) and any
// function calls it issued, in declaration order.
type ModelTurn struct {
	Text  string
	Calls []ToolInvocation
}
