package models

// Request is one round sent to a chat backend.
type Request struct {
	Instructions string
	Input        []Item
	Tools        []Tool
}

// Response is the output of one round: messages and function calls, in the
// order the model produced them.
type Response struct {
	Output []Item
	Usage  Usage
}

// Usage counts the tokens of one or more rounds.
type Usage struct {
	InputTokens       int
	CachedInputTokens int
	OutputTokens      int
}

// Add accumulates o into u.
func (u *Usage) Add(o Usage) {
	u.InputTokens += o.InputTokens
	u.CachedInputTokens += o.CachedInputTokens
	u.OutputTokens += o.OutputTokens
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Result is the outcome of a complete conversation.
type Result struct {
	// Text is the last message of the final round. Found is false when that
	// round produced no message.
	Text   string
	Found  bool
	Rounds int
	Usage  Usage
}
