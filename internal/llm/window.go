package llm

// Window keeps at most max trailing messages of history. The cut is moved
// forward to the next user message so the kept slice never opens with an
// assistant turn. max <= 0 disables the limit.
func Window(history []Message, max int) []Message {
	if max <= 0 || len(history) <= max {
		return history
	}
	start := len(history) - max
	for start < len(history) && history[start].Role != RoleUser {
		start++
	}
	return history[start:]
}

// WithSystem prepends the system prompt to history without touching history's
// backing array.
func WithSystem(prompt string, history []Message) []Message {
	out := make([]Message, 0, len(history)+1)
	if prompt != "" {
		out = append(out, Message{Role: RoleSystem, Content: prompt})
	}
	return append(out, history...)
}
