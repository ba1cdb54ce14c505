package llm

// Conversation is the dialogue state of one (session, topic) pair. It is
// owned by a single stage runner and is not safe for concurrent use.
type Conversation struct {
	system  string
	history []Message
}

// NewConversation starts a conversation seeded with a system instruction.
func NewConversation(system string) *Conversation {
	return &Conversation{system: system}
}

// History returns a copy of the exchanged messages, oldest first.
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// AddAssistant records an utterance the interviewer made without the model,
// such as a scripted opening question.
func (c *Conversation) AddAssistant(text string) {
	c.append(Message{Role: "assistant", Content: text})
}

func (c *Conversation) append(msgs ...Message) {
	c.history = append(c.history, msgs...)
}

func (c *Conversation) messages(input string) []Message {
	msgs := make([]Message, 0, len(c.history)+2)
	if c.system != "" {
		msgs = append(msgs, Message{Role: "system", Content: c.system})
	}
	msgs = append(msgs, c.history...)
	return append(msgs, Message{Role: "user", Content: input})
}
