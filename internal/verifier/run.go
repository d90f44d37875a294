package verifier

// Message is a finding yielded by a rule. Status is free-form
// ("error", "warning", ...); Text is short, Description optional.
type Message struct {
	Status      string `json:"status" yaml:"status"`
	Text        string `json:"text" yaml:"text"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Run is the target every rule of one Call receives.
type Run[M any] struct {
	Model   M
	Context Context

	messages []Message
}

// Message appends a finding and returns it.
func (r *Run[M]) Message(status, text, description string) Message {
	m := Message{Status: status, Text: text, Description: description}
	r.messages = append(r.messages, m)
	return m
}

// Messages returns the findings so far. Never nil.
func (r *Run[M]) Messages() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
