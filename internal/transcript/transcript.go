package transcript

// Role is the message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Instructional marks messages that carry instructions to the model
	// rather than conversation. They are sent but never displayed.
	Instructional bool `json:"instructional,omitempty"`
}

// Visible returns the messages meant for display, in order.
func Visible(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Instructional {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Clone returns an independent copy of msgs.
func Clone(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
