package chat

// Transcript is the ordered, visible message list of one thread. Like the
// rest of the domain model it is a value type: every helper returns a new
// Transcript and never mutates its input.
type Transcript struct {
	ThreadID string
	Messages []Message
}

func NewTranscript(threadID string) Transcript {
	return Transcript{ThreadID: threadID, Messages: make([]Message, 0)}
}

func AddMessage(t Transcript, msg Message) Transcript {
	messages := make([]Message, len(t.Messages)+1)
	copy(messages, t.Messages)
	messages[len(t.Messages)] = msg
	return Transcript{ThreadID: t.ThreadID, Messages: messages}
}

// ReplaceMessage swaps the message with the given id for msg. Unknown ids
// leave the transcript unchanged.
func ReplaceMessage(t Transcript, id string, msg Message) Transcript {
	messages := make([]Message, len(t.Messages))
	copy(messages, t.Messages)
	for i := range messages {
		if messages[i].ID == id {
			messages[i] = msg
		}
	}
	return Transcript{ThreadID: t.ThreadID, Messages: messages}
}

// SetMessageParts replaces the content of the message with the given id.
func SetMessageParts(t Transcript, id string, parts []ContentPart) Transcript {
	messages := make([]Message, len(t.Messages))
	copy(messages, t.Messages)
	for i := range messages {
		if messages[i].ID == id {
			messages[i].Parts = parts
		}
	}
	return Transcript{ThreadID: t.ThreadID, Messages: messages}
}

// SetMessageID remaps a message from its draft id to a server id.
func SetMessageID(t Transcript, oldID, newID string) Transcript {
	messages := make([]Message, len(t.Messages))
	copy(messages, t.Messages)
	for i := range messages {
		if messages[i].ID == oldID {
			messages[i].ID = newID
		}
	}
	return Transcript{ThreadID: t.ThreadID, Messages: messages}
}

// RemoveMessage drops the message with the given id.
func RemoveMessage(t Transcript, id string) Transcript {
	messages := make([]Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		if m.ID != id {
			messages = append(messages, m)
		}
	}
	return Transcript{ThreadID: t.ThreadID, Messages: messages}
}

// TruncateLastTurn removes the trailing user/assistant pair, returning the
// removed messages for replay. With fewer than two messages the truncation
// is a no-op and ok is false.
func TruncateLastTurn(t Transcript) (out Transcript, removed []Message, ok bool) {
	if len(t.Messages) < 2 {
		return t, nil, false
	}
	n := len(t.Messages) - 2
	messages := make([]Message, n)
	copy(messages, t.Messages[:n])
	removed = []Message{t.Messages[n], t.Messages[n+1]}
	return Transcript{ThreadID: t.ThreadID, Messages: messages}, removed, true
}

func GetMessages(t Transcript) []Message {
	out := make([]Message, len(t.Messages))
	copy(out, t.Messages)
	return out
}

func GetMessageCount(t Transcript) int {
	return len(t.Messages)
}

func GetLastMessage(t Transcript) (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

func GetLastUserMessage(t Transcript) (Message, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].IsUser() {
			return t.Messages[i], true
		}
	}
	return Message{}, false
}
