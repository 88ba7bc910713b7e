package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of a thread transcript. A message starts life as a
// draft with a client-generated id of the form "role-<unix ms>" and becomes
// persisted once the store returns a server id for it.
type Message struct {
	ID          string              `json:"id"`
	Role        string              `json:"role"`
	Parts       []ContentPart       `json:"content"`
	Timestamp   time.Time           `json:"timestamp"`
	Attachments []Attachment        `json:"attachments,omitempty"`
	Author      *Author             `json:"author,omitempty"`
	Mentions    []MentionedDocument `json:"mentions,omitempty"`
}

// Attachment is a file reference carried on a user message.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Author carries optional display metadata for a message.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MentionedDocument is a document referenced from a user message so it can
// be redisplayed when the thread is reloaded.
type MentionedDocument struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// NewDraftID builds a temporary client-side message id.
func NewDraftID(role string) string {
	return fmt.Sprintf("%s-%d", role, time.Now().UnixMilli())
}

// IsDraftID reports whether id looks like a client-generated draft id
// rather than a server-assigned one.
func IsDraftID(id string) bool {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return false
	}
	role := id[:i]
	if role != RoleUser && role != RoleAssistant && role != RoleSystem {
		return false
	}
	_, err := strconv.ParseInt(id[i+1:], 10, 64)
	return err == nil
}

func NewUserMessage(text string, mentions []MentionedDocument, attachments []Attachment) Message {
	parts := []ContentPart{NewTextPart(strings.TrimSpace(text))}
	if len(mentions) > 0 {
		parts = append(parts, NewMentionsPart(mentions))
	}
	return Message{
		ID:          NewDraftID(RoleUser),
		Role:        RoleUser,
		Parts:       parts,
		Timestamp:   time.Now(),
		Attachments: attachments,
		Mentions:    mentions,
	}
}

func NewAssistantDraft() Message {
	return Message{
		ID:        NewDraftID(RoleAssistant),
		Role:      RoleAssistant,
		Parts:     []ContentPart{NewTextPart("")},
		Timestamp: time.Now(),
	}
}

func (m Message) IsUser() bool      { return m.Role == RoleUser }
func (m Message) IsAssistant() bool { return m.Role == RoleAssistant }
func (m Message) IsDraft() bool     { return IsDraftID(m.ID) }

// Text flattens the message's text parts into one string.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// IsEmpty reports whether the message carries no visible content at all.
func (m Message) IsEmpty() bool {
	for _, p := range m.Parts {
		switch p.Type {
		case PartText:
			if strings.TrimSpace(p.Text) != "" {
				return false
			}
		case PartToolCall:
			return false
		}
	}
	return true
}
