package chat

import "strings"

const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Thread is the persisted conversation container. Threads are created
// lazily when the first message of a conversation is sent and are never
// deleted by this engine.
type Thread struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Visibility    string `json:"visibility"`
	AllowComments bool   `json:"allow_comments"`
}

// DefaultTitle is the placeholder used until the auto-rename heuristic runs.
const DefaultTitle = "New chat"

// maxTitleRunes bounds auto-generated thread titles.
const maxTitleRunes = 60

// DeriveTitle builds a thread title from the first user query: whitespace
// collapsed, truncated on a word boundary, with an ellipsis when shortened.
func DeriveTitle(query string) string {
	collapsed := strings.Join(strings.Fields(query), " ")
	runes := []rune(collapsed)
	if len(runes) == 0 {
		return DefaultTitle
	}
	if len(runes) <= maxTitleRunes {
		return collapsed
	}
	cut := string(runes[:maxTitleRunes])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
