// Package session orchestrates chat turns: it drives the event stream
// decoder, dispatches events to the content assembler and the side-channel
// projector, and commits finished turns to storage.
package session

import (
	"context"
	"fmt"
	"io"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
)

// Status is the lifecycle state of a turn.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSending    Status = "sending"
	StatusStreaming  Status = "streaming"
	StatusFinalizing Status = "finalizing"
	StatusCommitted  Status = "committed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// TurnRequest is the start-turn request handed to the backend.
type TurnRequest struct {
	ThreadID             string
	Query                string
	History              []chat.Message
	Attachments          []chat.Attachment
	MentionedDocumentIDs []string
}

// Backend produces the assistant event stream. Both calls return the raw
// transport stream; the caller owns closing it.
type Backend interface {
	StartTurn(ctx context.Context, req TurnRequest) (io.ReadCloser, error)
	// Regenerate instructs the backend to roll its state back to just
	// before the last turn and re-run it. An empty query re-runs the turn
	// unchanged; a non-empty query replaces it.
	Regenerate(ctx context.Context, threadID, query string) (io.ReadCloser, error)
}

// Store is the persistence collaborator.
type Store interface {
	CreateThread(ctx context.Context, title string) (chat.Thread, error)
	Thread(ctx context.Context, id string) (chat.Thread, error)
	Messages(ctx context.Context, threadID string) ([]chat.Message, error)
	AppendMessage(ctx context.Context, threadID, role string, parts []chat.ContentPart) (string, error)
	UpdateThreadTitle(ctx context.Context, threadID, title string) error
}

// TraceStore links persisted messages to their trace sessions. Attachment
// is best-effort: failures are logged, never fatal.
type TraceStore interface {
	AttachTraceSession(ctx context.Context, threadID, traceSessionID, messageID string) error
}

// SendOptions describes one user turn.
type SendOptions struct {
	// ThreadID may be empty: the thread is then created lazily before the
	// turn starts.
	ThreadID    string
	Query       string
	Attachments []chat.Attachment
	Mentions    []chat.MentionedDocument
	// JobKind, when set, marks the request as starting an exclusive
	// long-running job; the send is rejected while a job of that kind is
	// still in flight.
	JobKind string
}

// Result reports how a turn ended. Cancellation is a normal outcome, not
// an error.
type Result struct {
	ThreadID           string
	Status             Status
	UserMessageID      string
	AssistantMessageID string
}

// StreamError is a fatal error event delivered on the stream itself.
type StreamError struct {
	Text string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("backend reported error: %s", e.Text)
}
