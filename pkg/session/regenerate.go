package session

import (
	"context"
	"errors"
	"io"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
)

// ErrNothingToRegenerate is returned when a thread holds no user turn that
// could be replayed.
var ErrNothingToRegenerate = errors.New("thread has no turn to regenerate")

// Edit re-runs the most recent turn with a replacement query.
func (c *Controller) Edit(ctx context.Context, threadID, query string) (Result, error) {
	return c.regenerate(ctx, threadID, query)
}

// Reload re-runs the most recent turn unchanged.
func (c *Controller) Reload(ctx context.Context, threadID string) (Result, error) {
	return c.regenerate(ctx, threadID, "")
}

// regenerate truncates the last turn, asks the backend to rewind its state
// to just before it, and replays it through the regular turn loop. Because
// the backend drops the original messages, both the replayed user message
// and the new assistant message get persisted on completion.
func (c *Controller) regenerate(parent context.Context, threadID, replacement string) (Result, error) {
	c.cancelActiveTurn(threadID)

	c.mu.Lock()
	tr, exists := c.transcripts[threadID]
	if !exists {
		c.mu.Unlock()
		return Result{}, ErrNothingToRegenerate
	}
	prior, found := chat.GetLastUserMessage(tr)
	if !found {
		c.mu.Unlock()
		return Result{}, ErrNothingToRegenerate
	}
	// With fewer than two messages the truncation is a no-op.
	truncated, removed, ok := chat.TruncateLastTurn(tr)
	if ok {
		c.transcripts[threadID] = truncated
	}
	c.mu.Unlock()

	for _, m := range removed {
		c.projector.Discard(m.ID)
	}
	if ok {
		c.notify(threadID)
	}

	query := replacement
	if query == "" {
		query = prior.Text()
	}
	user := chat.NewUserMessage(query, prior.Mentions, prior.Attachments)
	user.Author = prior.Author
	t, _ := c.beginTurn(parent, threadID, user)

	return c.runTurn(t, func(ctx context.Context) (io.ReadCloser, error) {
		return c.backend.Regenerate(ctx, threadID, replacement)
	}, &user)
}
