package session

import (
	"context"
	"fmt"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
)

// RestoreThread reloads a thread's persisted messages into the transcript
// and replays the auxiliary parts of every assistant message (step set,
// reasoning text) back into the projector, reconstructing the views that
// were live when the messages streamed.
func (c *Controller) RestoreThread(ctx context.Context, threadID string) ([]chat.Message, error) {
	messages, err := c.store.Messages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	tr := chat.NewTranscript(threadID)
	for _, m := range messages {
		tr = chat.AddMessage(tr, m)
		if !m.IsAssistant() {
			continue
		}
		var steps []chat.ThinkingStep
		reasoning := ""
		for _, p := range m.Parts {
			switch p.Type {
			case chat.PartThinkingSteps:
				steps = append(steps, p.Steps...)
			case chat.PartReasoning:
				reasoning += p.Text
			}
		}
		if len(steps) > 0 || reasoning != "" {
			c.projector.Restore(m.ID, steps, reasoning)
		}
	}

	c.mu.Lock()
	c.transcripts[threadID] = tr
	c.mu.Unlock()
	c.notify(threadID)

	return chat.GetMessages(tr), nil
}
