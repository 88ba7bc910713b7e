package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/logger"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/stream"
)

// turn is the in-flight state of one user/assistant exchange. Its fields
// are written by the single turn goroutine; status is additionally guarded
// by the controller mutex so observers can read it.
type turn struct {
	id          string
	threadID    string
	userID      string
	assistantID string
	status      Status
	summary     json.RawMessage
	renameTitle string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// runTurn drives the decoder loop and commits the outcome. open is the
// request strategy: the send and regenerate flows share everything else.
// replayUser, when set, is a user message the backend no longer holds and
// that must be persisted alongside the assistant message.
func (c *Controller) runTurn(t *turn, open func(context.Context) (io.ReadCloser, error), replayUser *chat.Message) (Result, error) {
	defer close(t.done)
	defer c.clearTurn(t)

	body, err := open(t.ctx)
	if err != nil {
		if wasCancelled(t, err) {
			return c.discardDraft(t, StatusCancelled), nil
		}
		return c.fail(t, fmt.Errorf("failed to open stream: %w", err))
	}
	defer body.Close()

	c.setStatus(t, StatusStreaming)
	asm := chat.NewAssembler(c.registry, c.jobs)
	dec := stream.NewDecoder(body)

	cancelled := false
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if wasCancelled(t, err) {
				cancelled = true
				break
			}
			return c.fail(t, fmt.Errorf("stream read failed: %w", err))
		}
		if ev.Type == stream.TypeError {
			return c.fail(t, &StreamError{Text: ev.ErrorText})
		}
		c.dispatch(t, asm, ev)
		c.publishRender(t, asm)
	}

	return c.finalize(t, asm, replayUser, cancelled)
}

// dispatch routes one event to the assembler and/or the projector.
func (c *Controller) dispatch(t *turn, asm *chat.Assembler, ev stream.Event) {
	switch ev.Type {
	case stream.TypeTextDelta:
		asm.AppendText(ev.Delta)
	case stream.TypeTextClear:
		asm.ClearText()
	case stream.TypeToolInputStart:
		asm.BeginToolCall(ev.ToolCallID, ev.ToolName, nil)
	case stream.TypeToolInputAvailable:
		asm.UpdateToolCall(ev.ToolCallID, ev.ToolName, ev.Input, nil)
	case stream.TypeToolOutputAvailable:
		asm.UpdateToolCall(ev.ToolCallID, "", nil, ev.Output)
	case stream.TypeThinkingStep:
		c.projector.UpsertStep(t.assistantID, ev.Step)
	case stream.TypeContextStats:
		c.projector.SetContextStats(t.assistantID, ev.Stats)
	case stream.TypeTraceSession:
		c.projector.BindTraceSession(t.assistantID, ev.TraceSessionID)
	case stream.TypeTraceSpan:
		c.projector.UpsertSpan(ev.TraceSessionID, ev.Span)
	case stream.TypeCompareSummary:
		t.summary = ev.Summary
	case stream.TypeReasoningDelta:
		c.projector.AppendReasoning(t.assistantID, ev.Delta)
	}
}

// publishRender republishes the assistant draft's render view after every
// dispatched event.
func (c *Controller) publishRender(t *turn, asm *chat.Assembler) {
	view := asm.RenderView()
	c.mu.Lock()
	c.transcripts[t.threadID] = chat.SetMessageParts(c.transcripts[t.threadID], t.assistantID, view)
	c.mu.Unlock()
	c.notify(t.threadID)
}

// finalize commits the turn: a non-trivial persistence view is written to
// storage and every side-channel view migrates to the server id; a trivial
// one ends the turn with no network call. Cancelled turns take the same
// path with whatever accumulated.
func (c *Controller) finalize(t *turn, asm *chat.Assembler, replayUser *chat.Message, cancelled bool) (Result, error) {
	c.setStatus(t, StatusFinalizing)

	final := StatusCommitted
	if cancelled {
		final = StatusCancelled
	}

	snap := c.projector.Snapshot(t.assistantID)
	view := asm.PersistenceView(snap.Steps, snap.Reasoning, t.summary)

	// The turn context may already be cancelled; persistence still has to
	// run for the best-effort partial commit.
	ctx := context.Background()

	// The backend dropped the original pair during the rewind, so the
	// replayed user message must be persisted even when the assistant
	// draft ends up empty.
	if replayUser != nil {
		userID, err := c.store.AppendMessage(ctx, t.threadID, chat.RoleUser, replayUser.Parts)
		if err != nil {
			logger.Error("failed to persist replayed user message on thread %s: %v", t.threadID, err)
		} else {
			c.remapMessage(t.threadID, t.userID, userID)
			t.userID = userID
		}
	}

	if len(view) == 0 {
		logger.Debug("turn %s ended with no content, discarding draft", t.id)
		return c.discardDraft(t, final), nil
	}

	assistantID, err := c.store.AppendMessage(ctx, t.threadID, chat.RoleAssistant, view)
	if err != nil {
		// The in-memory content stays visible for the session but will not
		// survive a reload.
		logger.Error("failed to persist assistant message on thread %s: %v", t.threadID, err)
		c.setStatus(t, final)
		return c.result(t, final), nil
	}

	c.projector.Rekey(t.assistantID, assistantID)
	c.remapMessage(t.threadID, t.assistantID, assistantID)
	t.assistantID = assistantID

	if sid, bound := c.projector.TraceSession(assistantID); bound && c.traces != nil {
		if err := c.traces.AttachTraceSession(ctx, t.threadID, sid, assistantID); err != nil {
			logger.Warn("failed to attach trace session %s: %v", sid, err)
		}
	}

	if t.renameTitle != "" {
		if err := c.store.UpdateThreadTitle(ctx, t.threadID, t.renameTitle); err != nil {
			logger.Warn("failed to rename thread %s: %v", t.threadID, err)
		}
	}

	c.setStatus(t, final)
	logger.Debug("turn %s finished with status %s", t.id, final)
	return c.result(t, final), nil
}

// fail replaces the assistant draft's content with a visible error message
// and reports the error to the caller. Nothing beyond what is already
// rendered gets persisted.
func (c *Controller) fail(t *turn, err error) (Result, error) {
	logger.Error("turn %s failed: %v", t.id, err)
	parts := []chat.ContentPart{chat.NewTextPart(fmt.Sprintf("Something went wrong: %v", err))}
	c.mu.Lock()
	c.transcripts[t.threadID] = chat.SetMessageParts(c.transcripts[t.threadID], t.assistantID, parts)
	t.status = StatusFailed
	c.mu.Unlock()
	c.notify(t.threadID)
	return c.result(t, StatusFailed), err
}

// discardDraft removes the empty assistant draft and its side-channel
// views. The result carries no assistant message id.
func (c *Controller) discardDraft(t *turn, final Status) Result {
	c.mu.Lock()
	c.transcripts[t.threadID] = chat.RemoveMessage(c.transcripts[t.threadID], t.assistantID)
	t.status = final
	c.mu.Unlock()
	c.projector.Discard(t.assistantID)
	c.notify(t.threadID)
	return Result{ThreadID: t.threadID, Status: final, UserMessageID: t.userID}
}

// remapMessage swaps a draft id for a server id on the transcript.
func (c *Controller) remapMessage(threadID, oldID, newID string) {
	c.mu.Lock()
	c.transcripts[threadID] = chat.SetMessageID(c.transcripts[threadID], oldID, newID)
	c.mu.Unlock()
	c.notify(threadID)
}

func (c *Controller) setStatus(t *turn, s Status) {
	c.mu.Lock()
	t.status = s
	c.mu.Unlock()
}

func (c *Controller) clearTurn(t *turn) {
	t.cancel()
	c.mu.Lock()
	if c.turns[t.threadID] == t {
		delete(c.turns, t.threadID)
	}
	c.mu.Unlock()
}

func (c *Controller) result(t *turn, s Status) Result {
	return Result{
		ThreadID:           t.threadID,
		Status:             s,
		UserMessageID:      t.userID,
		AssistantMessageID: t.assistantID,
	}
}

// wasCancelled tells user-initiated aborts apart from genuine transport
// failures.
func wasCancelled(t *turn, err error) bool {
	return t.ctx.Err() != nil || errors.Is(err, context.Canceled)
}
