package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/jobs"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/logger"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/projector"
)

// Controller runs turns against the backend and keeps the visible
// transcript plus all side-channel views consistent. At most one turn is
// live per thread; starting a new one cancels the previous turn first.
//
// All mutation happens on the goroutine calling Send/Edit/Reload; the
// transport read is the only suspension point and every event is fully
// applied, snapshots republished, before the next one is read. Observers
// read copy-on-read snapshots and are never blocked.
type Controller struct {
	backend  Backend
	store    Store
	traces   TraceStore
	registry *chat.ToolRegistry

	projector *projector.Projector
	jobs      *jobs.Tracker

	mu          sync.Mutex
	transcripts map[string]chat.Transcript
	turns       map[string]*turn

	updates chan string
}

// NewController wires a controller. traces may be nil when no trace
// collaborator is configured; registry nil falls back to the stock tool
// set.
func NewController(backend Backend, store Store, traces TraceStore, registry *chat.ToolRegistry) *Controller {
	if registry == nil {
		registry = chat.DefaultToolRegistry()
	}
	return &Controller{
		backend:     backend,
		store:       store,
		traces:      traces,
		registry:    registry,
		projector:   projector.New(),
		jobs:        jobs.NewTracker(),
		transcripts: make(map[string]chat.Transcript),
		turns:       make(map[string]*turn),
		updates:     make(chan string, 16),
	}
}

// Projector exposes the side-channel views for observers.
func (c *Controller) Projector() *projector.Projector {
	return c.projector
}

// Jobs exposes the long-running job tracker.
func (c *Controller) Jobs() *jobs.Tracker {
	return c.jobs
}

// ResolveJob clears an exclusive job, for callers notified out of band
// that the backend task finished.
func (c *Controller) ResolveJob(kind string) {
	c.jobs.Resolve(kind)
}

// Updates returns a coalescing channel carrying thread ids whose
// transcript changed. Sends never block; observers poll Transcript.
func (c *Controller) Updates() <-chan string {
	return c.updates
}

// Transcript returns a copy of the visible message list of a thread.
func (c *Controller) Transcript(threadID string) ([]chat.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tr, exists := c.transcripts[threadID]
	if !exists {
		return nil, false
	}
	return chat.GetMessages(tr), true
}

// Status returns the state of the live turn on a thread, or StatusIdle.
func (c *Controller) Status(threadID string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, exists := c.turns[threadID]; exists {
		return t.status
	}
	return StatusIdle
}

// Cancel aborts the live turn on a thread, reporting whether there was
// one. Whatever content accumulated so far is still committed best-effort.
func (c *Controller) Cancel(threadID string) bool {
	c.mu.Lock()
	t := c.turns[threadID]
	c.mu.Unlock()
	if t == nil {
		return false
	}
	t.cancel()
	return true
}

// Send runs one full turn: it creates the thread if needed, appends the
// user message and an assistant draft to the transcript, streams the
// backend response, and commits the result. It blocks until the turn
// reaches a terminal state.
func (c *Controller) Send(ctx context.Context, opts SendOptions) (Result, error) {
	if opts.JobKind != "" {
		if job, busy := c.jobs.Active(opts.JobKind); busy {
			logger.Debug("rejecting %s request, task %s still in flight", opts.JobKind, job.TaskID)
			return Result{}, jobs.ErrJobInFlight
		}
	}

	threadID := opts.ThreadID
	renameTitle := ""
	if threadID == "" {
		thread, err := c.store.CreateThread(ctx, chat.DefaultTitle)
		if err != nil {
			return Result{}, fmt.Errorf("failed to create thread: %w", err)
		}
		threadID = thread.ID
		renameTitle = chat.DeriveTitle(opts.Query)
	}

	user := chat.NewUserMessage(opts.Query, opts.Mentions, opts.Attachments)
	t, history := c.beginTurn(ctx, threadID, user)
	t.renameTitle = renameTitle

	mentionIDs := make([]string, 0, len(opts.Mentions))
	for _, doc := range opts.Mentions {
		mentionIDs = append(mentionIDs, doc.ID)
	}
	req := TurnRequest{
		ThreadID:             threadID,
		Query:                opts.Query,
		History:              history,
		Attachments:          opts.Attachments,
		MentionedDocumentIDs: mentionIDs,
	}

	return c.runTurn(t, func(ctx context.Context) (io.ReadCloser, error) {
		return c.backend.StartTurn(ctx, req)
	}, nil)
}

// beginTurn cancels any still-running turn on the thread, waits for it to
// settle, and registers a fresh one with both drafts on the transcript.
// It returns the history as it stood before the new pair.
func (c *Controller) beginTurn(parent context.Context, threadID string, user chat.Message) (*turn, []chat.Message) {
	c.cancelActiveTurn(threadID)

	ctx, cancel := context.WithCancel(parent)
	assistant := chat.NewAssistantDraft()
	t := &turn{
		id:          "turn-" + uuid.NewString(),
		threadID:    threadID,
		userID:      user.ID,
		assistantID: assistant.ID,
		status:      StatusSending,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	c.mu.Lock()
	tr, exists := c.transcripts[threadID]
	if !exists {
		tr = chat.NewTranscript(threadID)
	}
	history := chat.GetMessages(tr)
	tr = chat.AddMessage(tr, user)
	tr = chat.AddMessage(tr, assistant)
	c.transcripts[threadID] = tr
	c.turns[threadID] = t
	c.mu.Unlock()
	c.notify(threadID)

	logger.Debug("turn %s started on thread %s", t.id, threadID)
	return t, history
}

func (c *Controller) cancelActiveTurn(threadID string) {
	c.mu.Lock()
	prev := c.turns[threadID]
	c.mu.Unlock()
	if prev == nil {
		return
	}
	logger.Debug("cancelling turn %s before starting a new one", prev.id)
	prev.cancel()
	<-prev.done
}

func (c *Controller) notify(threadID string) {
	select {
	case c.updates <- threadID:
	default:
	}
}
