// Package projector maintains the per-message auxiliary views derived from
// the event stream: thinking steps, context-budget telemetry, reasoning
// text, the interleaved timeline, and trace-session state. Observers only
// ever see copy-on-read snapshots.
package projector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
)

// ContextStatsStepID is the fixed id of the synthetic step holding
// context-budget telemetry. The step is replaced on every update so the
// telemetry never grows step history.
const ContextStatsStepID = "context-stats"

// TimelineKind tags timeline entries.
type TimelineKind string

const (
	TimelineStep      TimelineKind = "step"
	TimelineReasoning TimelineKind = "reasoning"
)

// TimelineEntry is one entry of the interleaved step/reasoning timeline.
type TimelineEntry struct {
	Kind   TimelineKind
	StepID string
	Text   string
}

// MessageView is an immutable snapshot of every auxiliary view of one
// message.
type MessageView struct {
	MessageID      string
	Steps          []chat.ThinkingStep
	Reasoning      string
	Timeline       []TimelineEntry
	TraceSessionID string
	Spans          []chat.TraceSpan
}

// Projector holds the auxiliary views, keyed by the owning message's
// current id. Rekey moves every view under a new id in one step when a
// draft becomes persisted.
type Projector struct {
	mu sync.RWMutex

	steps     map[string][]chat.ThinkingStep
	stepIndex map[string]map[string]int
	reasoning map[string]string
	timeline  map[string][]TimelineEntry
	binding   map[string]string // message id -> trace session id

	spans     map[string][]chat.TraceSpan // trace session id -> ordered spans
	spanIndex map[string]map[string]int

	updates chan string
}

func New() *Projector {
	return &Projector{
		steps:     make(map[string][]chat.ThinkingStep),
		stepIndex: make(map[string]map[string]int),
		reasoning: make(map[string]string),
		timeline:  make(map[string][]TimelineEntry),
		binding:   make(map[string]string),
		spans:     make(map[string][]chat.TraceSpan),
		spanIndex: make(map[string]map[string]int),
		updates:   make(chan string, 16),
	}
}

// Updates returns a coalescing change-notification channel carrying the id
// of the message whose views changed. Notifications are dropped rather
// than blocking the mutator; observers are expected to poll Snapshot.
func (p *Projector) Updates() <-chan string {
	return p.updates
}

// UpsertStep inserts or updates a thinking step by id. Later events update
// the existing step in place, never duplicating it, and only the first
// sight of an id adds a timeline entry.
func (p *Projector) UpsertStep(messageID string, step chat.ThinkingStep) {
	p.mu.Lock()
	index, exists := p.stepIndex[messageID]
	if !exists {
		index = make(map[string]int)
		p.stepIndex[messageID] = index
	}
	if i, seen := index[step.ID]; seen {
		p.steps[messageID][i] = chat.CloneStep(step)
	} else {
		index[step.ID] = len(p.steps[messageID])
		p.steps[messageID] = append(p.steps[messageID], chat.CloneStep(step))
		p.timeline[messageID] = append(p.timeline[messageID], TimelineEntry{Kind: TimelineStep, StepID: step.ID})
	}
	p.mu.Unlock()
	p.publish(messageID)
}

// SetContextStats replaces the synthetic context-budget step with the
// latest counters, rendered as sorted "name: value" lines.
func (p *Projector) SetContextStats(messageID string, stats map[string]int64) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %d", k, stats[k]))
	}
	p.UpsertStep(messageID, chat.ThinkingStep{
		ID:     ContextStatsStepID,
		Title:  "Context usage",
		Status: chat.StepCompleted,
		Lines:  lines,
	})
}

// AppendReasoning adds a reasoning delta. Consecutive deltas coalesce into
// the last timeline entry; a step in between starts a new reasoning run.
func (p *Projector) AppendReasoning(messageID, delta string) {
	if delta == "" {
		return
	}
	p.mu.Lock()
	p.reasoning[messageID] += delta
	entries := p.timeline[messageID]
	if n := len(entries); n > 0 && entries[n-1].Kind == TimelineReasoning {
		entries[n-1].Text += delta
	} else {
		p.timeline[messageID] = append(entries, TimelineEntry{Kind: TimelineReasoning, Text: delta})
	}
	p.mu.Unlock()
	p.publish(messageID)
}

// BindTraceSession associates the message with a trace session.
func (p *Projector) BindTraceSession(messageID, traceSessionID string) {
	p.mu.Lock()
	p.binding[messageID] = traceSessionID
	p.mu.Unlock()
	p.publish(messageID)
}

// TraceSession returns the trace session bound to the message, if any.
func (p *Projector) TraceSession(messageID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sid, exists := p.binding[messageID]
	return sid, exists
}

// UpsertSpan inserts or updates a span by id within its session and
// re-sorts the span list by sequence number, tolerating out-of-order
// arrival.
func (p *Projector) UpsertSpan(traceSessionID string, span chat.TraceSpan) {
	p.mu.Lock()
	index, exists := p.spanIndex[traceSessionID]
	if !exists {
		index = make(map[string]int)
		p.spanIndex[traceSessionID] = index
	}
	if i, seen := index[span.ID]; seen {
		p.spans[traceSessionID][i] = span
	} else {
		index[span.ID] = len(p.spans[traceSessionID])
		p.spans[traceSessionID] = append(p.spans[traceSessionID], span)
	}
	spans := p.spans[traceSessionID]
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Sequence < spans[j].Sequence
	})
	for i, s := range spans {
		index[s.ID] = i
	}
	p.mu.Unlock()
	p.publish(traceSessionID)
}

// Spans returns a copy of the ordered span list of a trace session.
func (p *Projector) Spans(traceSessionID string) []chat.TraceSpan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]chat.TraceSpan(nil), p.spans[traceSessionID]...)
}

// Snapshot returns an immutable copy of every view of the message.
func (p *Projector) Snapshot(messageID string) MessageView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	view := MessageView{MessageID: messageID, Reasoning: p.reasoning[messageID]}
	for _, s := range p.steps[messageID] {
		view.Steps = append(view.Steps, chat.CloneStep(s))
	}
	for _, e := range p.timeline[messageID] {
		view.Timeline = append(view.Timeline, e)
	}
	if sid, exists := p.binding[messageID]; exists {
		view.TraceSessionID = sid
		view.Spans = append([]chat.TraceSpan(nil), p.spans[sid]...)
	}
	return view
}

// Rekey migrates every view keyed by oldID to newID in one step, so no
// snapshot can observe a view split between the two keys.
func (p *Projector) Rekey(oldID, newID string) {
	if oldID == newID {
		return
	}
	p.mu.Lock()
	moveKey(p.steps, oldID, newID)
	moveKey(p.stepIndex, oldID, newID)
	moveKey(p.reasoning, oldID, newID)
	moveKey(p.timeline, oldID, newID)
	moveKey(p.binding, oldID, newID)
	p.mu.Unlock()
	p.publish(newID)
}

// Discard drops every view of the message. Span registries are keyed by
// trace session and survive; the binding alone is removed.
func (p *Projector) Discard(messageID string) {
	p.mu.Lock()
	delete(p.steps, messageID)
	delete(p.stepIndex, messageID)
	delete(p.reasoning, messageID)
	delete(p.timeline, messageID)
	delete(p.binding, messageID)
	p.mu.Unlock()
	p.publish(messageID)
}

// Restore seeds the step set and reasoning text of a message from
// persisted content, rebuilding a flat timeline: the steps in their stored
// order followed by one reasoning run.
func (p *Projector) Restore(messageID string, steps []chat.ThinkingStep, reasoning string) {
	p.mu.Lock()
	index := make(map[string]int, len(steps))
	stored := make([]chat.ThinkingStep, 0, len(steps))
	timeline := make([]TimelineEntry, 0, len(steps)+1)
	for _, s := range steps {
		if _, seen := index[s.ID]; seen {
			continue
		}
		index[s.ID] = len(stored)
		stored = append(stored, chat.CloneStep(s))
		timeline = append(timeline, TimelineEntry{Kind: TimelineStep, StepID: s.ID})
	}
	if reasoning != "" {
		timeline = append(timeline, TimelineEntry{Kind: TimelineReasoning, Text: reasoning})
	}
	p.steps[messageID] = stored
	p.stepIndex[messageID] = index
	p.reasoning[messageID] = reasoning
	p.timeline[messageID] = timeline
	p.mu.Unlock()
	p.publish(messageID)
}

func (p *Projector) publish(id string) {
	select {
	case p.updates <- id:
	default:
	}
}

func moveKey[V any](m map[string]V, oldID, newID string) {
	if v, exists := m[oldID]; exists {
		m[newID] = v
		delete(m, oldID)
	}
}
