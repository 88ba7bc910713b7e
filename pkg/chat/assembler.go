package chat

import (
	"encoding/json"
	"strconv"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/jobs"
)

// Assembler builds the ordered content of the in-flight assistant message
// from stream events. It is not safe for concurrent use; the session
// controller is the only writer and hands out copies to everyone else.
type Assembler struct {
	registry *ToolRegistry
	jobs     *jobs.Tracker

	parts     []ContentPart
	openText  int
	toolIndex map[string]int

	// Tool calls outside the renders-UI set stay out of parts but still
	// receive updates so side effects like job tracking keep working.
	hidden map[string]*ContentPart
}

// NewAssembler creates an assembler. The jobs tracker may be nil when
// long-running job bookkeeping is not wanted.
func NewAssembler(registry *ToolRegistry, tracker *jobs.Tracker) *Assembler {
	return &Assembler{
		registry:  registry,
		jobs:      tracker,
		openText:  -1,
		toolIndex: make(map[string]int),
		hidden:    make(map[string]*ContentPart),
	}
}

// AppendText adds a text delta to the open text run, opening a new run if
// none is open. Hidden-reasoning spans are stripped first; a delta that
// strips down to nothing is a no-op.
func (a *Assembler) AppendText(delta string) {
	remainder := StripReasoningMarkers(delta)
	if remainder == "" {
		return
	}
	if a.openText >= 0 {
		a.parts[a.openText].Text += remainder
		return
	}
	a.parts = append(a.parts, NewTextPart(remainder))
	a.openText = len(a.parts) - 1
}

// ClearText removes every text part accumulated so far and closes the text
// cursor. The backend sends text-clear when streamed text turns out to be
// reasoning, so a following reasoning update takes over display.
func (a *Assembler) ClearText() {
	kept := make([]ContentPart, 0, len(a.parts))
	for _, p := range a.parts {
		if p.Type != PartText {
			kept = append(kept, p)
		}
	}
	a.parts = kept
	a.openText = -1
	a.reindexTools()
}

// BeginToolCall records a tool invocation. Only tools registered as
// rendering UI materialize a visible part, but every invocation closes the
// open text run: a tool call interrupts the text flow either way.
func (a *Assembler) BeginToolCall(id, name string, args map[string]any) {
	a.openText = -1

	if idx, exists := a.toolIndex[id]; exists {
		if args != nil {
			a.parts[idx].Arguments = args
		}
		return
	}
	if p, exists := a.hidden[id]; exists {
		if args != nil {
			p.Arguments = args
		}
		return
	}

	part := NewToolCallPart(id, name, args)
	if a.registry.RendersUI(name) {
		a.parts = append(a.parts, part)
		a.toolIndex[id] = len(a.parts) - 1
		return
	}
	a.hidden[id] = &part
}

// UpdateToolCall merges arguments and/or a result into an existing tool
// call. An unknown id that arrives with a tool name (the available event)
// implicitly begins the call first; an unknown id without a name is
// dropped.
func (a *Assembler) UpdateToolCall(id, name string, args, result map[string]any) {
	part := a.lookupTool(id)
	if part == nil {
		if name == "" {
			return
		}
		a.BeginToolCall(id, name, args)
		part = a.lookupTool(id)
		if part == nil {
			return
		}
		args = nil
	}

	if args != nil {
		part.Arguments = args
	}
	if result != nil {
		part.Result = result
		a.trackJobMarker(part.ToolName, result)
	}
}

// RenderView returns the parts the UI should show right now: empty text
// runs dropped, and a single empty text part when nothing is visible yet.
func (a *Assembler) RenderView() []ContentPart {
	out := make([]ContentPart, 0, len(a.parts))
	for _, p := range a.parts {
		if p.IsEmptyText() {
			continue
		}
		out = append(out, ClonePart(p))
	}
	if len(out) == 0 {
		out = append(out, NewTextPart(""))
	}
	return out
}

// PersistenceView returns the content to write to storage: the full step
// set, reasoning text and comparison summary first, then the filtered
// visible content. It intentionally retains more than the render view so a
// reload can restore state the live UI keeps out of the message body.
func (a *Assembler) PersistenceView(steps []ThinkingStep, reasoning string, summary json.RawMessage) []ContentPart {
	out := make([]ContentPart, 0, len(a.parts)+3)
	if len(steps) > 0 {
		copied := make([]ThinkingStep, len(steps))
		for i, s := range steps {
			copied[i] = CloneStep(s)
		}
		out = append(out, NewThinkingStepsPart(copied))
	}
	if reasoning != "" {
		out = append(out, NewReasoningPart(reasoning))
	}
	if len(summary) > 0 {
		out = append(out, NewCompareSummaryPart(append(json.RawMessage(nil), summary...)))
	}
	for _, p := range a.parts {
		if p.IsEmptyText() {
			continue
		}
		out = append(out, ClonePart(p))
	}
	return out
}

// HasVisibleContent reports whether any non-empty text or visible tool
// call has accumulated.
func (a *Assembler) HasVisibleContent() bool {
	for _, p := range a.parts {
		if !p.IsEmptyText() {
			return true
		}
	}
	return false
}

func (a *Assembler) lookupTool(id string) *ContentPart {
	if idx, exists := a.toolIndex[id]; exists {
		return &a.parts[idx]
	}
	if p, exists := a.hidden[id]; exists {
		return p
	}
	return nil
}

func (a *Assembler) reindexTools() {
	a.toolIndex = make(map[string]int)
	for i, p := range a.parts {
		if p.Type == PartToolCall {
			a.toolIndex[p.ToolCallID] = i
		}
	}
}

// trackJobMarker inspects a tool result for the pending-job marker and
// records or resolves the exclusive job accordingly.
func (a *Assembler) trackJobMarker(toolName string, result map[string]any) {
	if a.jobs == nil {
		return
	}
	def, ok := a.registry.Definition(toolName)
	if !ok || def.JobKind == "" {
		return
	}
	status, _ := result["status"].(string)
	taskID := taskIDField(result)
	if taskID == "" {
		return
	}
	if status == "pending" {
		// ErrJobInFlight here means the marker repeated for a job that is
		// already tracked.
		_ = a.jobs.Begin(def.JobKind, taskID)
		return
	}
	if status != "" {
		a.jobs.ResolveTask(taskID)
	}
}

func taskIDField(result map[string]any) string {
	for _, key := range []string{"podcast_id", "task_id"} {
		switch v := result[key].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}
