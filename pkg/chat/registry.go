package chat

import "sync"

// ToolDefinition describes one backend tool from the engine's point of
// view. RendersUI marks tools whose invocations materialize a visible
// content part; an invocation of any other tool is tracked for side
// effects only. JobKind, when set, names the exclusive long-running job
// the tool starts (at most one such job per kind may be in flight).
type ToolDefinition struct {
	Name      string
	RendersUI bool
	JobKind   string
}

// ToolRegistry holds the known tool definitions.
type ToolRegistry struct {
	mu   sync.RWMutex
	defs map[string]ToolDefinition
}

func NewToolRegistry(defs ...ToolDefinition) *ToolRegistry {
	r := &ToolRegistry{defs: make(map[string]ToolDefinition)}
	for _, d := range defs {
		r.Register(d)
	}
	return r
}

// DefaultToolRegistry returns the registry for the stock backend tool set.
func DefaultToolRegistry() *ToolRegistry {
	return NewToolRegistry(
		ToolDefinition{Name: "generate_podcast", RendersUI: true, JobKind: "podcast"},
		ToolDefinition{Name: "generate_image", RendersUI: true},
		ToolDefinition{Name: "compare_documents", RendersUI: true},
		ToolDefinition{Name: "web_search", RendersUI: false},
	)
}

func (r *ToolRegistry) Register(def ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

func (r *ToolRegistry) Definition(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// RendersUI reports whether invocations of the named tool are visible.
// Unknown tools are invisible.
func (r *ToolRegistry) RendersUI(name string) bool {
	def, ok := r.Definition(name)
	return ok && def.RendersUI
}

// Names returns the registered tool names.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}
