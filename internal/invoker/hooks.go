package invoker

import (
	"sort"

	"github.com/dshills/cmdqueue/internal/logging"
)

// Hook is the base interface for all execution hooks.
type Hook interface {
	// Name returns a unique identifier for this hook.
	Name() string

	// Priority returns the hook priority.
	// Higher values run first for pre-hooks, last for post-hooks.
	Priority() int
}

// PreExecuteHook is called before a queued command executes.
type PreExecuteHook interface {
	Hook

	// PreExecute returns false to skip the command for the current pass.
	// A skipped command is not executed and stays queued.
	PreExecute(e Entry) bool
}

// PostExecuteHook is called after a queued command executes.
type PostExecuteHook interface {
	Hook

	// PostExecute observes the command and the error it reported, if any.
	PostExecute(e Entry, err error)
}

// PreExecuteFunc wraps a function as a PreExecuteHook.
type PreExecuteFunc struct {
	name     string
	priority int
	fn       func(e Entry) bool
}

// NewPreExecuteFunc creates a new PreExecuteFunc hook.
func NewPreExecuteFunc(name string, priority int, fn func(e Entry) bool) *PreExecuteFunc {
	return &PreExecuteFunc{name: name, priority: priority, fn: fn}
}

// Name implements Hook.
func (f *PreExecuteFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PreExecuteFunc) Priority() int { return f.priority }

// PreExecute implements PreExecuteHook.
func (f *PreExecuteFunc) PreExecute(e Entry) bool {
	if f.fn == nil {
		return true
	}
	return f.fn(e)
}

// PostExecuteFunc wraps a function as a PostExecuteHook.
type PostExecuteFunc struct {
	name     string
	priority int
	fn       func(e Entry, err error)
}

// NewPostExecuteFunc creates a new PostExecuteFunc hook.
func NewPostExecuteFunc(name string, priority int, fn func(e Entry, err error)) *PostExecuteFunc {
	return &PostExecuteFunc{name: name, priority: priority, fn: fn}
}

// Name implements Hook.
func (f *PostExecuteFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PostExecuteFunc) Priority() int { return f.priority }

// PostExecute implements PostExecuteHook.
func (f *PostExecuteFunc) PostExecute(e Entry, err error) {
	if f.fn != nil {
		f.fn(e, err)
	}
}

// HookManager keeps execution hooks in priority order.
type HookManager struct {
	preHooks  []PreExecuteHook
	postHooks []PostExecuteHook
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{}
}

// RegisterPre adds a pre-execute hook, replacing any hook with the same name.
func (m *HookManager) RegisterPre(h PreExecuteHook) {
	for i, existing := range m.preHooks {
		if existing.Name() == h.Name() {
			m.preHooks[i] = h
			m.sortPre()
			return
		}
	}
	m.preHooks = append(m.preHooks, h)
	m.sortPre()
}

// RegisterPost adds a post-execute hook, replacing any hook with the same name.
func (m *HookManager) RegisterPost(h PostExecuteHook) {
	for i, existing := range m.postHooks {
		if existing.Name() == h.Name() {
			m.postHooks[i] = h
			m.sortPost()
			return
		}
	}
	m.postHooks = append(m.postHooks, h)
	m.sortPost()
}

// Register adds a hook to every list whose interface it implements.
func (m *HookManager) Register(h Hook) {
	if pre, ok := h.(PreExecuteHook); ok {
		m.RegisterPre(pre)
	}
	if post, ok := h.(PostExecuteHook); ok {
		m.RegisterPost(post)
	}
}

// Unregister removes a hook by name from both lists.
func (m *HookManager) Unregister(name string) bool {
	removed := false
	for i, h := range m.preHooks {
		if h.Name() == name {
			m.preHooks = append(m.preHooks[:i], m.preHooks[i+1:]...)
			removed = true
			break
		}
	}
	for i, h := range m.postHooks {
		if h.Name() == name {
			m.postHooks = append(m.postHooks[:i], m.postHooks[i+1:]...)
			removed = true
			break
		}
	}
	return removed
}

// RunPre runs pre-execute hooks in priority order.
// Returns false as soon as one hook skips the command.
func (m *HookManager) RunPre(e Entry) bool {
	for _, h := range m.preHooks {
		if !h.PreExecute(e) {
			return false
		}
	}
	return true
}

// RunPost runs post-execute hooks from lowest to highest priority.
func (m *HookManager) RunPost(e Entry, err error) {
	for _, h := range m.postHooks {
		h.PostExecute(e, err)
	}
}

// PreHookNames returns the names of the pre-execute hooks in run order.
func (m *HookManager) PreHookNames() []string {
	names := make([]string, len(m.preHooks))
	for i, h := range m.preHooks {
		names[i] = h.Name()
	}
	return names
}

// PostHookNames returns the names of the post-execute hooks in run order.
func (m *HookManager) PostHookNames() []string {
	names := make([]string, len(m.postHooks))
	for i, h := range m.postHooks {
		names[i] = h.Name()
	}
	return names
}

func (m *HookManager) sortPre() {
	sort.SliceStable(m.preHooks, func(i, j int) bool {
		return m.preHooks[i].Priority() > m.preHooks[j].Priority()
	})
}

func (m *HookManager) sortPost() {
	sort.SliceStable(m.postHooks, func(i, j int) bool {
		return m.postHooks[i].Priority() < m.postHooks[j].Priority()
	})
}

// LoggingHook traces every execution at debug level.
type LoggingHook struct {
	logger *logging.Logger
}

// NewLoggingHook creates a logging hook writing to logger.
func NewLoggingHook(logger *logging.Logger) *LoggingHook {
	return &LoggingHook{logger: logging.OrNull(logger)}
}

// Name implements Hook.
func (h *LoggingHook) Name() string { return "logging" }

// Priority implements Hook.
func (h *LoggingHook) Priority() int { return 1000 }

// PreExecute implements PreExecuteHook.
func (h *LoggingHook) PreExecute(e Entry) bool {
	h.logger.WithFields(e.fields()).Debug("executing command")
	return true
}

// PostExecute implements PostExecuteHook.
func (h *LoggingHook) PostExecute(e Entry, err error) {
	l := h.logger.WithFields(e.fields())
	if err != nil {
		l = l.WithError(err)
	}
	l.Debug("command finished")
}
