package invoker

import (
	"sort"
	"time"
)

// Metrics collects execution statistics.
type Metrics struct {
	commandMetrics map[string]*CommandMetrics

	totalExecutions uint64
	totalErrors     uint64
	totalPanics     uint64
	totalPasses     uint64

	totalDuration time.Duration
}

// CommandMetrics holds metrics for commands sharing a name.
type CommandMetrics struct {
	Name           string
	ExecutionCount uint64
	ErrorCount     uint64
	PanicCount     uint64
	TotalDuration  time.Duration
	MinDuration    time.Duration
	MaxDuration    time.Duration
	LastError      error
	LastExecution  time.Time
}

// AverageDuration returns the mean execution time.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.ExecutionCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.ExecutionCount)
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandMetrics: make(map[string]*CommandMetrics),
	}
}

// RecordExecution records one command execution.
func (m *Metrics) RecordExecution(name string, duration time.Duration, err error) {
	m.totalExecutions++
	m.totalDuration += duration
	if err != nil {
		m.totalErrors++
	}

	cm := m.commandMetrics[name]
	if cm == nil {
		cm = &CommandMetrics{
			Name:        name,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.commandMetrics[name] = cm
	}

	cm.ExecutionCount++
	cm.TotalDuration += duration
	cm.LastExecution = time.Now()
	if duration < cm.MinDuration {
		cm.MinDuration = duration
	}
	if duration > cm.MaxDuration {
		cm.MaxDuration = duration
	}
	if err != nil {
		cm.ErrorCount++
		cm.LastError = err
	}
}

// RecordPanic records a recovered panic.
func (m *Metrics) RecordPanic(name string) {
	m.totalPanics++
	if cm := m.commandMetrics[name]; cm != nil {
		cm.PanicCount++
	}
}

// RecordPass records one completed Execute pass.
func (m *Metrics) RecordPass() {
	m.totalPasses++
}

// TotalExecutions returns the total number of executions.
func (m *Metrics) TotalExecutions() uint64 { return m.totalExecutions }

// TotalErrors returns the total number of failed executions.
func (m *Metrics) TotalErrors() uint64 { return m.totalErrors }

// TotalPanics returns the total number of recovered panics.
func (m *Metrics) TotalPanics() uint64 { return m.totalPanics }

// TotalPasses returns the number of Execute passes.
func (m *Metrics) TotalPasses() uint64 { return m.totalPasses }

// TotalDuration returns the total time spent executing commands.
func (m *Metrics) TotalDuration() time.Duration { return m.totalDuration }

// Command returns a copy of the metrics for name, or nil.
func (m *Metrics) Command(name string) *CommandMetrics {
	cm := m.commandMetrics[name]
	if cm == nil {
		return nil
	}
	cp := *cm
	return &cp
}

// Commands returns copies of all per-command metrics, sorted by name.
func (m *Metrics) Commands() []CommandMetrics {
	out := make([]CommandMetrics, 0, len(m.commandMetrics))
	for _, cm := range m.commandMetrics {
		out = append(out, *cm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.commandMetrics = make(map[string]*CommandMetrics)
	m.totalExecutions = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalPasses = 0
	m.totalDuration = 0
}
