package session

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ToolInvocation is a single observed tool call.
type ToolInvocation struct {
	// Input is the decoded tool input. It is shared, not copied; treat it
	// as read-only.
	Input map[string]interface{}
	ID    string
	Name  string
	// Parent is the tool_use_id of the delegating call when this invocation
	// ran inside a sub-agent context.
	Parent string
	// Unknown marks a name outside the session's declared tool set.
	Unknown bool
}

// ToolCount is a per-tool invocation tally.
type ToolCount struct {
	Name  string
	Count int
}

// ToolLog is the append-only record of tool invocations. Entries are never
// mutated, reordered, or removed; failed tools stay recorded.
type ToolLog struct {
	mu     sync.RWMutex
	calls  []ToolInvocation
	counts *orderedmap.OrderedMap[string, int]
}

// NewToolLog creates an empty log.
func NewToolLog() *ToolLog {
	return &ToolLog{
		counts: orderedmap.New[string, int](),
	}
}

// Append records an invocation.
func (l *ToolLog) Append(inv ToolInvocation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, inv)
	n, _ := l.counts.Get(inv.Name)
	l.counts.Set(inv.Name, n+1)
}

// Len returns the number of recorded invocations.
func (l *ToolLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.calls)
}

// Calls returns a copy of the invocation log in arrival order.
func (l *ToolLog) Calls() []ToolInvocation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ToolInvocation, len(l.calls))
	copy(out, l.calls)
	return out
}

// Counts returns per-tool tallies in first-use order.
func (l *ToolLog) Counts() []ToolCount {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ToolCount, 0, l.counts.Len())
	for pair := l.counts.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, ToolCount{Name: pair.Key, Count: pair.Value})
	}
	return out
}
