package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bazelment/agenttap/protocol"
)

// DelegationTool is the reserved tool name whose invocation hands work to a
// named sub-agent. The delegate's identity travels in the invocation's
// subagent_type argument.
const DelegationTool = "Task"

type phase int

const (
	phaseAwaitingInit phase = iota
	phaseStreaming
	phaseDone
)

// Consumer is the state machine that turns an ordered stream of protocol
// messages into typed events and a single terminal Outcome. A Session drives
// it from the CLI subprocess; it can also be fed directly, e.g. from a
// recorded transcript.
//
// The stream contract it enforces: the first message is the init message,
// init happens once, and nothing follows the terminal result. Violations
// surface as *ProtocolError and, pre-terminal, decide the outcome. The
// outcome transitions from pending exactly once; nothing re-transitions it.
type Consumer struct {
	mu          sync.RWMutex
	log         *slog.Logger
	config      Config
	phase       phase
	seen        int
	info        *Info
	text        strings.Builder
	tools       *ToolLog
	delegations []Delegation
	warnings    []Warning
	stats       Stats
	outcome     *Outcome
	declared    map[string]struct{}
	agents      map[string]struct{}
}

// NewConsumer creates a standalone consumer. Only the classification options
// (allowed tools, max turns, contract, sub-agents, logger) apply; process
// options are ignored.
func NewConsumer(opts ...Option) *Consumer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return newConsumer(config)
}

func newConsumer(config Config) *Consumer {
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Consumer{
		log:      log,
		config:   config,
		tools:    NewToolLog(),
		declared: make(map[string]struct{}),
		agents:   make(map[string]struct{}),
	}
	for _, t := range config.AllowedTools {
		c.declared[t] = struct{}{}
	}
	for _, a := range config.SubAgents {
		c.agents[a.Name] = struct{}{}
	}
	return c
}

// Feed advances the state machine with one parsed message and returns the
// events it produced. A nil message is ignored; unknown wire types parse to
// nil upstream. Ordering violations return a *ProtocolError; the first fatal
// condition also decides the outcome.
func (c *Consumer) Feed(msg protocol.Message) ([]Event, error) {
	if msg == nil {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == phaseDone {
		return nil, &ProtocolError{
			Message: fmt.Sprintf("%s message received after terminal result", msg.MsgType()),
		}
	}

	c.seen++

	switch m := msg.(type) {
	case *protocol.SystemMessage:
		return c.feedSystem(m)
	case *protocol.AssistantMessage:
		return c.feedAssistant(m)
	case *protocol.UserMessage:
		return c.feedUser(m)
	case *protocol.ResultMessage:
		return c.feedResult(m)
	default:
		c.log.Debug("ignoring unhandled message kind", "type", msg.MsgType())
		return nil, nil
	}
}

func (c *Consumer) feedSystem(m *protocol.SystemMessage) ([]Event, error) {
	if !m.IsInit() {
		// Informational system messages (hooks, compact notices) carry no
		// session state.
		c.log.Debug("ignoring system message", "subtype", m.Subtype)
		return nil, nil
	}

	if c.phase != phaseAwaitingInit {
		return c.orderingViolation("duplicate init message")
	}

	c.info = &Info{
		SessionID: m.SessionID,
		Model:     m.Model,
		WorkDir:   m.CWD,
		Tools:     append([]string(nil), m.Tools...),
		Agents:    append([]string(nil), m.Agents...),
	}
	for _, t := range m.Tools {
		c.declared[t] = struct{}{}
	}
	for _, a := range m.Agents {
		c.agents[a] = struct{}{}
	}

	c.phase = phaseStreaming
	c.log.Debug("session initialized",
		"session_id", m.SessionID, "model", m.Model, "tools", len(m.Tools))
	return []Event{ReadyEvent{Info: *c.info}}, nil
}

func (c *Consumer) feedAssistant(m *protocol.AssistantMessage) ([]Event, error) {
	if c.phase == phaseAwaitingInit {
		return c.orderingViolation("assistant message received before init")
	}

	delegated := m.ParentToolUseID != nil
	parent := ""
	if delegated {
		parent = *m.ParentToolUseID
	}

	var events []Event

	if s, ok := m.Message.Content.AsString(); ok {
		if s != "" && !delegated {
			c.text.WriteString(s)
			events = append(events, TextEvent{Text: s, FullText: c.text.String()})
		}
		return events, nil
	}

	blocks, ok := m.Message.Content.AsBlocks()
	if !ok {
		return nil, nil
	}

	for _, block := range blocks {
		switch b := block.(type) {
		case protocol.TextBlock:
			// Delegated traffic stays out of the primary transcript; the
			// delegation itself is already recorded.
			if b.Text == "" || delegated {
				continue
			}
			c.text.WriteString(b.Text)
			events = append(events, TextEvent{Text: b.Text, FullText: c.text.String()})
		case protocol.ThinkingBlock:
			if b.Thinking == "" || delegated {
				continue
			}
			events = append(events, ThinkingEvent{Thinking: b.Thinking})
		case protocol.ToolUseBlock:
			evs, done := c.recordToolUse(b, parent)
			events = append(events, evs...)
			if done {
				return events, nil
			}
		}
	}
	return events, nil
}

// recordToolUse appends an invocation to the usage log and reports whether
// it tripped the turn limit and ended the session.
func (c *Consumer) recordToolUse(b protocol.ToolUseBlock, parent string) ([]Event, bool) {
	inv := ToolInvocation{ID: b.ID, Name: b.Name, Input: b.Input, Parent: parent}

	var events []Event

	// Tool-set enforcement is advisory: undeclared names are recorded and
	// flagged, never rejected. Delegated invocations run under the
	// sub-agent's own tool set and are exempt.
	if parent == "" && b.Name != DelegationTool && len(c.declared) > 0 {
		if _, ok := c.declared[b.Name]; !ok {
			inv.Unknown = true
			w := Warning{
				Code:    WarnUnknownTool,
				Tool:    b.Name,
				Message: fmt.Sprintf("tool %q invoked but never declared", b.Name),
			}
			c.warnings = append(c.warnings, w)
			c.log.Warn("unknown tool invoked", "tool", b.Name, "id", b.ID)
			events = append(events, WarningEvent{Warning: w})
		}
	}

	c.tools.Append(inv)
	c.stats.Turns++
	events = append(events, ToolCallEvent{Invocation: inv})

	if b.Name == DelegationTool {
		d := Delegation{ToolCallID: b.ID}
		if s, ok := b.Input["subagent_type"].(string); ok {
			d.SubAgent = s
		}
		if s, ok := b.Input["description"].(string); ok {
			d.Description = s
		}
		c.delegations = append(c.delegations, d)
		c.log.Debug("delegation recorded", "sub_agent", d.SubAgent, "id", b.ID)
		events = append(events, DelegationEvent{Delegation: d})

		if d.SubAgent != "" && len(c.agents) > 0 {
			if _, ok := c.agents[d.SubAgent]; !ok {
				w := Warning{
					Code:    WarnUnknownAgent,
					Tool:    d.SubAgent,
					Message: fmt.Sprintf("delegation to undeclared sub-agent %q", d.SubAgent),
				}
				c.warnings = append(c.warnings, w)
				c.log.Warn("delegation to undeclared sub-agent", "sub_agent", d.SubAgent)
				events = append(events, WarningEvent{Warning: w})
			}
		}
	}

	// The invocation that crosses the limit is still recorded; the log is a
	// faithful record of what the stream delivered.
	if c.config.MaxTurns > 0 && c.stats.Turns > c.config.MaxTurns {
		f := &Failure{
			Kind:   FailureTurnLimit,
			Err:    ErrTurnLimitExceeded,
			Detail: fmt.Sprintf("%d tool invocations exceed limit of %d", c.stats.Turns, c.config.MaxTurns),
		}
		events = append(events, c.finalize(&Outcome{State: StateFailure, Failure: f})...)
		return events, true
	}

	return events, false
}

func (c *Consumer) feedUser(m *protocol.UserMessage) ([]Event, error) {
	if c.phase == phaseAwaitingInit {
		return c.orderingViolation("user message received before init")
	}

	blocks, ok := m.Message.Content.AsBlocks()
	if !ok {
		return nil, nil
	}

	var events []Event
	for _, block := range blocks {
		b, ok := block.(protocol.ToolResultBlock)
		if !ok {
			continue
		}
		content, _ := b.Content.AsString()
		events = append(events, ToolResultEvent{
			ToolUseID: b.ToolUseID,
			Content:   content,
			IsError:   b.IsError,
		})
	}
	return events, nil
}

func (c *Consumer) feedResult(m *protocol.ResultMessage) ([]Event, error) {
	if c.phase == phaseAwaitingInit {
		return c.orderingViolation("result message received before init")
	}

	c.stats.CostUSD += m.TotalCostUSD
	c.stats.UpstreamTurns = m.NumTurns
	c.stats.DurationMs = m.DurationMs
	c.stats.DurationAPIMs = m.DurationAPIMs
	c.stats.AddUsage(m.Usage)

	outcome := &Outcome{Text: m.Result}
	switch {
	case !m.Succeeded():
		outcome.State = StateFailure
		outcome.Failure = &Failure{
			Kind:    FailureUpstream,
			Subtype: m.Subtype,
			Detail:  m.Result,
		}
	case c.config.Contract != nil:
		if len(m.StructuredOutput) == 0 {
			outcome.State = StateFailure
			outcome.Failure = &Failure{
				Kind:   FailureSchema,
				Detail: fmt.Sprintf("result carries no structured output for contract %q", c.config.Contract.Name),
			}
		} else if err := c.config.Contract.Validate(m.StructuredOutput); err != nil {
			outcome.State = StateFailure
			outcome.Failure = &Failure{Kind: FailureSchema, Err: err}
		} else {
			outcome.State = StateSuccess
			outcome.Structured = m.StructuredOutput
		}
	default:
		outcome.State = StateSuccess
	}

	return c.finalize(outcome), nil
}

// FinishStream records that the event source closed. Closure before any
// message is a no-events failure; closure mid-session is a premature close.
// After a terminal result it is the normal end of stream and a no-op.
func (c *Consumer) FinishStream() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == phaseDone {
		return nil
	}
	if c.seen == 0 {
		return c.finalize(&Outcome{State: StateFailure, Failure: &Failure{
			Kind:   FailureNoEvents,
			Detail: "stream closed before any message",
		}})
	}
	return c.finalize(&Outcome{State: StateFailure, Failure: &Failure{
		Kind:   FailureStreamClosed,
		Detail: fmt.Sprintf("stream closed after %d messages without a terminal result", c.seen),
	}})
}

// Abort decides the outcome with a failure determined outside the state
// machine, such as an unparseable line or a transport error. It is a no-op
// once the outcome is decided.
func (c *Consumer) Abort(kind FailureKind, err error, detail string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == phaseDone {
		return nil
	}
	return c.finalize(&Outcome{State: StateFailure, Failure: &Failure{
		Kind:   kind,
		Err:    err,
		Detail: detail,
	}})
}

func (c *Consumer) orderingViolation(msg string) ([]Event, error) {
	perr := &ProtocolError{Message: msg}
	events := c.finalize(&Outcome{State: StateFailure, Failure: &Failure{
		Kind: FailureProtocol,
		Err:  perr,
	}})
	return events, perr
}

// finalize records the one and only outcome transition. Callers hold c.mu.
func (c *Consumer) finalize(o *Outcome) []Event {
	if c.phase == phaseDone {
		return nil
	}
	c.phase = phaseDone

	o.Stats = c.stats
	o.Warnings = append([]Warning(nil), c.warnings...)
	o.ToolCalls = c.tools.Calls()
	o.Delegations = append([]Delegation(nil), c.delegations...)
	if o.Text == "" {
		o.Text = c.text.String()
	}
	if c.info != nil {
		o.SessionID = c.info.SessionID
	}
	c.outcome = o

	if o.Failure != nil {
		c.log.Debug("session outcome decided",
			"state", o.State.String(), "kind", string(o.Failure.Kind))
	} else {
		c.log.Debug("session outcome decided",
			"state", o.State.String(), "cost_usd", o.Stats.CostUSD, "turns", o.Stats.Turns)
	}
	return []Event{CompleteEvent{Outcome: o}}
}

// Outcome returns the final outcome once it has been decided.
func (c *Consumer) Outcome() (*Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.outcome == nil {
		return nil, false
	}
	return c.outcome, true
}

// Done reports whether the outcome has been decided.
func (c *Consumer) Done() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase == phaseDone
}

// Info returns session metadata, or nil before init.
func (c *Consumer) Info() *Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.info == nil {
		return nil
	}
	cp := *c.info
	return &cp
}

// Tools returns the tool usage log. The log is safe for concurrent readers.
func (c *Consumer) Tools() *ToolLog {
	return c.tools
}

// Snapshot is a point-in-time view of consumer progress, safe to take
// mid-stream.
type Snapshot struct {
	Text        string
	ToolCalls   []ToolInvocation
	ToolCounts  []ToolCount
	Delegations []Delegation
	Warnings    []Warning
	Stats       Stats
	Messages    int
	State       State
}

// Snapshot returns a defensive copy of the consumer's progress.
func (c *Consumer) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := StatePending
	if c.outcome != nil {
		state = c.outcome.State
	}
	return Snapshot{
		State:       state,
		Messages:    c.seen,
		Text:        c.text.String(),
		ToolCalls:   c.tools.Calls(),
		ToolCounts:  c.tools.Counts(),
		Delegations: append([]Delegation(nil), c.delegations...),
		Warnings:    append([]Warning(nil), c.warnings...),
		Stats:       c.stats,
	}
}
