package session

import "context"

// Query runs a one-shot session to completion and returns its outcome. The
// outcome carries in-stream failures; the error return is reserved for
// conditions outside the stream (startup failures, cancellation).
func Query(ctx context.Context, prompt string, opts ...Option) (*Outcome, error) {
	s := New(prompt, opts...)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	defer s.Stop()

	return s.Wait(ctx)
}

// QueryStream runs a one-shot session and returns its event channel. The
// channel closes after the CompleteEvent (or on cancellation); the session is
// torn down either way.
func QueryStream(ctx context.Context, prompt string, opts ...Option) (<-chan Event, error) {
	s := New(prompt, opts...)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	out := make(chan Event, s.config.EventBufferSize)
	go func() {
		defer close(out)
		defer s.Stop()
		for evt := range s.Events() {
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
			if _, ok := evt.(CompleteEvent); ok {
				return
			}
		}
	}()

	return out, nil
}

// Collected groups the events of a completed session by kind, in arrival
// order, for callers that want the whole run rather than a live stream.
type Collected struct {
	Ready       *ReadyEvent
	Texts       []TextEvent
	Thinking    []ThinkingEvent
	ToolCalls   []ToolCallEvent
	ToolResults []ToolResultEvent
	Delegations []DelegationEvent
	Warnings    []WarningEvent
	Errors      []ErrorEvent
	Outcome     *Outcome
}

// Collect drains events until the outcome is decided, the channel closes, or
// ctx is done.
func Collect(ctx context.Context, events <-chan Event) (*Collected, error) {
	c := &Collected{}
	for {
		select {
		case <-ctx.Done():
			return c, ctx.Err()
		case event, ok := <-events:
			if !ok {
				if c.Outcome == nil {
					return c, ErrSessionClosed
				}
				return c, nil
			}
			switch e := event.(type) {
			case ReadyEvent:
				c.Ready = &e
			case TextEvent:
				c.Texts = append(c.Texts, e)
			case ThinkingEvent:
				c.Thinking = append(c.Thinking, e)
			case ToolCallEvent:
				c.ToolCalls = append(c.ToolCalls, e)
			case ToolResultEvent:
				c.ToolResults = append(c.ToolResults, e)
			case DelegationEvent:
				c.Delegations = append(c.Delegations, e)
			case WarningEvent:
				c.Warnings = append(c.Warnings, e)
			case ErrorEvent:
				c.Errors = append(c.Errors, e)
			case CompleteEvent:
				c.Outcome = e.Outcome
				return c, nil
			}
		}
	}
}
