// Package verify implements the conversation controller: the state
// machine that walks a caller through the verification flow, dispatching
// each utterance to the handler bound to the current node and rendering
// the next prompt. One Session serves one call; sessions share nothing,
// so running many sessions concurrently is safe as long as the entity
// extractor is.
package verify

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/veridial/veridial/internal/domain"
	"github.com/veridial/veridial/internal/flow"
	"github.com/veridial/veridial/internal/ports"
)

// handlerFunc interprets one utterance at one node and returns the next
// node id. Handlers recover from bad input by returning the same node id;
// the only errors they return are flow configuration defects.
type handlerFunc func(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error)

// Session is the verification controller for a single call. It owns the
// conversation state exclusively; callers interact through RenderPrompt,
// Submit, and the read-only observers.
type Session struct {
	applicant domain.Applicant
	table     *flow.Table
	extractor ports.EntityExtractor
	metrics   ports.MetricsCollector
	config    Config

	state    domain.ConversationState
	handlers map[flow.HandlerKind]handlerFunc
	tracer   trace.Tracer
	turns    int
}

// NewSession builds a session for one call against the given applicant
// record and flow table. The metrics collector may be nil. Handler kinds
// are resolved up front, so a table naming a kind this controller does
// not implement is rejected here rather than at first use.
func NewSession(
	applicant domain.Applicant,
	table *flow.Table,
	extractor ports.EntityExtractor,
	metrics ports.MetricsCollector,
	config Config,
) (*Session, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: flow table cannot be nil", domain.ErrInvalidConfiguration)
	}
	if extractor == nil {
		return nil, fmt.Errorf("%w: entity extractor cannot be nil", domain.ErrInvalidConfiguration)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	if applicant.Name == "" || applicant.DateOfBirth == "" || applicant.SSNLast4 == "" {
		return nil, fmt.Errorf("%w: name, date of birth, and SSN last four are required", domain.ErrInvalidApplicant)
	}

	s := &Session{
		applicant: applicant,
		table:     table,
		extractor: extractor,
		metrics:   metrics,
		config:    config,
		state:     domain.NewConversationState(table.Entry()),
		tracer:    otel.Tracer("verify-session"),
	}
	s.handlers = s.buildHandlers()

	if err := s.resolveHandlers(); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveHandlers verifies every interactive node in the table binds a
// handler kind this controller implements.
func (s *Session) resolveHandlers() error {
	for _, id := range s.table.NodeIDs() {
		node, _ := s.table.Node(id)
		if node.Terminal {
			continue
		}
		if _, ok := s.handlers[node.Handler]; !ok {
			return domain.NewFlowError(id, "resolve_handlers",
				fmt.Errorf("%w: %s", domain.ErrHandlerNotFound, node.Handler))
		}
	}
	return nil
}

// RenderPrompt renders the current node's prompt against the context
// derived from the collected data. Rendering is read-only; calling it
// twice yields identical strings.
func (s *Session) RenderPrompt() (string, error) {
	node, ok := s.table.Node(s.state.CurrentNode)
	if !ok {
		return "", domain.NewFlowError(s.state.CurrentNode, "render_prompt", domain.ErrNodeNotFound)
	}
	return node.RenderPrompt(deriveContext(s.applicant, s.state.Collected))
}

// Submit processes one caller utterance: it dispatches to the current
// node's handler, advances the state, and returns the next rendered
// prompt. Bad input never surfaces as an error; the handler keeps the
// session on the same node and the same prompt is reissued. The only
// errors Submit returns indicate a broken flow definition. Submitting to
// a finished session re-renders the terminal prompt.
func (s *Session) Submit(ctx context.Context, utterance string) (string, error) {
	node, ok := s.table.Node(s.state.CurrentNode)
	if !ok {
		return "", domain.NewFlowError(s.state.CurrentNode, "submit", domain.ErrNodeNotFound)
	}
	if node.Terminal {
		return s.RenderPrompt()
	}

	ctx, span := s.tracer.Start(ctx, "Session.Submit",
		trace.WithAttributes(
			attribute.String("session.node", string(node.ID)),
			attribute.String("session.handler", string(node.Handler)),
		),
	)
	defer span.End()

	start := time.Now()

	handler, ok := s.handlers[node.Handler]
	if !ok {
		err := domain.NewFlowError(node.ID, "submit",
			fmt.Errorf("%w: %s", domain.ErrHandlerNotFound, node.Handler))
		span.RecordError(err)
		return "", err
	}

	next, err := handler(ctx, node, utterance)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if _, ok := s.table.Node(next); !ok {
		err := domain.NewFlowError(next, "submit", domain.ErrNodeNotFound)
		span.RecordError(err)
		return "", err
	}

	s.state.CurrentNode = next
	s.turns++

	span.SetAttributes(
		attribute.String("session.next_node", string(next)),
		attribute.Bool("session.identity_verified", s.state.IdentityVerified),
	)
	s.recordTurn(node, time.Since(start))

	return s.RenderPrompt()
}

// CurrentNode returns the id of the node whose prompt the caller is
// answering.
func (s *Session) CurrentNode() domain.NodeID { return s.state.CurrentNode }

// Collected returns a copy of the data gathered so far.
func (s *Session) Collected() domain.CollectedData { return s.state.Collected.Clone() }

// IdentityVerified reports whether the caller has passed the identity
// gate.
func (s *Session) IdentityVerified() bool { return s.state.IdentityVerified }

// Attempts returns the value of the named attempt counter.
func (s *Session) Attempts(name string) int { return s.state.Attempts[name] }

// Done reports whether the session has reached a terminal node.
func (s *Session) Done() bool {
	node, ok := s.table.Node(s.state.CurrentNode)
	return ok && node.Terminal
}

// Outcome returns the terminal outcome, or OutcomeInProgress while the
// session is still running.
func (s *Session) Outcome() domain.Outcome {
	node, ok := s.table.Node(s.state.CurrentNode)
	if !ok || !node.Terminal {
		return domain.OutcomeInProgress
	}
	return node.Outcome
}

func (s *Session) recordTurn(node *flow.Node, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	labels := map[string]string{
		"flow":    s.table.Name(),
		"handler": string(node.Handler),
	}
	s.metrics.RecordCounter("session_turns_total", 1, labels)
	s.metrics.RecordLatency("session_turn", elapsed, labels)
	if s.Done() {
		s.metrics.RecordCounter("session_outcomes_total", 1, map[string]string{
			"flow":    s.table.Name(),
			"outcome": string(s.Outcome()),
		})
	}
}
