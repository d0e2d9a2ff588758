package flow

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/veridial/veridial/internal/domain"
)

// Node is a compiled flow step. Nodes are immutable after compilation and
// safe to share across sessions.
type Node struct {
	// ID is the node's identifier within the table.
	ID domain.NodeID

	// Handler is the behavior bound to this node; empty for terminals.
	Handler HandlerKind

	// Transition targets. Which ones are set depends on the handler
	// kind; Compile enforces the combinations.
	Next          domain.NodeID
	OnSuccess     domain.NodeID
	OnFailure     domain.NodeID
	OnExhausted   domain.NodeID
	OnDiscrepancy domain.NodeID

	// Terminal marks a session-ending node; Outcome is the result it
	// produces.
	Terminal bool
	Outcome  domain.Outcome

	prompt *template.Template
}

// RenderPrompt renders the node's prompt template against the supplied
// context. Rendering the same node with the same context always yields
// the same string; templates hold no mutable state.
func (n *Node) RenderPrompt(context map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := n.prompt.Execute(&buf, context); err != nil {
		return "", fmt.Errorf("node %s: render prompt: %w", n.ID, err)
	}
	return buf.String(), nil
}

// Table is an immutable compiled flow: the node map plus the entry point.
type Table struct {
	name  string
	entry domain.NodeID
	nodes map[domain.NodeID]*Node
}

// Name returns the flow's configured name.
func (t *Table) Name() string { return t.name }

// Entry returns the node id a fresh session starts at.
func (t *Table) Entry() domain.NodeID { return t.entry }

// Node looks up a node by id.
func (t *Table) Node(id domain.NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the table.
func (t *Table) Len() int { return len(t.nodes) }

// NodeIDs returns the ids of every node in the table, in no particular
// order.
func (t *Table) NodeIDs() []domain.NodeID {
	ids := make([]domain.NodeID, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	return ids
}

// gatedKinds are the handler kinds that must sit behind the identity
// gate: no path from the entry may reach them without passing through an
// identity confirmation success edge.
var gatedKinds = map[HandlerKind]struct{}{
	HandlerCollectAddress: {},
	HandlerCollectUnit:    {},
	HandlerCollectEmail:   {},
	HandlerCollectIncome:  {},
	HandlerCollectTenure:  {},
	HandlerDiscrepancy:    {},
	HandlerFinalConfirm:   {},
}

// Compile validates a Config and builds the immutable Table from it.
// Validation covers struct constraints, id uniqueness, transition target
// resolution, per-kind transition shape, prompt template syntax, and the
// identity gate reachability invariant. A config that passes Compile
// cannot produce an unknown-node or unknown-handler condition at runtime
// except through programmer error.
func Compile(cfg Config) (*Table, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("flow config validation failed: %w", err)
	}

	nodes := make(map[domain.NodeID]*Node, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		id := domain.NodeID(nc.ID)
		if _, exists := nodes[id]; exists {
			return nil, fmt.Errorf("duplicate node id %q", nc.ID)
		}

		node, err := compileNode(nc)
		if err != nil {
			return nil, err
		}
		nodes[id] = node
	}

	entry := domain.NodeID(cfg.Entry)
	if _, ok := nodes[entry]; !ok {
		return nil, fmt.Errorf("entry node %q is not defined", cfg.Entry)
	}

	t := &Table{name: cfg.Metadata.Name, entry: entry, nodes: nodes}

	if err := t.checkTargets(); err != nil {
		return nil, err
	}
	if err := t.checkIdentityGate(); err != nil {
		return nil, err
	}

	return t, nil
}

// compileNode validates a single node's shape and parses its prompt.
func compileNode(nc NodeConfig) (*Node, error) {
	if nc.Terminal {
		if nc.Handler != "" {
			return nil, fmt.Errorf("node %q: terminal nodes cannot bind a handler", nc.ID)
		}
		if nc.Outcome == "" {
			return nil, fmt.Errorf("node %q: terminal nodes require an outcome", nc.ID)
		}
		if nc.Next != "" || nc.OnSuccess != "" || nc.OnFailure != "" || nc.OnExhausted != "" || nc.OnDiscrepancy != "" {
			return nil, fmt.Errorf("node %q: terminal nodes cannot set transitions", nc.ID)
		}
	} else {
		if nc.Handler == "" {
			return nil, fmt.Errorf("node %q: non-terminal nodes require a handler", nc.ID)
		}
		if err := checkTransitionShape(nc); err != nil {
			return nil, err
		}
	}

	tmpl, err := template.New(nc.ID).Parse(nc.Prompt)
	if err != nil {
		return nil, fmt.Errorf("node %q: parse prompt template: %w", nc.ID, err)
	}

	return &Node{
		ID:            domain.NodeID(nc.ID),
		Handler:       nc.Handler,
		Next:          domain.NodeID(nc.Next),
		OnSuccess:     domain.NodeID(nc.OnSuccess),
		OnFailure:     domain.NodeID(nc.OnFailure),
		OnExhausted:   domain.NodeID(nc.OnExhausted),
		OnDiscrepancy: domain.NodeID(nc.OnDiscrepancy),
		Terminal:      nc.Terminal,
		Outcome:       domain.Outcome(nc.Outcome),
		prompt:        tmpl,
	}, nil
}

// checkTransitionShape enforces the transitions each handler kind needs.
func checkTransitionShape(nc NodeConfig) error {
	switch nc.Handler {
	case HandlerConfirmPerson, HandlerFinalConfirm:
		if nc.OnSuccess == "" || nc.OnFailure == "" {
			return fmt.Errorf("node %q: handler %s requires on_success and on_failure", nc.ID, nc.Handler)
		}
	case HandlerIdentityConfirm:
		if nc.OnSuccess == "" || nc.OnFailure == "" || nc.OnExhausted == "" {
			return fmt.Errorf("node %q: handler %s requires on_success, on_failure, and on_exhausted", nc.ID, nc.Handler)
		}
	case HandlerCollectTenure:
		if nc.Next == "" || nc.OnDiscrepancy == "" {
			return fmt.Errorf("node %q: handler %s requires next and on_discrepancy", nc.ID, nc.Handler)
		}
	default:
		if nc.Next == "" {
			return fmt.Errorf("node %q: handler %s requires next", nc.ID, nc.Handler)
		}
	}
	return nil
}

// checkTargets verifies every transition points at a defined node.
func (t *Table) checkTargets() error {
	for id, n := range t.nodes {
		for _, target := range []domain.NodeID{n.Next, n.OnSuccess, n.OnFailure, n.OnExhausted, n.OnDiscrepancy} {
			if target == "" {
				continue
			}
			if _, ok := t.nodes[target]; !ok {
				return fmt.Errorf("node %q: transition target %q is not defined", id, target)
			}
		}
	}
	return nil
}

// checkIdentityGate statically verifies the flow's central invariant:
// every node that handles post-identity data must be unreachable from the
// entry unless the walk crosses an identity confirmation success edge.
// The check walks the graph with those success edges removed and rejects
// the flow if any gated node, or any completed-outcome terminal, is still
// reachable.
func (t *Table) checkIdentityGate() error {
	seen := map[domain.NodeID]struct{}{}
	queue := []domain.NodeID{t.entry}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, done := seen[id]; done {
			continue
		}
		seen[id] = struct{}{}

		n := t.nodes[id]
		if _, gated := gatedKinds[n.Handler]; gated {
			return fmt.Errorf("node %q (%s) is reachable without identity verification", id, n.Handler)
		}
		if n.Terminal && n.Outcome == domain.OutcomeCompleted {
			return fmt.Errorf("completion node %q is reachable without identity verification", id)
		}

		targets := []domain.NodeID{n.Next, n.OnFailure, n.OnExhausted, n.OnDiscrepancy}
		// The identity confirmation success edge is the gate itself.
		if n.Handler != HandlerIdentityConfirm {
			targets = append(targets, n.OnSuccess)
		}
		for _, target := range targets {
			if target != "" {
				queue = append(queue, target)
			}
		}
	}

	return nil
}
