package domain

// NodeID identifies a single step in a conversation flow table.
type NodeID string

// Outcome describes how a session ended, or that it has not ended yet.
type Outcome string

const (
	// OutcomeInProgress means the session has not reached a terminal node.
	OutcomeInProgress Outcome = "in_progress"

	// OutcomeCompleted means the caller passed the identity gate and
	// confirmed all collected data.
	OutcomeCompleted Outcome = "completed"

	// OutcomeIdentityFailed means the caller exhausted the configured
	// identity attempts without matching the applicant record.
	OutcomeIdentityFailed Outcome = "identity_failed"

	// OutcomeWrongPerson means the caller denied being the applicant at
	// the greeting. There is no retry from this state.
	OutcomeWrongPerson Outcome = "wrong_person"
)

// AttemptIdentity is the counter name for failed identity confirmations,
// the only attempt-limited step in the flow.
const AttemptIdentity = "identity"

// ConversationState is the per-call mutable state owned by exactly one
// controller instance. Its lifetime is one call; nothing is persisted.
//
// CurrentNode must always be a key present in the flow table the session
// was built with; the controller treats a miss as a fatal configuration
// error rather than recovering silently.
type ConversationState struct {
	// CurrentNode is the identifier of the node whose prompt the caller
	// is currently answering.
	CurrentNode NodeID

	// Attempts maps a counter name to the number of failures recorded
	// for it. Counters only ever increase within a session.
	Attempts map[string]int

	// Collected holds the validated values gathered so far.
	Collected CollectedData

	// IdentityVerified is false until a confirmed DOB+SSN pair matches
	// the applicant record exactly. Once true it is never reset within
	// the session.
	IdentityVerified bool

	// DiscrepancyShown records that the tenure discrepancy clarification
	// has been solicited, so it is never asked twice.
	DiscrepancyShown bool
}

// NewConversationState returns the state for a fresh call positioned at
// the flow's entry node.
func NewConversationState(entry NodeID) ConversationState {
	return ConversationState{
		CurrentNode: entry,
		Attempts:    make(map[string]int),
	}
}

// IncrementAttempts bumps the named counter and returns its new value.
func (s *ConversationState) IncrementAttempts(name string) int {
	s.Attempts[name]++
	return s.Attempts[name]
}
