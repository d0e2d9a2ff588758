// Package flow defines the declarative conversation flow table: a static
// map from node id to prompt template, handler kind, and transition
// targets. The table is configuration data, not logic; the controller in
// internal/verify interprets it. Tables are loadable from YAML so a flow
// can be substituted without touching the controller.
package flow

import (
	"github.com/go-playground/validator/v10"
)

// HandlerKind is the closed set of handler behaviors a node may bind.
// Kinds are resolved to typed handler functions when a session is built,
// so a flow naming an unknown kind is rejected at load time rather than
// at first use.
type HandlerKind string

const (
	// HandlerConfirmPerson asks whether the caller is the applicant.
	HandlerConfirmPerson HandlerKind = "confirm_person"

	// HandlerCollectDOB collects the caller's date of birth.
	HandlerCollectDOB HandlerKind = "collect_dob"

	// HandlerCollectSSN collects the last four SSN digits.
	HandlerCollectSSN HandlerKind = "collect_ssn"

	// HandlerIdentityConfirm confirms the collected identity pair and
	// checks it against the applicant record.
	HandlerIdentityConfirm HandlerKind = "identity_confirm"

	// HandlerCollectAddress collects the mailing address.
	HandlerCollectAddress HandlerKind = "collect_address"

	// HandlerCollectUnit collects an optional apartment or unit number.
	HandlerCollectUnit HandlerKind = "collect_unit"

	// HandlerCollectEmail collects an optional email address.
	HandlerCollectEmail HandlerKind = "collect_email"

	// HandlerCollectIncome collects the gross monthly income.
	HandlerCollectIncome HandlerKind = "collect_income"

	// HandlerCollectTenure collects the job tenure and routes to the
	// discrepancy clarification when warranted.
	HandlerCollectTenure HandlerKind = "collect_tenure"

	// HandlerDiscrepancy solicits a tenure discrepancy explanation.
	// Any reply is accepted; the check never blocks completion.
	HandlerDiscrepancy HandlerKind = "tenure_discrepancy"

	// HandlerFinalConfirm runs the final three-way confirmation.
	HandlerFinalConfirm HandlerKind = "final_confirm"
)

// Config is the YAML-facing description of a flow table.
type Config struct {
	// Version is the configuration schema version.
	Version string `yaml:"version" validate:"required"`

	// Metadata describes the flow for operators and logs.
	Metadata Metadata `yaml:"metadata" validate:"required"`

	// Entry is the node id the session starts at.
	Entry string `yaml:"entry" validate:"required"`

	// Nodes lists every step of the conversation.
	Nodes []NodeConfig `yaml:"nodes" validate:"required,min=2,dive"`
}

// Metadata carries descriptive information about a flow.
type Metadata struct {
	// Name is the human-readable identifier for this flow.
	Name string `yaml:"name" validate:"required,min=1,max=255"`

	// Description explains the flow's purpose.
	Description string `yaml:"description" validate:"max=1000"`
}

// NodeConfig describes a single node. Exactly one of the
// two shapes is valid: a terminal node (terminal true, an outcome, no
// handler or transitions) or an interactive node (a handler plus the
// transitions that handler kind requires).
type NodeConfig struct {
	// ID is the unique node identifier within the flow.
	ID string `yaml:"id" validate:"required,min=1,max=100"`

	// Handler names the behavior bound to this node. Empty only for
	// terminal nodes.
	Handler HandlerKind `yaml:"handler,omitempty" validate:"omitempty,oneof=confirm_person collect_dob collect_ssn identity_confirm collect_address collect_unit collect_email collect_income collect_tenure tenure_discrepancy final_confirm"`

	// Prompt is a Go text/template rendered against the derived context
	// before every turn.
	Prompt string `yaml:"prompt" validate:"required,min=1"`

	// Next is the unconditional transition target for linear nodes.
	Next string `yaml:"next,omitempty"`

	// OnSuccess and OnFailure are the branch targets for confirmation
	// style nodes.
	OnSuccess string `yaml:"on_success,omitempty"`
	OnFailure string `yaml:"on_failure,omitempty"`

	// OnExhausted is where identity confirmation routes once the
	// configured attempt maximum is reached.
	OnExhausted string `yaml:"on_exhausted,omitempty"`

	// OnDiscrepancy is where tenure collection routes when the stated
	// tenure deviates from the application beyond the threshold.
	OnDiscrepancy string `yaml:"on_discrepancy,omitempty"`

	// Terminal marks a node that ends the session.
	Terminal bool `yaml:"terminal,omitempty"`

	// Outcome is the session outcome a terminal node produces.
	Outcome string `yaml:"outcome,omitempty" validate:"omitempty,oneof=completed identity_failed wrong_person"`
}

// Package-level validator for flow configuration structs.
var validate = validator.New()
