package flow

import "github.com/veridial/veridial/internal/domain"

// Node ids of the built-in verification flow.
const (
	NodeGreeting          domain.NodeID = "greeting"
	NodeCollectDOB        domain.NodeID = "collect_dob"
	NodeCollectSSN        domain.NodeID = "collect_ssn"
	NodeIdentityConfirm   domain.NodeID = "identity_confirm"
	NodeIdentityRetry     domain.NodeID = "identity_retry"
	NodeCollectAddress    domain.NodeID = "collect_address"
	NodeCollectUnit       domain.NodeID = "collect_unit"
	NodeCollectEmail      domain.NodeID = "collect_email"
	NodeCollectIncome     domain.NodeID = "collect_income"
	NodeCollectTenure     domain.NodeID = "collect_tenure"
	NodeTenureDiscrepancy domain.NodeID = "tenure_discrepancy"
	NodeFinalConfirm      domain.NodeID = "final_confirm"
	NodeCompleted         domain.NodeID = "completed"
	NodeIdentityFailed    domain.NodeID = "identity_failed"
	NodeWrongPerson       domain.NodeID = "wrong_person"
)

// DefaultConfig returns the built-in verification flow: greeting and
// identity section, contact and financial collection, tenure discrepancy
// clarification, and final confirmation, with the three terminal nodes.
func DefaultConfig() Config {
	return Config{
		Version: "1.0.0",
		Metadata: Metadata{
			Name:        "applicant-verification",
			Description: "Identity and financial verification call flow for loan applicants.",
		},
		Entry: string(NodeGreeting),
		Nodes: []NodeConfig{
			{
				ID:        string(NodeGreeting),
				Handler:   HandlerConfirmPerson,
				Prompt:    "Hello! This is a verification call regarding your recent application. Am I speaking with {{.Name}}?",
				OnSuccess: string(NodeCollectDOB),
				OnFailure: string(NodeWrongPerson),
			},
			{
				ID:      string(NodeCollectDOB),
				Handler: HandlerCollectDOB,
				Prompt:  "Thank you. To verify your identity, could you please tell me your date of birth?",
				Next:    string(NodeCollectSSN),
			},
			{
				ID:      string(NodeCollectSSN),
				Handler: HandlerCollectSSN,
				Prompt:  "Great. And what are the last four digits of your Social Security number?",
				Next:    string(NodeIdentityConfirm),
			},
			{
				ID:          string(NodeIdentityConfirm),
				Handler:     HandlerIdentityConfirm,
				Prompt:      "I have your date of birth as {{.DOB}} and the last four of your Social as {{.SSN}}. Is that correct?",
				OnSuccess:   string(NodeCollectAddress),
				OnFailure:   string(NodeIdentityRetry),
				OnExhausted: string(NodeIdentityFailed),
			},
			{
				ID:      string(NodeIdentityRetry),
				Handler: HandlerCollectDOB,
				Prompt:  "I'm sorry, that information doesn't match our records. Let's try once more. What is your date of birth?",
				Next:    string(NodeCollectSSN),
			},
			{
				ID:      string(NodeCollectAddress),
				Handler: HandlerCollectAddress,
				Prompt:  "Perfect, your identity is verified. Now I need to confirm your contact information. What is your current street address, including city, state, and ZIP code?",
				Next:    string(NodeCollectUnit),
			},
			{
				ID:      string(NodeCollectUnit),
				Handler: HandlerCollectUnit,
				Prompt:  "Is there an apartment or unit number I should include?",
				Next:    string(NodeCollectEmail),
			},
			{
				ID:      string(NodeCollectEmail),
				Handler: HandlerCollectEmail,
				Prompt:  "What is the best email address to reach you at?",
				Next:    string(NodeCollectIncome),
			},
			{
				ID:      string(NodeCollectIncome),
				Handler: HandlerCollectIncome,
				Prompt:  "Thank you. What is your gross monthly income, before taxes?",
				Next:    string(NodeCollectTenure),
			},
			{
				ID:            string(NodeCollectTenure),
				Handler:       HandlerCollectTenure,
				Prompt:        "And how long have you been with your current employer?",
				Next:          string(NodeFinalConfirm),
				OnDiscrepancy: string(NodeTenureDiscrepancy),
			},
			{
				ID:      string(NodeTenureDiscrepancy),
				Handler: HandlerDiscrepancy,
				Prompt:  "I see. Our records show about {{.ApplicationTenure}} at your current job, but you mentioned {{.Tenure}}. Could you help me understand the difference?",
				Next:    string(NodeFinalConfirm),
			},
			{
				ID:        string(NodeFinalConfirm),
				Handler:   HandlerFinalConfirm,
				Prompt:    "Let me make sure I have everything right. Your address is {{.Address}}, your email is {{.Email}}, your monthly income is {{.Income}}, and you've been at your current job for {{.Tenure}}. Is all of that correct?",
				OnSuccess: string(NodeCompleted),
				OnFailure: string(NodeCollectAddress),
			},
			{
				ID:       string(NodeCompleted),
				Prompt:   "You're all set. Thank you for verifying your information, and have a great day!",
				Terminal: true,
				Outcome:  string(domain.OutcomeCompleted),
			},
			{
				ID:       string(NodeIdentityFailed),
				Prompt:   "I'm sorry, but I'm unable to verify your identity today. Please contact our support team for assistance. Goodbye.",
				Terminal: true,
				Outcome:  string(domain.OutcomeIdentityFailed),
			},
			{
				ID:       string(NodeWrongPerson),
				Prompt:   "My apologies for the confusion. I'll make a note on the account. Have a good day.",
				Terminal: true,
				Outcome:  string(domain.OutcomeWrongPerson),
			},
		},
	}
}

// Default compiles and returns the built-in verification flow.
// It panics on compilation failure, which would mean the built-in
// definition itself is broken.
func Default() *Table {
	table, err := Compile(DefaultConfig())
	if err != nil {
		panic("flow: built-in default flow failed to compile: " + err.Error())
	}
	return table
}
