package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridial/veridial/infrastructure/extract"
	"github.com/veridial/veridial/internal/domain"
	"github.com/veridial/veridial/internal/flow"
)

func testApplicant() domain.Applicant {
	return domain.Applicant{
		Name:            "Jordan Reyes",
		DateOfBirth:     "1985-03-15",
		SSNLast4:        "7234",
		JobTenureMonths: 36,
	}
}

func newTestSession(t *testing.T, applicant domain.Applicant, config Config) *Session {
	t.Helper()
	s, err := NewSession(applicant, flow.Default(), extract.NewRuleExtractor(), nil, config)
	require.NoError(t, err)
	return s
}

// run submits each utterance in order and returns the last prompt.
func run(t *testing.T, s *Session, utterances ...string) string {
	t.Helper()
	var prompt string
	var err error
	for _, u := range utterances {
		prompt, err = s.Submit(context.Background(), u)
		require.NoError(t, err, "utterance %q", u)
	}
	return prompt
}

func TestNewSession(t *testing.T) {
	tests := []struct {
		name    string
		setup   func() (*Session, error)
		wantErr error
	}{
		{
			name: "nil table",
			setup: func() (*Session, error) {
				return NewSession(testApplicant(), nil, extract.NewRuleExtractor(), nil, DefaultConfig())
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "nil extractor",
			setup: func() (*Session, error) {
				return NewSession(testApplicant(), flow.Default(), nil, nil, DefaultConfig())
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "invalid config",
			setup: func() (*Session, error) {
				return NewSession(testApplicant(), flow.Default(), extract.NewRuleExtractor(), nil,
					Config{MaxIdentityAttempts: 0, JobTenureThresholdMonths: 24})
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "incomplete applicant",
			setup: func() (*Session, error) {
				return NewSession(domain.Applicant{Name: "Jordan Reyes"}, flow.Default(),
					extract.NewRuleExtractor(), nil, DefaultConfig())
			},
			wantErr: domain.ErrInvalidApplicant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.setup()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("valid", func(t *testing.T) {
		s := newTestSession(t, testApplicant(), DefaultConfig())
		assert.Equal(t, flow.NodeGreeting, s.CurrentNode())
		assert.False(t, s.Done())
		assert.Equal(t, domain.OutcomeInProgress, s.Outcome())
	})
}

func TestSession_RenderPromptIdempotent(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	first, err := s.RenderPrompt()
	require.NoError(t, err)
	second, err := s.RenderPrompt()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Jordan Reyes")
}

func TestSession_SuccessfulVerification(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	prompt := run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"Yes, that's correct",
		"123 Main Street, Denver, Colorado, 80202",
		"No unit",
		"a@b.com",
		"$6500",
		"30 months",
	)
	// Stated tenure 30 versus 36 on file is within the threshold, so the
	// session goes straight to the final confirmation.
	assert.Equal(t, flow.NodeFinalConfirm, s.CurrentNode())
	assert.Contains(t, prompt, "123 Main Street, Denver, Colorado, 80202")
	assert.Contains(t, prompt, "$6,500")

	// An ambiguous reply reissues the confirmation.
	reprompt := run(t, s, "explained")
	assert.Equal(t, flow.NodeFinalConfirm, s.CurrentNode())
	assert.Equal(t, prompt, reprompt)

	final := run(t, s, "Yes, correct")
	assert.Equal(t, flow.NodeCompleted, s.CurrentNode())
	assert.True(t, s.Done())
	assert.Equal(t, domain.OutcomeCompleted, s.Outcome())
	assert.Contains(t, final, "all set")

	assert.True(t, s.IdentityVerified())
	collected := s.Collected()
	require.NotNil(t, collected.JobTenure)
	assert.Equal(t, 30, *collected.JobTenure)
	assert.Equal(t, "1985-03-15", collected.DOB)
	assert.Equal(t, "7234", collected.SSNLast4)
	require.NotNil(t, collected.Email)
	assert.Equal(t, "a@b.com", *collected.Email)
	assert.InDelta(t, 6500.0, collected.MonthlyIncome, 0.001)
}

func TestSession_IdentityFailure(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s,
		"Yes, that's me.",
		"January 1st, 1990",
		"1234",
		"Yes, that's correct",
	)
	// First confirmed mismatch: one attempt recorded, identity fields
	// cleared for the retry.
	assert.Equal(t, flow.NodeIdentityRetry, s.CurrentNode())
	assert.Equal(t, 1, s.Attempts(domain.AttemptIdentity))
	assert.Empty(t, s.Collected().DOB)
	assert.Empty(t, s.Collected().SSNLast4)

	run(t, s,
		"January 1st, 1990",
		"1234",
		"Yes, that's correct",
	)
	assert.Equal(t, flow.NodeIdentityFailed, s.CurrentNode())
	assert.True(t, s.Done())
	assert.Equal(t, domain.OutcomeIdentityFailed, s.Outcome())
	assert.False(t, s.IdentityVerified())
	assert.Equal(t, 2, s.Attempts(domain.AttemptIdentity))
}

func TestSession_IdentityDenialDoesNotCountAttempt(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"No, that's wrong",
	)
	// The caller corrected a mishearing; that is not a failed attempt.
	assert.Equal(t, flow.NodeIdentityRetry, s.CurrentNode())
	assert.Equal(t, 0, s.Attempts(domain.AttemptIdentity))

	run(t, s,
		"March 15th, 1985",
		"7234",
		"Yes",
	)
	assert.True(t, s.IdentityVerified())
	assert.Equal(t, flow.NodeCollectAddress, s.CurrentNode())
}

func TestSession_TenureDiscrepancy(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	prompt := run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"Yes",
		"123 Main Street, Denver, Colorado, 80202",
		"No unit",
		"no email thanks",
		"$6500",
		"8 months",
	)
	// |8 - 36| = 28 exceeds the 24 month threshold.
	assert.Equal(t, flow.NodeTenureDiscrepancy, s.CurrentNode())
	assert.Contains(t, prompt, "36 months")
	assert.Contains(t, prompt, "8 months")

	// Any explanation is accepted, and the clarification is never asked
	// twice even if the caller later restarts the contact section.
	run(t, s, "I switched payroll companies last year")
	assert.Equal(t, flow.NodeFinalConfirm, s.CurrentNode())

	run(t, s, "Yes, all correct")
	assert.Equal(t, domain.OutcomeCompleted, s.Outcome())
}

func TestSession_DiscrepancyAskedAtMostOnce(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"Yes",
		"123 Main Street, Denver, Colorado, 80202",
		"No unit",
		"a@b.com",
		"$6500",
		"8 months",
		"it's complicated",
	)
	assert.Equal(t, flow.NodeFinalConfirm, s.CurrentNode())

	// Rejecting the read-back restarts the contact section; collecting
	// the same discrepant tenure again must not re-trigger the prompt.
	run(t, s,
		"No, the address is wrong",
		"500 Oak Avenue, Austin, Texas, 73301",
		"Suite 12",
		"a@b.com",
		"$6500",
		"8 months",
	)
	assert.Equal(t, flow.NodeFinalConfirm, s.CurrentNode())

	run(t, s, "Yes")
	assert.Equal(t, domain.OutcomeCompleted, s.Outcome())
}

func TestSession_SelfEmployedSkipsDiscrepancy(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"Yes",
		"123 Main Street, Denver, Colorado, 80202",
		"No unit",
		"a@b.com",
		"$6500",
		"I'm self-employed, about 8 months",
	)
	assert.Equal(t, flow.NodeFinalConfirm, s.CurrentNode())
	assert.Equal(t, "self-employed", s.Collected().EmploymentStatus)
}

func TestSession_WrongPerson(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s, "No, you have the wrong number")
	assert.Equal(t, flow.NodeWrongPerson, s.CurrentNode())
	assert.True(t, s.Done())
	assert.Equal(t, domain.OutcomeWrongPerson, s.Outcome())
}

func TestSession_RepromptsOnInvalidInput(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s, "Yes, that's me.")
	assert.Equal(t, flow.NodeCollectDOB, s.CurrentNode())

	// Unparseable, underage, and future dates all reprompt.
	for _, u := range []string{"sometime in spring", "March 15th, 2020", "March 15th, 2999"} {
		run(t, s, u)
		assert.Equal(t, flow.NodeCollectDOB, s.CurrentNode(), "utterance %q", u)
	}

	run(t, s, "March 15th, 1985")
	assert.Equal(t, flow.NodeCollectSSN, s.CurrentNode())

	// Repeated-digit placeholders reprompt too.
	run(t, s, "0000")
	assert.Equal(t, flow.NodeCollectSSN, s.CurrentNode())
}

func TestSession_EmailDeclined(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	prompt := run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"Yes",
		"123 Main Street, Denver, Colorado, 80202",
		"No unit",
		"I don't have email",
	)
	assert.Equal(t, flow.NodeCollectIncome, s.CurrentNode())
	assert.Nil(t, s.Collected().Email)
	assert.Contains(t, prompt, "income")
}

func TestSession_UnitRecordedOnAddress(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"Yes",
		"123 Main Street, Denver, Colorado, 80202",
		"Apartment 4B",
	)
	collected := s.Collected()
	require.NotNil(t, collected.Address)
	assert.NotEmpty(t, collected.Address.Unit)
}

func TestSession_SubmitAfterTerminal(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	final := run(t, s, "No, wrong person")
	require.True(t, s.Done())

	again, err := s.Submit(context.Background(), "hello?")
	require.NoError(t, err)
	assert.Equal(t, final, again)
	assert.Equal(t, flow.NodeWrongPerson, s.CurrentNode())
}

func TestSession_CollectedIsACopy(t *testing.T) {
	s := newTestSession(t, testApplicant(), DefaultConfig())

	run(t, s,
		"Yes, that's me.",
		"March 15th, 1985",
		"7234",
		"Yes",
		"123 Main Street, Denver, Colorado, 80202",
	)
	snapshot := s.Collected()
	require.NotNil(t, snapshot.Address)
	snapshot.Address.City = "Mutated"

	assert.Equal(t, "Denver", s.Collected().Address.City)
}
