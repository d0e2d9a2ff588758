package verify

import (
	"context"
	"strconv"
	"strings"

	"github.com/veridial/veridial/internal/affirm"
	"github.com/veridial/veridial/internal/domain"
	"github.com/veridial/veridial/internal/flow"
	"github.com/veridial/veridial/internal/ports"
	"github.com/veridial/veridial/internal/validate"
)

// Extraction schemas per field. The descriptions are what the LLM
// extractor shows the model; the rule extractor keys off the field names.
var (
	dobSchema = ports.FieldSchema{
		ports.FieldDOB: "date of birth in YYYY-MM-DD format",
	}
	ssnSchema = ports.FieldSchema{
		ports.FieldSSNLast4: "last four digits of the Social Security number",
	}
	addressSchema = ports.FieldSchema{
		ports.FieldStreet:  "street address including house number",
		ports.FieldUnit:    "apartment or unit number, if stated",
		ports.FieldCity:    "city name",
		ports.FieldState:   "state name or two-letter abbreviation",
		ports.FieldZipCode: "5-digit or ZIP+4 postal code",
	}
	unitSchema = ports.FieldSchema{
		ports.FieldUnit: "apartment, suite, or unit number",
	}
	emailSchema = ports.FieldSchema{
		ports.FieldEmail: "email address",
	}
	incomeSchema = ports.FieldSchema{
		ports.FieldMonthlyIncome: "gross monthly income in dollars, digits only",
	}
	tenureSchema = ports.FieldSchema{
		ports.FieldTenureMonths:     "job tenure converted to whole months",
		ports.FieldEmploymentStatus: "employment status such as self-employed, if stated",
	}
)

// buildHandlers binds every handler kind to its implementation. The map
// is the closed dispatch table; resolveHandlers checks the flow against
// it at construction.
func (s *Session) buildHandlers() map[flow.HandlerKind]handlerFunc {
	return map[flow.HandlerKind]handlerFunc{
		flow.HandlerConfirmPerson:   s.handleConfirmPerson,
		flow.HandlerCollectDOB:      s.handleCollectDOB,
		flow.HandlerCollectSSN:      s.handleCollectSSN,
		flow.HandlerIdentityConfirm: s.handleIdentityConfirm,
		flow.HandlerCollectAddress:  s.handleCollectAddress,
		flow.HandlerCollectUnit:     s.handleCollectUnit,
		flow.HandlerCollectEmail:    s.handleCollectEmail,
		flow.HandlerCollectIncome:   s.handleCollectIncome,
		flow.HandlerCollectTenure:   s.handleCollectTenure,
		flow.HandlerDiscrepancy:     s.handleDiscrepancy,
		flow.HandlerFinalConfirm:    s.handleFinalConfirm,
	}
}

// handleConfirmPerson asks whether the caller is the applicant. A denial
// ends the call; there is no retry from the wrong-person terminal.
func (s *Session) handleConfirmPerson(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	if s.extractor.Confirm(ctx, utterance) {
		return node.OnSuccess, nil
	}
	return node.OnFailure, nil
}

func (s *Session) handleCollectDOB(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	found := s.extractor.ExtractEntities(ctx, utterance, dobSchema)
	dob, ok := found[ports.FieldDOB]
	if !ok || !validate.ValidateDOB(dob) {
		return node.ID, nil
	}
	s.state.Collected.DOB = dob
	return node.Next, nil
}

func (s *Session) handleCollectSSN(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	found := s.extractor.ExtractEntities(ctx, utterance, ssnSchema)
	ssn, ok := found[ports.FieldSSNLast4]
	if !ok || !validate.ValidateSSNLast4(ssn) {
		return node.ID, nil
	}
	// Store digits only so the identity comparison is exact.
	s.state.Collected.SSNLast4 = stripNonDigits(ssn)
	return node.Next, nil
}

// handleIdentityConfirm is the identity gate. When the caller confirms
// the read-back pair, both fields must match the applicant record
// exactly. A confirmed mismatch counts against the attempt limit; a
// denial does not, since the caller is correcting a mishearing rather
// than failing verification. Either way the identity fields are cleared
// before the retry so stale values cannot be re-confirmed.
func (s *Session) handleIdentityConfirm(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	if !s.extractor.Confirm(ctx, utterance) {
		s.state.Collected.ResetIdentity()
		return node.OnFailure, nil
	}

	if validate.ValidateIdentity(
		s.applicant.DateOfBirth, s.applicant.SSNLast4,
		s.state.Collected.DOB, s.state.Collected.SSNLast4,
	) {
		s.state.IdentityVerified = true
		return node.OnSuccess, nil
	}

	if s.state.IncrementAttempts(domain.AttemptIdentity) >= s.config.MaxIdentityAttempts {
		return node.OnExhausted, nil
	}
	s.state.Collected.ResetIdentity()
	return node.OnFailure, nil
}

func (s *Session) handleCollectAddress(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	found := s.extractor.ExtractEntities(ctx, utterance, addressSchema)
	addr := domain.Address{
		Street:  found[ports.FieldStreet],
		Unit:    found[ports.FieldUnit],
		City:    found[ports.FieldCity],
		State:   found[ports.FieldState],
		ZipCode: found[ports.FieldZipCode],
	}
	if !validate.ValidateAddress(addr) {
		return node.ID, nil
	}
	s.state.Collected.Address = &addr
	return node.Next, nil
}

// handleCollectUnit records an optional unit number. A negative reply
// moves on without one; an utterance naming a unit sets it on the
// collected address.
func (s *Session) handleCollectUnit(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	found := s.extractor.ExtractEntities(ctx, utterance, unitSchema)
	if unit, ok := found[ports.FieldUnit]; ok && strings.TrimSpace(unit) != "" {
		if s.state.Collected.Address != nil {
			s.state.Collected.Address.Unit = strings.TrimSpace(unit)
		}
		return node.Next, nil
	}
	if affirm.Classify(utterance) == affirm.Negative {
		return node.Next, nil
	}
	return node.ID, nil
}

// handleCollectEmail records an optional email address. A negative reply
// records that none was provided.
func (s *Session) handleCollectEmail(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	found := s.extractor.ExtractEntities(ctx, utterance, emailSchema)
	if email, ok := found[ports.FieldEmail]; ok && validate.ValidateEmail(email) {
		s.state.Collected.Email = &email
		return node.Next, nil
	}
	if affirm.Classify(utterance) == affirm.Negative {
		s.state.Collected.Email = nil
		return node.Next, nil
	}
	return node.ID, nil
}

func (s *Session) handleCollectIncome(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	found := s.extractor.ExtractEntities(ctx, utterance, incomeSchema)
	raw, ok := found[ports.FieldMonthlyIncome]
	if !ok {
		return node.ID, nil
	}
	income, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !validate.ValidateIncome(income) {
		return node.ID, nil
	}
	s.state.Collected.MonthlyIncome = income
	return node.Next, nil
}

// handleCollectTenure records the stated tenure and routes through the
// discrepancy clarification at most once. Self-employed callers skip the
// check entirely; their tenure is not comparable to a payroll record.
func (s *Session) handleCollectTenure(ctx context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	found := s.extractor.ExtractEntities(ctx, utterance, tenureSchema)
	raw, ok := found[ports.FieldTenureMonths]
	if !ok {
		return node.ID, nil
	}
	tenure, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !validate.ValidateTenure(tenure) {
		return node.ID, nil
	}
	s.state.Collected.JobTenure = &tenure
	if status, ok := found[ports.FieldEmploymentStatus]; ok {
		s.state.Collected.EmploymentStatus = status
	}

	if s.state.Collected.EmploymentStatus == "self-employed" {
		return node.Next, nil
	}

	diff := tenure - s.applicant.JobTenureMonths
	if diff < 0 {
		diff = -diff
	}
	if diff > s.config.JobTenureThresholdMonths && !s.state.DiscrepancyShown {
		s.state.DiscrepancyShown = true
		return node.OnDiscrepancy, nil
	}
	return node.Next, nil
}

// handleDiscrepancy accepts any explanation. The clarification only has
// to be solicited; its content never blocks completion.
func (s *Session) handleDiscrepancy(_ context.Context, node *flow.Node, _ string) (domain.NodeID, error) {
	return node.Next, nil
}

// handleFinalConfirm classifies the read-back reply three ways by
// keyword. Agreement completes the call, disagreement restarts the
// contact information section from the address, and anything else
// reissues the confirmation.
func (s *Session) handleFinalConfirm(_ context.Context, node *flow.Node, utterance string) (domain.NodeID, error) {
	switch affirm.Classify(utterance) {
	case affirm.Affirmative:
		return node.OnSuccess, nil
	case affirm.Negative:
		return node.OnFailure, nil
	default:
		return node.ID, nil
	}
}

func stripNonDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
