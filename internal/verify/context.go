package verify

import (
	"github.com/veridial/veridial/internal/domain"
	"github.com/veridial/veridial/internal/speech"
)

// deriveContext builds the render context for prompt templates from the
// applicant record and the data collected so far. The context is a pure
// derivation: it is recomputed before every render and is never a source
// of truth. Fields not collected yet render as empty strings, which the
// built-in flow only references after they are collected.
func deriveContext(applicant domain.Applicant, collected domain.CollectedData) map[string]string {
	ctx := map[string]string{
		"Name":              applicant.Name,
		"ApplicationTenure": speech.SpeakMonths(applicant.JobTenureMonths),
		"DOB":               "",
		"SSN":               "",
		"Address":           "",
		"Email":             "not provided",
		"Income":            "",
		"Tenure":            "",
	}

	if collected.DOB != "" {
		ctx["DOB"] = speech.SpeakDate(collected.DOB)
	}
	if collected.SSNLast4 != "" {
		ctx["SSN"] = speech.SpeakDigits(collected.SSNLast4)
	}
	if collected.Address != nil {
		ctx["Address"] = speech.SpeakAddress(*collected.Address)
	}
	if collected.Email != nil {
		ctx["Email"] = speech.SpeakEmail(*collected.Email)
	}
	if collected.MonthlyIncome > 0 {
		ctx["Income"] = speech.SpeakCurrency(collected.MonthlyIncome)
	}
	if collected.JobTenure != nil {
		ctx["Tenure"] = speech.SpeakMonths(*collected.JobTenure)
	}

	return ctx
}
