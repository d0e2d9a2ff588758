// Package domain contains pure, dependency-free domain models for the
// call verification flow.
package domain

// Applicant is the on-file ground truth a session verifies a caller
// against. It is supplied once at session construction and never mutated
// by the controller.
type Applicant struct {
	// Name is the applicant's full name as it appears on the application.
	Name string `yaml:"name" json:"name"`

	// DateOfBirth is the on-file date of birth in YYYY-MM-DD form.
	DateOfBirth string `yaml:"date_of_birth" json:"date_of_birth"`

	// SSNLast4 is the last four digits of the applicant's SSN.
	SSNLast4 string `yaml:"ssn_last_four" json:"ssn_last_four"`

	// JobTenureMonths is the job tenure stated on the application,
	// in months. Compared against the caller-stated tenure during the
	// discrepancy check.
	JobTenureMonths int `yaml:"job_tenure_months" json:"job_tenure_months"`
}
