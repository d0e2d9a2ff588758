package domain

// Address is a mailing address collected from the caller.
// Unit is optional; all other components are required for a valid address.
type Address struct {
	Street  string `yaml:"street" json:"street" validate:"required,min=1"`
	Unit    string `yaml:"unit,omitempty" json:"unit,omitempty"`
	City    string `yaml:"city" json:"city" validate:"required,min=1"`
	State   string `yaml:"state" json:"state" validate:"required,min=1"`
	ZipCode string `yaml:"zip_code" json:"zip_code" validate:"required"`
}

// CollectedData holds the values gathered during one call. Fields are set
// only after passing their validator; identity fields may additionally be
// cleared when an identity retry restarts the identity section.
type CollectedData struct {
	// DOB is the caller-stated date of birth in YYYY-MM-DD form.
	DOB string

	// SSNLast4 is the caller-stated last four SSN digits.
	SSNLast4 string

	// Address is the caller's mailing address.
	Address *Address

	// Email is the caller's email address. Nil when the caller declined
	// to provide one.
	Email *string

	// MonthlyIncome is the caller-stated gross monthly income in dollars.
	MonthlyIncome float64

	// JobTenure is the caller-stated job tenure in months. Nil until the
	// tenure step has completed.
	JobTenure *int

	// EmploymentStatus is an optional free-form status such as
	// "self-employed", extracted opportunistically from the tenure reply.
	EmploymentStatus string
}

// Clone returns an independent copy so observers cannot mutate session
// state through shared pointers.
func (c CollectedData) Clone() CollectedData {
	out := c
	if c.Address != nil {
		addr := *c.Address
		out.Address = &addr
	}
	if c.Email != nil {
		email := *c.Email
		out.Email = &email
	}
	if c.JobTenure != nil {
		tenure := *c.JobTenure
		out.JobTenure = &tenure
	}
	return out
}

// ResetIdentity clears the identity fields ahead of an identity retry.
// Non-identity fields are untouched; none have been collected at that
// point in the flow anyway.
func (c *CollectedData) ResetIdentity() {
	c.DOB = ""
	c.SSNLast4 = ""
}
