package validate

// ValidateIdentity is the identity gate: the caller-stated date of birth
// and SSN last four must both equal the on-file values by exact string
// comparison. There is no partial credit; changing either value alone
// flips the result to false.
func ValidateIdentity(onFileDOB, onFileSSN, statedDOB, statedSSN string) bool {
	return statedDOB == onFileDOB && statedSSN == onFileSSN
}
