// Package validate contains the pure field validators for caller-supplied
// data. Each predicate is stateless, side-effect free, and returns false
// for malformed input instead of failing.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/veridial/veridial/internal/domain"
)

// Bounds for the numeric validators. Income is monthly gross in dollars;
// tenure is in months.
const (
	MinAdultAge      = 18
	MaxMonthlyIncome = 100000.0
	MaxTenureMonths  = 600
)

const dobLayout = "2006-01-02"

var (
	dobPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// ValidateDOB reports whether value is a real YYYY-MM-DD calendar date,
// not in the future, belonging to someone at least 18 years old at
// evaluation time.
func ValidateDOB(value string) bool {
	if !dobPattern.MatchString(value) {
		return false
	}
	dob, err := time.Parse(dobLayout, value)
	if err != nil {
		return false
	}
	now := time.Now().UTC()
	if dob.After(now) {
		return false
	}
	return !dob.AddDate(MinAdultAge, 0, 0).After(now)
}

// ValidateSSNLast4 reports whether value contains exactly four digits
// after stripping separators, excluding the four-identical-digit strings
// ("0000" through "9999") that the upstream system uses as placeholders.
func ValidateSSNLast4(value string) bool {
	digits := nonDigit.ReplaceAllString(value, "")
	if len(digits) != 4 {
		return false
	}
	return digits != strings.Repeat(digits[:1], 4)
}

// ValidateEmail reports whether value has the simple local@domain.tld
// shape: no whitespace, exactly one "@" with content before it, and a "."
// in the domain part.
func ValidateEmail(value string) bool {
	if strings.Count(value, "@") != 1 {
		return false
	}
	return emailPattern.MatchString(value)
}

// ValidateIncome reports whether the stated monthly income is positive
// and within the accepted ceiling.
func ValidateIncome(value float64) bool {
	return value > 0 && value <= MaxMonthlyIncome
}

// ValidateTenure reports whether the stated job tenure in months is
// non-negative and within the accepted ceiling.
func ValidateTenure(value int) bool {
	return value >= 0 && value <= MaxTenureMonths
}

// ValidateAddress reports whether the address has non-empty street, city,
// and state components and a 5-digit or 5+4-digit ZIP code.
func ValidateAddress(addr domain.Address) bool {
	if strings.TrimSpace(addr.Street) == "" ||
		strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.State) == "" {
		return false
	}
	return zipPattern.MatchString(strings.TrimSpace(addr.ZipCode))
}
