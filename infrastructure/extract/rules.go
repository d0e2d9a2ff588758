package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/veridial/veridial/internal/affirm"
	"github.com/veridial/veridial/internal/ports"
)

// RuleExtractor is the deterministic entity extractor. It recognizes the
// handful of shapes callers actually use for each field with regular
// expressions and date-layout parsing. It serves two roles: the offline
// "mock mode" extractor for simulation and tests, and the degradation
// path the LLM extractor falls back to when the model is unreachable or
// returns garbage.
type RuleExtractor struct{}

var _ ports.EntityExtractor = (*RuleExtractor)(nil)

// NewRuleExtractor creates a RuleExtractor.
func NewRuleExtractor() *RuleExtractor { return &RuleExtractor{} }

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	namedDatePattern = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\s*,?\s*(\d{4})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

	fourDigitPattern = regexp.MustCompile(`\b(\d{4})\b`)
	nonDigitPattern  = regexp.MustCompile(`\D`)

	emailAddrPattern = regexp.MustCompile(`[^@\s]+@[^@\s]+\.[^@\s]+`)
	amountPattern    = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?`)

	yearsPattern  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:years?|yrs?)\b`)
	monthsPattern = regexp.MustCompile(`(?i)\b(\d+)\s*(?:months?|mos?)\b`)
	bareIntOnly   = regexp.MustCompile(`^\s*(?:about|around|roughly)?\s*(\d+)\s*$`)

	unitPattern    = regexp.MustCompile(`(?i)\b(?:apt|apartment|unit|suite|ste|#)\.?\s*#?\s*([A-Za-z]?\d[A-Za-z0-9-]*)`)
	zipCodePattern = regexp.MustCompile(`\b(\d{5}(?:-\d{4})?)\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// ExtractEntities runs the rule for each requested schema field and
// returns whatever was recognized. Fields with no recognizable value are
// simply absent from the result; the caller reprompts.
func (r *RuleExtractor) ExtractEntities(_ context.Context, text string, schema ports.FieldSchema) map[string]string {
	found := make(map[string]string)
	for field := range schema {
		switch field {
		case ports.FieldDOB:
			if v, ok := extractDate(text); ok {
				found[field] = v
			}
		case ports.FieldSSNLast4:
			if v, ok := extractFourDigits(text); ok {
				found[field] = v
			}
		case ports.FieldEmail:
			if v := emailAddrPattern.FindString(text); v != "" {
				found[field] = v
			}
		case ports.FieldMonthlyIncome:
			if v, ok := extractAmount(text); ok {
				found[field] = v
			}
		case ports.FieldTenureMonths:
			if v, ok := extractTenureMonths(text); ok {
				found[field] = v
			}
		case ports.FieldEmploymentStatus:
			if v, ok := extractEmploymentStatus(text); ok {
				found[field] = v
			}
		case ports.FieldUnit:
			if m := unitPattern.FindStringSubmatch(text); m != nil {
				found[field] = strings.TrimSpace(m[0])
			}
		case ports.FieldStreet, ports.FieldCity, ports.FieldState, ports.FieldZipCode:
			// Address components come from one combined pass so the
			// comma structure only has to be interpreted once.
			if _, done := found[ports.FieldStreet]; !done {
				for k, v := range extractAddress(text) {
					if _, wanted := schema[k]; wanted {
						found[k] = v
					}
				}
			}
		}
	}
	return found
}

// Confirm classifies a yes/no reply by keyword.
func (r *RuleExtractor) Confirm(_ context.Context, text string) bool {
	return affirm.IsAffirmative(text)
}

// extractDate recognizes ISO, "March 15th, 1985", and "3/15/1985" forms
// and normalizes to YYYY-MM-DD.
func extractDate(text string) (string, bool) {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		return m[0], true
	}

	if m := namedDatePattern.FindStringSubmatch(text); m != nil {
		month := monthsByName[strings.ToLower(strings.TrimSuffix(m[1], "."))]
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if validCalendarDate(year, month, day) {
			return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), true
		}
	}

	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && validCalendarDate(year, time.Month(month), day) {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
	}

	return "", false
}

func validCalendarDate(year int, month time.Month, day int) bool {
	if month == 0 || day < 1 {
		return false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && d.Month() == month && d.Day() == day
}

// extractFourDigits finds the SSN last four: either the text contains
// exactly four digits in total, or exactly one standalone four-digit
// group.
func extractFourDigits(text string) (string, bool) {
	digits := nonDigitPattern.ReplaceAllString(text, "")
	if len(digits) == 4 {
		return digits, true
	}

	groups := fourDigitPattern.FindAllStringSubmatch(text, -1)
	if len(groups) == 1 {
		return groups[0][1], true
	}
	return "", false
}

// extractAmount finds a dollar amount and strips currency formatting.
func extractAmount(text string) (string, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ReplaceAll(m[1], ",", "") + m[2], true
}

// extractTenureMonths converts stated tenure to whole months, summing
// year and month components ("2 years and 3 months" -> 27). A bare
// number is read as months.
func extractTenureMonths(text string) (string, bool) {
	months := 0
	matched := false

	if m := yearsPattern.FindStringSubmatch(text); m != nil {
		years, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			months += int(years * 12)
			matched = true
		}
	}
	if m := monthsPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			months += n
			matched = true
		}
	}
	if !matched {
		if m := bareIntOnly.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				months = n
				matched = true
			}
		}
	}

	if !matched {
		return "", false
	}
	return strconv.Itoa(months), true
}

func extractEmploymentStatus(text string) (string, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "self-employed"),
		strings.Contains(lower, "self employed"),
		strings.Contains(lower, "my own business"),
		strings.Contains(lower, "freelanc"):
		return "self-employed", true
	case strings.Contains(lower, "unemployed"):
		return "unemployed", true
	case strings.Contains(lower, "retired"):
		return "retired", true
	}
	return "", false
}

// extractAddress interprets a comma-separated address utterance such as
// "123 Main Street, Apt 4B, Denver, Colorado, 80202". It returns only
// the components it could place; the caller's validator decides whether
// that is enough.
func extractAddress(text string) map[string]string {
	out := make(map[string]string)

	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return out
	}

	out[ports.FieldStreet] = parts[0]
	rest := parts[1:]

	if unitPattern.MatchString(rest[0]) && len(rest) >= 3 {
		out[ports.FieldUnit] = rest[0]
		rest = rest[1:]
	}

	// The ZIP is wherever the five-digit group landed; peel it off the
	// tail so city and state are what remains.
	last := rest[len(rest)-1]
	if zip := zipCodePattern.FindString(last); zip != "" {
		out[ports.FieldZipCode] = zip
		last = strings.TrimSpace(strings.Replace(last, zip, "", 1))
		if last == "" {
			rest = rest[:len(rest)-1]
		} else {
			rest[len(rest)-1] = last
		}
	}

	if len(rest) >= 2 {
		out[ports.FieldCity] = rest[0]
		out[ports.FieldState] = strings.Join(rest[1:], " ")
	}

	return out
}
