// Package speech contains pure formatters that turn validated values into
// speech-friendly strings for prompt rendering. Formatting never fails
// upward: when a value cannot be formatted, the original input is returned
// unchanged so the prompt still reads sensibly.
package speech

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/veridial/veridial/internal/domain"
)

const dobLayout = "2006-01-02"

// printer groups thousands the American English way ("6,500").
var printer = message.NewPrinter(language.AmericanEnglish)

// SpeakDate renders a YYYY-MM-DD date as "March 15th, 1985".
// Unparseable input is returned unchanged.
func SpeakDate(value string) string {
	d, err := time.Parse(dobLayout, value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%s %d%s, %d", d.Month(), d.Day(), ordinalSuffix(d.Day()), d.Year())
}

// SpeakDigits renders a digit string one digit at a time, hyphen-joined,
// so "7234" reads as "7-2-3-4". Non-digit characters are dropped first;
// input with no digits at all is returned unchanged.
func SpeakDigits(value string) string {
	var digits []string
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits = append(digits, string(r))
		}
	}
	if len(digits) == 0 {
		return value
	}
	return strings.Join(digits, "-")
}

// SpeakEmail spells an email address character by character with "at" and
// "dot" substitutions, so "a@b.com" reads as "a at b dot c o m".
func SpeakEmail(value string) string {
	var parts []string
	for _, r := range value {
		switch r {
		case '@':
			parts = append(parts, "at")
		case '.':
			parts = append(parts, "dot")
		default:
			parts = append(parts, string(unicode.ToLower(r)))
		}
	}
	if len(parts) == 0 {
		return value
	}
	return strings.Join(parts, " ")
}

// SpeakCurrency renders a dollar amount with thousands grouping: 6500
// becomes "$6,500" and 6500.5 becomes "$6,500.50". Cents are shown only
// when present.
func SpeakCurrency(value float64) string {
	if value == math.Trunc(value) {
		return printer.Sprintf("$%d", int64(value))
	}
	return printer.Sprintf("$%.2f", value)
}

// SpeakMonths renders a tenure in months, e.g. "30 months".
func SpeakMonths(months int) string {
	if months == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", months)
}

// SpeakAddress renders an address as a comma-joined component list,
// including the unit when present.
func SpeakAddress(addr domain.Address) string {
	parts := []string{addr.Street}
	if addr.Unit != "" {
		parts = append(parts, addr.Unit)
	}
	parts = append(parts, addr.City, addr.State, addr.ZipCode)
	return strings.Join(parts, ", ")
}

// ordinalSuffix returns the English ordinal suffix for a day of month.
func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
