// Package extract implements the text heuristics that pull structured
// payer fields out of free-text bank statement descriptions.
//
// Extraction rules are data, not control flow: payer-name extraction is
// an ordered table of (keyword, pattern) rules tried in priority order,
// each anchored on a transfer-type keyword.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// payerRule anchors a name capture on a transaction-type keyword. The
// capture runs up to an optional trailing tax-id marker.
type payerRule struct {
	keyword string
	pattern *regexp.Regexp
}

var payerRules = []payerRule{
	{"TED", regexp.MustCompile(`TED\s+(.+?)(?:\s+CPF|$)`)},
	{"DOC", regexp.MustCompile(`DOC\s+(.+?)(?:\s+CPF|$)`)},
	{"PIX", regexp.MustCompile(`PIX\s+(.+?)(?:\s+CPF|$)`)},
	{"DEPOSITO", regexp.MustCompile(`DEPOSITO\s+(.+?)(?:\s+CPF|$)`)},
	{"TRANSFERENCIA", regexp.MustCompile(`TRANSFERENCIA\s+(.+?)(?:\s+CPF|$)`)},
}

// trailingNoise strips digits and punctuation left at the end of a
// captured name (document numbers, dashes, stray separators).
var trailingNoise = regexp.MustCompile(`[\d\-\.\s]+$`)

var nonDigits = regexp.MustCompile(`\D`)

// minPayerNameLen discards captures too short to be a real name.
const minPayerNameLen = 4

// PayerName extracts the payer name from a statement description.
// Rules are tried in order; the first rule producing a usable name wins.
// Returns "" when no rule matches.
func PayerName(description string) string {
	if description == "" {
		return ""
	}

	upper := strings.ToUpper(description)

	for _, rule := range payerRules {
		m := rule.pattern.FindStringSubmatch(upper)
		if m == nil {
			continue
		}

		name := strings.TrimSpace(m[1])
		name = strings.TrimSpace(trailingNoise.ReplaceAllString(name, ""))

		if len(name) >= minPayerNameLen {
			return name
		}
	}

	return ""
}

// TaxID extracts an individual or entity tax id from a description.
// All non-digit characters are stripped first: an 11-digit remainder is
// formatted as an individual id (XXX.XXX.XXX-XX), a 14-digit remainder
// as an entity id (XX.XXX.XXX/XXXX-XX). Any other length yields "".
func TaxID(description string) string {
	if description == "" {
		return ""
	}

	digits := nonDigits.ReplaceAllString(description, "")

	switch len(digits) {
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s", digits[:3], digits[3:6], digits[6:9], digits[9:])
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s", digits[:2], digits[2:5], digits[5:8], digits[8:12], digits[12:])
	}

	return ""
}
