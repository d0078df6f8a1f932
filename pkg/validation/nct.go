package validation

import (
	"regexp"
	"strings"
)

// NCT identifier patterns. A registry identifier is the three-letter NCT
// prefix followed by exactly eight digits.
var (
	// nctExact matches well-formed identifiers embedded in free text.
	nctExact = regexp.MustCompile(`(?i)\bNCT\d{8}\b`)

	// nctLoose matches anything NCT-shaped, including wrong digit counts.
	nctLoose = regexp.MustCompile(`(?i)\bNCT\d+\b`)

	// NCTFormat matches a field holding exactly one well-formed identifier.
	NCTFormat = regexp.MustCompile(`^NCT\d{8}$`)
)

// fieldSeparator joins raw identifier fields before extraction.
const fieldSeparator = " ; "

// ExtractNCTs parses all well-formed NCT identifiers from the given raw
// fields, uppercased, deduplicated, preserving order of first appearance.
func ExtractNCTs(fields ...string) []string {
	var present []string

	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			present = append(present, field)
		}
	}

	if len(present) == 0 {
		return nil
	}

	found := nctExact.FindAllString(strings.Join(present, fieldSeparator), -1)

	seen := make(map[string]struct{}, len(found))

	var unique []string

	for _, id := range found {
		upper := strings.ToUpper(id)
		if _, ok := seen[upper]; ok {
			continue
		}

		seen[upper] = struct{}{}
		unique = append(unique, upper)
	}

	return unique
}

// HasMalformedNCT reports whether the text contains an NCT-shaped substring
// (e.g. wrong digit count) without containing any well-formed identifier.
// Such rows signal truncation or concatenation artifacts upstream.
func HasMalformedNCT(text string) bool {
	return nctLoose.MatchString(text) && !nctExact.MatchString(text)
}
