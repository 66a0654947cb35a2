package tools

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	quantityPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kg\b`)
	phonePattern    = regexp.MustCompile(`^\d{10}$`)
)

// extractQuantity finds a kilogram quantity token ("2kg", "3 kg", "1.5kg")
// in free text. It returns the numeric quantity, the text with the token
// removed and whitespace collapsed, and whether a token was found.
func extractQuantity(text string) (float64, string, bool) {
	m := quantityPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, text, false
	}
	qty, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
	if err != nil {
		return 0, text, false
	}
	cleaned := strings.Join(strings.Fields(text[:m[0]]+" "+text[m[1]:]), " ")
	return qty, cleaned, true
}

// isPhoneNumber reports whether the term is exactly a 10-digit number, the
// shape order lookups accept as a phone search.
func isPhoneNumber(term string) bool {
	return phonePattern.MatchString(strings.TrimSpace(term))
}
