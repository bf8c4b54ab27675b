// Package phone provides phone number normalization helpers.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country prefix.
// Professionals register with Brazilian bar numbers, so BR is the default.
const DefaultRegion = "BR"

// NormalizeE164 parses a raw phone number and returns it in E.164 format.
// Returns the trimmed input unchanged when parsing fails, so callers can
// still store what the user typed.
func NormalizeE164(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return trimmed
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}
