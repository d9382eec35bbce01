package contact

import (
	"strings"

	"herald/internal/channel"
)

// minDigits is the shortest digit string parsers accept as a phone number.
const minDigits = 10

// Normalize canonicalizes raw phone text into a channel id. Non-digits are
// stripped; a bare 10-digit national number gets the country code
// prepended; anything else is used as-is. Validity filtering happens in
// the parsers, not here.
func Normalize(raw, countryCode string) string {
	cleaned := digitsOnly(raw)
	if len(cleaned) == 10 {
		cleaned = countryCode + cleaned
	}
	return cleaned + channel.DirectSuffix
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
