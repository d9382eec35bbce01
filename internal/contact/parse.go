package contact

import (
	"fmt"
	"strings"
)

// The three import parsers share one post-condition: an ordered Record
// slice, with every malformed line/entry skipped and no error surfaced
// for individual entries. Content that matches nothing yields an empty
// slice, not an error.

// ParsePlain reads newline-delimited text, one phone number per line.
// Surviving entries are named "Contact N" by accepted position.
func ParsePlain(content, countryCode string) []Record {
	var out []Record
	for _, line := range splitLines(content) {
		number := digitsOnly(line)
		if len(number) < minDigits {
			continue
		}
		out = append(out, Record{
			Name:      fmt.Sprintf("Contact %d", len(out)+1),
			Number:    number,
			ChannelID: Normalize(number, countryCode),
		})
	}
	return out
}

// ParseDelimited reads comma-delimited "name,number" rows. An optional
// header row is detected by a case-insensitive "name" token in the first
// line. Surrounding quotes are stripped per field. A single-field row is
// treated as a bare number.
func ParseDelimited(content, countryCode string) []Record {
	lines := splitLines(content)
	if len(lines) > 0 && strings.Contains(strings.ToLower(lines[0]), "name") {
		lines = lines[1:]
	}

	var out []Record
	for _, line := range lines {
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = stripQuotes(strings.TrimSpace(parts[i]))
		}

		var name, number string
		switch {
		case len(parts) >= 2:
			name = parts[0]
			number = digitsOnly(parts[1])
		case len(parts) == 1:
			number = digitsOnly(parts[0])
		}
		if len(number) < minDigits {
			continue
		}
		if name == "" {
			name = fmt.Sprintf("Contact %d", len(out)+1)
		}
		out = append(out, Record{
			Name:      name,
			Number:    number,
			ChannelID: Normalize(number, countryCode),
		})
	}
	return out
}

// ParseCards reads one or more concatenated vCard records. A card may
// carry several TEL fields; each valid one becomes its own Record, with
// the card's name disambiguated as "Name (1)", "Name (2)" when more than
// one number survives.
func ParseCards(content, countryCode string) []Record {
	var out []Record
	for _, card := range splitCards(content) {
		name := cardName(card)
		numbers := cardNumbers(card)

		for i, number := range numbers {
			n := name
			if n == "" {
				n = "Unknown"
			}
			if len(numbers) > 1 {
				n = fmt.Sprintf("%s (%d)", n, i+1)
			}
			out = append(out, Record{
				Name:      n,
				Number:    number,
				ChannelID: Normalize(number, countryCode),
			})
		}
	}
	return out
}

const cardBegin = "BEGIN:VCARD"

// splitCards cuts content at each BEGIN:VCARD marker (case-insensitive),
// keeping the marker with its card.
func splitCards(content string) []string {
	upper := strings.ToUpper(content)
	var starts []int
	for i := 0; ; {
		j := strings.Index(upper[i:], cardBegin)
		if j < 0 {
			break
		}
		starts = append(starts, i+j)
		i += j + len(cardBegin)
	}

	cards := make([]string, 0, len(starts))
	for k, s := range starts {
		e := len(content)
		if k+1 < len(starts) {
			e = starts[k+1]
		}
		if card := strings.TrimSpace(content[s:e]); card != "" {
			cards = append(cards, card)
		}
	}
	return cards
}

// cardName extracts a display name: the formatted-name (FN) field wins;
// otherwise the structured-name (N) field is reversed (Last;First;... ->
// "... First Last"). Empty when the card has neither.
func cardName(card string) string {
	var structured string
	for _, line := range splitLines(card) {
		upper := strings.ToUpper(line)
		switch {
		case hasFieldPrefix(upper, "FN"):
			if v := fieldValue(line); v != "" {
				return v
			}
		case hasFieldPrefix(upper, "N") && structured == "":
			structured = fieldValue(line)
		}
	}
	if structured == "" {
		return ""
	}
	parts := strings.Split(structured, ";")
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, " ")
}

// cardNumbers extracts every TEL field, digit-filtered, dropping short ones.
func cardNumbers(card string) []string {
	var numbers []string
	for _, line := range splitLines(card) {
		if !hasFieldPrefix(strings.ToUpper(line), "TEL") {
			continue
		}
		number := digitsOnly(fieldValue(line))
		if len(number) >= minDigits {
			numbers = append(numbers, number)
		}
	}
	return numbers
}

// hasFieldPrefix reports whether an (uppercased) vCard line starts with
// the property name followed by ':' or ';' (so "N" doesn't match "NOTE").
func hasFieldPrefix(upperLine, prop string) bool {
	if !strings.HasPrefix(upperLine, prop) {
		return false
	}
	if len(upperLine) == len(prop) {
		return false
	}
	c := upperLine[len(prop)]
	return c == ':' || c == ';'
}

// fieldValue returns the text after the first ':' (vCard parameters
// between property name and colon are dropped).
func fieldValue(line string) string {
	if i := strings.IndexByte(line, ':'); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

func splitLines(content string) []string {
	raw := strings.FieldsFunc(content, func(r rune) bool { return r == '\n' || r == '\r' })
	out := raw[:0]
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func stripQuotes(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = s[1 : len(s)-1]
			continue
		}
		break
	}
	return strings.TrimSpace(s)
}
