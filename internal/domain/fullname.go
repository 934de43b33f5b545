package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// A full name is exactly three tokens (фамилия, имя, отчество), each built
// from Cyrillic letters and hyphens only.
var (
	cyrWordRE = regexp.MustCompile(`^[А-Яа-яЁё-]+$`)
	// Title casing capitalizes every hyphen-separated segment and lowercases
	// the rest, which is the rendering the exports expect.
	nameCaser = cases.Title(language.Russian)
)

// ParseFullName validates and canonicalizes a voter's full name.
// "иванов-петров иван иванович" becomes "Иванов-Петров Иван Иванович".
// Returns "", false for anything that is not three Cyrillic tokens.
func ParseFullName(raw string) (string, bool) {
	parts := strings.Fields(strings.TrimSpace(raw))
	if len(parts) != 3 {
		return "", false
	}
	for i, p := range parts {
		if !cyrWordRE.MatchString(p) {
			return "", false
		}
		parts[i] = nameCaser.String(p)
	}
	return strings.Join(parts, " "), true
}
