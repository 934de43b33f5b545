package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var nonDigitRE = regexp.MustCompile(`\D+`)

// NormalizePhone brings any raw input to Russian E.164 form "+7XXXXXXXXXX".
// Accepts spaces, parentheses, dashes, a leading 8, or the bare 10 national
// digits. Returns "" when the input cannot be a Russian number.
func NormalizePhone(raw string) string {
	digits := nonDigitRE.ReplaceAllString(raw, "")

	switch {
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '8'):
		// keep the last 10 as the national number
		digits = "7" + digits[1:]
	case len(digits) == 10:
		digits = "7" + digits
	default:
		return ""
	}
	return "+" + digits
}

// PhoneForAPI strips a "+7XXXXXXXXXX" value to the bare 10 national digits
// the lottery contract requires. Returns "" for anything else.
func PhoneForAPI(e164 string) string {
	rest, ok := strings.CutPrefix(e164, "+7")
	if !ok || len(rest) != 10 {
		return ""
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return rest
}

// PhoneHash is the non-reversible privacy copy stored next to the number.
func PhoneHash(e164 string) string {
	sum := sha256.Sum256([]byte(e164))
	return hex.EncodeToString(sum[:])
}
