package lifecycle

import (
	"strings"
	"unicode"
)

// maxSuffixAttempts bounds the search for a collision-free identifier.
const maxSuffixAttempts = 100

// Pluralize applies simple English pluralization to the last word.
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "s"),
		strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		return s + "es"
	case strings.HasSuffix(lower, "y") && len(s) > 1 && !isVowel(rune(lower[len(lower)-2])):
		return s[:len(s)-1] + "ies"
	default:
		return s + "s"
	}
}

// PluralizeAPIKey pluralizes the last underscore-separated segment.
func PluralizeAPIKey(key string) string {
	idx := strings.LastIndex(key, "_")
	if idx < 0 {
		return Pluralize(key)
	}
	return key[:idx+1] + Pluralize(key[idx+1:])
}

// letterSuffix produces the n-th lettered suffix: a, b, ... z, aa, ab, ...
// Generated api_keys disallow digits, hence letters.
func letterSuffix(n int) string {
	var sb strings.Builder
	for {
		sb.WriteByte(byte('a' + n%26))
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	// Digits accumulate in reverse.
	raw := sb.String()
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		out[i] = raw[len(raw)-1-i]
	}
	return string(out)
}

// sanitizeAPIKey lowercases and squeezes the value into api_key shape.
func sanitizeAPIKey(s string) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
			lastUnderscore = false
		case unicode.IsDigit(r) && !lastUnderscore:
			sb.WriteRune(r)
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(sb.String(), "_")
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
