package scanner

import (
	"strings"
	"unicode"
)

const errorWord = "error"

// Classification is the outcome of classifying one line. An empty Severity
// means the line matched no level keyword; an empty Key means no error
// message could be extracted.
type Classification struct {
	Severity Severity
	Key      string
}

// Classify maps a raw line to its severity using case-insensitive keyword
// matching with error > warning > info priority. Error lines also yield the
// message that follows the first "error".
func Classify(line string) Classification {
	return classifyLower(line, strings.ToLower(line))
}

func classifyLower(line, lower string) Classification {
	switch {
	case strings.Contains(lower, errorWord):
		return Classification{Severity: SeverityError, Key: extractKey(line)}
	case strings.Contains(lower, "warn"):
		return Classification{Severity: SeverityWarning}
	case strings.Contains(lower, "info"):
		return Classification{Severity: SeverityInfo}
	default:
		return Classification{}
	}
}

// extractKey returns the text after the first case-insensitive "error" in
// line, with leading separators and surrounding whitespace removed.
func extractKey(line string) string {
	idx := indexFoldASCII(line, errorWord)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeftFunc(line[idx+len(errorWord):], func(r rune) bool {
		return r == ':' || r == '-' || unicode.IsSpace(r)
	})
	return strings.TrimSpace(rest)
}

// indexFoldASCII finds the first ASCII case-insensitive match of the
// lowercase ASCII needle. No non-ASCII rune lowercases to the letters of
// "error", so the offset is the same one strings.ToLower would expose.
func indexFoldASCII(s, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(s); i++ {
		match := true
		for j := 0; j < n; j++ {
			c := s[i+j]
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// FoldKey is the identity under which two error keys count as the same message.
func FoldKey(key string) string {
	return strings.ToLower(key)
}
