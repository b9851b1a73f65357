package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isNameStart(r rune) bool {
	return r == ':' || r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == 0xB7 ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// IsValidName reports whether s is a well-formed, namespace-aware XML element
// name: a local name optionally qualified by a single prefix.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	if strings.Count(s, ":") > 1 || strings.HasPrefix(s, ":") || strings.HasSuffix(s, ":") {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if i == 0 || s[i-1] == ':' {
			if !isNameStart(r) {
				return false
			}
			continue
		}
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

// SplitName splits a qualified name into prefix and local part
func SplitName(qname string) (prefix, local string) {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}
