package upload

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// base64Charset only checks the alphabet; padding placement and length are
// checked by DecodeBase64.
var base64Charset = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

var errBase64Length = errors.New("base64 data has invalid length")

// CleanBase64 removes every whitespace and line terminator character, the
// byte-order mark included.
func CleanBase64(s string) string {
	return strings.Map(func(r rune) rune {
		if isJSSpace(r) {
			return -1
		}
		return r
	}, s)
}

// isJSSpace matches the \s class of JavaScript regular expressions. It is
// unicode.IsSpace plus U+FEFF, minus U+0085.
func isJSSpace(r rune) bool {
	switch r {
	case '\ufeff':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}

// ValidBase64Charset reports whether s is non-empty and uses only the
// standard base64 alphabet and '='.
func ValidBase64Charset(s string) bool {
	return base64Charset.MatchString(s)
}

// DecodeBase64 decodes standard base64 with optional padding, matching the
// forgiving decoder browsers use for atob: up to two trailing '=' are
// dropped when the length is a multiple of four, any other '=' is an error,
// and a remainder of one character is an error.
func DecodeBase64(s string) ([]byte, error) {
	if len(s)%4 == 0 {
		s = strings.TrimSuffix(s, "=")
		s = strings.TrimSuffix(s, "=")
	}
	if len(s)%4 == 1 {
		return nil, errBase64Length
	}
	if i := strings.IndexByte(s, '='); i >= 0 {
		return nil, base64.CorruptInputError(i)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
